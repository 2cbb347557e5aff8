package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeHexRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 4660}
	arena := NewArena(16)
	enc := EncodeHex(samples, arena)
	if string(enc) != "00000001FFFF7FFF80001234" {
		t.Fatalf("EncodeHex = %q", enc)
	}
	got, err := DecodeHex(enc)
	if err != nil {
		t.Fatalf("DecodeHex: %v", err)
	}
	if diff := cmp.Diff(samples, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHexLowercase(t *testing.T) {
	got, err := DecodeHex([]byte("abcd"))
	if err != nil {
		t.Fatalf("DecodeHex: %v", err)
	}
	want := int16(-21555) // 0xABCD as a two's-complement int16
	if got[0] != want {
		t.Errorf("got %x, want %x", got[0], want)
	}
}

func TestDecodeHexBadLength(t *testing.T) {
	if _, err := DecodeHex([]byte("abc")); err == nil {
		t.Error("expected error for non-multiple-of-4 length")
	}
}

func TestDecodeHexBadDigit(t *testing.T) {
	if _, err := DecodeHex([]byte("abzz")); err == nil {
		t.Error("expected error for invalid hex digit")
	}
}
