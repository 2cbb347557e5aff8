package tone

import (
	"testing"

	"github.com/ausocean/speechswitch/backend"
)

func TestSpeakEmitsFrameAndFinal(t *testing.T) {
	b := New()
	var frames int
	var sawFinal bool
	err := b.Speak("hi", func(f backend.Frame) bool {
		frames++
		if len(f.Samples) == 0 {
			t.Error("expected non-empty samples")
		}
		if f.Final {
			sawFinal = true
		}
		return true
	})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	if !sawFinal {
		t.Error("expected a final frame")
	}
}

func TestSpeakCancelStopsEarly(t *testing.T) {
	b := New()
	var frames int
	err := b.Speak("hello world", func(f backend.Frame) bool {
		frames++
		return frames < 2
	})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2 (stopped after cancel)", frames)
	}
}

func TestSetRejectsUnknownVoice(t *testing.T) {
	b := New()
	err := b.Set(backend.Config{Voice: "robotic"})
	if err == nil {
		t.Fatal("expected error for unknown voice")
	}
	if b.cfg.Voice != "default" {
		t.Errorf("voice changed to %q despite rejection", b.cfg.Voice)
	}
}

func TestSetAppliesValidFields(t *testing.T) {
	b := New()
	if err := b.Set(backend.Config{Pitch: 1.5, Speed: 0.5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.cfg.Pitch != 1.5 || b.cfg.Speed != 0.5 {
		t.Errorf("cfg = %+v", b.cfg)
	}
}

func TestSampleRateAndVoices(t *testing.T) {
	b := New()
	if b.SampleRate() != 16000 {
		t.Errorf("SampleRate = %d", b.SampleRate())
	}
	if len(b.Voices()) == 0 {
		t.Error("expected at least one voice")
	}
}
