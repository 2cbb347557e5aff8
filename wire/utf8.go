/*
NAME
  utf8.go

DESCRIPTION
  utf8.go implements the UTF-8 validator used to sanitize every line
  that crosses the stdio protocol. It is a direct port of
  findLengthAndValidate from the original C engine: it classifies the
  leading rune of a byte sequence, rejecting control characters,
  over-long encodings, surrogate halves and anything beyond U+10FFFF.

LICENSE
  MIT
*/

package wire

// Encoding is the negotiated text encoding of an engine, reported by
// "get encoding" and honoured by SanitizeLine.
type Encoding int

const (
	// UTF8 is the default encoding; lines are validated and repaired
	// per ValidateRune.
	UTF8 Encoding = iota
	// ANSI disables UTF-8 validation: bytes are kept iff >= 0x20.
	ANSI
)

// String returns the wire representation of e ("UTF-8" or "ANSI").
func (e Encoding) String() string {
	if e == ANSI {
		return "ANSI"
	}
	return "UTF-8"
}

// ParseEncoding parses the wire representation of an Encoding.
func ParseEncoding(s string) (Encoding, bool) {
	switch s {
	case "UTF-8":
		return UTF8, true
	case "ANSI":
		return ANSI, true
	default:
		return 0, false
	}
}

// ValidateRune classifies the leading byte sequence of p and returns the
// number of bytes it occupies and whether the sequence is valid. The
// length is always returned, even when invalid, so a caller can skip
// past it.
//
// Rules, applied in order:
//
//  1. High bit clear: ASCII. Control characters (< 0x20) are invalid.
//  2. Otherwise, the leading 1-bits of the first byte give the expected
//     sequence length in {2,3,4}; 1 or >4 is invalid.
//  3. Continuation bytes must match 10xxxxxx; a short sequence is invalid.
//  4. The reassembled code point is rejected if it could have been
//     encoded more compactly (over-long), exceeds U+10FFFF, or falls in
//     the surrogate range U+D800-U+DFFF.
func ValidateRune(p []byte) (length int, valid bool) {
	if len(p) == 0 {
		return 0, false
	}
	c := p[0]
	if c&0x80 == 0 {
		// ASCII.
		if c < ' ' {
			return 1, false
		}
		return 1, true
	}

	// Count leading 1-bits to determine the expected sequence length.
	shifted := c << 1
	expectedLength := 1
	for shifted&0x80 != 0 {
		expectedLength++
		shifted <<= 1
	}
	valid = true
	if expectedLength > 4 || expectedLength == 1 {
		// No unicode code point needs more than 4 bytes, and a single
		// leading 1-bit can't start a multi-byte sequence.
		valid = false
	}

	bits := 7 - expectedLength
	unicodeCharacter := uint32(shifted) >> uint(expectedLength)

	if expectedLength == 1 || (expectedLength == 2 && unicodeCharacter <= 1) {
		// Could have been coded as ASCII.
		valid = false
	}

	// Consume continuation bytes regardless of the checks above, so the
	// returned length always reflects how much of p this sequence
	// occupies and the caller can skip past it correctly.
	length = 1
	for length < len(p) {
		c = p[length]
		if c&0xc0 != 0x80 {
			break
		}
		unicodeCharacter = (unicodeCharacter << 6) | uint32(c&0x3f)
		bits += 6
		length++
	}

	if length != expectedLength {
		valid = false
	}
	if unicodeCharacter > 0x10ffff || (unicodeCharacter >= 0xd800 && unicodeCharacter <= 0xdfff) {
		valid = false
	}
	// Reject over-long encodings: the character must require every bit
	// of the sequence it was encoded in.
	if bits > 5 && unicodeCharacter>>uint(bits-5) == 0 {
		valid = false
	}
	return length, valid
}

// SanitizeLine validates line in place according to enc, dropping
// invalid bytes/sequences and all control characters, and returns the
// (possibly shorter) valid prefix-compacted result backed by the same
// array.
func SanitizeLine(line []byte, enc Encoding) []byte {
	if enc == ANSI {
		q := 0
		for _, b := range line {
			if b >= ' ' {
				line[q] = b
				q++
			}
		}
		return line[:q]
	}

	q := 0
	for p := 0; p < len(line); {
		length, valid := ValidateRune(line[p:])
		if length <= 0 {
			length = 1
		}
		if valid {
			copy(line[q:q+length], line[p:p+length])
			q += length
		}
		p += length
	}
	return line[:q]
}
