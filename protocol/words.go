/*
NAME
  words.go

DESCRIPTION
  words.go implements the whitespace word tokenizers used to split a
  command line into its verb, key and argument, and the scalar parse
  helpers (float, bool) used by the set command handlers. FirstWord is
  the direct counterpart of the original C engine's readWord/linePos:
  it peels one token off the front of a line and hands back what's
  left, so a caller can decide per-key whether the remainder is another
  token (most set arguments) or the rest of the line verbatim (set
  voice, whose IDs may embed spaces).

LICENSE
  MIT
*/

package protocol

import (
	"fmt"
	"strconv"
)

// Words splits line into whitespace-separated fields. Unlike
// strings.Fields it operates on a byte slice and returns string copies,
// since the caller's underlying buffer is reused after the line is
// consumed.
func Words(line []byte) []string {
	var words []string
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		start := i
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		if i > start {
			words = append(words, string(line[start:i]))
		}
	}
	return words
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// FirstWord splits the leading whitespace-delimited token off line and
// returns it along with everything after it, including any whitespace
// that followed the token. A caller that wants the remainder as a
// single further token should call FirstWord again; a caller that wants
// the remainder verbatim (set voice's argument) should trim its leading
// whitespace itself via strings.TrimLeft.
func FirstWord(line []byte) (word string, rest []byte) {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	start := i
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	return string(line[start:i]), line[i:]
}

// ParseFloat parses a set* command's numeric argument. Engines treat
// pitch and speed as opaque scale factors; this only validates that the
// wire value is a well-formed number.
func ParseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("protocol: invalid numeric argument %q: %w", s, err)
	}
	return float32(v), nil
}

// ParseBool parses a "true"/"false" wire token.
func ParseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("protocol: invalid boolean argument %q", s)
	}
}
