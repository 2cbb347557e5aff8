/*
NAME
  line.go

DESCRIPTION
  line.go implements LineReader, the newline-framed line reader shared by
  the engine stub and the host session. It is grounded on the
  reload-on-demand scanning style of codec/codecutil.ByteScanner, adapted
  from a generic delimiter scanner into a line reader with the
  speechswitch protocol's specific truncation, blank-line-retry and
  UTF-8 sanitization behaviour.

LICENSE
  MIT
*/

package wire

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength is the largest payload a protocol line may carry.
// Bytes beyond this are silently discarded until the next newline.
const MaxLineLength = 4094

// ErrLineTooLong is returned by callers that want to distinguish
// truncation from other conditions; LineReader itself never returns it,
// since truncation is silent per the wire protocol, but it documents the
// behaviour for tests.
var ErrLineTooLong = errors.New("wire: line exceeds maximum length")

// LineReader reads newline-terminated, UTF-8-or-ANSI-sanitized lines
// from an underlying stream, skipping blank lines automatically.
type LineReader struct {
	br  *bufio.Reader
	enc Encoding
	raw []byte
}

// NewLineReader returns a LineReader over r using the given encoding.
func NewLineReader(r io.Reader, enc Encoding) *LineReader {
	return &LineReader{
		br:  bufio.NewReader(r),
		enc: enc,
		raw: make([]byte, 0, MaxLineLength),
	}
}

// SetEncoding changes the encoding used to sanitize subsequent lines.
func (lr *LineReader) SetEncoding(enc Encoding) { lr.enc = enc }

// readRaw reads up to but not including the next newline, truncating the
// stored payload at MaxLineLength bytes while still consuming (and
// discarding) everything up to the newline. Returns io.EOF (or the
// underlying error) if the stream ends before a newline is seen, even if
// some bytes were already read -- a partial, unterminated line is not a
// line.
func (lr *LineReader) readRaw() ([]byte, error) {
	lr.raw = lr.raw[:0]
	for {
		b, err := lr.br.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '\n' {
			return lr.raw, nil
		}
		if b == '\r' {
			// Treated as a control character; dropped like any other.
			continue
		}
		if len(lr.raw) < MaxLineLength {
			lr.raw = append(lr.raw, b)
		}
	}
}

// ReadLine returns the next sanitized, non-empty line, or ok=false once
// the stream is exhausted. A line that becomes empty after validation is
// skipped transparently; the caller never observes it. The returned
// slice aliases the reader's internal scratch buffer and is only valid
// until the next call to ReadLine.
func (lr *LineReader) ReadLine() (line []byte, ok bool) {
	for {
		raw, err := lr.readRaw()
		if err != nil {
			return nil, false
		}
		clean := SanitizeLine(raw, lr.enc)
		if len(clean) == 0 {
			continue
		}
		return clean, true
	}
}
