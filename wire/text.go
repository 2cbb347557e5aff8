/*
NAME
  text.go

DESCRIPTION
  text.go implements TextReader, which assembles the multi-line text
  block that follows a "speak" command into a single string, applying
  dot-stuffing removal and a hard overflow cap.

LICENSE
  MIT
*/

package wire

import (
	"bytes"
	"errors"
)

// MaxTextLength is the hard cap on an assembled text block. Exceeding it
// is an overflow, reported distinctly from a transport failure.
const MaxTextLength = 1 << 16

// ErrTextOverflow is returned by ReadText when the assembled block would
// exceed MaxTextLength.
var ErrTextOverflow = errors.New("wire: text block exceeds maximum length")

// ErrUnterminatedText is returned by ReadText when the underlying stream
// ends before a terminating "." line is seen. Per the speechswitch
// protocol this is a protocol violation, not an ordinary EOF: a speak
// text block always terminates cleanly or the session is broken.
var ErrUnterminatedText = errors.New("wire: text block did not terminate before end of input")

// TextReader assembles the line-oriented text blocks sent after "speak".
type TextReader struct {
	lr  *LineReader
	buf *Arena
}

// NewTextReader returns a TextReader that reads lines from lr.
func NewTextReader(lr *LineReader) *TextReader {
	return &TextReader{lr: lr, buf: NewArena(4096)}
}

// ReadText reads lines until one consisting solely of "." is seen,
// concatenating them without inserted newlines. A line beginning with
// ".." has its leading dot stripped before being appended (the
// dot-stuffing escape for a literal leading "."). It fails with
// ErrUnterminatedText on EOF and ErrTextOverflow past MaxTextLength.
func (tr *TextReader) ReadText() (string, error) {
	tr.buf.Reset()
	for {
		line, ok := tr.lr.ReadLine()
		if !ok {
			return "", ErrUnterminatedText
		}
		if len(line) == 1 && line[0] == '.' {
			return string(tr.buf.Bytes()), nil
		}
		if bytes.HasPrefix(line, []byte("..")) {
			line = line[1:]
		}
		if tr.buf.Len()+len(line) > MaxTextLength {
			return "", ErrTextOverflow
		}
		tr.buf.Append(line)
	}
}
