/*
NAME
  server.go

DESCRIPTION
  server.go implements Server, the engine-side half of the speechswitch
  stdio protocol. It reads command lines from an input stream, dispatches
  them against a backend.Backend, and writes responses to an output
  stream, mirroring the command dispatch table of the original C
  engine's executeCommand/readLine loop, generalized from a single
  hard-coded synthesizer to any backend.Backend implementation.

LICENSE
  MIT
*/

package enginesrv

import (
	"fmt"
	"io"
	"strings"

	"github.com/ausocean/speechswitch/backend"
	"github.com/ausocean/speechswitch/protocol"
	"github.com/ausocean/speechswitch/wire"
)

// state is the server's position in the per-session protocol state
// machine: Ready accepts any command; Synthesizing is entered for the
// duration of a speak call's frame loop; Terminal is entered once quit,
// exit, or a protocol violation ends the session.
type state int

const (
	stateReady state = iota
	stateSynthesizing
	stateTerminal
)

// Logger is the minimal structured-logging surface the server needs,
// matching the subset of github.com/ausocean/utils/logging.Logger that
// server code calls.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}

// Server drives one engine session over an arbitrary pair of streams:
// in production these are the process's own stdin/stdout, since the
// engine stub is invoked as a subprocess by the host session.
type Server struct {
	be  backend.Backend
	in  *wire.LineReader
	tr  *wire.TextReader
	out io.Writer
	buf *wire.Arena
	log Logger

	st  state
	enc wire.Encoding
	hex *wire.Arena
}

// New returns a Server dispatching commands against be, reading lines
// from r and writing responses to w. If log is nil, log output is
// discarded.
func New(be backend.Backend, r io.Reader, w io.Writer, log Logger) *Server {
	if log == nil {
		log = nopLogger{}
	}
	lr := wire.NewLineReader(r, wire.UTF8)
	return &Server{
		be:  be,
		in:  lr,
		tr:  wire.NewTextReader(lr),
		out: w,
		buf: wire.NewArena(256),
		hex: wire.NewArena(512),
		log: log,
		st:  stateReady,
		enc: wire.UTF8,
	}
}

// Run processes commands until the session ends: quit/exit is received,
// the input stream is exhausted, or a protocol violation occurs. It
// never returns an error for an orderly end of session.
func (s *Server) Run() error {
	s.log.Info("engine session starting", "backend", s.be.Name())
	if enc, ok := wire.ParseEncoding(s.be.Encoding()); ok {
		s.enc = enc
		s.in.SetEncoding(enc)
	}
	for s.st != stateTerminal {
		line, ok := s.in.ReadLine()
		if !ok {
			s.log.Debug("input stream closed")
			return nil
		}
		if err := s.dispatch(string(line)); err != nil {
			s.log.Error("protocol violation", "error", err.Error())
			return err
		}
	}
	return nil
}

// dispatch parses one command line. get/set are two-word commands
// ("get samplerate", "set voice <id>"); the remaining verbs take no
// further argument besides what their handler reads directly off the
// wire (speak's text block).
func (s *Server) dispatch(line string) error {
	verb, rest := protocol.FirstWord([]byte(line))
	if verb == "" {
		return nil
	}

	switch strings.ToLower(verb) {
	case protocol.CmdGet:
		return s.dispatchGet(rest)
	case protocol.CmdSet:
		return s.dispatchSet(rest)
	case protocol.CmdSpeak:
		return s.execSpeak()
	case protocol.CmdHelp:
		s.writeLine(helpText)
	case protocol.CmdQuit, protocol.CmdExit:
		s.st = stateTerminal
	default:
		s.writeLine(protocol.RespUnrecognized)
	}
	return nil
}

func (s *Server) dispatchGet(rest []byte) error {
	key, _ := protocol.FirstWord(rest)
	switch strings.ToLower(key) {
	case protocol.KeySampleRate:
		s.writeLine(fmt.Sprintf("%d", s.be.SampleRate()))
	case protocol.KeyVoices:
		s.writeList(s.be.Voices())
	case protocol.KeyVariants:
		s.writeList(s.be.Variants())
	case protocol.KeyEncoding:
		s.writeLine(s.be.Encoding())
	case protocol.KeyVersion:
		// The wire version is the shared protocol constant, not the
		// backend's own identifying string: host and engine compare this
		// to detect a protocol mismatch, independent of which backend is
		// running.
		s.writeLine(fmt.Sprintf("%d", protocol.Version))
	default:
		s.writeLine(protocol.RespUnrecognized)
	}
	return nil
}

// writeList writes a count line followed by one line per item, the
// framing "get voices"/"get variants" share: a bare "0" line for an
// empty list, with no items lines following it.
func (s *Server) writeList(items []string) {
	s.writeLine(fmt.Sprintf("%d", len(items)))
	for _, it := range items {
		s.writeLine(it)
	}
}

func (s *Server) dispatchSet(rest []byte) error {
	key, arg := protocol.FirstWord(rest)
	switch strings.ToLower(key) {
	case protocol.KeyVoice:
		// set voice consumes the entire remainder of the line, since
		// voice IDs may embed spaces; every other setter takes a single
		// whitespace-delimited token.
		return s.execSet(backend.Config{Voice: strings.TrimLeft(string(arg), " \t")})
	case protocol.KeyVariant:
		return s.execSetToken(arg, func(v string) backend.Config { return backend.Config{Variant: v} })
	case protocol.KeyPitch:
		return s.execSetFloat(arg, func(v float32) backend.Config { return backend.Config{Pitch: v} })
	case protocol.KeySpeed:
		return s.execSetFloat(arg, func(v float32) backend.Config { return backend.Config{Speed: v} })
	case protocol.KeyPunctuation:
		return s.execSetPunctuation(arg)
	case protocol.KeySSML:
		return s.execSetSSML(arg)
	default:
		s.writeLine(protocol.RespUnrecognized)
	}
	return nil
}

// execSet applies cfg and answers true/false: there is no separate
// error vocabulary on the wire, only the setter's boolean result.
func (s *Server) execSet(cfg backend.Config) error {
	if err := s.be.Set(cfg); err != nil {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	s.writeLine(protocol.RespTrue)
	return nil
}

func (s *Server) execSetToken(rest []byte, mk func(string) backend.Config) error {
	token, _ := protocol.FirstWord(rest)
	if token == "" {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	return s.execSet(mk(token))
}

func (s *Server) execSetFloat(rest []byte, mk func(float32) backend.Config) error {
	token, _ := protocol.FirstWord(rest)
	if token == "" {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	v, err := protocol.ParseFloat(token)
	if err != nil {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	return s.execSet(mk(v))
}

func (s *Server) execSetPunctuation(rest []byte) error {
	token, _ := protocol.FirstWord(rest)
	p, err := protocol.ParsePunctuation(strings.ToLower(token))
	if err != nil {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	return s.execSet(backend.Config{Punctuation: p})
}

func (s *Server) execSetSSML(rest []byte) error {
	token, _ := protocol.FirstWord(rest)
	v, err := protocol.ParseBool(strings.ToLower(token))
	if err != nil {
		s.writeLine(protocol.RespFalse)
		return nil
	}
	return s.execSet(backend.Config{SSML: v})
}

// execSpeak reads the dot-terminated text block that follows a "speak"
// command, writes true/false for acceptance, then streams hex-encoded
// audio frames, checking the client's ack after each one. A "cancel"
// ack stops synthesis at the next frame boundary and is not an error;
// any other ack besides "true" is a transport-level protocol violation
// and ends the session, matching the original engine's treatment of a
// malformed ack as unrecoverable. A text block that overflows is a
// local refusal (false); one that never terminates is a protocol
// violation, since the stream itself is now out of sync.
func (s *Server) execSpeak() error {
	text, err := s.tr.ReadText()
	if err != nil {
		if err == wire.ErrTextOverflow {
			s.writeLine(protocol.RespFalse)
			return nil
		}
		return err
	}

	s.st = stateSynthesizing
	defer func() { s.st = stateReady }()

	s.writeLine(protocol.RespTrue)

	var synthErr error
	emit := func(f backend.Frame) bool {
		s.writeLine(string(wire.EncodeHex(f.Samples, s.hex)))
		ack, ok := s.in.ReadLine()
		if !ok {
			synthErr = fmt.Errorf("enginesrv: client closed stream mid-speak")
			return false
		}
		switch string(ack) {
		case protocol.AckContinue:
			return true
		case protocol.AckCancel:
			s.be.Cancel()
			return false
		default:
			synthErr = fmt.Errorf("enginesrv: unexpected ack %q", ack)
			return false
		}
	}

	if err := s.be.Speak(text, emit); err != nil {
		s.log.Error("backend speak failed", "error", err.Error())
	}
	if synthErr != nil {
		return synthErr
	}
	// A done line is written regardless of whether synthesis completed
	// or was cancelled; it is the only thing that ends Synthesizing.
	s.writeLine(protocol.FrameDone)
	return nil
}

func (s *Server) writeLine(line string) {
	s.buf.Reset()
	s.buf.Append([]byte(line))
	s.buf.AppendByte('\n')
	if _, err := s.out.Write(s.buf.Bytes()); err != nil {
		s.log.Error("write failed", "error", err.Error())
	}
}

const helpText = "commands: get samplerate|voices|variants|encoding|version; " +
	"set voice|variant|pitch|speed|punctuation|ssml <arg>; speak; help; quit; exit"
