/*
NAME
  session.go

DESCRIPTION
  session.go implements Session, the host-side half of the speechswitch
  stdio protocol: it spawns an engine stub as a subprocess, wires its
  stdin/stdout through the line protocol, and issues commands against
  it. The subprocess lifecycle -- exec.Command, StdinPipe/StdoutPipe/
  StderrPipe, a goroutine draining stderr to the log -- is grounded on
  device/raspivid.Raspivid.Start, generalized from a fixed raspivid
  invocation to an arbitrary engine binary path.

LICENSE
  MIT
*/

package host

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"

	"github.com/ausocean/speechswitch/protocol"
	"github.com/ausocean/speechswitch/wire"
)

// Logger is the minimal structured-logging surface Session needs.
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

// SessionStats accumulates counters over a Session's lifetime, for
// diagnostics and the synthesis probe. It is purely observational and
// never consulted by protocol logic.
type SessionStats struct {
	FramesSent      uint64
	FramesCancelled uint64
	SamplesDecoded  uint64
	TextBytesSpoken uint64
	LastError       error
}

// Session manages one engine subprocess and the protocol session
// running over its stdio.
type Session struct {
	path string
	log  Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lr      *wire.LineReader
	running bool
	// failed is sticky: once a protocol violation or subprocess exit is
	// observed, every subsequent call fails fast instead of hanging on a
	// dead process.
	failed bool
	// sampleRate is fetched once at Start and cached, so Speak can label
	// delivered audio.IntBuffer frames with the engine's real rate
	// instead of an assumed constant.
	sampleRate int

	cancel atomic.Bool
	stats  SessionStats
}

// NewSession returns a Session that will launch the engine stub at
// path. If log is nil, log output is discarded.
func NewSession(path string, log Logger) *Session {
	if log == nil {
		log = nopLogger{}
	}
	return &Session{path: path, log: log}
}

// Start launches the engine subprocess, wires its stdio, and
// immediately fetches its sample rate so later Speak calls can label
// delivered frames correctly.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("host: session already running")
	}

	cmd := exec.Command(s.path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "host: stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "host: stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "host: stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "host: starting engine %s", s.path)
	}

	go s.drainStderr(stderr)

	s.cmd = cmd
	s.stdin = stdin
	s.lr = wire.NewLineReader(stdout, wire.UTF8)
	s.running = true
	s.failed = false
	s.mu.Unlock()
	s.log.Info("engine session started", "path", s.path)

	rate, err := s.GetSampleRate()
	if err != nil {
		return errors.Wrap(err, "host: fetching sample rate")
	}
	s.mu.Lock()
	s.sampleRate = rate
	s.mu.Unlock()
	return nil
}

func (s *Session) drainStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s.log.Warning("engine stderr", "line", sc.Text())
	}
}

// Stop terminates the engine subprocess: it sends "quit", closes the
// engine's stdin and waits for the process to exit. It does not kill
// the process; an engine that ignores both keeps Stop waiting.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.writeLocked(protocol.CmdQuit)
	s.stdin.Close()
	err := s.cmd.Wait()
	s.running = false
	if err != nil {
		s.log.Warning("engine exited with error", "error", err.Error())
	}
	return nil
}

// IsRunning reports whether the engine subprocess is currently active.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Cancel requests that an in-progress Speak stop at the next frame; it
// is safe to call from another goroutine while Speak is blocked.
func (s *Session) Cancel() {
	s.cancel.Store(true)
}

// Stats returns a snapshot of the session's running counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) writeLocked(line string) {
	fmt.Fprintf(s.stdin, "%s\n", line)
}

// commandLocked issues a single-line command and returns the single-line
// response. Callers must hold s.mu.
func (s *Session) commandLocked(line string) (string, error) {
	if s.failed {
		return "", errors.New("host: session failed, call Stop then Start again")
	}
	if !s.running {
		return "", errors.New("host: session not running")
	}
	s.writeLocked(line)
	resp, ok := s.lr.ReadLine()
	if !ok {
		s.failed = true
		return "", errors.New("host: engine closed stream")
	}
	return string(resp), nil
}

// command issues a single-line command and returns the single-line
// response. It is used for every non-streaming, non-boolean call.
func (s *Session) command(line string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandLocked(line)
}

// boolCommand issues a command whose response is the wire protocol's
// true/false vocabulary (every "set" command): "false" becomes an
// ordinary error, while any other response is a protocol violation
// that marks the session failed.
func (s *Session) boolCommand(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.commandLocked(line)
	if err != nil {
		return err
	}
	switch resp {
	case protocol.RespTrue:
		return nil
	case protocol.RespFalse:
		return errors.Errorf("host: engine refused %q", line)
	default:
		s.failed = true
		return errors.Errorf("host: unexpected response %q to %q", resp, line)
	}
}

// listCommand issues a command whose response is a count line followed
// by that many item lines ("get voices", "get variants").
func (s *Session) listCommand(line string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.commandLocked(line)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(resp)
	if err != nil {
		s.failed = true
		return nil, errors.Wrapf(err, "host: parsing list count for %q", line)
	}
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, ok := s.lr.ReadLine()
		if !ok {
			s.failed = true
			return nil, errors.New("host: engine closed stream mid-list")
		}
		items = append(items, string(l))
	}
	return items, nil
}

// GetSampleRate asks the engine for its fixed output sample rate.
func (s *Session) GetSampleRate() (int, error) {
	resp, err := s.command(protocol.CmdGet + " " + protocol.KeySampleRate)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp)
	if err != nil {
		return 0, errors.Wrap(err, "host: parsing sample rate")
	}
	return n, nil
}

// GetVoices asks the engine for its available voices.
func (s *Session) GetVoices() ([]string, error) {
	return s.listCommand(protocol.CmdGet + " " + protocol.KeyVoices)
}

// GetVariants asks the engine for the current voice's variants.
func (s *Session) GetVariants() ([]string, error) {
	return s.listCommand(protocol.CmdGet + " " + protocol.KeyVariants)
}

// GetEncoding asks the engine which text encoding it expects.
func (s *Session) GetEncoding() (wire.Encoding, error) {
	resp, err := s.command(protocol.CmdGet + " " + protocol.KeyEncoding)
	if err != nil {
		return 0, err
	}
	enc, ok := wire.ParseEncoding(resp)
	if !ok {
		return 0, errors.Errorf("host: unrecognised encoding %q", resp)
	}
	return enc, nil
}

// GetVersion asks the engine for its protocol version, so the host can
// detect a mismatch against protocol.Version before issuing further
// commands.
func (s *Session) GetVersion() (int, error) {
	resp, err := s.command(protocol.CmdGet + " " + protocol.KeyVersion)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(resp)
	if err != nil {
		return 0, errors.Wrap(err, "host: parsing protocol version")
	}
	return v, nil
}

// SetVoice selects the active voice. The voice ID is sent as the
// remainder of the line, since it may itself contain spaces.
func (s *Session) SetVoice(name string) error {
	return s.boolCommand(protocol.CmdSet + " " + protocol.KeyVoice + " " + name)
}

// SetVariant selects the active voice's variant.
func (s *Session) SetVariant(name string) error {
	return s.boolCommand(protocol.CmdSet + " " + protocol.KeyVariant + " " + name)
}

// SetPitch sets the engine's pitch scale factor.
func (s *Session) SetPitch(v float32) error {
	return s.boolCommand(fmt.Sprintf("%s %s %v", protocol.CmdSet, protocol.KeyPitch, v))
}

// SetSpeed sets the engine's speed scale factor.
func (s *Session) SetSpeed(v float32) error {
	return s.boolCommand(fmt.Sprintf("%s %s %v", protocol.CmdSet, protocol.KeySpeed, v))
}

// SetPunctuation sets how much punctuation the engine speaks aloud.
func (s *Session) SetPunctuation(p protocol.PunctuationLevel) error {
	return s.boolCommand(protocol.CmdSet + " " + protocol.KeyPunctuation + " " + p.String())
}

// SetSSML toggles SSML interpretation of speak text.
func (s *Session) SetSSML(v bool) error {
	return s.boolCommand(fmt.Sprintf("%s %s %v", protocol.CmdSet, protocol.KeySSML, v))
}

// Speak sends text to the engine and streams decoded PCM frames to
// onFrame until the engine reports "done" or the stream ends. Once
// onFrame returns false or Cancel is called, that frame and every later
// one is acknowledged with "cancel" instead of "true"; frames the engine
// had already produced are still delivered, and Speak returns when the
// engine's "done" line arrives. Each frame is delivered as a
// *audio.IntBuffer, matching the container type the rest of the
// capture stack already uses for PCM data.
func (s *Session) Speak(text string, onFrame func(*audio.IntBuffer) bool) error {
	s.mu.Lock()
	if s.failed {
		s.mu.Unlock()
		return errors.New("host: session failed, call Stop then Start again")
	}
	if !s.running {
		s.mu.Unlock()
		return errors.New("host: session not running")
	}
	s.cancel.Store(false)
	s.stats.TextBytesSpoken += uint64(len(text))
	s.writeLocked(protocol.CmdSpeak)
	writeTextBlock(s.stdin, text)

	accept, ok := s.lr.ReadLine()
	if !ok {
		s.failed = true
		s.stats.LastError = errors.New("host: engine closed stream before acceptance")
		s.mu.Unlock()
		return s.stats.LastError
	}
	switch string(accept) {
	case protocol.RespTrue:
		// proceed
	case protocol.RespFalse:
		err := errors.New("host: engine refused speak text")
		s.stats.LastError = err
		s.mu.Unlock()
		return err
	default:
		s.failed = true
		err := errors.Errorf("host: unexpected speak acceptance %q", accept)
		s.stats.LastError = err
		s.mu.Unlock()
		return err
	}

	rate := s.sampleRate
	if rate == 0 {
		rate = 16000
	}
	format := &audio.Format{NumChannels: 1, SampleRate: rate}
	cancelled := false
	for {
		line, ok := s.lr.ReadLine()
		if !ok {
			s.failed = true
			s.stats.LastError = errors.New("host: engine closed stream mid-speak")
			s.mu.Unlock()
			return s.stats.LastError
		}
		if string(line) == protocol.FrameDone {
			s.mu.Unlock()
			return nil
		}
		samples, err := wire.DecodeHex(line)
		if err != nil {
			s.failed = true
			s.stats.LastError = errors.Wrap(err, "host: decoding audio frame")
			s.mu.Unlock()
			return s.stats.LastError
		}
		s.stats.FramesSent++
		s.stats.SamplesDecoded += uint64(len(samples))

		buf := &audio.IntBuffer{Format: format, Data: make([]int, len(samples)), SourceBitDepth: 16}
		for i, v := range samples {
			buf.Data[i] = int(v)
		}

		if !onFrame(buf) || s.cancel.Load() {
			cancelled = true
		}
		if cancelled {
			s.stats.FramesCancelled++
			s.writeLocked(protocol.AckCancel)
		} else {
			s.writeLocked(protocol.AckContinue)
		}
	}
}

// writeTextBlock writes text to w as a dot-stuffed, dot-terminated
// block, escaping any line that begins with "." by doubling it.
func writeTextBlock(w io.Writer, text string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, ".") {
			fmt.Fprintf(w, ".%s\n", line)
		} else {
			fmt.Fprintf(w, "%s\n", line)
		}
	}
	fmt.Fprint(w, ".\n")
}
