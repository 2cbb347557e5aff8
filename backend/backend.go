/*
NAME
  backend.go

DESCRIPTION
  backend.go defines Backend, the interface an engine stub implements to
  turn text into PCM audio. It generalises the AVDevice pattern (a
  capability-style interface with Set/Start/Stop/IsRunning plus a
  domain-specific action) used throughout device/ for capture devices,
  applied here to speech synthesis instead of audio/video capture.

LICENSE
  MIT
*/

package backend

import "github.com/ausocean/speechswitch/protocol"

// MultiError accumulates the invalid Config fields rejected by Set,
// mirroring device.MultiError: fields that fail validation are reported
// together instead of aborting on the first bad value.
type MultiError []error

func (m MultiError) Error() string {
	if len(m) == 0 {
		return "no errors"
	}
	s := m[0].Error()
	for _, e := range m[1:] {
		s += "; " + e.Error()
	}
	return s
}

// Config holds the negotiable voice parameters a Backend exposes. Set
// validates each field, accumulating any rejections into a
// MultiError rather than failing on the first one.
type Config struct {
	Voice       string
	Variant     string
	Pitch       float32
	Speed       float32
	Punctuation protocol.PunctuationLevel
	SSML        bool
}

// Frame is one chunk of synthesized audio, delivered as signed 16-bit
// PCM samples at the backend's fixed sample rate.
type Frame struct {
	Samples []int16
	// Final reports whether this is the last frame of the current
	// Speak call; no further frames follow it for that call.
	Final bool
}

// Backend is the capability surface an engine stub implements. A
// Backend is used by a single goroutine at a time: synthesis is
// request/response, like AVDevice's Start/Read/Stop lifecycle, not
// concurrent-safe by contract.
type Backend interface {
	// Name identifies the backend for logging.
	Name() string

	// Set validates and applies cfg, returning a MultiError naming every
	// field that was invalid; invalid fields are left at their prior
	// value rather than applied.
	Set(cfg Config) error

	// SampleRate returns the fixed output sample rate in Hz.
	SampleRate() int

	// Voices returns the backend's available voice names.
	Voices() []string

	// Variants returns the available variants for the current voice.
	Variants() []string

	// Encoding returns the text encoding the backend expects ("UTF-8" or
	// "ANSI").
	Encoding() string

	// Version identifies the backend implementation and its underlying
	// synthesis engine, if any.
	Version() string

	// Speak begins synthesizing text, delivering frames to emit as they
	// become available. Speak returns once synthesis completes normally,
	// emit returns false (the caller cancelled), or an error occurs.
	// emit returning false is not itself an error.
	Speak(text string, emit func(Frame) (more bool)) error

	// SpeakChar synthesizes a single character, generally for reading
	// back punctuation or spelling a word; it is not reachable from the
	// wire protocol's command table but is part of the capability
	// surface every backend must provide.
	SpeakChar(ch rune, emit func(Frame) (more bool)) error

	// Cancel requests that an in-progress Speak stop at the next frame
	// boundary. It is safe to call from another goroutine.
	Cancel()
}
