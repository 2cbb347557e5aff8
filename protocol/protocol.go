/*
NAME
  protocol.go

DESCRIPTION
  protocol.go defines the wire vocabulary shared by the engine stub and
  the host session: the two-word command grammar ("get <key>", "set
  <key> <arg>"), the fixed single-word commands, the protocol version,
  the literal response tokens, and the typed enumerations
  (PunctuationLevel) that travel as plain words on the line-oriented
  control channel.

LICENSE
  MIT
*/

package protocol

import "fmt"

// Version is the speechswitch protocol version this module implements.
const Version = 1

// Command verbs: the first word of a control line. get/set additionally
// take a key as their second word (see the Key* constants below).
const (
	CmdGet   = "get"
	CmdSet   = "set"
	CmdSpeak = "speak"
	CmdHelp  = "help"
	CmdQuit  = "quit"
	CmdExit  = "exit"
)

// Keys addressable under "get" and "set". KeySampleRate, KeyVoices,
// KeyVariants, KeyEncoding and KeyVersion are get-only; the rest are
// set-only.
const (
	KeySampleRate  = "samplerate"
	KeyVoices      = "voices"
	KeyVariants    = "variants"
	KeyEncoding    = "encoding"
	KeyVersion     = "version"
	KeyVoice       = "voice"
	KeyVariant     = "variant"
	KeyPitch       = "pitch"
	KeySpeed       = "speed"
	KeyPunctuation = "punctuation"
	KeySSML        = "ssml"
)

// Response literals.
const (
	// RespTrue and RespFalse answer every "set" command and the speak
	// acceptance line.
	RespTrue  = "true"
	RespFalse = "false"
	// RespUnrecognized answers any command line whose verb (or, for
	// get/set, whose key) is not in the table above.
	RespUnrecognized = "Unrecognized command"
)

// Audio-loop tokens exchanged while a speak is in progress.
const (
	AckContinue = "true"
	AckCancel   = "cancel"
	FrameDone   = "done"
)

// PunctuationLevel controls how much punctuation an engine speaks aloud.
// Levels are ordered None < Some < Most < All.
type PunctuationLevel int

const (
	PunctuationNone PunctuationLevel = iota
	PunctuationSome
	PunctuationMost
	PunctuationAll
)

// String returns the wire representation of p.
func (p PunctuationLevel) String() string {
	switch p {
	case PunctuationNone:
		return "none"
	case PunctuationSome:
		return "some"
	case PunctuationMost:
		return "most"
	case PunctuationAll:
		return "all"
	default:
		return "none"
	}
}

// ParsePunctuation parses the wire representation of a PunctuationLevel.
func ParsePunctuation(s string) (PunctuationLevel, error) {
	switch s {
	case "none":
		return PunctuationNone, nil
	case "some":
		return PunctuationSome, nil
	case "most":
		return PunctuationMost, nil
	case "all":
		return PunctuationAll, nil
	default:
		return 0, fmt.Errorf("protocol: unknown punctuation level %q", s)
	}
}
