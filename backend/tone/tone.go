/*
NAME
  tone.go

DESCRIPTION
  tone.go implements a backend.Backend that requires no external
  synthesizer: it renders each input rune as a short sine-wave tone
  burst, pitch mapped by rune class, shaped with a lowpass filter from
  codec/pcm to round off the burst edges. It exists to exercise the
  engine stub framework (enginesrv, wire, protocol) end to end without
  a real text-to-speech binding, which is out of scope.

LICENSE
  MIT
*/

package tone

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ausocean/speechswitch/backend"
	"github.com/ausocean/speechswitch/codec/pcm"
)

const (
	sampleRate   = 16000
	burstMillis  = 80
	baseFreq     = 220.0
	filterTaps   = 63
	filterCutoff = 3400.0
)

// Backend synthesizes audible tone bursts standing in for speech. It
// implements backend.Backend.
type Backend struct {
	cfg     backend.Config
	voices  []string
	cancel  atomic.Bool
	lowpass *pcm.SelectiveFrequencyFilter
}

// New returns a ready-to-use tone Backend with default voice parameters.
func New() *Backend {
	b := &Backend{
		voices: []string{"default", "low", "high"},
		cfg: backend.Config{
			Voice: "default",
			Pitch: 1.0,
			Speed: 1.0,
		},
	}
	filter, err := pcm.NewLowPass(filterCutoff, pcm.BufferFormat{
		SFormat:  pcm.S16_LE,
		Rate:     sampleRate,
		Channels: 1,
	}, filterTaps)
	if err == nil {
		b.lowpass = filter
	}
	return b
}

// Name identifies this backend.
func (b *Backend) Name() string { return "tone" }

// Set validates and applies cfg.
func (b *Backend) Set(cfg backend.Config) error {
	var errs backend.MultiError
	next := b.cfg
	if cfg.Voice != "" {
		if !contains(b.voices, cfg.Voice) {
			errs = append(errs, fmt.Errorf("tone: unknown voice %q", cfg.Voice))
		} else {
			next.Voice = cfg.Voice
		}
	}
	if cfg.Pitch != 0 {
		if cfg.Pitch <= 0 || cfg.Pitch > 4 {
			errs = append(errs, fmt.Errorf("tone: pitch %v out of range (0,4]", cfg.Pitch))
		} else {
			next.Pitch = cfg.Pitch
		}
	}
	if cfg.Speed != 0 {
		if cfg.Speed <= 0 || cfg.Speed > 4 {
			errs = append(errs, fmt.Errorf("tone: speed %v out of range (0,4]", cfg.Speed))
		} else {
			next.Speed = cfg.Speed
		}
	}
	next.Punctuation = cfg.Punctuation
	next.SSML = cfg.SSML
	next.Variant = cfg.Variant
	b.cfg = next
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SampleRate returns the fixed output rate.
func (b *Backend) SampleRate() int { return sampleRate }

// Voices returns the fixed voice list.
func (b *Backend) Voices() []string { return b.voices }

// Variants reports no variants; the tone backend has none.
func (b *Backend) Variants() []string { return nil }

// Encoding always reports UTF-8: tone generation has no encoding
// dependency but the protocol still needs an answer.
func (b *Backend) Encoding() string { return "UTF-8" }

// Version identifies this backend build.
func (b *Backend) Version() string { return "tone-backend/1.0" }

// Cancel requests the in-progress Speak stop at the next frame.
func (b *Backend) Cancel() { b.cancel.Store(true) }

// Speak renders text as one frame per rune: audible runes become a
// short tone burst, whitespace runes become an equal-length frame of
// silence, standing in for a pause.
func (b *Backend) Speak(text string, emit func(backend.Frame) bool) error {
	b.cancel.Store(false)
	runes := []rune(text)
	for i, r := range runes {
		if b.cancel.Load() {
			return nil
		}
		if err := b.speakRune(r, emit, i == len(runes)-1); err != nil {
			return err
		}
		if b.cancel.Load() {
			return nil
		}
	}
	return nil
}

// SpeakChar renders a single rune, used to read back an individual
// character rather than a block of text.
func (b *Backend) SpeakChar(ch rune, emit func(backend.Frame) bool) error {
	b.cancel.Store(false)
	return b.speakRune(ch, emit, true)
}

func (b *Backend) speakRune(r rune, emit func(backend.Frame) bool, last bool) error {
	samples := b.renderBurst(r)
	if more := emit(backend.Frame{Samples: samples, Final: last}); !more {
		b.cancel.Store(true)
	}
	return nil
}

// renderBurst synthesizes one rune's tone, pitch-scaled by rune class
// and Config.Pitch, duration-scaled by Config.Speed, and smoothed by
// the package lowpass filter.
func (b *Backend) renderBurst(r rune) []int16 {
	freq := baseFreq * float64(b.cfg.Pitch) * classMultiplier(r)
	durMs := burstMillis / float64(maxFloat32(b.cfg.Speed, 0.1))
	n := int(sampleRate * durMs / 1000)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Sin(math.Pi * float64(i) / float64(n))
		samples[i] = int16(envelope * math.MaxInt16 * 0.4 * math.Sin(2*math.Pi*freq*t))
	}
	return b.smooth(samples)
}

// smooth applies the package lowpass filter to round off burst edges,
// falling back to the unfiltered samples if no filter was built.
func (b *Backend) smooth(samples []int16) []int16 {
	if b.lowpass == nil || len(samples) == 0 {
		return samples
	}
	raw := int16sToBytes(samples)
	out, err := b.lowpass.Apply(pcm.Buffer{
		Format: pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: sampleRate, Channels: 1},
		Data:   raw,
	})
	if err != nil {
		return samples
	}
	return bytesToInt16s(out)
}

func classMultiplier(r rune) float64 {
	switch {
	case r >= '0' && r <= '9':
		return 1.5
	case r >= 'A' && r <= 'Z':
		return 1.25
	case r == ' ' || r == '\t':
		return 0
	default:
		return 1.0
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func maxFloat32(v, min float32) float32 {
	if v <= 0 {
		return 1
	}
	if v < min {
		return min
	}
	return v
}

func int16sToBytes(s []int16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		b[2*i] = byte(uint16(v))
		b[2*i+1] = byte(uint16(v) >> 8)
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	s := make([]int16, len(b)/2)
	for i := range s {
		s[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return s
}
