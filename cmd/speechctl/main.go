/*
NAME
  speechctl

DESCRIPTION
  speechctl is a diagnostic CLI for exploring and driving engine stubs
  discovered in a directory: it lists what's available, reports one
  engine's capabilities, or drives a speak call and prints a per-frame
  and summary report. It exists to let a developer poke at an engine
  binary without writing a host program, grounded on cmd/speaker's flag
  parsing and logger construction.

LICENSE
  MIT
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"

	"github.com/ausocean/speechswitch/discovery"
	"github.com/ausocean/speechswitch/host"
)

func main() {
	dir := flag.String("dir", "/usr/libexec/speechswitch", "directory to search for engine stubs")
	engineName := flag.String("engine", "", "name of the engine to operate on (from -dir)")
	text := flag.String("text", "", "text to speak, for the speak subcommand")
	voice := flag.String("voice", "", "voice to select before running the command")
	pitch := flag.Float64("pitch", 0, "pitch scale factor to set before running the command (0 = leave default)")
	speed := flag.Float64("speed", 0, "speed scale factor to set before running the command (0 = leave default)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}
	// Flags may also follow the subcommand ("speak -text ...").
	flag.CommandLine.Parse(args[1:])

	switch args[0] {
	case "list":
		runList(*dir)
	case "info":
		runInfo(*dir, *engineName, *voice, float32(*pitch), float32(*speed))
	case "speak":
		if *text == "" {
			fatal(fmt.Errorf("speak requires -text"))
		}
		runSpeak(*dir, *engineName, *text, *voice, float32(*pitch), float32(*speed))
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: speechctl -dir <enginedir> [-engine <name>] <command>")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  list                          list discovered engines")
	fmt.Fprintln(os.Stderr, "  -engine <name> info           print sample rate, encoding, voices, variants, version")
	fmt.Fprintln(os.Stderr, "  -engine <name> speak -text .. speak the given text")
	os.Exit(2)
}

func runList(dir string) {
	engines, err := discovery.ListEngines([]string{dir})
	exitOn(err)
	for _, e := range engines {
		fmt.Println(e.Name, e.Path)
	}
}

func findEngine(dir, name string) string {
	if name == "" {
		fatal(fmt.Errorf("-engine is required for this command"))
	}
	engines, err := discovery.ListEngines([]string{dir})
	exitOn(err)
	for _, e := range engines {
		if e.Name == name {
			return e.Path
		}
	}
	fatal(fmt.Errorf("engine %q not found in %s", name, dir))
	return ""
}

func startSession(path, voice string, pitch, speed float32) *host.Session {
	s := host.NewSession(path, nil)
	if err := s.Start(); err != nil {
		fatal(err)
	}
	if voice != "" {
		exitOn(s.SetVoice(voice))
	}
	if pitch != 0 {
		exitOn(s.SetPitch(pitch))
	}
	if speed != 0 {
		exitOn(s.SetSpeed(speed))
	}
	return s
}

func runInfo(dir, name, voice string, pitch, speed float32) {
	path := findEngine(dir, name)
	s := startSession(path, voice, pitch, speed)
	defer s.Stop()

	rate, err := s.GetSampleRate()
	exitOn(err)
	enc, err := s.GetEncoding()
	exitOn(err)
	voices, err := s.GetVoices()
	exitOn(err)
	variants, err := s.GetVariants()
	exitOn(err)
	version, err := s.GetVersion()
	exitOn(err)

	fmt.Printf("samplerate: %d\n", rate)
	fmt.Printf("encoding:   %s\n", enc)
	fmt.Printf("voices:     %s\n", strings.Join(voices, " "))
	fmt.Printf("variants:   %s\n", strings.Join(variants, " "))
	fmt.Printf("version:    %d\n", version)
}

// runSpeak drives a Speak call, logging one line per frame (sample
// count, running elapsed time) and a final summary from SessionStats.
// It never opens an audio output device and never writes a file: raw
// playback and file output are outside this tool's scope.
func runSpeak(dir, name, text, voice string, pitch, speed float32) {
	path := findEngine(dir, name)
	s := startSession(path, voice, pitch, speed)
	defer s.Stop()

	start := time.Now()
	var frame int
	err := s.Speak(text, func(buf *audio.IntBuffer) bool {
		frame++
		fmt.Printf("frame %d: %d samples, elapsed %s\n", frame, len(buf.Data), time.Since(start).Round(time.Millisecond))
		return true
	})
	exitOn(err)

	stats := s.Stats()
	fmt.Printf("done: frames_sent=%d frames_cancelled=%d samples_decoded=%d text_bytes_spoken=%d\n",
		stats.FramesSent, stats.FramesCancelled, stats.SamplesDecoded, stats.TextBytesSpoken)
}

func exitOn(err error) {
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "speechctl:", err)
	os.Exit(1)
}
