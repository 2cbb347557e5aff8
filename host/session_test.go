package host

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-audio/audio"

	"github.com/ausocean/speechswitch/internal/testlog"
)

const fakeEngineScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    "get samplerate") echo 16000 ;;
    "get voices")
      echo 1
      echo "default"
      ;;
    "speak")
      # consume dot-terminated text block
      while IFS= read -r t; do
        [ "$t" = "." ] && break
      done
      echo "true"
      echo "1234"
      read -r ack
      echo "done"
      ;;
    quit) exit 0 ;;
    *) echo "Unrecognized command" ;;
  esac
done
`

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-engine")
	if err := os.WriteFile(path, []byte(fakeEngineScript), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSessionGetSampleRate(t *testing.T) {
	path := writeFakeEngine(t)
	s := NewSession(path, testlog.New(t))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	rate, err := s.GetSampleRate()
	if err != nil {
		t.Fatalf("GetSampleRate: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
}

func TestSessionSpeak(t *testing.T) {
	path := writeFakeEngine(t)
	s := NewSession(path, testlog.New(t))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	var frames int
	var lastSamples int
	err := s.Speak("hello", func(buf *audio.IntBuffer) bool {
		frames++
		lastSamples = len(buf.Data)
		return true
	})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	if lastSamples != 1 {
		t.Errorf("samples in frame = %d, want 1", lastSamples)
	}

	stats := s.Stats()
	if stats.FramesSent != 1 {
		t.Errorf("FramesSent = %d, want 1", stats.FramesSent)
	}
	if stats.TextBytesSpoken != uint64(len("hello")) {
		t.Errorf("TextBytesSpoken = %d, want %d", stats.TextBytesSpoken, len("hello"))
	}
}

func TestWriteTextBlockEscapesLeadingDot(t *testing.T) {
	var sb sbWriter
	writeTextBlock(&sb, ".oops\nnormal")
	want := "..oops\nnormal\n.\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

type sbWriter struct{ data []byte }

func (w *sbWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
func (w *sbWriter) String() string { return string(w.data) }
