/*
NAME
  synthprobe

DESCRIPTION
  synthprobe drives an engine stub through one Speak call and plots the
  resulting waveform to a PNG, as a quick visual sanity check that an
  engine (or backend) is producing plausible audio without needing a
  speaker or a WAV file viewer.

LICENSE
  MIT
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/speechswitch/host"
)

func main() {
	enginePath := flag.String("engine", "", "path to the engine stub executable")
	text := flag.String("text", "hello", "text to synthesize")
	out := flag.String("out", "waveform.png", "output PNG path")
	flag.Parse()

	if *enginePath == "" {
		fmt.Fprintln(os.Stderr, "usage: synthprobe -engine <path> [-text ...] [-out waveform.png]")
		os.Exit(2)
	}

	s := host.NewSession(*enginePath, nil)
	if err := s.Start(); err != nil {
		fatal(err)
	}
	defer s.Stop()

	var samples []int
	err := s.Speak(*text, func(buf *audio.IntBuffer) bool {
		samples = append(samples, buf.Data...)
		return true
	})
	if err != nil {
		fatal(err)
	}

	if err := plotWaveform(samples, *out); err != nil {
		fatal(err)
	}
	mean, stddev := sampleStats(samples)
	fmt.Printf("wrote %d samples to %s (mean=%.1f stddev=%.1f)\n", len(samples), *out, mean, stddev)
}

// sampleStats reports the mean and standard deviation of the samples,
// a quick way to catch a silent or clipping backend without opening
// the plot.
func sampleStats(samples []int) (mean, stddev float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	f := make([]float64, len(samples))
	for i, v := range samples {
		f[i] = float64(v)
	}
	mean = stat.Mean(f, nil)
	stddev = stat.StdDev(f, nil)
	return mean, stddev
}

func plotWaveform(samples []int, path string) error {
	pts := make(plotter.XYs, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i)
		pts[i].Y = float64(v)
	}

	p := plot.New()
	p.Title.Text = "synthesized waveform"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "amplitude"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("synthprobe: building line plotter: %w", err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 3*vg.Inch, path); err != nil {
		return fmt.Errorf("synthprobe: saving plot: %w", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "synthprobe:", err)
	os.Exit(1)
}
