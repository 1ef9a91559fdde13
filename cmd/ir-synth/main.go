package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-theremin/analysis"
	"github.com/cwbudde/algo-theremin/internal/audioio"
	"github.com/cwbudde/algo-theremin/irsynth"
)

func main() {
	cfg := irsynth.DefaultConfig()

	output := flag.String("output", "reverb_ir.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.Float64Var(&cfg.Decay, "decay", cfg.Decay, "Exponent of the (1 - t/T) decay envelope")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target (0 keeps raw level)")
	flag.Parse()

	left, right, err := irsynth.GenerateStereo(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	if err := audioio.WriteStereoLR(*output, left, right, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	peak := analysis.Peak(left)
	if p := analysis.Peak(right); p > peak {
		peak = p
	}
	rms := (analysis.RMS(left) + analysis.RMS(right)) / 2
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}
