package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls synthetic reverb IR generation.
type Config struct {
	SampleRate int
	DurationS  float64
	Decay      float64 // exponent of the (1 - i/n) amplitude envelope
	Seed       int64

	// NormalizePeak rescales the IR so its largest sample has this level.
	// Zero keeps the raw noise level.
	NormalizePeak float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		DurationS:  3.0,
		Decay:      2.0,
		Seed:       1,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Decay < 0 {
		return fmt.Errorf("decay must be >= 0")
	}
	if c.NormalizePeak < 0 {
		return fmt.Errorf("normalize peak must be >= 0")
	}
	return nil
}

// Length returns the IR length in samples.
func (c *Config) Length() int {
	n := int(math.Round(c.DurationS * float64(c.SampleRate)))
	if n < 1 {
		n = 1
	}
	return n
}

// GenerateStereo synthesizes independent uniform noise per channel shaped by
// (1 - i/n)^Decay.
func GenerateStereo(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := cfg.Length()
	rng := rand.New(rand.NewSource(cfg.Seed))
	left := make([]float32, n)
	right := make([]float32, n)
	for _, ch := range [][]float32{left, right} {
		for i := range ch {
			env := math.Pow(1-float64(i)/float64(n), cfg.Decay)
			ch[i] = float32((rng.Float64()*2 - 1) * env)
		}
	}

	if cfg.NormalizePeak > 0 {
		peak := math.Max(maxAbs(left), maxAbs(right))
		if peak < 1e-12 {
			peak = 1e-12
		}
		s := float32(cfg.NormalizePeak / peak)
		for i := 0; i < n; i++ {
			left[i] *= s
			right[i] *= s
		}
	}
	return left, right, nil
}

func maxAbs(x []float32) float64 {
	m := 0.0
	for _, v := range x {
		a := math.Abs(float64(v))
		if a > m {
			m = a
		}
	}
	return m
}
