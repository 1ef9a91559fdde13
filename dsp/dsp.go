package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = float32(dspcore.FlushDenormals(float64(output)))

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// NewLowpass creates a simple lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	w0 := 2.0 * math.Pi * float64(cutoff) / float64(sampleRate)
	alpha := math.Sin(w0) / (2.0 * float64(q))
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	// Normalize by a0
	return NewBiquad(
		float32(b0/a0),
		float32(b1/a0),
		float32(b2/a0),
		float32(a1/a0),
		float32(a2/a0),
	)
}

// SawOsc is a band-limited sawtooth oscillator (PolyBLEP corrected).
// Frequency is supplied per sample so it can follow a modulated param.
type SawOsc struct {
	sampleRate float64
	phase      float64 // [0, 1)
}

// NewSawOsc creates a sawtooth oscillator starting at phase 0.
func NewSawOsc(sampleRate int) *SawOsc {
	return &SawOsc{sampleRate: float64(sampleRate)}
}

// Next returns one sample in [-1, 1] at freq Hz and advances the phase.
func (o *SawOsc) Next(freq float64) float32 {
	dt := freq / o.sampleRate
	if dt < 0 {
		dt = -dt
	}
	if dt >= 0.5 {
		// Above Nyquist the partial folds back; emit silence instead.
		o.advance(dt)
		return 0
	}
	v := 2.0*o.phase - 1.0
	v -= polyBLEP(o.phase, dt)
	o.advance(dt)
	return float32(v)
}

// Phase returns the current normalized phase.
func (o *SawOsc) Phase() float64 {
	return o.phase
}

// Reset sets the phase back to 0.
func (o *SawOsc) Reset() {
	o.phase = 0
}

func (o *SawOsc) advance(dt float64) {
	o.phase += dt
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

func polyBLEP(t float64, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	}
	if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0
}

// SineLFO is a phase-accumulator sine oscillator for low-rate modulation.
type SineLFO struct {
	sampleRate float64
	phase      float64
}

// NewSineLFO creates a sine LFO starting at phase 0.
func NewSineLFO(sampleRate int) *SineLFO {
	return &SineLFO{sampleRate: float64(sampleRate)}
}

// Next returns sin(2πφ)*depth and advances the phase by rateHz.
func (l *SineLFO) Next(rateHz float64, depth float64) float64 {
	v := approx.FastSin(2.0*math.Pi*l.phase) * depth
	_, l.phase = math.Modf(l.phase + rateHz/l.sampleRate)
	if l.phase < 0 {
		l.phase += 1.0
	}
	return dspcore.FlushDenormals(v)
}

// Reset sets the phase back to 0.
func (l *SineLFO) Reset() {
	l.phase = 0
}
