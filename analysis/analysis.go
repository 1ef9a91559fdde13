// Package analysis measures rendered audio: level, clicks, envelope decay
// and dominant pitch.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const maxFFTSize = 1 << 16

// Report summarizes one stereo interleaved render.
type Report struct {
	SampleRate int     `json:"sample_rate"`
	Frames     int     `json:"frames"`
	DurationS  float64 `json:"duration_s"`

	Peak      float64 `json:"peak"`
	RMS       float64 `json:"rms"`
	NonFinite int     `json:"non_finite"`

	// MaxStep is the largest sample-to-sample jump in either channel; a
	// click shows up as an outlier here.
	MaxStep      float64 `json:"max_step"`
	MaxStepFrame int     `json:"max_step_frame"`

	DominantHz      float64 `json:"dominant_hz"`
	TailDecayDBPerS float64 `json:"tail_decay_db_per_s"`
}

func (r Report) String() string {
	return fmt.Sprintf("frames=%d dur=%.3fs peak=%.4f rms=%.4f max_step=%.4f@%d dominant=%.2fHz decay=%.1fdB/s non_finite=%d",
		r.Frames, r.DurationS, r.Peak, r.RMS, r.MaxStep, r.MaxStepFrame, r.DominantHz, r.TailDecayDBPerS, r.NonFinite)
}

// Analyze measures a stereo interleaved buffer.
func Analyze(interleaved []float32, sampleRate int) Report {
	r := Report{SampleRate: sampleRate, Frames: len(interleaved) / 2}
	if sampleRate <= 0 || r.Frames == 0 {
		return r
	}
	r.DurationS = float64(r.Frames) / float64(sampleRate)
	r.Peak = Peak(interleaved)
	r.RMS = RMS(interleaved)
	r.MaxStep, r.MaxStepFrame = MaxStep(interleaved, 2)
	for _, v := range interleaved {
		if !isFinite(float64(v)) {
			r.NonFinite++
		}
	}

	mono := Mono(interleaved)
	if hz, err := DominantFrequency(mono, sampleRate); err == nil {
		r.DominantHz = hz
	}
	hop := 128
	env := RMSEnvelope(mono, 256, hop)
	if d := DecaySlopeDBPerS(env, float64(hop)/float64(sampleRate)); isFinite(d) {
		r.TailDecayDBPerS = d
	}
	return r
}

// Peak returns the largest absolute sample.
func Peak(x []float32) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(float64(v)); a > m {
			m = a
		}
	}
	return m
}

// RMS returns the root mean square over every sample.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(x)))
}

// MaxStep returns the largest per-channel sample difference and the frame it
// ends on.
func MaxStep(interleaved []float32, channels int) (step float64, frame int) {
	if channels < 1 {
		channels = 1
	}
	for i := channels; i < len(interleaved); i++ {
		d := math.Abs(float64(interleaved[i] - interleaved[i-channels]))
		if d > step {
			step = d
			frame = i / channels
		}
	}
	return step, frame
}

// Mono averages a stereo interleaved buffer.
func Mono(interleaved []float32) []float64 {
	n := len(interleaved) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(interleaved[i*2]) + float64(interleaved[i*2+1]))
	}
	return out
}

// RMSEnvelope returns frame RMS values every hop samples.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms64(x[start : start+frame])
	}
	return out
}

// DominantFrequency returns the strongest spectral peak of x in Hz using a
// Hann-windowed real FFT over the largest power-of-two prefix, refined by
// parabolic interpolation.
func DominantFrequency(x []float64, sampleRate int) (float64, error) {
	n := 1
	for n*2 <= len(x) && n*2 <= maxFFTSize {
		n *= 2
	}
	if n < 64 || sampleRate <= 0 {
		return 0, fmt.Errorf("signal too short for pitch analysis: %d samples", len(x))
	}
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = x[i] * w
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	for k := range spec {
		mags[k] = cmplx.Abs(spec[k])
	}
	best := 1
	for k := 2; k < n/2; k++ {
		if mags[k] > mags[best] {
			best = k
		}
	}
	if mags[best] < 1e-12 {
		return 0, fmt.Errorf("silent signal")
	}
	bin := float64(best)
	a, b, c := mags[best-1], mags[best], mags[best+1]
	if den := a - 2*b + c; den != 0 {
		bin += 0.5 * (a - c) / den
	}
	return bin * float64(sampleRate) / float64(n), nil
}

// DecaySlopeDBPerS fits a line to the envelope in dB from its peak down to
// 60 dB below it. NaN means there is no usable decay.
func DecaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := math.Inf(-1)
	peakIdx := 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < peak-60 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func rms64(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
