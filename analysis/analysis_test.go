package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequencyFindsSine(t *testing.T) {
	sr := 48000
	for _, f := range []float64{130.81, 440, 1046.5} {
		x := makeDecaySine(sr, f, 1.0, 10)
		got, err := DominantFrequency(x, sr)
		if err != nil {
			t.Fatalf("DominantFrequency(%g): %v", f, err)
		}
		if math.Abs(got-f) > 1.0 {
			t.Fatalf("dominant: got=%.2f want=%.2f", got, f)
		}
	}
}

func TestDominantFrequencyRejectsShortOrSilent(t *testing.T) {
	if _, err := DominantFrequency(make([]float64, 10), 48000); err == nil {
		t.Fatal("expected error for short signal")
	}
	if _, err := DominantFrequency(make([]float64, 4096), 48000); err == nil {
		t.Fatal("expected error for silence")
	}
}

func TestMaxStepFindsClick(t *testing.T) {
	x := make([]float32, 200)
	for i := 0; i < 100; i++ {
		v := float32(0.01 * math.Sin(float64(i)*0.1))
		x[i*2] = v
		x[i*2+1] = v
	}
	x[2*60+1] += 0.5
	step, frame := MaxStep(x, 2)
	if step < 0.45 {
		t.Fatalf("click not detected, step=%f", step)
	}
	if frame != 60 && frame != 61 {
		t.Fatalf("click frame: got=%d want 60 or 61", frame)
	}
}

func TestDecaySlopeMatchesExponential(t *testing.T) {
	sr := 48000
	decay := 0.5
	x := makeDecaySine(sr, 440, 2.0, decay)
	hop := 128
	env := RMSEnvelope(x, 256, hop)
	got := DecaySlopeDBPerS(env, float64(hop)/float64(sr))
	want := -20 / (decay * math.Ln10)
	if math.Abs(got-want) > 1.0 {
		t.Fatalf("decay slope: got=%.2f want=%.2f dB/s", got, want)
	}
}

func TestAnalyzeReport(t *testing.T) {
	sr := 16000
	mono := makeDecaySine(sr, 500, 0.5, 100)
	st := make([]float32, len(mono)*2)
	for i, v := range mono {
		st[i*2] = float32(0.5 * v)
		st[i*2+1] = float32(0.5 * v)
	}
	r := Analyze(st, sr)
	if r.Frames != len(mono) {
		t.Fatalf("frames: got=%d want=%d", r.Frames, len(mono))
	}
	if math.Abs(r.Peak-0.5) > 0.01 {
		t.Fatalf("peak: got=%f want≈0.5", r.Peak)
	}
	if math.Abs(r.RMS-0.5/math.Sqrt2) > 0.01 {
		t.Fatalf("rms: got=%f want≈%f", r.RMS, 0.5/math.Sqrt2)
	}
	if math.Abs(r.DominantHz-500) > 2 {
		t.Fatalf("dominant: got=%f want≈500", r.DominantHz)
	}
	if r.NonFinite != 0 {
		t.Fatalf("unexpected non-finite samples: %d", r.NonFinite)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze(nil, 48000)
	if r.Frames != 0 || r.Peak != 0 {
		t.Fatalf("empty input should give zero report, got %+v", r)
	}
}

func makeDecaySine(sr int, freq float64, durationSec float64, decaySec float64) []float64 {
	n := int(float64(sr) * durationSec)
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-t / decaySec)
		out[i] = env * math.Sin(2*math.Pi*freq*t)
	}
	return out
}
