package theremin

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

const testSampleRate = 16000

var timeZero = time.Unix(0, 0)

func testParams() *Params {
	p := NewDefaultParams()
	p.ReverbDurationS = 0.05
	return p
}

func newRunningTheremin(t *testing.T, params *Params) *Theremin {
	t.Helper()
	if params == nil {
		params = testParams()
	}
	th := NewTheremin(testSampleRate, params)
	if err := th.InitAudio(); err != nil {
		t.Fatalf("InitAudio: %v", err)
	}
	return th
}

// landmarksAt builds a hand whose palm proxy sits at control coordinates
// (nx, ny): x mirrored, y = 1 at the top.
func landmarksAt(nx float64, ny float64, fist bool) []Point {
	x := 1 - nx
	y := 1 - ny
	pts := make([]Point, LandmarkCount)
	for i := range pts {
		pts[i] = Point{X: x, Y: y}
	}
	pts[palmLandmark] = Point{X: x, Y: y + 0.15}
	offsets := [4]float64{-0.03, 0, 0.03, 0.06}
	for i := range fingerTips {
		pts[fingerBases[i]] = Point{X: x + offsets[i], Y: y}
		tipY := y - 0.15
		if fist {
			tipY = y + 0.08
		}
		pts[fingerTips[i]] = Point{X: x + offsets[i], Y: tipY}
	}
	return pts
}

func leftHand(nx float64, ny float64, fist bool) TrackedHand {
	return TrackedHand{Label: "Left", Landmarks: landmarksAt(nx, ny, fist)}
}

func rightHand(nx float64, ny float64) TrackedHand {
	return TrackedHand{Label: "Right", Landmarks: landmarksAt(nx, ny, false)}
}

func renderSeconds(th *Theremin, seconds float64, block int) []float32 {
	total := int(seconds * float64(th.SampleRate()))
	out := make([]float32, 0, total*2)
	for done := 0; done < total; done += block {
		n := min(block, total-done)
		out = append(out, th.Process(n)...)
	}
	return out
}

func maxParamStep(p interface{ ValueAt(float64) float64 }, from float64, to float64, sampleRate int) float64 {
	dt := 1.0 / float64(sampleRate)
	prev := p.ValueAt(from)
	worst := 0.0
	for t := from + dt; t <= to; t += dt {
		v := p.ValueAt(t)
		if d := math.Abs(v - prev); d > worst {
			worst = d
		}
		prev = v
	}
	return worst
}

func writeTempIRWav(t *testing.T, left []float32, right []float32, sampleRate int) string {
	t.Helper()
	f, err := os.CreateTemp("", "ir-*.wav")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	numCh := 1
	data := make([]float32, len(left))
	copy(data, left)
	if right != nil {
		numCh = 2
		if len(right) != len(left) {
			t.Fatalf("left/right length mismatch")
		}
		data = make([]float32, len(left)*2)
		for i := range left {
			data[i*2] = left[i]
			data[i*2+1] = right[i]
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, numCh, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("wav write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("wav close: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(f.Name()) })
	return f.Name()
}

func directConvolve(x []float32, h []float32) []float32 {
	y := make([]float32, len(x)+len(h)-1)
	for i := 0; i < len(x); i++ {
		for j := 0; j < len(h); j++ {
			y[i+j] += x[i] * h[j]
		}
	}
	return y
}
