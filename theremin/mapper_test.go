package theremin

import (
	"math"
	"testing"
	"time"
)

func TestMapScenarioTopLeftRightEdge(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	left := HandFrame{Present: true, Side: HandLeft, NormalizedX: 0.5, NormalizedY: 1.0}
	right := HandFrame{Present: true, Side: HandRight, NormalizedX: 0, NormalizedY: 0}

	got, ok := m.Map(left, right, time.Unix(0, 0))
	if !ok {
		t.Fatal("both hands present must map")
	}
	if math.Abs(got.Fundamental-1046.5) > 0.5 {
		t.Fatalf("fundamental: got=%.2f want≈1046.5", got.Fundamental)
	}
	if got.ActiveHarmonics != 7 {
		t.Fatalf("harmonics: got=%d want=7", got.ActiveHarmonics)
	}
	if got.VibratoDepthHz != 20 || got.VibratoRateHz != 5 {
		t.Fatalf("vibrato: got=(%f Hz, %f Hz) want=(5,20)", got.VibratoRateHz, got.VibratoDepthHz)
	}
	if got.ReverbMix != 0.5 {
		t.Fatalf("reverb mix: got=%f want=0.5", got.ReverbMix)
	}
	if got.ArpEngaged || got.ArpOffset != 0 {
		t.Fatalf("arpeggiator should be idle: %+v", got)
	}
}

func TestMapRequiresBothHands(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	left := HandFrame{Present: true, Side: HandLeft, NormalizedY: 0.5, IsFist: true}
	if _, ok := m.Map(left, HandFrame{}, time.Unix(0, 0)); ok {
		t.Fatal("single hand must not map")
	}
	if m.Arpeggiator().State().Engaged {
		t.Fatal("arpeggiator must not be touched without both hands")
	}
}

func TestPitchIsContinuous(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	maxRatio := math.Exp2(0.36/12) + 1e-5
	prev := m.Pitch(0)
	if math.Abs(prev-130.81) > 1e-9 {
		t.Fatalf("pitch at y=0: got=%f want=130.81", prev)
	}
	for i := 1; i <= 100; i++ {
		p := m.Pitch(float64(i) / 100)
		r := p / prev
		if r <= 1 || r > maxRatio {
			t.Fatalf("pitch step at y=%.2f: ratio %f outside (1, %f]", float64(i)/100, r, maxRatio)
		}
		prev = p
	}
}

func TestVibratoIsInverse(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	rate, depth := m.Vibrato(1)
	if rate != 1 || depth != 0 {
		t.Fatalf("x=1: got=(%f,%f) want=(1,0)", rate, depth)
	}
	rate, depth = m.Vibrato(0.5)
	if rate != 3 || depth != 10 {
		t.Fatalf("x=0.5: got=(%f,%f) want=(3,10)", rate, depth)
	}
}

func TestActiveHarmonicsRange(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	cases := []struct {
		y    float64
		want int
	}{
		{0, 7},
		{0.5, 4},
		{0.99, 1},
		{1, 1},
		{-3, 7},
		{3, 1},
	}
	for _, c := range cases {
		if got := m.ActiveHarmonics(c.y); got != c.want {
			t.Fatalf("y=%g: got=%d want=%d", c.y, got, c.want)
		}
	}
	for i := 0; i <= 100; i++ {
		n := m.ActiveHarmonics(float64(i) / 100)
		if n < 1 || n > 7 {
			t.Fatalf("harmonics out of range at y=%.2f: %d", float64(i)/100, n)
		}
	}
}

func TestMapAppliesArpeggiatorOffset(t *testing.T) {
	m := NewMapper(NewDefaultParams(), nil)
	left := HandFrame{Present: true, Side: HandLeft, NormalizedX: 0, NormalizedY: 0.5, IsFist: true}
	right := HandFrame{Present: true, Side: HandRight, NormalizedX: 1, NormalizedY: 1}
	t0 := time.Unix(100, 0)

	got, _ := m.Map(left, right, t0)
	if got.ArpOffset != -12 {
		t.Fatalf("first step offset: got=%d want=-12", got.ArpOffset)
	}
	if math.Abs(got.Fundamental-got.BaseFrequency/2) > 1e-9 {
		t.Fatalf("octave down: got=%f base=%f", got.Fundamental, got.BaseFrequency)
	}

	got, _ = m.Map(left, right, t0.Add(450*time.Millisecond))
	if got.ArpOffset != -5 {
		t.Fatalf("third step offset: got=%d want=-5", got.ArpOffset)
	}
}
