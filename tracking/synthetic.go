package tracking

import (
	"math"
	"time"

	"github.com/cwbudde/algo-theremin/theremin"
)

// SyntheticHand builds a plausible 21-point landmark set whose palm proxy
// sits at control coordinates (x, y): x mirrored, y = 1 at the top of the
// frame. A fist curls all fingertips toward the wrist.
func SyntheticHand(label string, x float64, y float64, fist bool) theremin.TrackedHand {
	px := 1 - x
	py := 1 - y
	pts := make([]theremin.Point, theremin.LandmarkCount)
	wrist := theremin.Point{X: px, Y: py + 0.15}
	pts[0] = wrist

	// Thumb chain 1..4 off to the side.
	for j := 1; j <= 4; j++ {
		pts[j] = theremin.Point{X: px - 0.02*float64(j), Y: py + 0.12 - 0.02*float64(j)}
	}
	offsets := [4]float64{-0.03, 0, 0.03, 0.06}
	for f, off := range offsets {
		base := 5 + f*4
		pts[base] = theremin.Point{X: px + off, Y: py}
		for j := 1; j <= 3; j++ {
			dy := -0.05 * float64(j)
			if fist {
				// Curl back toward the wrist, ending closer than the knuckle.
				dy = 0.03 * float64(j)
			}
			pts[base+j] = theremin.Point{X: px + off, Y: py + dy}
		}
	}
	return theremin.TrackedHand{Label: label, Landmarks: pts}
}

// DemoScript returns a gesture performance sampled at fps: both hands enter,
// the left hand sweeps the pitch range while the right hand opens up the
// harmonics and vibrato, the left fist holds an arpeggio for a while, then
// the right hand leaves and finally both do.
func DemoScript(duration time.Duration, fps float64) []Frame {
	if fps <= 0 {
		fps = 30
	}
	step := 1000 / fps
	total := duration.Seconds() * 1000
	var frames []Frame
	for i := 0; ; i++ {
		ms := float64(i) * step
		if ms >= total-1e-9 {
			break
		}
		p := ms / total
		f := Frame{TimeMS: ms}
		switch {
		case p < 0.05:
			// Silence before the performer steps in.
		case p < 0.85:
			u := (p - 0.05) / 0.8
			leftY := 0.5 - 0.45*math.Cos(2*math.Pi*u)
			leftX := 0.2 + 0.6*u
			fist := u > 0.55 && u < 0.75
			rightX := 1 - u
			rightY := 0.5 + 0.5*math.Cos(math.Pi*u)
			f.Hands = []theremin.TrackedHand{
				SyntheticHand("Left", leftX, leftY, fist),
				SyntheticHand("Right", rightX, rightY, false),
			}
		case p < 0.92:
			f.Hands = []theremin.TrackedHand{SyntheticHand("Left", 0.8, 0.5, false)}
		}
		frames = append(frames, f)
	}
	return frames
}
