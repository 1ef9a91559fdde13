package theremin

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// semitoneRatio converts a semitone offset to a frequency ratio.
func semitoneRatio(semitones float64) float64 {
	return pow2Approx(semitones / 12.0)
}

func pow2Approx(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func clamp01(v float64) float64 {
	return clampFloat64(v, 0, 1)
}

func clampFloat64(v float64, lo float64, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
