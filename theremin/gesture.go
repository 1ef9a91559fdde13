package theremin

import (
	"errors"
	"fmt"
	"math"
)

// LandmarkCount is the size of one tracked hand landmark set.
const LandmarkCount = 21

const (
	palmLandmark      = 0
	palmProxyLandmark = 9
)

var (
	fingerTips  = [4]int{8, 12, 16, 20}
	fingerBases = [4]int{5, 9, 13, 17}
)

var (
	ErrLandmarkCount     = errors.New("landmark set must contain 21 points")
	ErrUnknownHandedness = errors.New("unknown handedness label")
)

// Handedness is the side label reported by the tracker.
type Handedness int

const (
	HandLeft Handedness = iota
	HandRight
)

func (h Handedness) String() string {
	if h == HandLeft {
		return "Left"
	}
	return "Right"
}

// ParseHandedness maps the tracker's "Left"/"Right" labels.
func ParseHandedness(label string) (Handedness, error) {
	switch label {
	case "Left", "left":
		return HandLeft, nil
	case "Right", "right":
		return HandRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownHandedness, label)
	}
}

// Point is one normalized tracker landmark; y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackedHand is one landmark set delivered by the hand tracker.
type TrackedHand struct {
	Label     string  `json:"label"`
	Landmarks []Point `json:"landmarks"`
}

// HandFrame is the per-frame control state derived from one hand.
type HandFrame struct {
	Present     bool
	Side        Handedness
	NormalizedX float64 // mirrored; 1 is the performer's right
	NormalizedY float64 // 1 is the top of the input space
	IsFist      bool
}

// ClassifyHand derives a HandFrame from one landmark set.
func ClassifyHand(landmarks []Point, side Handedness) (HandFrame, error) {
	if len(landmarks) < LandmarkCount {
		return HandFrame{}, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(landmarks))
	}
	palm := landmarks[palmProxyLandmark]
	return HandFrame{
		Present:     true,
		Side:        side,
		NormalizedX: clamp01(1 - palm.X),
		NormalizedY: clamp01(1 - palm.Y),
		IsFist:      IsFist(landmarks),
	}, nil
}

// IsFist reports whether all four fingertips are closer to the palm than
// their base joints.
func IsFist(landmarks []Point) bool {
	if len(landmarks) < LandmarkCount {
		return false
	}
	palm := landmarks[palmLandmark]
	for i, tip := range fingerTips {
		tipDist := distance(landmarks[tip], palm)
		baseDist := distance(landmarks[fingerBases[i]], palm)
		if tipDist >= baseDist {
			return false
		}
	}
	return true
}

func distance(a Point, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
