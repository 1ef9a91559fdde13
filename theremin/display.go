package theremin

import (
	"fmt"
	"math"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// HandDisplay is the overlay state of one hand.
type HandDisplay struct {
	Present bool
	X       float64 // mirrored, 0..1
	Y       float64 // 1 is the top
	IsFist  bool
}

// ScreenPos converts the hand position to canvas pixels with y growing down.
func (h HandDisplay) ScreenPos(width float64, height float64) (x float64, y float64) {
	return h.X * width, (1 - h.Y) * height
}

// Display is the readout drawn next to the hand crosshairs. Percentages are
// derived from the current frame even when audio is not running.
type Display struct {
	Left  HandDisplay
	Right HandDisplay

	PitchPercent   int
	ReverbPercent  int
	VibratoPercent int
	Harmonics      int
	Note           string // nearest note to the pitch before the arpeggio offset

	Phase        EnvelopePhase
	Arpeggiating bool
}

func (d Display) String() string {
	return fmt.Sprintf("note %s reverb %d vib %d harmonics %d env %s arp %t",
		d.Note, d.ReverbPercent, d.VibratoPercent, d.Harmonics, d.Phase, d.Arpeggiating)
}

func newDisplay(left HandFrame, right HandFrame, params *Params) Display {
	d := Display{
		Left:  HandDisplay{Present: left.Present, X: left.NormalizedX, Y: left.NormalizedY, IsFist: left.IsFist},
		Right: HandDisplay{Present: right.Present, X: right.NormalizedX, Y: right.NormalizedY, IsFist: right.IsFist},
	}
	if left.Present {
		d.PitchPercent = percent(left.NormalizedY)
		d.ReverbPercent = percent(left.NormalizedX)
		d.Note = FrequencyNoteName(pitchFor(left.NormalizedY, params))
		d.Arpeggiating = left.IsFist
	}
	if right.Present {
		d.VibratoPercent = percent(1 - right.NormalizedX)
		d.Harmonics = activeHarmonicsFor(right.NormalizedY, params.MaxHarmonics)
	}
	return d
}

func percent(v float64) int {
	return int(math.Round(clamp01(v) * 100))
}

// FrequencyNoteName returns the nearest equal-tempered note (A4 = 440 Hz),
// e.g. "C3" for 130.81 Hz.
func FrequencyNoteName(hz float64) string {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return ""
	}
	midi := int(math.Round(69 + 12*math.Log2(hz/440)))
	if midi < 0 {
		return ""
	}
	return fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
}

// NoteName quantizes y (1 = top) to the nearest lower chromatic note name
// between startOctave and endOctave, e.g. "C2" at y=0. It labels a guide
// scale only and does not look at the base frequency; FrequencyNoteName
// names what is heard.
func NoteName(y float64, startOctave int, endOctave int) string {
	total := (endOctave - startOctave + 1) * 12
	if total < 1 {
		return ""
	}
	idx := clampInt(int(math.Floor(clamp01(y)*float64(total-1))), 0, total-1)
	return fmt.Sprintf("%s%d", noteNames[idx%12], startOctave+idx/12)
}

// PitchMarker is one chromatic guide line on the pitch axis.
type PitchMarker struct {
	Name        string
	NormalizedY float64
	Octave      bool // true for C markers
}

// PitchMarkers lists every note of the playable range from bottom to top.
func PitchMarkers(startOctave int, endOctave int) []PitchMarker {
	total := (endOctave - startOctave + 1) * 12
	if total < 2 {
		return nil
	}
	out := make([]PitchMarker, total)
	for i := range out {
		out[i] = PitchMarker{
			Name:        fmt.Sprintf("%s%d", noteNames[i%12], startOctave+i/12),
			NormalizedY: float64(i) / float64(total-1),
			Octave:      i%12 == 0,
		}
	}
	return out
}
