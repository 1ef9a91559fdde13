package theremin

import (
	"math"
	"time"
)

// Targets are the musical parameters computed from one two-hand frame.
type Targets struct {
	BaseFrequency   float64 // continuous pitch before the arpeggiator
	Fundamental     float64 // pitch after the arpeggiator offset
	ArpEngaged      bool
	ArpOffset       int // semitones
	ReverbMix       float64
	VibratoRateHz   float64
	VibratoDepthHz  float64
	ActiveHarmonics int
}

// Mapper converts normalized two-hand coordinates into Targets. Apart from
// the arpeggiator phase it is a pure function of its inputs.
type Mapper struct {
	params *Params
	arp    *Arpeggiator
}

// NewMapper creates a mapper driving the given arpeggiator.
func NewMapper(params *Params, arp *Arpeggiator) *Mapper {
	if params == nil {
		params = NewDefaultParams()
	}
	if arp == nil {
		arp = NewArpeggiator(params.ArpPattern, params.ArpInterval)
	}
	return &Mapper{params: params, arp: arp}
}

// Map computes targets for wall-clock time now. It reports false and leaves
// the arpeggiator untouched unless both hands are present.
func (m *Mapper) Map(left HandFrame, right HandFrame, now time.Time) (Targets, bool) {
	if !left.Present || !right.Present {
		return Targets{}, false
	}
	base := m.Pitch(left.NormalizedY)
	offset := m.arp.Update(left.IsFist, now)
	rate, depth := m.Vibrato(right.NormalizedX)
	return Targets{
		BaseFrequency:   base,
		Fundamental:     base * semitoneRatio(float64(offset)),
		ArpEngaged:      left.IsFist,
		ArpOffset:       offset,
		ReverbMix:       clamp01(left.NormalizedX),
		VibratoRateHz:   rate,
		VibratoDepthHz:  depth,
		ActiveHarmonics: m.ActiveHarmonics(right.NormalizedY),
	}, true
}

// Pitch maps y continuously across the configured octave span; y=1 is the
// top of the range.
func (m *Mapper) Pitch(y float64) float64 {
	return pitchFor(y, m.params)
}

func pitchFor(y float64, params *Params) float64 {
	semitones := clamp01(y) * float64(params.Semitones())
	return params.BaseFrequency * semitoneRatio(semitones)
}

// Vibrato maps x inversely to LFO rate and depth; x=0 gives the maximum.
func (m *Mapper) Vibrato(x float64) (rateHz float64, depthHz float64) {
	amount := 1 - clamp01(x)
	rateHz = m.params.VibratoMinRateHz + amount*(m.params.VibratoMaxRateHz-m.params.VibratoMinRateHz)
	depthHz = amount * m.params.VibratoMaxDepthHz
	return rateHz, depthHz
}

// ActiveHarmonics maps y inversely to a count in [1, MaxHarmonics].
func (m *Mapper) ActiveHarmonics(y float64) int {
	return activeHarmonicsFor(y, m.params.MaxHarmonics)
}

func activeHarmonicsFor(y float64, maxHarmonics int) int {
	n := 1 + int(math.Floor((1-clamp01(y))*float64(maxHarmonics-1)))
	return clampInt(n, 1, maxHarmonics)
}

// Arpeggiator returns the sequencer owned by the mapper.
func (m *Mapper) Arpeggiator() *Arpeggiator {
	return m.arp
}
