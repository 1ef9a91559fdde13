package theremin

import (
	"fmt"
	"time"
)

// DefaultArpPattern is the rising-then-falling semitone arpeggio.
var DefaultArpPattern = []int{-12, -8, -5, 0, 4, 7, 12, 7, 4, 0, -5, -8}

// Params holds all preset parameters.
type Params struct {
	MaxHarmonics int

	// Pitch span: StartOctave..EndOctave inclusive, rooted at BaseFrequency.
	BaseFrequency float64
	StartOctave   int
	EndOctave     int

	HarmonicGain float64 // gain of the fundamental; harmonic i gets HarmonicGain/sqrt(i+1)

	FrequencyTimeConstant  float64
	GainTimeConstant       float64
	ModulationTimeConstant float64

	AttackTime  float64
	ReleaseTime float64

	VibratoMinRateHz  float64
	VibratoMaxRateHz  float64
	VibratoMaxDepthHz float64

	ReverbMaxGain   float64
	ReverbDurationS float64
	ReverbDecay     float64
	ReverbSeed      int64
	ReverbIRWavPath string

	ArpInterval time.Duration
	ArpPattern  []int

	ToneCutoffHz float64 // master low-pass; 0 disables
	OutputGain   float32
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	pattern := make([]int, len(DefaultArpPattern))
	copy(pattern, DefaultArpPattern)
	return &Params{
		MaxHarmonics:           7,
		BaseFrequency:          130.81,
		StartOctave:            2,
		EndOctave:              4,
		HarmonicGain:           0.3,
		FrequencyTimeConstant:  0.03,
		GainTimeConstant:       0.01,
		ModulationTimeConstant: 0.1,
		AttackTime:             0.5,
		ReleaseTime:            0.8,
		VibratoMinRateHz:       1.0,
		VibratoMaxRateHz:       5.0,
		VibratoMaxDepthHz:      20.0,
		ReverbMaxGain:          0.7,
		ReverbDurationS:        3.0,
		ReverbDecay:            2.0,
		ReverbSeed:             1,
		ArpInterval:            200 * time.Millisecond,
		ArpPattern:             pattern,
		ToneCutoffHz:           9000,
		OutputGain:             1.0,
	}
}

// Semitones returns the width of the pitch span.
func (p *Params) Semitones() int {
	return 12 * (p.EndOctave - p.StartOctave + 1)
}

// Validate reports the first out-of-range field.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if p.MaxHarmonics < 1 {
		return fmt.Errorf("max harmonics must be >= 1")
	}
	if p.BaseFrequency <= 0 {
		return fmt.Errorf("base frequency must be > 0")
	}
	if p.EndOctave < p.StartOctave {
		return fmt.Errorf("end octave %d below start octave %d", p.EndOctave, p.StartOctave)
	}
	if p.HarmonicGain < 0 || p.HarmonicGain > 1 {
		return fmt.Errorf("harmonic gain must be in [0,1]")
	}
	if p.FrequencyTimeConstant <= 0 || p.GainTimeConstant <= 0 || p.ModulationTimeConstant <= 0 {
		return fmt.Errorf("time constants must be > 0")
	}
	if p.AttackTime <= 0 || p.ReleaseTime <= 0 {
		return fmt.Errorf("attack and release must be > 0")
	}
	if p.VibratoMinRateHz <= 0 || p.VibratoMaxRateHz < p.VibratoMinRateHz {
		return fmt.Errorf("vibrato rate range invalid: [%g,%g]", p.VibratoMinRateHz, p.VibratoMaxRateHz)
	}
	if p.VibratoMaxDepthHz < 0 {
		return fmt.Errorf("vibrato depth must be >= 0")
	}
	if p.ReverbMaxGain < 0 {
		return fmt.Errorf("reverb max gain must be >= 0")
	}
	if p.ReverbIRWavPath == "" && p.ReverbDurationS <= 0 {
		return fmt.Errorf("reverb duration must be > 0")
	}
	if p.ArpInterval <= 0 {
		return fmt.Errorf("arpeggiator interval must be > 0")
	}
	if len(p.ArpPattern) == 0 {
		return fmt.Errorf("arpeggiator pattern must not be empty")
	}
	if p.ToneCutoffHz < 0 {
		return fmt.Errorf("tone cutoff must be >= 0")
	}
	if p.OutputGain <= 0 {
		return fmt.Errorf("output gain must be > 0")
	}
	return nil
}
