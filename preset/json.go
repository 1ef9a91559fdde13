package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/algo-theremin/theremin"
)

// File is the JSON schema for theremin presets. Absent fields keep their
// defaults.
type File struct {
	MaxHarmonics  *int     `json:"max_harmonics"`
	BaseFrequency *float64 `json:"base_frequency"`
	StartOctave   *int     `json:"start_octave"`
	EndOctave     *int     `json:"end_octave"`
	HarmonicGain  *float64 `json:"harmonic_gain"`
	OutputGain    *float32 `json:"output_gain"`
	ToneCutoffHz  *float64 `json:"tone_cutoff_hz"`

	AttackTime  *float64 `json:"attack_time"`
	ReleaseTime *float64 `json:"release_time"`

	Smoothing   *SmoothingSetting   `json:"smoothing"`
	Vibrato     *VibratoSetting     `json:"vibrato"`
	Reverb      *ReverbSetting      `json:"reverb"`
	Arpeggiator *ArpeggiatorSetting `json:"arpeggiator"`
}

// SmoothingSetting overrides the param time constants in seconds.
type SmoothingSetting struct {
	Frequency  *float64 `json:"frequency"`
	Gain       *float64 `json:"gain"`
	Modulation *float64 `json:"modulation"`
}

type VibratoSetting struct {
	MinRateHz  *float64 `json:"min_rate_hz"`
	MaxRateHz  *float64 `json:"max_rate_hz"`
	MaxDepthHz *float64 `json:"max_depth_hz"`
}

type ReverbSetting struct {
	MaxGain   *float64 `json:"max_gain"`
	DurationS *float64 `json:"duration_s"`
	Decay     *float64 `json:"decay"`
	Seed      *int64   `json:"seed"`
	IRWavPath string   `json:"ir_wav_path"`
}

type ArpeggiatorSetting struct {
	IntervalMS *float64 `json:"interval_ms"`
	Pattern    []int    `json:"pattern"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*theremin.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := theremin.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}

	if p.ReverbIRWavPath != "" && !filepath.IsAbs(p.ReverbIRWavPath) {
		base := filepath.Dir(path)
		p.ReverbIRWavPath = filepath.Clean(filepath.Join(base, p.ReverbIRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object and
// validates the result.
func ApplyFile(dst *theremin.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.MaxHarmonics != nil {
		if *f.MaxHarmonics < 1 || *f.MaxHarmonics > 32 {
			return fmt.Errorf("max_harmonics must be in [1,32]")
		}
		dst.MaxHarmonics = *f.MaxHarmonics
	}
	if f.BaseFrequency != nil {
		if *f.BaseFrequency <= 0 {
			return fmt.Errorf("base_frequency must be > 0")
		}
		dst.BaseFrequency = *f.BaseFrequency
	}
	setInt(&dst.StartOctave, f.StartOctave)
	setInt(&dst.EndOctave, f.EndOctave)
	if f.HarmonicGain != nil {
		if *f.HarmonicGain < 0 || *f.HarmonicGain > 1 {
			return fmt.Errorf("harmonic_gain must be in [0,1]")
		}
		dst.HarmonicGain = *f.HarmonicGain
	}
	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	setFloat(&dst.ToneCutoffHz, f.ToneCutoffHz)
	setFloat(&dst.AttackTime, f.AttackTime)
	setFloat(&dst.ReleaseTime, f.ReleaseTime)

	if s := f.Smoothing; s != nil {
		setFloat(&dst.FrequencyTimeConstant, s.Frequency)
		setFloat(&dst.GainTimeConstant, s.Gain)
		setFloat(&dst.ModulationTimeConstant, s.Modulation)
	}
	if v := f.Vibrato; v != nil {
		setFloat(&dst.VibratoMinRateHz, v.MinRateHz)
		setFloat(&dst.VibratoMaxRateHz, v.MaxRateHz)
		setFloat(&dst.VibratoMaxDepthHz, v.MaxDepthHz)
	}
	if r := f.Reverb; r != nil {
		setFloat(&dst.ReverbMaxGain, r.MaxGain)
		setFloat(&dst.ReverbDurationS, r.DurationS)
		setFloat(&dst.ReverbDecay, r.Decay)
		if r.Seed != nil {
			dst.ReverbSeed = *r.Seed
		}
		if p := strings.TrimSpace(r.IRWavPath); p != "" {
			dst.ReverbIRWavPath = p
		}
	}
	if a := f.Arpeggiator; a != nil {
		if a.IntervalMS != nil {
			if *a.IntervalMS <= 0 {
				return fmt.Errorf("arpeggiator.interval_ms must be > 0")
			}
			dst.ArpInterval = time.Duration(*a.IntervalMS * float64(time.Millisecond))
		}
		if a.Pattern != nil {
			if len(a.Pattern) == 0 {
				return fmt.Errorf("arpeggiator.pattern must not be empty")
			}
			for i, st := range a.Pattern {
				if st < -48 || st > 48 {
					return fmt.Errorf("arpeggiator.pattern[%d] = %d outside [-48,48]", i, st)
				}
			}
			dst.ArpPattern = append([]int(nil), a.Pattern...)
		}
	}
	return dst.Validate()
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
