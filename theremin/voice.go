package theremin

import (
	"math"

	"github.com/cwbudde/algo-theremin/dsp"
)

// VoiceState is the last target scheduled on one harmonic voice.
type VoiceState struct {
	Frequency  float64
	TargetGain float64
}

// Voice is one sawtooth partial with smoothed frequency and gain.
type Voice struct {
	osc        *dsp.SawOsc
	freq       *dsp.Param
	gain       *dsp.Param
	freqTC     float64
	gainTC     float64
	state      VoiceState
	lastUpdate float64
}

// NewVoice creates a silent voice resting at freq.
func NewVoice(sampleRate int, freq float64, freqTC float64, gainTC float64) *Voice {
	return &Voice{
		osc:    dsp.NewSawOsc(sampleRate),
		freq:   dsp.NewParam(freq),
		gain:   dsp.NewParam(0),
		freqTC: freqTC,
		gainTC: gainTC,
		state:  VoiceState{Frequency: freq},
	}
}

// SetFrequency glides toward freq starting at audio time t.
func (v *Voice) SetFrequency(freq float64, t float64) {
	v.freq.SetTargetAtTime(freq, t, v.freqTC)
	v.state.Frequency = freq
	v.lastUpdate = t
}

// SetGain fades toward value starting at audio time t.
func (v *Voice) SetGain(value float64, t float64) {
	v.gain.SetTargetAtTime(value, t, v.gainTC)
	v.state.TargetGain = value
	v.lastUpdate = t
}

// State returns the last scheduled targets.
func (v *Voice) State() VoiceState {
	return v.state
}

// LastScheduledTime returns the audio time of the latest schedule call.
func (v *Voice) LastScheduledTime() float64 {
	return v.lastUpdate
}

// FrequencyParam exposes the scheduled frequency curve.
func (v *Voice) FrequencyParam() *dsp.Param {
	return v.freq
}

// GainParam exposes the scheduled gain curve.
func (v *Voice) GainParam() *dsp.Param {
	return v.gain
}

func (v *Voice) advance(t float64) {
	v.freq.Advance(t)
	v.gain.Advance(t)
}

// next renders one sample at audio time t with fm Hz of vibrato added.
func (v *Voice) next(t float64, fm float64) float32 {
	g := v.gain.ValueAt(t)
	f := v.freq.ValueAt(t) + fm
	s := v.osc.Next(f)
	if g == 0 {
		return 0
	}
	return s * float32(g)
}

// VoiceBank is the fixed pool of harmonic voices.
type VoiceBank struct {
	voices       []*Voice
	harmonicGain float64
	out          []float32
}

// NewVoiceBank allocates params.MaxHarmonics voices tuned to the base pitch.
func NewVoiceBank(sampleRate int, params *Params) *VoiceBank {
	if params == nil {
		params = NewDefaultParams()
	}
	b := &VoiceBank{
		voices:       make([]*Voice, 0, params.MaxHarmonics),
		harmonicGain: params.HarmonicGain,
	}
	for i := 0; i < params.MaxHarmonics; i++ {
		f := params.BaseFrequency * float64(i+1)
		b.voices = append(b.voices, NewVoice(sampleRate, f, params.FrequencyTimeConstant, params.GainTimeConstant))
	}
	return b
}

// Update retunes voice i to exactly (i+1)·fundamental and fades voices at or
// above active toward zero.
func (b *VoiceBank) Update(fundamental float64, active int, t float64) {
	active = clampInt(active, 1, len(b.voices))
	for i, v := range b.voices {
		v.SetFrequency(fundamental*float64(i+1), t)
		v.SetGain(b.HarmonicGain(i, active), t)
	}
}

// HarmonicGain returns the gain target for harmonic index i.
func (b *VoiceBank) HarmonicGain(i int, active int) float64 {
	if i >= active {
		return 0
	}
	return b.harmonicGain / math.Sqrt(float64(i+1))
}

// Len returns the pool size.
func (b *VoiceBank) Len() int {
	return len(b.voices)
}

// Voice returns voice i.
func (b *VoiceBank) Voice(i int) *Voice {
	return b.voices[i]
}

// States returns the scheduled targets of every voice.
func (b *VoiceBank) States() []VoiceState {
	out := make([]VoiceState, len(b.voices))
	for i, v := range b.voices {
		out[i] = v.State()
	}
	return out
}

// Process renders a mono block starting at audio time start. fm holds the
// per-sample vibrato offset in Hz shared by every voice.
func (b *VoiceBank) Process(numFrames int, start float64, sampleRate int, fm []float64) []float32 {
	if cap(b.out) < numFrames {
		b.out = make([]float32, numFrames)
	}
	out := b.out[:numFrames]
	for i := range out {
		out[i] = 0
	}
	for _, v := range b.voices {
		v.advance(start)
	}
	dt := 1.0 / float64(sampleRate)
	for i := 0; i < numFrames; i++ {
		t := start + float64(i)*dt
		var mod float64
		if i < len(fm) {
			mod = fm[i]
		}
		var sum float32
		for _, v := range b.voices {
			sum += v.next(t, mod)
		}
		out[i] = sum
	}
	return out
}
