package theremin

import (
	"github.com/cwbudde/algo-theremin/dsp"
)

// ModulationState is the last set of modulation targets.
type ModulationState struct {
	ReverbMix      float64
	VibratoRateHz  float64
	VibratoDepthHz float64
}

// ModulationBus owns the global vibrato LFO and the convolution reverb send.
type ModulationBus struct {
	sampleRate    int
	timeConstant  float64
	reverbMaxGain float64

	lfo        *dsp.SineLFO
	lfoRate    *dsp.Param
	lfoDepth   *dsp.Param
	reverbGain *dsp.Param
	reverb     *ReverbConvolver

	state ModulationState
	fm    []float64
}

// NewModulationBus creates a bus with vibrato and reverb fully off.
func NewModulationBus(sampleRate int, params *Params) *ModulationBus {
	if params == nil {
		params = NewDefaultParams()
	}
	return &ModulationBus{
		sampleRate:    sampleRate,
		timeConstant:  params.ModulationTimeConstant,
		reverbMaxGain: params.ReverbMaxGain,
		lfo:           dsp.NewSineLFO(sampleRate),
		lfoRate:       dsp.NewParam(params.VibratoMinRateHz),
		lfoDepth:      dsp.NewParam(0),
		reverbGain:    dsp.NewParam(0),
		reverb:        NewReverbConvolver(sampleRate),
		state:         ModulationState{VibratoRateHz: params.VibratoMinRateHz},
	}
}

// Update glides the LFO and reverb return toward the mapped targets.
func (m *ModulationBus) Update(t Targets, now float64) {
	m.reverbGain.SetTargetAtTime(clamp01(t.ReverbMix)*m.reverbMaxGain, now, m.timeConstant)
	m.lfoRate.SetTargetAtTime(t.VibratoRateHz, now, m.timeConstant)
	m.lfoDepth.SetTargetAtTime(t.VibratoDepthHz, now, m.timeConstant)
	m.state = ModulationState{
		ReverbMix:      clamp01(t.ReverbMix),
		VibratoRateHz:  t.VibratoRateHz,
		VibratoDepthHz: t.VibratoDepthHz,
	}
}

// State returns the last scheduled targets.
func (m *ModulationBus) State() ModulationState {
	return m.state
}

// Reverb returns the convolver for IR configuration.
func (m *ModulationBus) Reverb() *ReverbConvolver {
	return m.reverb
}

// ReverbGain exposes the scheduled reverb return gain.
func (m *ModulationBus) ReverbGain() *dsp.Param {
	return m.reverbGain
}

// VibratoDepth exposes the scheduled LFO depth in Hz.
func (m *ModulationBus) VibratoDepth() *dsp.Param {
	return m.lfoDepth
}

// Vibrato renders the per-sample frequency offset in Hz for a block.
func (m *ModulationBus) Vibrato(numFrames int, start float64) []float64 {
	if cap(m.fm) < numFrames {
		m.fm = make([]float64, numFrames)
	}
	fm := m.fm[:numFrames]
	m.lfoRate.Advance(start)
	m.lfoDepth.Advance(start)
	dt := 1.0 / float64(m.sampleRate)
	for i := range fm {
		t := start + float64(i)*dt
		fm[i] = m.lfo.Next(m.lfoRate.ValueAt(t), m.lfoDepth.ValueAt(t))
	}
	return fm
}

// Wet convolves the gated voice mix and returns the stereo reverb return
// scaled by the smoothed reverb gain.
func (m *ModulationBus) Wet(send []float32, start float64) []float32 {
	wet := m.reverb.Process(send)
	m.reverbGain.Advance(start)
	dt := 1.0 / float64(m.sampleRate)
	for i := range send {
		g := float32(m.reverbGain.ValueAt(start + float64(i)*dt))
		wet[i*2] *= g
		wet[i*2+1] *= g
	}
	return wet
}

// Reset clears oscillator phase and reverb history.
func (m *ModulationBus) Reset() {
	m.lfo.Reset()
	m.reverb.Reset()
}
