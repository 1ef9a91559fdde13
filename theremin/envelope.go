package theremin

import "github.com/cwbudde/algo-theremin/dsp"

// EnvelopePhase is the master amplitude state.
type EnvelopePhase int

const (
	PhaseSilent EnvelopePhase = iota
	PhaseAttacking
	PhaseSustained
	PhaseReleasing
)

func (p EnvelopePhase) String() string {
	switch p {
	case PhaseAttacking:
		return "attacking"
	case PhaseSustained:
		return "sustained"
	case PhaseReleasing:
		return "releasing"
	default:
		return "silent"
	}
}

// EnvelopeController turns "both hands present" edges into linear master
// gain ramps. Only edges reschedule the ramp.
type EnvelopeController struct {
	gain        *dsp.Param
	attackTime  float64
	releaseTime float64

	present        bool
	phase          EnvelopePhase
	rampStart      float64
	rampEnd        float64
	rampStartValue float64
	edges          int
}

// NewEnvelopeController creates a silent envelope.
func NewEnvelopeController(attackTime float64, releaseTime float64) *EnvelopeController {
	g := dsp.NewParam(0)
	g.SetValueAtTime(0, 0)
	return &EnvelopeController{
		gain:        g,
		attackTime:  attackTime,
		releaseTime: releaseTime,
	}
}

// Update samples hand presence at audio time now. It returns true when an
// edge was detected and a new ramp was scheduled.
func (e *EnvelopeController) Update(present bool, now float64) bool {
	e.settle(now)
	if present == e.present {
		return false
	}
	e.present = present

	target, dur := 1.0, e.attackTime
	e.phase = PhaseAttacking
	if !present {
		target, dur = 0.0, e.releaseTime
		e.phase = PhaseReleasing
	}
	e.rampStartValue = e.gain.CancelAndHoldAtTime(now)
	e.gain.LinearRampToValueAtTime(target, now+dur)
	e.rampStart = now
	e.rampEnd = now + dur
	e.edges++
	return true
}

// Phase returns the envelope phase at audio time now.
func (e *EnvelopeController) Phase(now float64) EnvelopePhase {
	e.settle(now)
	return e.phase
}

func (e *EnvelopeController) settle(now float64) {
	if now < e.rampEnd {
		return
	}
	switch e.phase {
	case PhaseAttacking:
		e.phase = PhaseSustained
	case PhaseReleasing:
		e.phase = PhaseSilent
	}
}

// Gain returns the scheduled master gain param.
func (e *EnvelopeController) Gain() *dsp.Param {
	return e.gain
}

// RampStart returns the time and starting value of the last scheduled ramp.
func (e *EnvelopeController) RampStart() (at float64, value float64) {
	return e.rampStart, e.rampStartValue
}

// Edges returns how many ramps have been scheduled.
func (e *EnvelopeController) Edges() int {
	return e.edges
}
