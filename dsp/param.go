package dsp

import (
	"sort"

	"github.com/cwbudde/algo-approx"
)

type eventKind int

const (
	eventSetValue eventKind = iota
	eventLinearRamp
	eventSetTarget
)

type paramEvent struct {
	kind   eventKind
	time   float64
	value  float64
	timeTC float64 // time constant, setTarget only
}

// segment is the curve in effect after the last folded event.
type segment struct {
	kind   eventKind
	time   float64
	start  float64
	target float64
	timeTC float64
}

func (s segment) valueAt(t float64) float64 {
	if s.kind != eventSetTarget || t <= s.time {
		return s.start
	}
	return approachTarget(s.start, s.target, (t-s.time)/s.timeTC)
}

// approachTarget evaluates target + (start-target)·e^(-x).
func approachTarget(start float64, target float64, x float64) float64 {
	if x >= 30 {
		return target
	}
	return target + (start-target)*float64(approx.FastExp(float32(-x)))
}

// Param is a scheduled control value on an audio clock measured in seconds.
// It mirrors the automation model of scheduled-parameter audio graphs:
// control code queues events ahead of time and the render path samples
// ValueAt on its own clock. A Param is not safe for concurrent use.
type Param struct {
	base   segment
	events []paramEvent
}

// NewParam creates a param holding value from time 0.
func NewParam(value float64) *Param {
	return &Param{base: segment{kind: eventSetValue, start: value}}
}

// SetValueAtTime schedules an immediate jump to value at time t.
func (p *Param) SetValueAtTime(value float64, t float64) {
	p.insert(paramEvent{kind: eventSetValue, time: t, value: value})
}

// LinearRampToValueAtTime schedules a linear ramp from the previous event
// (time and value) that reaches value at endTime.
func (p *Param) LinearRampToValueAtTime(value float64, endTime float64) {
	p.insert(paramEvent{kind: eventLinearRamp, time: endTime, value: value})
}

// SetTargetAtTime starts an exponential approach toward target at time t
// with the given time constant in seconds. A non-positive time constant
// behaves like SetValueAtTime.
func (p *Param) SetTargetAtTime(target float64, t float64, timeConstant float64) {
	if timeConstant <= 0 {
		p.SetValueAtTime(target, t)
		return
	}
	p.insert(paramEvent{kind: eventSetTarget, time: t, value: target, timeTC: timeConstant})
}

// CancelScheduledValues removes every pending event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

// CancelAndHoldAtTime reads the value at t, cancels events at or after t and
// pins the param to that value from t. A linear ramp in progress at t is
// truncated rather than dropped, so the curve before t is unchanged. It
// returns the held value.
func (p *Param) CancelAndHoldAtTime(t float64) float64 {
	v := p.ValueAt(t)
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	truncateRamp := i < len(p.events) && p.events[i].kind == eventLinearRamp
	p.events = p.events[:i]
	if truncateRamp {
		p.LinearRampToValueAtTime(v, t)
	} else {
		p.SetValueAtTime(v, t)
	}
	return v
}

// ValueAt evaluates the automation curve at time t without consuming events.
func (p *Param) ValueAt(t float64) float64 {
	cur := p.base
	for _, e := range p.events {
		if e.time > t {
			if e.kind == eventLinearRamp {
				return rampValue(cur, e, t)
			}
			return cur.valueAt(t)
		}
		cur = fold(cur, e)
	}
	return cur.valueAt(t)
}

// Advance folds every event at or before t into the base curve. The render
// path calls it as its clock moves forward so the event list stays short.
func (p *Param) Advance(t float64) {
	n := 0
	for n < len(p.events) && p.events[n].time <= t {
		p.base = fold(p.base, p.events[n])
		n++
	}
	if n > 0 {
		p.events = append(p.events[:0], p.events[n:]...)
	}
}

// Pending returns the number of events not yet folded.
func (p *Param) Pending() int {
	return len(p.events)
}

// Target returns the final value the curve settles at once every pending
// event has run.
func (p *Param) Target() float64 {
	cur := p.base
	for _, e := range p.events {
		cur = fold(cur, e)
	}
	if cur.kind == eventSetTarget {
		return cur.target
	}
	return cur.start
}

// insert keeps events ordered by time. A set-value or set-target event
// replaces one of the same kind already queued at the same time, which
// evaluates identically, so a stalled render clock does not grow the list.
func (p *Param) insert(e paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	if i > 0 && e.kind != eventLinearRamp {
		if prev := &p.events[i-1]; prev.time == e.time && prev.kind == e.kind {
			*prev = e
			return
		}
	}
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

func fold(cur segment, e paramEvent) segment {
	switch e.kind {
	case eventSetTarget:
		return segment{
			kind:   eventSetTarget,
			time:   e.time,
			start:  cur.valueAt(e.time),
			target: e.value,
			timeTC: e.timeTC,
		}
	default:
		return segment{kind: e.kind, time: e.time, start: e.value}
	}
}

func rampValue(cur segment, e paramEvent, t float64) float64 {
	startTime := cur.time
	startValue := cur.valueAt(startTime)
	dur := e.time - startTime
	if t <= startTime {
		return startValue
	}
	if dur <= 0 {
		return e.value
	}
	return startValue + (e.value-startValue)*(t-startTime)/dur
}
