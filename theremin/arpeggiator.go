package theremin

import "time"

// ArpeggiatorState is a snapshot of the step sequencer.
type ArpeggiatorState struct {
	Engaged      bool
	StepIndex    int
	LastStepTime time.Time
}

// Arpeggiator overlays a cyclic semitone pattern on the mapped pitch. It
// steps on a fixed wall-clock grid anchored at engagement, so tempo does not
// depend on the tracking frame rate. The step index is kept across
// disengage/engage and resumes where it left off.
type Arpeggiator struct {
	pattern  []int
	interval time.Duration

	engaged      bool
	stepIndex    int
	lastStepTime time.Time
	advances     uint64
}

// NewArpeggiator creates a disengaged arpeggiator at step 0.
func NewArpeggiator(pattern []int, interval time.Duration) *Arpeggiator {
	if len(pattern) == 0 {
		pattern = DefaultArpPattern
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	p := make([]int, len(pattern))
	copy(p, pattern)
	return &Arpeggiator{pattern: p, interval: interval}
}

// Update samples the engage flag at wall-clock time now, advances one step
// per elapsed interval boundary, and returns the current semitone offset
// (0 while disengaged).
func (a *Arpeggiator) Update(engaged bool, now time.Time) int {
	if !engaged {
		a.engaged = false
		return 0
	}
	if !a.engaged {
		a.engaged = true
		a.lastStepTime = now
		return a.pattern[a.stepIndex]
	}
	elapsed := now.Sub(a.lastStepTime)
	if elapsed >= a.interval {
		n := int64(elapsed / a.interval)
		a.stepIndex = int((int64(a.stepIndex) + n) % int64(len(a.pattern)))
		a.lastStepTime = a.lastStepTime.Add(time.Duration(n) * a.interval)
		a.advances += uint64(n)
	}
	return a.pattern[a.stepIndex]
}

// Offset returns the current semitone offset without advancing.
func (a *Arpeggiator) Offset() int {
	if !a.engaged {
		return 0
	}
	return a.pattern[a.stepIndex]
}

// Advances returns the total number of steps taken since creation.
func (a *Arpeggiator) Advances() uint64 {
	return a.advances
}

// State returns a snapshot of the sequencer.
func (a *Arpeggiator) State() ArpeggiatorState {
	return ArpeggiatorState{
		Engaged:      a.engaged,
		StepIndex:    a.stepIndex,
		LastStepTime: a.lastStepTime,
	}
}
