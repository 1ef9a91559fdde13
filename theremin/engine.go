package theremin

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-theremin/dsp"
	"github.com/cwbudde/algo-theremin/irsynth"
)

// Theremin is the gesture-to-sound engine. HandleResults and Process are not
// safe for concurrent use; callers on different goroutines must serialize
// them.
type Theremin struct {
	sampleRate int
	params     *Params

	mapper     *Mapper
	envelope   *EnvelopeController
	voices     *VoiceBank
	modulation *ModulationBus
	toneL      *dsp.Biquad
	toneR      *dsp.Biquad

	initialized bool
	frames      int64

	left        HandFrame
	right       HandFrame
	display     Display
	lastTargets Targets
	hasTargets  bool
	arpEngaged  bool

	logger *slog.Logger
}

// NewTheremin creates an engine with audio not yet initialized. A nil params
// uses NewDefaultParams.
func NewTheremin(sampleRate int, params *Params) *Theremin {
	if params == nil {
		params = NewDefaultParams()
	}
	t := &Theremin{
		sampleRate: sampleRate,
		params:     params,
		mapper:     NewMapper(params, nil),
		envelope:   NewEnvelopeController(params.AttackTime, params.ReleaseTime),
		voices:     NewVoiceBank(sampleRate, params),
		modulation: NewModulationBus(sampleRate, params),
		logger:     slog.New(slog.DiscardHandler),
	}
	if params.ToneCutoffHz > 0 && params.ToneCutoffHz < 0.45*float64(sampleRate) {
		t.toneL = dsp.NewLowpass(float32(params.ToneCutoffHz), float32(sampleRate), 0.707)
		t.toneR = dsp.NewLowpass(float32(params.ToneCutoffHz), float32(sampleRate), 0.707)
	}
	t.display = newDisplay(HandFrame{}, HandFrame{}, params)
	return t
}

// SetLogger routes debug events (envelope edges, arpeggiator engagement,
// rejected hands) to l. A nil logger silences them.
func (t *Theremin) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	t.logger = l
}

// InitAudio prepares the reverb IR and starts accepting parameter updates.
// Calling it again after success is a no-op.
func (t *Theremin) InitAudio() error {
	if t.initialized {
		return nil
	}
	if err := t.params.Validate(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	if err := t.loadReverbIR(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	t.initialized = true
	t.logger.Debug("audio initialized",
		"sample_rate", t.sampleRate,
		"reverb_ir_samples", t.modulation.Reverb().IRLen())
	return nil
}

func (t *Theremin) loadReverbIR() error {
	if t.params.ReverbIRWavPath != "" {
		if err := t.modulation.Reverb().SetIRFromWAV(t.params.ReverbIRWavPath); err != nil {
			return fmt.Errorf("load reverb IR %s: %w", t.params.ReverbIRWavPath, err)
		}
		return nil
	}
	cfg := irsynth.Config{
		SampleRate: t.sampleRate,
		DurationS:  t.params.ReverbDurationS,
		Decay:      t.params.ReverbDecay,
		Seed:       t.params.ReverbSeed,
	}
	left, right, err := irsynth.GenerateStereo(cfg)
	if err != nil {
		return fmt.Errorf("synthesize reverb IR: %w", err)
	}
	return t.modulation.Reverb().SetIR(left, right)
}

// Initialized reports whether InitAudio has succeeded.
func (t *Theremin) Initialized() bool {
	return t.initialized
}

// SampleRate returns the render rate.
func (t *Theremin) SampleRate() int {
	return t.sampleRate
}

// Params returns the engine parameters.
func (t *Theremin) Params() *Params {
	return t.params
}

// CurrentTime returns the audio clock in seconds: the start time of the next
// rendered block.
func (t *Theremin) CurrentTime() float64 {
	return float64(t.frames) / float64(t.sampleRate)
}

// HandleResults consumes one tracker frame. at is the wall-clock time of the
// frame and drives the arpeggiator. Before InitAudio only the display is
// updated.
func (t *Theremin) HandleResults(hands []TrackedHand, at time.Time) {
	var left, right HandFrame
	for _, h := range hands {
		side, err := ParseHandedness(h.Label)
		if err != nil {
			t.logger.Debug("hand rejected", "err", err)
			continue
		}
		frame, err := ClassifyHand(h.Landmarks, side)
		if err != nil {
			t.logger.Debug("hand rejected", "side", side, "err", err)
			continue
		}
		if side == HandLeft {
			left = frame
		} else {
			right = frame
		}
	}
	t.left, t.right = left, right
	t.display = newDisplay(left, right, t.params)

	if !t.initialized {
		return
	}

	now := t.CurrentTime()
	present := left.Present && right.Present
	if t.envelope.Update(present, now) {
		_, from := t.envelope.RampStart()
		t.logger.Debug("envelope edge",
			"present", present,
			"phase", t.envelope.Phase(now),
			"from", from,
			"at", now)
	}
	t.display.Phase = t.envelope.Phase(now)

	targets, ok := t.mapper.Map(left, right, at)
	if !ok {
		// Mapped targets freeze, but the sequencer still follows the left
		// fist so steps only accumulate while it is actually held.
		engaged := left.Present && left.IsFist
		t.mapper.Arpeggiator().Update(engaged, at)
		t.noteArpeggiator(engaged)
		return
	}
	t.noteArpeggiator(targets.ArpEngaged)
	t.voices.Update(targets.Fundamental, targets.ActiveHarmonics, now)
	t.modulation.Update(targets, now)
	t.lastTargets = targets
	t.hasTargets = true
}

func (t *Theremin) noteArpeggiator(engaged bool) {
	if engaged == t.arpEngaged {
		return
	}
	t.arpEngaged = engaged
	t.logger.Debug("arpeggiator",
		"engaged", engaged,
		"step", t.mapper.Arpeggiator().State().StepIndex)
}

// Process renders a block of audio samples (stereo interleaved). It returns
// silence and leaves the clock untouched until InitAudio succeeds.
func (t *Theremin) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	if !t.initialized || numFrames <= 0 {
		return out
	}

	start := t.CurrentTime()
	dt := 1.0 / float64(t.sampleRate)

	fm := t.modulation.Vibrato(numFrames, start)
	mix := t.voices.Process(numFrames, start, t.sampleRate, fm)

	gain := t.envelope.Gain()
	gain.Advance(start)
	for i := range mix {
		mix[i] *= float32(gain.ValueAt(start + float64(i)*dt))
	}

	// Signal flow: voices -> envelope -> dry + reverb send -> tone -> output gain.
	wet := t.modulation.Wet(mix, start)
	outGain := t.params.OutputGain
	for i := 0; i < numFrames; i++ {
		l := mix[i] + wet[i*2]
		r := mix[i] + wet[i*2+1]
		if t.toneL != nil {
			l = t.toneL.Process(l)
			r = t.toneR.Process(r)
		}
		l *= outGain
		r *= outGain
		if !isFinite(l) {
			l = 0
		}
		if !isFinite(r) {
			r = 0
		}
		out[i*2] = l
		out[i*2+1] = r
	}

	t.frames += int64(numFrames)
	return out
}

// Display returns the overlay readout of the last frame.
func (t *Theremin) Display() Display {
	d := t.display
	if t.initialized {
		d.Phase = t.envelope.Phase(t.CurrentTime())
	}
	return d
}

// Hands returns the classified hands of the last frame.
func (t *Theremin) Hands() (left HandFrame, right HandFrame) {
	return t.left, t.right
}

// LastTargets returns the most recent mapped targets; ok is false until both
// hands have been seen with audio running.
func (t *Theremin) LastTargets() (Targets, bool) {
	return t.lastTargets, t.hasTargets
}

// Voices returns the harmonic voice bank.
func (t *Theremin) Voices() *VoiceBank {
	return t.voices
}

// Envelope returns the master envelope controller.
func (t *Theremin) Envelope() *EnvelopeController {
	return t.envelope
}

// Modulation returns the vibrato/reverb bus.
func (t *Theremin) Modulation() *ModulationBus {
	return t.modulation
}

// Arpeggiator returns the step sequencer.
func (t *Theremin) Arpeggiator() *Arpeggiator {
	return t.mapper.Arpeggiator()
}
