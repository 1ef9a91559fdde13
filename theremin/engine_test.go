package theremin

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-theremin/analysis"
)

func TestUninitializedEngineOnlyUpdatesDisplay(t *testing.T) {
	th := NewTheremin(testSampleRate, testParams())
	th.HandleResults([]TrackedHand{leftHand(0.5, 1, false), rightHand(0, 0)}, timeZero)

	if th.Initialized() {
		t.Fatal("engine must start uninitialized")
	}
	if th.Envelope().Edges() != 0 {
		t.Fatal("envelope must not be scheduled before audio init")
	}
	if _, ok := th.LastTargets(); ok {
		t.Fatal("no targets expected before audio init")
	}
	for i := 0; i < th.Voices().Len(); i++ {
		if th.Voices().Voice(i).GainParam().Pending() != 0 {
			t.Fatalf("voice %d has scheduled events before audio init", i)
		}
	}
	if d := th.Display(); d.Note == "" || !d.Right.Present {
		t.Fatalf("display should reflect the frame: %+v", d)
	}

	out := th.Process(512)
	if len(out) != 1024 {
		t.Fatalf("output length: got=%d want=1024", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("uninitialized output must be silent, sample %d = %f", i, v)
		}
	}
	if th.CurrentTime() != 0 {
		t.Fatalf("clock advanced before init: %f", th.CurrentTime())
	}
}

func TestScenarioBothHandsTopLeftRightEdge(t *testing.T) {
	th := newRunningTheremin(t, nil)
	th.HandleResults([]TrackedHand{leftHand(0.5, 1, false), rightHand(0, 0)}, timeZero)

	targets, ok := th.LastTargets()
	if !ok {
		t.Fatal("expected mapped targets")
	}
	if math.Abs(targets.Fundamental-1046.5) > 0.5 {
		t.Fatalf("fundamental: got=%.2f want≈1046.5", targets.Fundamental)
	}
	states := th.Voices().States()
	for i, s := range states {
		if s.Frequency != targets.Fundamental*float64(i+1) {
			t.Fatalf("voice %d frequency %f", i, s.Frequency)
		}
		if s.TargetGain <= 0 {
			t.Fatalf("all seven harmonics should be active, voice %d gain %f", i, s.TargetGain)
		}
	}
	mod := th.Modulation().State()
	if mod.VibratoDepthHz != 20 || mod.ReverbMix != 0.5 {
		t.Fatalf("modulation: %+v", mod)
	}
	if g := th.Modulation().ReverbGain().Target(); math.Abs(g-0.35) > 1e-12 {
		t.Fatalf("reverb gain target: got=%f want=0.35", g)
	}
	if p := th.Envelope().Phase(th.CurrentTime()); p != PhaseAttacking {
		t.Fatalf("phase: got=%v want=attacking", p)
	}

	renderSeconds(th, 0.6, 256)
	if p := th.Display().Phase; p != PhaseSustained {
		t.Fatalf("phase after attack: got=%v want=sustained", p)
	}
}

func TestScenarioSingleHandThenBoth(t *testing.T) {
	th := newRunningTheremin(t, nil)
	base := th.Voices().States()

	for i := 0; i < 10; i++ {
		th.HandleResults([]TrackedHand{leftHand(0.2, 0.4, false)}, timeZero.Add(time.Duration(i)*33*time.Millisecond))
		th.Process(256)
	}
	if th.Envelope().Edges() != 0 {
		t.Fatalf("one hand must not trigger the envelope, edges=%d", th.Envelope().Edges())
	}
	if _, ok := th.LastTargets(); ok {
		t.Fatal("one hand must not map targets")
	}
	for i, s := range th.Voices().States() {
		if s != base[i] {
			t.Fatalf("voice %d changed with one hand: %+v -> %+v", i, base[i], s)
		}
	}

	now := th.CurrentTime()
	th.HandleResults([]TrackedHand{leftHand(0.2, 0.4, false), rightHand(0.8, 0.8)}, timeZero.Add(400*time.Millisecond))
	if th.Envelope().Edges() != 1 {
		t.Fatalf("edges: got=%d want=1", th.Envelope().Edges())
	}
	at, from := th.Envelope().RampStart()
	if at != now || from != 0 {
		t.Fatalf("attack start: at=%f from=%f want at=%f from=0", at, from, now)
	}
	if v := th.Envelope().Gain().ValueAt(now + 0.5); math.Abs(v-1) > 1e-9 {
		t.Fatalf("attack end gain: got=%f want=1", v)
	}
}

func TestBothHandsLeavingReleases(t *testing.T) {
	th := newRunningTheremin(t, nil)
	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, false), rightHand(0.5, 0.5)}, timeZero)
	renderSeconds(th, 1.0, 256)
	frozen := th.Voices().States()

	th.HandleResults(nil, timeZero.Add(time.Second))
	if p := th.Envelope().Phase(th.CurrentTime()); p != PhaseReleasing {
		t.Fatalf("phase: got=%v want=releasing", p)
	}
	for i, s := range th.Voices().States() {
		if s != frozen[i] {
			t.Fatalf("voice %d retargeted without hands", i)
		}
	}

	out := renderSeconds(th, 1.0, 256)
	tail := out[len(out)-512:]
	if rms := analysis.RMS(tail); rms > 1e-3 {
		t.Fatalf("output should be silent after release, rms=%g", rms)
	}
}

func TestArpeggiatorHoldsStepWhileHandsAreGone(t *testing.T) {
	th := newRunningTheremin(t, nil)
	both := []TrackedHand{leftHand(0.5, 0.5, true), rightHand(0.5, 0.5)}
	th.HandleResults(both, timeZero)
	th.HandleResults(both, timeZero.Add(100*time.Millisecond))
	if st := th.Arpeggiator().State(); !st.Engaged || st.StepIndex != 0 {
		t.Fatalf("engaged at step 0 expected: %+v", st)
	}

	for ms := 150; ms <= 5000; ms += 50 {
		th.HandleResults(nil, timeZero.Add(time.Duration(ms)*time.Millisecond))
	}
	if th.Arpeggiator().State().Engaged {
		t.Fatal("arpeggiator must disengage while no hand is tracked")
	}

	back := timeZero.Add(5100 * time.Millisecond)
	th.HandleResults(both, back)
	st := th.Arpeggiator().State()
	if st.StepIndex != 0 || th.Arpeggiator().Advances() != 0 {
		t.Fatalf("absence counted as steps: step=%d advances=%d", st.StepIndex, th.Arpeggiator().Advances())
	}
	if targets, _ := th.LastTargets(); targets.ArpOffset != DefaultArpPattern[0] {
		t.Fatalf("offset on return: got=%d want=%d", targets.ArpOffset, DefaultArpPattern[0])
	}

	th.HandleResults(both, back.Add(200*time.Millisecond))
	if got := th.Arpeggiator().State().StepIndex; got != 1 {
		t.Fatalf("step one interval after return: got=%d want=1", got)
	}
}

func TestArpeggiatorFollowsLeftFistWithRightHandMissing(t *testing.T) {
	th := newRunningTheremin(t, nil)
	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, true), rightHand(0.5, 0.5)}, timeZero)
	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, true)}, timeZero.Add(450*time.Millisecond))
	if got := th.Arpeggiator().State().StepIndex; got != 2 {
		t.Fatalf("held fist keeps stepping: got=%d want=2", got)
	}
	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, false)}, timeZero.Add(500*time.Millisecond))
	if th.Arpeggiator().State().Engaged {
		t.Fatal("open left hand must disengage")
	}
}

func TestRenderedPitchFollowsLeftHand(t *testing.T) {
	th := newRunningTheremin(t, nil)
	// One harmonic, no vibrato, dry.
	th.HandleResults([]TrackedHand{leftHand(0, 0.5, false), rightHand(1, 1)}, timeZero)
	renderSeconds(th, 0.6, 256)
	out := renderSeconds(th, 1.0, 256)

	got, err := analysis.DominantFrequency(analysis.Mono(out), testSampleRate)
	if err != nil {
		t.Fatalf("DominantFrequency: %v", err)
	}
	want := 130.81 * math.Exp2(18.0/12.0)
	if math.Abs(got-want) > 2 {
		t.Fatalf("rendered pitch: got=%.2f want≈%.2f", got, want)
	}
}

func TestRenderStaysFiniteAndBounded(t *testing.T) {
	th := newRunningTheremin(t, nil)
	var out []float32
	now := timeZero
	for frame := 0; frame < 90; frame++ {
		x := 0.5 + 0.5*math.Sin(float64(frame)*0.21)
		y := 0.5 + 0.5*math.Cos(float64(frame)*0.13)
		var hands []TrackedHand
		switch {
		case frame%30 < 20:
			hands = []TrackedHand{leftHand(x, y, frame%7 < 3), rightHand(1-x, y)}
		case frame%30 < 25:
			hands = []TrackedHand{rightHand(x, 1-y)}
		}
		th.HandleResults(hands, now)
		now = now.Add(33 * time.Millisecond)
		out = append(out, th.Process(528)...)
	}

	r := analysis.Analyze(out, testSampleRate)
	if r.NonFinite != 0 {
		t.Fatalf("non-finite samples: %d", r.NonFinite)
	}
	if r.Peak > 2.5 {
		t.Fatalf("peak too high: %f", r.Peak)
	}
	if r.RMS < 1e-3 {
		t.Fatalf("render is silent, rms=%g", r.RMS)
	}
	if step := maxParamStep(th.Envelope().Gain(), 0, th.CurrentTime(), testSampleRate); step > 1.0/(0.5*testSampleRate)+1e-9 {
		t.Fatalf("envelope jumped by %g in one sample", step)
	}
}

func TestInitAudioFailsWithMissingIR(t *testing.T) {
	p := testParams()
	p.ReverbIRWavPath = "/nonexistent/ir.wav"
	th := NewTheremin(testSampleRate, p)
	if err := th.InitAudio(); err == nil {
		t.Fatal("expected error for missing IR file")
	}
	if th.Initialized() {
		t.Fatal("engine must stay uninitialized after a failed init")
	}
	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, false), rightHand(0.5, 0.5)}, timeZero)
	for _, v := range th.Process(128) {
		if v != 0 {
			t.Fatal("failed init must render silence")
		}
	}
}

func TestInitAudioLoadsIRFromWAV(t *testing.T) {
	ir := []float32{0.5, 0.25, 0.1}
	p := testParams()
	p.ReverbIRWavPath = writeTempIRWav(t, ir, ir, testSampleRate)
	th := newRunningTheremin(t, p)
	if th.Modulation().Reverb().IRLen() != len(ir) {
		t.Fatalf("IR length: got=%d want=%d", th.Modulation().Reverb().IRLen(), len(ir))
	}
}

func TestInitAudioRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.MaxHarmonics = 0
	th := NewTheremin(testSampleRate, p)
	if err := th.InitAudio(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoggerReceivesEdges(t *testing.T) {
	var buf bytes.Buffer
	th := newRunningTheremin(t, nil)
	th.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	th.HandleResults([]TrackedHand{leftHand(0.5, 0.5, true), rightHand(0.5, 0.5)}, timeZero)
	th.HandleResults([]TrackedHand{{Label: "Left", Landmarks: make([]Point, 3)}}, timeZero)

	logs := buf.String()
	for _, want := range []string{"envelope edge", "arpeggiator", "hand rejected"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("log output missing %q:\n%s", want, logs)
		}
	}
}
