package theremin

import (
	"fmt"
	"math"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-theremin/internal/audioio"
)

const (
	reverbPartSize = 128

	// Equal-power IR normalization: -58 dB calibration referenced to 44.1 kHz,
	// with a floor on the measured IR power.
	reverbGainCalibration = 0.00125
	reverbCalibrationRate = 44100.0
	reverbMinPower        = 0.000125
)

// ReverbConvolver is a stereo partitioned convolution reverb fed by a mono
// send. Input is buffered into fixed partitions, so the wet path runs one
// partition behind the dry signal for any caller block size.
type ReverbConvolver struct {
	sampleRate int
	partSize   int
	irLen      int
	normalize  bool

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	pending  []float32 // input waiting for a full partition
	fifoL    []float32 // rendered output not yet handed out
	fifoR    []float32
	leftOut  []float32
	rightOut []float32
}

// NewReverbConvolver creates a convolver that passes its input through
// unchanged until SetIR loads an impulse response.
func NewReverbConvolver(sampleRate int) *ReverbConvolver {
	return &ReverbConvolver{
		sampleRate: sampleRate,
		partSize:   reverbPartSize,
		irLen:      1,
		normalize:  true,
		leftOut:    make([]float32, reverbPartSize),
		rightOut:   make([]float32, reverbPartSize),
	}
}

// SetNormalize toggles equal-power scaling of impulse responses set
// afterwards. It is on by default so long noise IRs do not swamp the dry
// signal.
func (c *ReverbConvolver) SetNormalize(on bool) {
	c.normalize = on
}

// SetIR configures left/right impulse responses and clears history.
func (c *ReverbConvolver) SetIR(leftIR []float32, rightIR []float32) error {
	if len(leftIR) == 0 {
		leftIR = []float32{1}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1}
	}
	if c.normalize {
		scale := c.normalizationScale(leftIR, rightIR)
		leftIR = scaled(leftIR, scale)
		rightIR = scaled(rightIR, scale)
	}
	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	if err != nil {
		return fmt.Errorf("left reverb IR: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if err != nil {
		return fmt.Errorf("right reverb IR: %w", err)
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.irLen = max(len(leftIR), len(rightIR))
	c.Reset()
	return nil
}

func (c *ReverbConvolver) normalizationScale(left []float32, right []float32) float32 {
	var sum float64
	for _, v := range left {
		sum += float64(v) * float64(v)
	}
	for _, v := range right {
		sum += float64(v) * float64(v)
	}
	power := math.Sqrt(sum / float64(len(left)+len(right)))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < reverbMinPower {
		power = reverbMinPower
	}
	return float32(reverbGainCalibration * float64(c.sampleRate) / reverbCalibrationRate / power)
}

func scaled(in []float32, g float32) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = v * g
	}
	return out
}

// SetIRFromWAV loads a mono or stereo IR and resamples it to the engine rate.
func (c *ReverbConvolver) SetIRFromWAV(path string) error {
	st, err := audioio.ReadStereo(path)
	if err != nil {
		return err
	}
	st, err = st.Resample(c.sampleRate)
	if err != nil {
		return err
	}
	return c.SetIR(st.Left, st.Right)
}

// IRLen returns the longer channel length of the loaded IR.
func (c *ReverbConvolver) IRLen() int {
	return c.irLen
}

// Latency returns the wet-path delay in samples.
func (c *ReverbConvolver) Latency() int {
	if c.leftOLA == nil {
		return 0
	}
	return c.partSize
}

// Reset clears convolver history and overlap buffers.
func (c *ReverbConvolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
	c.pending = c.pending[:0]
	c.fifoL = append(c.fifoL[:0], make([]float32, c.partSize)...)
	c.fifoR = append(c.fifoR[:0], make([]float32, c.partSize)...)
}

// Process convolves mono input and returns stereo interleaved output of the
// same frame count.
func (c *ReverbConvolver) Process(input []float32) []float32 {
	output := make([]float32, len(input)*2)
	if len(input) == 0 {
		return output
	}
	if c.leftOLA == nil || c.rightOLA == nil {
		for i, v := range input {
			output[i*2] = v
			output[i*2+1] = v
		}
		return output
	}

	for _, v := range input {
		c.pending = append(c.pending, v)
		if len(c.pending) < c.partSize {
			continue
		}
		errL := c.leftOLA.ProcessBlockTo(c.leftOut, c.pending)
		errR := c.rightOLA.ProcessBlockTo(c.rightOut, c.pending)
		if errL != nil || errR != nil {
			c.fifoL = append(c.fifoL, make([]float32, c.partSize)...)
			c.fifoR = append(c.fifoR, make([]float32, c.partSize)...)
		} else {
			c.fifoL = append(c.fifoL, c.leftOut...)
			c.fifoR = append(c.fifoR, c.rightOut...)
		}
		c.pending = c.pending[:0]
	}

	for i := range input {
		output[i*2] = float32(dspcore.FlushDenormals(float64(c.fifoL[i])))
		output[i*2+1] = float32(dspcore.FlushDenormals(float64(c.fifoR[i])))
	}
	c.fifoL = append(c.fifoL[:0], c.fifoL[len(input):]...)
	c.fifoR = append(c.fifoR[:0], c.fifoR[len(input):]...)
	return output
}
