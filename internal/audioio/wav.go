// Package audioio reads and writes the WAV files used for reverb impulse
// responses and diagnostic renders.
package audioio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

var ErrChannelMismatch = errors.New("left/right length mismatch")

// Stereo is a decoded two-channel signal. Mono files decode with both
// channels equal.
type Stereo struct {
	Left       []float32
	Right      []float32
	SampleRate int
}

// Frames returns the per-channel length.
func (s Stereo) Frames() int {
	return len(s.Left)
}

// ReadStereo decodes a mono or stereo WAV file.
func ReadStereo(path string) (Stereo, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stereo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Stereo{}, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Stereo{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return Stereo{}, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return Stereo{}, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	if frames == 0 {
		return Stereo{}, fmt.Errorf("empty wav data: %s", path)
	}
	st := Stereo{
		Left:       make([]float32, frames),
		Right:      make([]float32, frames),
		SampleRate: buf.Format.SampleRate,
	}
	for i := 0; i < frames; i++ {
		l := buf.Data[i*ch]
		r := l
		if ch > 1 {
			r = buf.Data[i*ch+1]
		}
		st.Left[i] = l
		st.Right[i] = r
	}
	return st, nil
}

// Resample converts the signal to rate. It is a no-op when rates match.
func (s Stereo) Resample(rate int) (Stereo, error) {
	if s.SampleRate == rate {
		return s, nil
	}
	left, err := ResampleIfNeeded(s.Left, s.SampleRate, rate)
	if err != nil {
		return Stereo{}, err
	}
	right, err := ResampleIfNeeded(s.Right, s.SampleRate, rate)
	if err != nil {
		return Stereo{}, err
	}
	return Stereo{Left: left, Right: right, SampleRate: rate}, nil
}

// ResampleIfNeeded converts in from fromRate to toRate.
func ResampleIfNeeded(in []float32, fromRate int, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", fromRate, toRate, err)
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteStereoLR writes separate channels as a 16-bit stereo WAV.
func WriteStereoLR(path string, left []float32, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return ErrChannelMismatch
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return WriteStereoInterleaved(path, data, sampleRate)
}

// WriteStereoInterleaved writes L/R interleaved samples as a 16-bit WAV.
func WriteStereoInterleaved(path string, samples []float32, sampleRate int) error {
	return writeWAV(path, samples, sampleRate, 2)
}

func writeWAV(path string, samples []float32, sampleRate int, channels int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}
