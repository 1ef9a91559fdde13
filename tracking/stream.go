// Package tracking reads hand-tracker results recorded or piped as JSON
// Lines, one frame per line:
//
//	{"t_ms": 33.3, "hands": [{"label": "Left", "landmarks": [{"x": 0.4, "y": 0.6}, ...]}]}
package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/algo-theremin/theremin"
)

var ErrNonMonotonicTime = errors.New("frame time went backwards")

// Frame is one tracker result.
type Frame struct {
	TimeMS float64                `json:"t_ms"`
	Hands  []theremin.TrackedHand `json:"hands"`
}

// Offset returns the frame time since the start of the stream.
func (f Frame) Offset() time.Duration {
	return time.Duration(f.TimeMS * float64(time.Millisecond))
}

// Decoder reads frames from a JSON Lines stream.
type Decoder struct {
	dec   *json.Decoder
	line  int
	last  float64
	valid bool
}

// NewDecoder reads frames from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next returns the next frame or io.EOF at the end of the stream. Frame
// times must not decrease.
func (d *Decoder) Next() (Frame, error) {
	var f Frame
	if err := d.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("frame %d: %w", d.line+1, err)
	}
	d.line++
	if d.valid && f.TimeMS < d.last {
		return Frame{}, fmt.Errorf("frame %d at %.3f ms: %w", d.line, f.TimeMS, ErrNonMonotonicTime)
	}
	d.last, d.valid = f.TimeMS, true
	return f, nil
}

// ReadAll decodes every frame of r.
func ReadAll(r io.Reader) ([]Frame, error) {
	d := NewDecoder(r)
	var frames []Frame
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Encoder writes frames as JSON Lines.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder writes frames to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode writes one frame followed by a newline.
func (e *Encoder) Encode(f Frame) error {
	return e.enc.Encode(f)
}
