// Package playback streams a block renderer to the system audio device.
package playback

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
)

// Source renders stereo interleaved float32 blocks.
type Source interface {
	Process(numFrames int) []float32
}

// Synced serializes rendering with control updates coming from other
// goroutines.
type Synced struct {
	mu  sync.Mutex
	src Source
}

// NewSynced wraps src.
func NewSynced(src Source) *Synced {
	return &Synced{src: src}
}

// Process renders one block under the lock.
func (s *Synced) Process(numFrames int) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Process(numFrames)
}

// Do runs fn while rendering is blocked.
func (s *Synced) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

const bytesPerFrame = 8 // two float32 channels

// Reader adapts a Source to an io.Reader of little-endian float32 stereo
// frames. With no source attached it reads silence.
type Reader struct {
	src atomic.Pointer[Synced]
}

// SetSource attaches src; nil detaches.
func (r *Reader) SetSource(src *Synced) {
	r.src.Store(src)
}

func (r *Reader) Read(p []byte) (int, error) {
	src := r.src.Load()
	frames := len(p) / bytesPerFrame
	if src == nil || frames == 0 {
		clear(p)
		return len(p), nil
	}
	samples := src.Process(frames)
	n := frames * bytesPerFrame
	for i := 0; i < frames*2; i++ {
		var v float32
		if i < len(samples) {
			v = samples[i]
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n, nil
}
