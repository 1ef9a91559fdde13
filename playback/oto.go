//go:build !headless

package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays a Source through the default output device.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	reader  Reader
	started bool
	mutex   sync.Mutex // setup and transport only; Read is lock-free
}

// NewOtoPlayer opens a stereo float32 output at sampleRate. bufferSize sets
// the device latency; zero lets the driver choose.
func NewOtoPlayer(sampleRate int, bufferSize time.Duration) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer attaches the source and creates the device stream.
func (p *OtoPlayer) SetupPlayer(src *Synced) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.reader.SetSource(src)
	if p.player == nil {
		p.player = p.ctx.NewPlayer(&p.reader)
	}
}

func (p *OtoPlayer) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *OtoPlayer) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

func (p *OtoPlayer) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.reader.SetSource(nil)
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}

func (p *OtoPlayer) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
