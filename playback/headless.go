//go:build headless

package playback

import "time"

// OtoPlayer is the device-less stand-in used by headless builds. Pull drives
// the source the way the audio callback would.
type OtoPlayer struct {
	reader  Reader
	started bool
}

func NewOtoPlayer(sampleRate int, bufferSize time.Duration) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (p *OtoPlayer) SetupPlayer(src *Synced) {
	p.reader.SetSource(src)
}

// Pull reads len(buf) bytes from the source.
func (p *OtoPlayer) Pull(buf []byte) (int, error) {
	return p.reader.Read(buf)
}

func (p *OtoPlayer) Start() {
	p.started = true
}

func (p *OtoPlayer) Stop() {
	p.started = false
}

func (p *OtoPlayer) Close() error {
	p.started = false
	p.reader.SetSource(nil)
	return nil
}

func (p *OtoPlayer) IsStarted() bool {
	return p.started
}
