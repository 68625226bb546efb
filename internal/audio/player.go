package audio

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

type player struct {
	clip   *Clip
	frames int
	log    *zap.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	pos      int
	volume   float32
	finished chan struct{}
	once     sync.Once
	done     chan error
	closed   bool
}

func newPlayer(c *Clip, frames int, log *zap.Logger) *player {
	return &player{
		clip:     c,
		frames:   frames,
		log:      log,
		volume:   1,
		finished: make(chan struct{}),
		done:     make(chan error, 1),
	}
}

func (p *player) SetVolume(v float64) error {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.mu.Lock()
	p.volume = float32(v)
	p.mu.Unlock()
	return nil
}

// process runs on the PortAudio thread; it never blocks.
func (p *player) process(out []float32) {
	p.mu.Lock()
	n := copy(out, p.clip.Samples[p.pos:])
	for i := 0; i < n; i++ {
		out[i] *= p.volume
	}
	p.pos += n
	end := p.pos >= len(p.clip.Samples)
	p.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if end {
		p.once.Do(func() { close(p.finished) })
	}
}

func (p *player) Play(ctx context.Context) error {
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.clip.SampleRate), p.frames, p.process)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()

	go p.wait()
	return nil
}

func (p *player) wait() {
	<-p.finished
	p.mu.Lock()
	stream := p.stream
	p.stream = nil
	p.mu.Unlock()

	var err error
	if stream != nil {
		err = stream.Stop()
		if cerr := stream.Close(); err == nil {
			err = cerr
		}
	}
	p.done <- err
}

func (p *player) Done() <-chan error { return p.done }

// Close stops playback early if it is still running.
func (p *player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	stream := p.stream
	p.stream = nil
	p.mu.Unlock()
	p.once.Do(func() { close(p.finished) })

	if stream == nil {
		return nil
	}
	p.log.Debug("playback interrupted")
	err := stream.Stop()
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	return err
}
