package recorder_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/talkalot/internal/recorder"
)

type fakeMedia struct {
	mu       sync.Mutex
	status   recorder.Permission
	answer   recorder.Permission
	requests int
	modes    []recorder.AudioMode
	sessions []*fakeSession
	players  []*fakePlayer

	openErr  error
	startErr error
	stopErr  error
	loadErr  error
	playErr  error

	// Hooks that hold a call until the channel is closed. They ignore ctx the
	// way a wedged audio driver would.
	block       chan struct{}
	statusBlock chan struct{}
	stopBlock   chan struct{}
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		status: recorder.PermissionUndetermined,
		answer: recorder.PermissionGranted,
	}
}

func (f *fakeMedia) PermissionStatus(ctx context.Context) (recorder.Permission, error) {
	f.mu.Lock()
	block := f.statusBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeMedia) RequestPermission(ctx context.Context) (recorder.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.status = f.answer
	return f.status, nil
}

func (f *fakeMedia) SetAudioMode(ctx context.Context, mode recorder.AudioMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	return nil
}

func (f *fakeMedia) OpenCapture(ctx context.Context, onLevel recorder.LevelFunc) (recorder.Session, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := &fakeSession{media: f, n: len(f.sessions) + 1, onLevel: onLevel}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeMedia) LoadPlayer(ctx context.Context, uri string) (recorder.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	p := &fakePlayer{media: f, uri: uri, done: make(chan error, 1)}
	f.players = append(f.players, p)
	return p, nil
}

func (f *fakeMedia) lastSession() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

func (f *fakeMedia) lastPlayer() *fakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.players) == 0 {
		return nil
	}
	return f.players[len(f.players)-1]
}

func (f *fakeMedia) lastMode() recorder.AudioMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modes[len(f.modes)-1]
}

type fakeSession struct {
	media   *fakeMedia
	n       int
	onLevel recorder.LevelFunc

	mu        sync.Mutex
	started   bool
	stopped   bool
	discarded bool
}

func (s *fakeSession) Start(ctx context.Context) error {
	s.media.mu.Lock()
	err := s.media.startErr
	s.media.mu.Unlock()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Stop(ctx context.Context) (recorder.Artifact, error) {
	s.media.mu.Lock()
	block := s.media.stopBlock
	s.media.mu.Unlock()
	if block != nil {
		<-block
	}

	s.media.mu.Lock()
	err := s.media.stopErr
	s.media.mu.Unlock()
	if err != nil {
		return recorder.Artifact{}, err
	}
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return recorder.Artifact{
		ID:        fmt.Sprintf("clip-%d", s.n),
		URI:       fmt.Sprintf("/tmp/clip-%d.wav", s.n),
		CreatedAt: time.Unix(int64(s.n), 0),
		Duration:  time.Second,
	}, nil
}

func (s *fakeSession) Discard() error {
	s.mu.Lock()
	s.discarded = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *fakeSession) isDiscarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

type fakePlayer struct {
	media *fakeMedia
	uri   string
	done  chan error

	mu     sync.Mutex
	volume float64
	played bool
	closed bool
}

func (p *fakePlayer) SetVolume(v float64) error {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) Play(ctx context.Context) error {
	p.media.mu.Lock()
	err := p.media.playErr
	p.media.mu.Unlock()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.played = true
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) Done() <-chan error { return p.done }

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) finish(err error) { p.done <- err }

func (p *fakePlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type recordingListener struct {
	mu     sync.Mutex
	states []recorder.State
	levels []float64
}

func (l *recordingListener) StateChanged(s recorder.Snapshot) {
	l.mu.Lock()
	l.states = append(l.states, s.State)
	l.mu.Unlock()
}

func (l *recordingListener) Level(level float64) {
	l.mu.Lock()
	l.levels = append(l.levels, level)
	l.mu.Unlock()
}

func (l *recordingListener) Levels() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.levels...)
}

func (l *recordingListener) States() []recorder.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorder.State(nil), l.states...)
}
