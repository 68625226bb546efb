package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second
	FullVolume     = 1.0
)

// Machine owns at most one Session and at most one Player, never both.
type Machine struct {
	media    Media
	log      *zap.Logger
	listener Listener
	timeout  time.Duration

	mu        sync.Mutex
	state     State
	busy      bool
	closed    bool
	gen       uint64
	session   Session
	player    Player
	artifacts []Artifact
	level     float64
}

type Option func(*Machine)

func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

func WithListener(l Listener) Option {
	return func(m *Machine) { m.listener = l }
}

// WithTimeout bounds every media call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) { m.timeout = d }
}

func New(media Media, opts ...Option) *Machine {
	m := &Machine{
		media:   media,
		log:     zap.NewNop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetListener replaces the observer. Used when the listener is created after
// the machine, as with a UI program.
func (m *Machine) SetListener(l Listener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

// Toggle starts a recording from Idle and stops it from Recording.
func (m *Machine) Toggle(ctx context.Context) (State, error) {
	m.mu.Lock()
	recording := m.state == Recording
	m.mu.Unlock()

	var err error
	if recording {
		_, err = m.Stop(ctx)
	} else {
		err = m.Start(ctx)
	}
	return m.State(), err
}

// Start moves Idle to Recording, asking for microphone permission first if it
// has not been granted.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if err := m.acquireLocked(ActionStart, Idle); err != nil {
		m.mu.Unlock()
		return err
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	session, err := m.openSession(ctx, gen)

	m.mu.Lock()
	m.busy = false
	if err == nil && m.closed {
		m.mu.Unlock()
		_ = session.Discard()
		return ErrClosed
	}
	if err != nil {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.log.Warn("start recording failed", zap.Error(err))
		m.notify(snap)
		return err
	}
	m.session = session
	m.state = Recording
	m.level = 0
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("recording started")
	m.notify(snap)
	return nil
}

func (m *Machine) openSession(ctx context.Context, gen uint64) (Session, error) {
	var perm Permission
	err := m.do(ctx, "permission status", func(ctx context.Context) (err error) {
		perm, err = m.media.PermissionStatus(ctx)
		return err
	}, nil)
	if err != nil {
		return nil, err
	}
	if perm != PermissionGranted {
		err = m.do(ctx, "request permission", func(ctx context.Context) (err error) {
			perm, err = m.media.RequestPermission(ctx)
			return err
		}, nil)
		if err != nil {
			return nil, err
		}
		if perm != PermissionGranted {
			return nil, ErrPermissionDenied
		}
	}

	err = m.do(ctx, "set audio mode", func(ctx context.Context) error {
		return m.media.SetAudioMode(ctx, CaptureMode)
	}, nil)
	if err != nil {
		return nil, err
	}

	var session Session
	err = m.do(ctx, "open capture", func(ctx context.Context) (err error) {
		session, err = m.media.OpenCapture(ctx, m.levelFunc(gen))
		return err
	}, func(err error) {
		if err == nil && session != nil {
			m.discard(session, "late capture")
		}
	})
	if err != nil {
		return nil, err
	}

	err = m.do(ctx, "start capture", func(ctx context.Context) error {
		if err := session.Start(ctx); err != nil {
			m.discard(session, "failed start")
			return err
		}
		return nil
	}, func(err error) {
		if err == nil {
			m.discard(session, "late start")
		}
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// levelFunc drops samples from sessions other than the current one.
func (m *Machine) levelFunc(gen uint64) LevelFunc {
	return func(level float64) {
		m.mu.Lock()
		if m.gen != gen || m.state != Recording {
			m.mu.Unlock()
			return
		}
		m.level = level
		l := m.listener
		m.mu.Unlock()

		if l != nil {
			l.Level(level)
		}
	}
}

// Stop finalizes the open session into a new latest Artifact.
func (m *Machine) Stop(ctx context.Context) (Artifact, error) {
	m.mu.Lock()
	if err := m.acquireLocked(ActionStop, Recording); err != nil {
		m.mu.Unlock()
		return Artifact{}, err
	}
	session := m.session
	m.gen++
	m.mu.Unlock()

	var art Artifact
	err := m.do(ctx, "stop capture", func(ctx context.Context) (err error) {
		if art, err = session.Stop(ctx); err != nil {
			m.discard(session, "failed stop")
		}
		return err
	}, func(err error) {
		if err == nil {
			m.discard(session, "late stop")
		}
	})

	m.mu.Lock()
	m.busy = false
	m.session = nil
	m.state = Idle
	m.level = 0
	closed := m.closed
	if err == nil && !closed {
		m.artifacts = append(m.artifacts, art)
	}
	snap := m.snapshotLocked()
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l.Level(0)
	}
	m.notify(snap)
	if err == nil && closed {
		// Closed mid-stop; the clip never becomes an artifact.
		m.discard(session, "stop after close")
		return Artifact{}, ErrClosed
	}
	if err != nil {
		m.log.Warn("stop recording failed", zap.Error(err))
		return Artifact{}, err
	}
	m.log.Info("recording stopped",
		zap.String("id", art.ID),
		zap.String("uri", art.URI),
		zap.Duration("duration", art.Duration),
	)
	return art, nil
}

// Play loads the latest Artifact and plays it at full volume. The machine
// returns to Idle by itself when the player finishes.
func (m *Machine) Play(ctx context.Context) error {
	m.mu.Lock()
	if len(m.artifacts) == 0 && !m.closed && !m.busy && m.state == Idle {
		m.mu.Unlock()
		return &TransitionError{Action: ActionPlay, State: Idle, Reason: ErrNoRecording}
	}
	if err := m.acquireLocked(ActionPlay, Idle); err != nil {
		m.mu.Unlock()
		return err
	}
	latest := m.artifacts[len(m.artifacts)-1]
	m.mu.Unlock()

	player, err := m.loadPlayer(ctx, latest.URI)

	m.mu.Lock()
	m.busy = false
	if err == nil && m.closed {
		m.mu.Unlock()
		_ = player.Close()
		return ErrClosed
	}
	if err != nil {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.log.Warn("playback failed", zap.String("uri", latest.URI), zap.Error(err))
		m.notify(snap)
		return err
	}
	m.player = player
	m.state = Playing
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("playback started", zap.String("uri", latest.URI))
	m.notify(snap)
	go m.awaitPlayback(player)
	return nil
}

func (m *Machine) loadPlayer(ctx context.Context, uri string) (Player, error) {
	err := m.do(ctx, "set audio mode", func(ctx context.Context) error {
		return m.media.SetAudioMode(ctx, PlaybackMode)
	}, nil)
	if err != nil {
		return nil, err
	}

	var player Player
	err = m.do(ctx, "load player", func(ctx context.Context) (err error) {
		player, err = m.media.LoadPlayer(ctx, uri)
		return err
	}, func(err error) {
		if err == nil && player != nil {
			m.release(player, "late player")
		}
	})
	if err != nil {
		return nil, err
	}

	if err := player.SetVolume(FullVolume); err != nil {
		m.release(player, "failed volume")
		return nil, &MediaError{Op: "set volume", Err: err}
	}
	err = m.do(ctx, "play", func(ctx context.Context) error {
		if err := player.Play(ctx); err != nil {
			m.release(player, "failed play")
			return err
		}
		return nil
	}, func(err error) {
		if err == nil {
			m.release(player, "late play")
		}
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (m *Machine) awaitPlayback(p Player) {
	err := <-p.Done()

	m.mu.Lock()
	if m.player != p {
		m.mu.Unlock()
		return
	}
	m.player = nil
	m.state = Idle
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if cerr := p.Close(); cerr != nil {
		m.log.Warn("release player", zap.Error(cerr))
	}
	if err != nil {
		m.log.Warn("playback ended with error", zap.Error(err))
	} else {
		m.log.Info("playback finished")
	}
	m.notify(snap)
}

// Clear drops every recorded Artifact at once. Only valid in Idle.
func (m *Machine) Clear() error {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case m.busy:
		m.mu.Unlock()
		return ErrBusy
	case m.state != Idle:
		st := m.state
		m.mu.Unlock()
		return &TransitionError{Action: ActionClear, State: st}
	case len(m.artifacts) == 0:
		m.mu.Unlock()
		return &TransitionError{Action: ActionClear, State: Idle, Reason: ErrNothingToClear}
	}
	n := len(m.artifacts)
	m.artifacts = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("recordings cleared", zap.Int("count", n))
	m.notify(snap)
	return nil
}

// Close releases any open session or player and refuses further transitions.
func (m *Machine) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.gen++
	var (
		session Session
		player  Player
	)
	// An in-flight call owns its session and cleans up once it sees closed.
	if !m.busy {
		session, player = m.session, m.player
		m.session, m.player = nil, nil
	}
	m.state = Idle
	m.level = 0
	snap := m.snapshotLocked()
	m.mu.Unlock()

	var errs []error
	if session != nil {
		if err := session.Discard(); err != nil {
			errs = append(errs, &MediaError{Op: "discard capture", Err: err})
		}
	}
	if player != nil {
		if err := player.Close(); err != nil {
			errs = append(errs, &MediaError{Op: "close player", Err: err})
		}
	}
	m.notify(snap)
	return errors.Join(errs...)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		State: m.state,
		Level: m.level,
		Busy:  m.busy,
	}
	if n := len(m.artifacts); n > 0 {
		s.Artifacts = make([]Artifact, n)
		copy(s.Artifacts, m.artifacts)
		latest := s.Artifacts[n-1]
		s.Latest = &latest
	}
	ready := m.state == Idle && !m.busy && !m.closed
	s.CanPlay = ready && s.Latest != nil
	s.CanClear = ready && len(s.Artifacts) > 0
	return s
}

func (m *Machine) acquireLocked(a Action, want State) error {
	if m.closed {
		return ErrClosed
	}
	if m.busy {
		return ErrBusy
	}
	if m.state != want {
		return &TransitionError{Action: a, State: m.state}
	}
	m.busy = true
	return nil
}

// do runs one media call and stops waiting for it once ctx ends, whether or
// not the call itself honors ctx. A call given up on keeps running; late then
// receives its result so whatever it produced can be released.
func (m *Machine) do(ctx context.Context, op string, fn func(context.Context) error, late func(error)) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if ctx.Done() == nil {
		if err := fn(ctx); err != nil {
			return &MediaError{Op: op, Err: err}
		}
		return nil
	}

	result := make(chan error, 1)
	go func() { result <- fn(ctx) }()

	select {
	case err := <-result:
		if err != nil {
			return &MediaError{Op: op, Err: err}
		}
		return nil
	case <-ctx.Done():
		m.log.Warn("media call abandoned", zap.String("op", op), zap.Error(ctx.Err()))
		go func() {
			err := <-result
			if late != nil {
				late(err)
			}
		}()
		return &MediaError{Op: op, Err: ctx.Err()}
	}
}

func (m *Machine) discard(s Session, why string) {
	if err := s.Discard(); err != nil {
		m.log.Debug("discard capture", zap.String("after", why), zap.Error(err))
	}
}

func (m *Machine) release(p Player, why string) {
	if err := p.Close(); err != nil {
		m.log.Debug("close player", zap.String("after", why), zap.Error(err))
	}
}

func (m *Machine) notify(s Snapshot) {
	m.mu.Lock()
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.StateChanged(s)
	}
}
