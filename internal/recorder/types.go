package recorder

import (
	"context"
	"time"
)

type State int

const (
	Idle State = iota
	Recording
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Artifact is a finished clip addressable by URI.
type Artifact struct {
	ID        string        `json:"id"`
	URI       string        `json:"uri"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// AudioMode describes how the platform routes input and output.
type AudioMode struct {
	AllowsRecording         bool
	PlaysInSilentMode       bool
	StaysActiveInBackground bool
	ShouldDuck              bool
	PlayThroughEarpiece     bool
}

var (
	CaptureMode = AudioMode{
		AllowsRecording:   true,
		PlaysInSilentMode: true,
	}

	PlaybackMode = AudioMode{
		AllowsRecording:   false,
		PlaysInSilentMode: true,
		ShouldDuck:        true,
	}
)

type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// LevelFunc receives loudness samples while a session is recording.
type LevelFunc func(level float64)

// Media is the platform audio subsystem.
type Media interface {
	PermissionStatus(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	SetAudioMode(ctx context.Context, mode AudioMode) error
	OpenCapture(ctx context.Context, onLevel LevelFunc) (Session, error)
	LoadPlayer(ctx context.Context, uri string) (Player, error)
}

// Session is an open microphone capture.
type Session interface {
	Start(ctx context.Context) error
	// Stop finalizes the capture into an artifact and releases the device.
	Stop(ctx context.Context) (Artifact, error)
	// Discard releases the device without producing an artifact.
	Discard() error
}

// Player is a loaded clip.
type Player interface {
	SetVolume(v float64) error
	Play(ctx context.Context) error
	// Done yields once when playback finishes, with a non-nil error on failure.
	Done() <-chan error
	Close() error
}

// Listener observes a Machine. Callbacks run outside the machine lock and may
// come from media goroutines.
type Listener interface {
	StateChanged(s Snapshot)
	Level(level float64)
}

// Snapshot is the observable state of a Machine. CanPlay and CanClear say
// which controls are available.
type Snapshot struct {
	State     State
	Level     float64
	Artifacts []Artifact
	Latest    *Artifact
	Busy      bool
	CanPlay   bool
	CanClear  bool
}
