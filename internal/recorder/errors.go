package recorder

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is matched by every rejected transition.
	ErrInvalidTransition = errors.New("recorder: invalid transition")

	// ErrPermissionDenied indicates the user refused microphone access.
	ErrPermissionDenied = errors.New("recorder: microphone permission denied")

	// ErrNoRecording indicates play was requested with no latest artifact.
	ErrNoRecording = errors.New("recorder: no recording to play")

	// ErrNothingToClear indicates clear was requested on an empty sequence.
	ErrNothingToClear = errors.New("recorder: no recordings to clear")

	// ErrBusy indicates another transition is still waiting on the media layer.
	ErrBusy = errors.New("recorder: transition already in progress")

	// ErrClosed indicates the machine was torn down.
	ErrClosed = errors.New("recorder: closed")
)

// Action names a user-triggered operation.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
	ActionPlay  Action = "play"
	ActionClear Action = "clear"
)

// TransitionError reports an action that is not available in the current state.
type TransitionError struct {
	Action Action
	State  State
	Reason error
}

func (e *TransitionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("recorder: cannot %s while %s: %v", e.Action, e.State, e.Reason)
	}
	return fmt.Sprintf("recorder: cannot %s while %s", e.Action, e.State)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func (e *TransitionError) Unwrap() error {
	return e.Reason
}

// MediaError wraps a failure from the media subsystem with the step that failed.
type MediaError struct {
	Op  string
	Err error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("recorder: %s: %v", e.Op, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}
