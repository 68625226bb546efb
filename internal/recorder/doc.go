// Package recorder implements the record/playback state machine behind the
// home screen.
//
// A [Machine] is always in exactly one [State]:
//
//   - [Idle]: nothing open; start and play are possible
//   - [Recording]: a microphone [Session] is open and feeding amplitude samples
//   - [Playing]: a [Player] is loaded with the latest [Artifact]
//
// Transitions that are not valid in the current state are rejected with a
// [*TransitionError] instead of being silently ignored. Failures from the
// platform [Media] collaborator come back as [*MediaError] and always leave the
// machine in Idle.
//
// # Example
//
//	m := recorder.New(media, recorder.WithLogger(log))
//	if err := m.Start(ctx); errors.Is(err, recorder.ErrPermissionDenied) {
//	    // ask the user to allow the microphone
//	}
//	art, _ := m.Stop(ctx)
//	_ = m.Play(ctx)
//
// # Thread Safety
//
// Machine methods may be called from any goroutine. Media calls run without
// the internal lock held, and overlapping transitions return [ErrBusy].
package recorder
