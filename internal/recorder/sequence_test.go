package recorder_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/san-kum/talkalot/internal/recorder"
)

func TestStartStopAlternates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()
	m := recorder.New(newFakeMedia())
	defer m.Close()

	want := recorder.Idle
	completed := 0
	for i := 0; i < 200; i++ {
		if rng.Intn(2) == 0 {
			err := m.Start(ctx)
			if want == recorder.Recording {
				if !errors.Is(err, recorder.ErrInvalidTransition) {
					t.Fatalf("step %d: start while recording: got %v", i, err)
				}
			} else if err != nil {
				t.Fatalf("step %d: start: %v", i, err)
			} else {
				want = recorder.Recording
			}
		} else {
			_, err := m.Stop(ctx)
			if want == recorder.Idle {
				if !errors.Is(err, recorder.ErrInvalidTransition) {
					t.Fatalf("step %d: stop while idle: got %v", i, err)
				}
			} else if err != nil {
				t.Fatalf("step %d: stop: %v", i, err)
			} else {
				want = recorder.Idle
				completed++
			}
		}

		if got := m.State(); got != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, got)
		}
	}

	snap := m.Snapshot()
	if len(snap.Artifacts) != completed {
		t.Errorf("expected %d artifacts, got %d", completed, len(snap.Artifacts))
	}
	if completed > 0 && (snap.Latest == nil || *snap.Latest != snap.Artifacts[completed-1]) {
		t.Errorf("latest does not match the last artifact")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    recorder.State
		expected string
	}{
		{recorder.Idle, "idle"},
		{recorder.Recording, "recording"},
		{recorder.Playing, "playing"},
		{recorder.State(9), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}
