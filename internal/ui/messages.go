package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/talkalot/internal/backend"
	"github.com/san-kum/talkalot/internal/recorder"
)

type (
	snapshotMsg recorder.Snapshot
	levelMsg    float64
	frameMsg    time.Time

	mediaDoneMsg struct {
		action recorder.Action
		err    error
	}

	loginDoneMsg struct {
		user backend.User
		err  error
	}

	resetDoneMsg struct {
		notice string
		err    error
	}

	signupDoneMsg struct {
		user backend.User
		err  error
	}

	// signedInMsg moves the app to Home for user. A notice, if any, shows on
	// Home's status line.
	signedInMsg struct {
		user   backend.User
		notice string
	}

	gotoMsg screen
)

func frame(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func goTo(s screen) tea.Cmd {
	return func() tea.Msg { return gotoMsg(s) }
}

// Forwarder turns machine notifications into program messages. Send is safe
// to call from any goroutine.
type Forwarder struct {
	send func(tea.Msg)
}

func NewForwarder(send func(tea.Msg)) *Forwarder {
	return &Forwarder{send: send}
}

func (f *Forwarder) StateChanged(s recorder.Snapshot) { f.send(snapshotMsg(s)) }

func (f *Forwarder) Level(level float64) { f.send(levelMsg(level)) }
