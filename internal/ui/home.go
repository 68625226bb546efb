package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/talkalot/internal/motion"
	"github.com/san-kum/talkalot/internal/recorder"
)

const (
	MsgPermissionRequired = "Permission to access microphone is required!"

	// disc radius in sub-pixels at scale 1
	baseRadius = 6.0
)

type homeModel struct {
	deps   *Deps
	anim   *motion.Animator
	snap   recorder.Snapshot
	alert  string
	status string

	every   time.Duration
	last    time.Time
	ticking bool
}

func newHome(deps *Deps) homeModel {
	fps := deps.FPS
	if fps <= 0 {
		fps = 60
	}
	return homeModel{
		deps:  deps,
		anim:  motion.NewAnimator(deps.Animation),
		snap:  deps.Recorder.Snapshot(),
		every: time.Second / time.Duration(fps),
	}
}

// start begins the frame clock if it is not already running.
func (m homeModel) start() (homeModel, tea.Cmd) {
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	m.last = time.Time{}
	return m, frame(m.every)
}

func (m homeModel) update(msg tea.Msg, active bool) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if !active {
			m.ticking = false
			return m, nil
		}
		now := time.Time(msg)
		dt := m.every
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now
		m.anim.Advance(dt)
		return m, frame(m.every)

	case snapshotMsg:
		m.snap = recorder.Snapshot(msg)
		m.anim.Observe(m.snap.Level, m.snap.State == recorder.Recording)
		return m, nil

	case levelMsg:
		m.snap.Level = float64(msg)
		m.anim.Observe(m.snap.Level, m.snap.State == recorder.Recording)
		return m, nil

	case mediaDoneMsg:
		m.snap = m.deps.Recorder.Snapshot()
		m.anim.Observe(m.snap.Level, m.snap.State == recorder.Recording)
		m.report(msg)
		return m, nil

	case tea.KeyMsg:
		if !active {
			return m, nil
		}
		return m.key(msg)
	}
	return m, nil
}

func (m *homeModel) report(msg mediaDoneMsg) {
	switch {
	case msg.err == nil:
		m.status = ""
	case errors.Is(msg.err, recorder.ErrPermissionDenied):
		m.alert = MsgPermissionRequired
	case errors.Is(msg.err, recorder.ErrBusy), errors.Is(msg.err, recorder.ErrInvalidTransition):
		m.deps.Log.Debug("ignored control", zap.String("action", string(msg.action)), zap.Error(msg.err))
	default:
		m.status = fmt.Sprintf("could not %s: %v", msg.action, msg.err)
	}
}

func (m homeModel) key(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	if m.alert != "" {
		switch msg.String() {
		case "enter", "esc", " ":
			m.alert = ""
		}
		return m, nil
	}

	rec := m.deps.Recorder
	switch msg.String() {
	case " ", "enter", "r":
		if m.snap.Busy {
			return m, nil
		}
		m.snap.Busy = true
		action := recorder.ActionStart
		if m.snap.State == recorder.Recording {
			action = recorder.ActionStop
		}
		return m, m.media(action, func() error {
			ctx, cancel := m.deps.mediaContext()
			defer cancel()
			_, err := rec.Toggle(ctx)
			return err
		})
	case "p":
		if !m.snap.CanPlay {
			return m, nil
		}
		m.snap.CanPlay = false
		return m, m.media(recorder.ActionPlay, func() error {
			ctx, cancel := m.deps.mediaContext()
			defer cancel()
			return rec.Play(ctx)
		})
	case "c":
		if !m.snap.CanClear {
			return m, nil
		}
		m.snap.CanClear = false
		return m, m.media(recorder.ActionClear, rec.Clear)
	case "tab":
		return m, goTo(screenProfile)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m homeModel) media(action recorder.Action, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return mediaDoneMsg{action: action, err: fn()}
	}
}

func (m homeModel) view(width, height int) string {
	cw := width / 2
	ch := height - 10
	if cw < 30 {
		cw = 30
	}
	if ch < 10 {
		ch = 10
	}

	canvas := NewCanvas(cw, ch)
	limit := math.Min(float64(cw*2), float64(ch*4))/2 - 1
	r := math.Min(baseRadius*m.anim.Scale(), limit)
	canvas.FillCircle(cw, ch*2, r)

	color := idleColor
	state := dim.Render("idle")
	switch m.snap.State {
	case recorder.Recording:
		color = recordingColor
		state = recordingColor.Render("● recording")
	case recorder.Playing:
		state = green.Render("▶ playing")
	}

	var b strings.Builder
	b.WriteString("\n  " + header("talkalot") + "  " + state + "\n\n")

	disc := color.Render(canvas.String())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, disc) + "\n\n")

	var controls []string
	if m.snap.Latest != nil {
		controls = append(controls, button.Render("p  Play Recording"))
	}
	if len(m.snap.Artifacts) > 0 {
		controls = append(controls, button.Render("c  Clear Recording"))
	}
	if len(controls) > 0 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(controls, "  ")) + "\n")
	} else {
		b.WriteString("\n")
	}

	meta := fmt.Sprintf("clips %d   level %3.0f   scale %.2f", len(m.snap.Artifacts), m.snap.Level, m.anim.Scale())
	b.WriteString("\n  " + dimmer.Render(meta) + "\n")
	if m.status != "" {
		b.WriteString("  " + dim.Render(m.status) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(hint("  space record/stop   tab profile   q quit") + "\n")

	if m.alert != "" {
		panel := alertPanel.Render(white.Render(m.alert) + "\n\n" + hint("enter ok"))
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
	}
	return b.String()
}
