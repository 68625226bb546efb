// Package ui is the terminal front end: sign in, sign up, the recording home
// screen and the profile.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/san-kum/talkalot/internal/account"
	"github.com/san-kum/talkalot/internal/backend"
	"github.com/san-kum/talkalot/internal/motion"
	"github.com/san-kum/talkalot/internal/recorder"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenHome
	screenProfile
)

// Accounts is the part of account.Service the screens use.
type Accounts interface {
	Login(ctx context.Context, email, password string) (backend.User, error)
	ResetPassword(ctx context.Context, email string) (string, error)
	Signup(ctx context.Context, f account.SignupForm) (backend.User, error)
}

// Recorder is the part of recorder.Machine the home screen drives.
type Recorder interface {
	Toggle(ctx context.Context) (recorder.State, error)
	Play(ctx context.Context) error
	Clear() error
	Snapshot() recorder.Snapshot
}

// Sessions remembers who is signed in between launches.
type Sessions interface {
	SaveSession(u backend.User) error
	ClearSession() error
}

type Deps struct {
	Accounts  Accounts
	Recorder  Recorder
	Sessions  Sessions
	Animation motion.Config
	FPS       int
	// Timeout bounds backend calls; media calls are bounded by the machine.
	Timeout time.Duration
	Log     *zap.Logger
	Now     func() time.Time
}

func (d *Deps) callContext() (context.Context, context.CancelFunc) {
	if d.Timeout > 0 {
		return context.WithTimeout(context.Background(), d.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (d *Deps) mediaContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type signedOutMsg struct{}

// App routes between the screens.
type App struct {
	deps    *Deps
	screen  screen
	login   loginModel
	signup  signupModel
	home    homeModel
	profile profileModel

	width, height int
}

// NewApp starts on Home when user is set and on Login otherwise.
func NewApp(deps Deps, user *backend.User) App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	d := &deps
	a := App{
		deps:    d,
		screen:  screenLogin,
		login:   newLogin(d),
		signup:  newSignup(d),
		home:    newHome(d),
		profile: profileModel{user: user},
		width:   80,
		height:  24,
	}
	if user != nil {
		a.screen = screenHome
		a.home.ticking = true
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.screen == screenHome {
		return frame(a.home.every)
	}
	return textinput.Blink
}

func (a *App) startHome() tea.Cmd {
	var cmd tea.Cmd
	a.home, cmd = a.home.start()
	return cmd
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case gotoMsg:
		a.screen = screen(msg)
		if a.screen == screenHome {
			return a, tea.Batch(tea.ClearScreen, a.startHome())
		}
		return a, tea.ClearScreen

	case signedInMsg:
		u := msg.user
		a.home.status = msg.notice
		if err := a.deps.Sessions.SaveSession(u); err != nil {
			a.deps.Log.Warn("save session", zap.Error(err))
		}
		a.profile.user = &u
		a.screen = screenHome
		return a, tea.Batch(tea.ClearScreen, a.startHome())

	case signedOutMsg:
		if err := a.deps.Sessions.ClearSession(); err != nil {
			a.deps.Log.Warn("clear session", zap.Error(err))
		}
		a.profile.user = nil
		a.login = newLogin(a.deps)
		a.screen = screenLogin
		return a, tea.ClearScreen

	case frameMsg, snapshotMsg, levelMsg, mediaDoneMsg:
		var cmd tea.Cmd
		a.home, cmd = a.home.update(msg, a.screen == screenHome)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.update(msg)
	case screenSignup:
		a.signup, cmd = a.signup.update(msg)
	case screenHome:
		a.home, cmd = a.home.update(msg, true)
	case screenProfile:
		a.profile, cmd = a.profile.update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	switch a.screen {
	case screenLogin:
		return a.login.view()
	case screenSignup:
		return a.signup.view()
	case screenHome:
		return a.home.view(a.width, a.height)
	case screenProfile:
		return a.profile.view(len(a.home.snap.Artifacts))
	}
	return ""
}

// Run drives the program until the user quits. listen attaches the
// program's forwarder to the recorder before the first frame.
func Run(ctx context.Context, deps Deps, user *backend.User, listen func(recorder.Listener)) error {
	p := tea.NewProgram(NewApp(deps, user), tea.WithAltScreen(), tea.WithContext(ctx))
	if listen != nil {
		listen(NewForwarder(p.Send))
	}
	_, err := p.Run()
	return err
}
