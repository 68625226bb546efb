package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/talkalot/internal/account"
)

const (
	loginEmail = iota
	loginPassword
)

type loginModel struct {
	deps    *Deps
	form    form
	err     string
	notice  string
	pending string
}

func newLogin(deps *Deps) loginModel {
	return loginModel{
		deps: deps,
		form: newForm(
			field{label: "Email"},
			field{label: "Password", secret: true},
		),
	}
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.pending = ""
		if msg.err != nil {
			m.err = account.MessageOf(msg.err)
			return m, nil
		}
		m.form.setValue(loginPassword, "")
		user := msg.user
		return m, func() tea.Msg { return signedInMsg{user: user} }

	case resetDoneMsg:
		m.pending = ""
		if msg.err != nil {
			m.err = account.MessageOf(msg.err)
			return m, nil
		}
		m.notice = msg.notice
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m, m.form.move(1)
		case "shift+tab", "up":
			return m, m.form.move(-1)
		case "enter":
			return m.submit()
		case "ctrl+r":
			return m.reset()
		case "ctrl+n":
			return m, goTo(screenSignup)
		}
	}
	return m, m.form.update(msg)
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	m.err, m.notice = "", ""
	m.pending = "signing in…"
	email := strings.TrimSpace(m.form.value(loginEmail))
	password := m.form.value(loginPassword)
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.callContext()
		defer cancel()
		u, err := deps.Accounts.Login(ctx, email, password)
		return loginDoneMsg{user: u, err: err}
	}
}

func (m loginModel) reset() (loginModel, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	m.err, m.notice = "", ""
	m.pending = "sending reset email…"
	email := strings.TrimSpace(m.form.value(loginEmail))
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.callContext()
		defer cancel()
		notice, err := deps.Accounts.ResetPassword(ctx, email)
		return resetDoneMsg{notice: notice, err: err}
	}
}

func (m loginModel) view() string {
	var b strings.Builder
	b.WriteString("\n  " + header("talkalot · sign in") + "\n\n")
	b.WriteString(m.form.view())

	switch {
	case m.pending != "":
		b.WriteString("    " + dim.Render(m.pending) + "\n")
	case m.err != "":
		b.WriteString("    " + errorText.Render(m.err) + "\n")
	case m.notice != "":
		b.WriteString("    " + green.Render(m.notice) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n    " + button.Render("Sign In") + "\n\n")
	b.WriteString(hint("    tab next   enter sign in   ctrl+r forgot password   ctrl+n create account   ctrl+c quit") + "\n")
	return b.String()
}
