package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/talkalot/internal/account"
)

const (
	signupName = iota
	signupEmail
	signupPassword
	signupConfirm
	signupDOB
)

const msgBadDate = "Please enter your date of birth as YYYY-MM-DD."

type signupModel struct {
	deps    *Deps
	form    form
	err     string
	pending bool
}

func newSignup(deps *Deps) signupModel {
	return signupModel{
		deps: deps,
		form: newForm(
			field{label: "Name", limit: 64},
			field{label: "Email"},
			field{label: "Password", secret: true},
			field{label: "Confirm Password", secret: true},
			field{label: "Date of birth (YYYY-MM-DD)", limit: 10},
		),
	}
}

func (m signupModel) update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signupDoneMsg:
		m.pending = false
		// A created account signs in even when a later step failed.
		if msg.err != nil && msg.user.ID == "" {
			m.err = account.MessageOf(msg.err)
			return m, nil
		}
		in := signedInMsg{user: msg.user}
		if msg.err != nil {
			in.notice = account.MessageOf(msg.err)
		}
		return m, func() tea.Msg { return in }

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m, m.form.move(1)
		case "shift+tab", "up":
			return m, m.form.move(-1)
		case "enter":
			return m.submit()
		case "esc":
			return m, goTo(screenLogin)
		}
	}
	return m, m.form.update(msg)
}

// readForm collects the inputs. An empty date stays zero and is judged as
// today.
func (m signupModel) readForm(now time.Time) (account.SignupForm, bool) {
	f := account.SignupForm{
		Name:            m.form.value(signupName),
		Email:           strings.TrimSpace(m.form.value(signupEmail)),
		Password:        m.form.value(signupPassword),
		ConfirmPassword: m.form.value(signupConfirm),
	}
	if raw := strings.TrimSpace(m.form.value(signupDOB)); raw != "" {
		dob, err := account.ParseDate(raw, now.Location())
		if err != nil {
			return f, false
		}
		f.DateOfBirth = dob
	}
	return f, true
}

func (m signupModel) submit() (signupModel, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	m.err = ""
	f, ok := m.readForm(m.deps.now())
	if !ok {
		m.err = msgBadDate
		return m, nil
	}
	m.pending = true
	deps := m.deps
	return m, func() tea.Msg {
		ctx, cancel := deps.callContext()
		defer cancel()
		u, err := deps.Accounts.Signup(ctx, f)
		return signupDoneMsg{user: u, err: err}
	}
}

func (m signupModel) view() string {
	var b strings.Builder
	b.WriteString("\n  " + header("talkalot · create account") + "\n\n")
	b.WriteString(m.form.view())

	switch {
	case m.pending:
		b.WriteString("    " + dim.Render("creating account…") + "\n")
	case m.err != "":
		b.WriteString("    " + errorText.Render(m.err) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n    " + button.Render("Sign Up") + "\n\n")
	b.WriteString(hint("    tab next   enter sign up   esc back") + "\n")
	return b.String()
}
