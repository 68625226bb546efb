package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/talkalot/internal/backend"
)

type profileModel struct {
	user *backend.User
}

func (m profileModel) update(msg tea.Msg) (profileModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "esc":
			return m, goTo(screenHome)
		case "o":
			return m, func() tea.Msg { return signedOutMsg{} }
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m profileModel) view(clips int) string {
	var b strings.Builder
	b.WriteString("\n  " + header("talkalot · profile") + "\n\n")
	if m.user != nil {
		b.WriteString("    " + dim.Render("email   ") + white.Render(m.user.Email) + "\n")
		b.WriteString("    " + dim.Render("account ") + dimmer.Render(m.user.ID) + "\n")
	}
	b.WriteString("    " + dim.Render("clips   ") + white.Render(fmt.Sprint(clips)) + "\n\n")
	b.WriteString(hint("    tab home   o sign out   q quit") + "\n")
	return b.String()
}
