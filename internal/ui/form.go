package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label  string
	secret bool
	limit  int
}

// form is a column of text inputs with one focused at a time.
type form struct {
	inputs []textinput.Model
	labels []string
	focus  int
}

func newForm(fields ...field) form {
	f := form{
		inputs: make([]textinput.Model, len(fields)),
		labels: make([]string, len(fields)),
	}
	for i, fd := range fields {
		in := textinput.New()
		in.Placeholder = fd.label
		in.Prompt = "  "
		in.Width = 32
		if fd.limit > 0 {
			in.CharLimit = fd.limit
		}
		if fd.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
		f.labels[i] = fd.label
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func (f *form) value(i int) string { return f.inputs[i].Value() }

func (f *form) setValue(i int, v string) { f.inputs[i].SetValue(v) }

func (f *form) move(delta int) tea.Cmd {
	n := len(f.inputs)
	if n == 0 {
		return nil
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + n) % n
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := dim.Render(f.labels[i])
		if i == f.focus {
			label = cyan.Render("▸ ") + white.Render(f.labels[i])
		} else {
			label = "  " + label
		}
		b.WriteString("    " + label + "\n")
		b.WriteString("    " + in.View() + "\n\n")
	}
	return b.String()
}
