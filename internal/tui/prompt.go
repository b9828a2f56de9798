package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	promptErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	promptDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// installPrompt asks for an identifier to install: an app id, a
// kind/id/arch/branch reference or a .flatpakref path.
type installPrompt struct {
	input textinput.Model
	err   string
}

func newInstallPrompt() installPrompt {
	in := textinput.New()
	in.Placeholder = "org.gnome.Calculator"
	in.CharLimit = 512
	in.Width = 60
	in.Focus()
	return installPrompt{input: in}
}

// submit validates the input. ok is false when the prompt stays open.
func (p *installPrompt) submit() (identifier string, ok bool) {
	identifier = strings.TrimSpace(p.input.Value())
	switch {
	case identifier == "":
		p.err = "enter an app id, a reference or a .flatpakref path"
		return "", false
	case strings.ContainsAny(identifier, " \t"):
		p.err = "identifiers cannot contain spaces"
		return "", false
	}
	p.err = ""
	return identifier, true
}

func (p installPrompt) update(msg tea.Msg) (installPrompt, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p installPrompt) view() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("flatjail - Install"))
	sb.WriteString("\n")
	sb.WriteString(promptLabelStyle.Render("Identifier to install:"))
	sb.WriteString("\n")
	sb.WriteString(p.input.View())
	sb.WriteString("\n")
	if p.err != "" {
		sb.WriteString(promptErrStyle.Render(p.err))
		sb.WriteString("\n")
	}
	sb.WriteString(promptDimStyle.Render("[enter] Install  [esc] Back"))
	return sb.String()
}
