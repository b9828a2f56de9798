// Package tui provides terminal user interface components for flatjail
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionRun
	ActionInstall
	ActionEvents
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	App    *AppEntry
	// Identifier is set for ActionInstall.
	Identifier string
}

// appItem implements list.Item for app display
type appItem struct {
	entry AppEntry
}

func (i appItem) Title() string {
	return i.entry.ID
}

func (i appItem) Description() string {
	if i.entry.Broken {
		return "⚠ no active tree, reinstall with: flatjail install " + i.entry.ID
	}

	runtime := i.entry.Runtime
	if runtime == "" {
		runtime = "no runtime"
	}
	return fmt.Sprintf("● %s | %s | %s",
		i.entry.Ref.Branch,
		shortCommit(i.entry.Commit),
		runtime,
	)
}

func (i appItem) FilterValue() string {
	return i.entry.ID
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the app picker
type Model struct {
	list      list.Model
	prompt    installPrompt
	prompting bool
	result    PickerResult
	quitting  bool
	width     int
	height    int
}

// NewPicker creates a new app picker. With no apps it opens on the
// install prompt.
func NewPicker(entries []AppEntry) Model {
	items := buildGroupedItems(entries)

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = fmt.Sprintf("flatjail - %d installed apps", len(items)-headerCount(items))
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	skipHeaders(&l, 1)

	return Model{
		list:      l,
		prompt:    newInstallPrompt(),
		prompting: len(entries) == 0,
	}
}

func (m Model) Init() tea.Cmd {
	if m.prompting {
		return textinput.Blink
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.list.SetSize(size.Width, size.Height-4)
		return m, nil
	}

	if m.prompting {
		return m.updatePrompt(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(appItem); ok && !item.entry.Broken {
				return m.finish(PickerResult{Action: ActionRun, App: &item.entry})
			}
			return m, nil

		case "e":
			if item, ok := m.list.SelectedItem().(appItem); ok {
				return m.finish(PickerResult{Action: ActionEvents, App: &item.entry})
			}
			return m, nil

		case "i":
			m.prompting = true
			m.prompt = newInstallPrompt()
			return m, textinput.Blink

		case "q", "esc":
			return m.finish(PickerResult{Action: ActionQuit})
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if isHeaderSelected(&m.list) {
			skipHeaders(&m.list, navigationDirection(msg))
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if identifier, ok := m.prompt.submit(); ok {
				return m.finish(PickerResult{Action: ActionInstall, Identifier: identifier})
			}
			return m, nil
		case "esc":
			if len(m.list.Items()) == 0 {
				return m.finish(PickerResult{Action: ActionQuit})
			}
			m.prompting = false
			return m, nil
		case "ctrl+c":
			return m.finish(PickerResult{Action: ActionQuit})
		}
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.update(msg)
	return m, cmd
}

func (m Model) finish(result PickerResult) (tea.Model, tea.Cmd) {
	m.result = result
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.prompting {
		return m.prompt.view()
	}

	help := helpStyle.Render("[enter] Run  [i] Install  [e] Events  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive app picker
func RunPicker(entries []AppEntry) (PickerResult, error) {
	p := tea.NewProgram(NewPicker(entries), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive listing of the installed apps
func SimplePicker(entries []AppEntry) string {
	var sb strings.Builder

	sb.WriteString("flatjail - Installed apps\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(entries) == 0 {
		sb.WriteString("No apps installed.\n")
		sb.WriteString("Install one with: flatjail install <app-id>\n")
		return sb.String()
	}

	for i, e := range entries {
		item := appItem{entry: e}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e.ID)
		fmt.Fprintf(&sb, "   %s\n\n", item.Description())
	}

	return sb.String()
}
