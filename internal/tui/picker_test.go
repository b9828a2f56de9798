package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/flatjail/internal/ref"
)

func calculatorEntry() AppEntry {
	return AppEntry{
		ID:      "org.gnome.Calculator",
		Ref:     ref.Reference{Kind: ref.KindApp, ID: "org.gnome.Calculator", Arch: "x86_64", Branch: "stable"},
		Commit:  "0f3a9c1b2d4e5f60718293a4b5c6d7e8f9012345",
		Runtime: "org.gnome.Platform/x86_64/46",
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppItemMethods(t *testing.T) {
	item := appItem{entry: calculatorEntry()}

	if got := item.Title(); got != "org.gnome.Calculator" {
		t.Errorf("Title() = %q", got)
	}
	if got := item.FilterValue(); got != "org.gnome.Calculator" {
		t.Errorf("FilterValue() = %q", got)
	}

	desc := item.Description()
	for _, want := range []string{"stable", "0f3a9c1b2d4e", "org.gnome.Platform/x86_64/46"} {
		if !strings.Contains(desc, want) {
			t.Errorf("Description() = %q, want it to contain %q", desc, want)
		}
	}
	if strings.Contains(desc, "0f3a9c1b2d4e5") {
		t.Error("Description() should shorten the commit")
	}

	broken := appItem{entry: AppEntry{ID: "org.example.Broken", Broken: true}}
	if !strings.Contains(broken.Description(), "reinstall") {
		t.Errorf("broken Description() = %q", broken.Description())
	}
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"", ""},
		{"abc", "abc"},
		{"0123456789ab", "0123456789ab"},
		{"0123456789abcdef", "0123456789ab"},
	}
	for _, tt := range tests {
		if got := shortCommit(tt.commit); got != tt.want {
			t.Errorf("shortCommit(%q) = %q, want %q", tt.commit, got, tt.want)
		}
	}
}

func TestModelKeyHandling(t *testing.T) {
	entries := []AppEntry{calculatorEntry()}

	t.Run("run with enter", func(t *testing.T) {
		m := NewPicker(entries)
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := newModel.(Model)

		if model.result.Action != ActionRun {
			t.Fatalf("Action = %v, want ActionRun", model.result.Action)
		}
		if model.result.App == nil || model.result.App.ID != "org.gnome.Calculator" {
			t.Errorf("App = %+v", model.result.App)
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("broken app does not run", func(t *testing.T) {
		m := NewPicker([]AppEntry{{ID: "org.example.Broken", Broken: true}})
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if newModel.(Model).result.Action != ActionNone {
			t.Error("a broken app should not be runnable")
		}
	})

	t.Run("events with e", func(t *testing.T) {
		m := NewPicker(entries)
		newModel, _ := m.Update(keyRunes("e"))
		model := newModel.(Model)

		if model.result.Action != ActionEvents || model.result.App.ID != "org.gnome.Calculator" {
			t.Errorf("result = %+v, want events for the calculator", model.result)
		}
	})

	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(entries)
		newModel, cmd := m.Update(keyRunes("q"))
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(entries)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if newModel.(Model).result.Action != ActionQuit {
			t.Error("esc should quit")
		}
	})

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(entries)
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 || model.height != 50 {
			t.Errorf("size = %dx%d, want 100x50", model.width, model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelInstallPrompt(t *testing.T) {
	t.Run("install with i", func(t *testing.T) {
		m := NewPicker([]AppEntry{calculatorEntry()})
		newModel, _ := m.Update(keyRunes("i"))
		model := newModel.(Model)
		if !model.prompting {
			t.Fatal("i should open the install prompt")
		}

		newModel, _ = model.Update(keyRunes("org.gnome.TextEditor"))
		newModel, cmd := newModel.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
		model = newModel.(Model)

		if model.result.Action != ActionInstall || model.result.Identifier != "org.gnome.TextEditor" {
			t.Errorf("result = %+v", model.result)
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("empty identifier keeps prompt open", func(t *testing.T) {
		m := NewPicker(nil)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := newModel.(Model)

		if model.quitting {
			t.Error("empty input should not submit")
		}
		if !strings.Contains(model.View(), "enter an app id") {
			t.Errorf("View() should show the validation error:\n%s", model.View())
		}
	})

	t.Run("esc goes back to the list", func(t *testing.T) {
		m := NewPicker([]AppEntry{calculatorEntry()})
		newModel, _ := m.Update(keyRunes("i"))
		newModel, _ = newModel.(Model).Update(tea.KeyMsg{Type: tea.KeyEsc})
		model := newModel.(Model)

		if model.prompting || model.quitting {
			t.Errorf("prompting = %v, quitting = %v, want back on the list", model.prompting, model.quitting)
		}
	})

	t.Run("esc with no apps quits", func(t *testing.T) {
		m := NewPicker(nil)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if newModel.(Model).result.Action != ActionQuit {
			t.Error("esc on the initial prompt should quit")
		}
	})
}

func TestModelInit(t *testing.T) {
	if cmd := NewPicker([]AppEntry{calculatorEntry()}).Init(); cmd != nil {
		t.Error("Init() should return nil on the list")
	}
	if cmd := NewPicker(nil).Init(); cmd == nil {
		t.Error("Init() should start the cursor blink on the prompt")
	}
}

func TestModelView(t *testing.T) {
	t.Run("list view contains help", func(t *testing.T) {
		view := NewPicker([]AppEntry{calculatorEntry()}).View()
		if !strings.Contains(view, "[enter] Run") {
			t.Error("View should contain help text")
		}
		if !strings.Contains(view, "1 installed apps") {
			t.Error("View title should count apps, not headers")
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker([]AppEntry{calculatorEntry()})
		m.quitting = true
		if m.View() != "" {
			t.Error("View should be empty when quitting")
		}
	})

	t.Run("prompt view", func(t *testing.T) {
		if view := NewPicker(nil).View(); !strings.Contains(view, "Identifier to install") {
			t.Errorf("View() = %q", view)
		}
	})
}

func TestSimplePicker(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := SimplePicker(nil)
		if !strings.Contains(out, "No apps installed") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("with apps", func(t *testing.T) {
		out := SimplePicker([]AppEntry{calculatorEntry(), {ID: "org.example.Broken", Broken: true}})
		for _, want := range []string{"1. org.gnome.Calculator", "2. org.example.Broken", "org.gnome.Platform/x86_64/46", "reinstall"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}
