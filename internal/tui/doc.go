// Package tui provides terminal user interface components for flatjail.
//
// This package uses the Bubble Tea framework for the interactive app
// picker behind the pick command.
//
// # App Picker
//
// The picker lists installed applications grouped by vendor (the app id
// without its last component) and returns what to do next:
//
//	entries, err := tui.LoadEntries(fs, layout, cfg.Arch)
//	result, err := tui.RunPicker(entries)
//	switch result.Action {
//	case tui.ActionRun:
//	    // Run result.App.ID
//	case tui.ActionInstall:
//	    // Install result.Identifier
//	case tui.ActionEvents:
//	    // Show the audit log of result.App.ID
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Picker Features
//
//   - Keyboard navigation (j/k or arrows), group headers auto-skipped
//   - Quick actions: Enter (run), i (install), e (events), / (filter), q (quit)
//   - Apps without an active tree are shown as broken and cannot be run
//   - Opens on the install prompt when nothing is installed
//
// SimplePicker renders the same information as plain text.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - list and textinput components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
