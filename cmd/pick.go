package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive application picker",
	Long: `Opens an interactive TUI for selecting and running installed apps.

Use arrow keys or j/k to navigate, / to filter, Enter to run.

Actions:
  Enter  - Run selected app
  e      - Show the event log of the selected app
  i      - Install an app by identifier
  q/Esc  - Quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

var pickPlain bool

func init() {
	pickCmd.Flags().BoolVar(&pickPlain, "plain", false, "Print the installed apps instead of opening the picker")
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	logging.Debug("picker mode started")

	entries, err := tui.LoadEntries(app.Default.FS, installLayout(), cfg().Arch)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	if pickPlain {
		fmt.Fprint(cmd.OutOrStdout(), tui.SimplePicker(entries))
		return nil
	}

	result, err := tui.RunPicker(entries)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)
	return dispatchPick(cmd, result)
}

func dispatchPick(cmd *cobra.Command, result tui.PickerResult) error {
	switch result.Action {
	case tui.ActionRun:
		if result.App != nil {
			return runApp(cmd, result.App.ID, nil)
		}

	case tui.ActionInstall:
		if result.Identifier != "" {
			return installIdentifier(cmd, result.Identifier)
		}

	case tui.ActionEvents:
		if result.App != nil {
			return printEvents(cmd.OutOrStdout(), result.App.ID)
		}

	case tui.ActionQuit, tui.ActionNone:
		// Just exit cleanly
	}

	return nil
}
