package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/audit"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/sandbox"
)

var runCmd = &cobra.Command{
	Use:   "run <app-id> [-- args...]",
	Short: "Run an installed application inside a jail",
	Long: `Run builds a fresh jail root for the application, bridges host
resources into it and launches the application's command. The root is
torn down at the start of the next run.

With --raw-sockets (the default) the first argument after -- replaces the
application's command and the remaining ones are passed to it. Without
it every argument after -- is passed to the application's command.

Must be run as root.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var runRawSockets bool

// geteuid is replaced in tests.
var geteuid = os.Geteuid

func init() {
	runCmd.Flags().BoolVar(&runRawSockets, "raw-sockets", true, "Let the first trailing argument replace the application command")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	return runApp(cmd, args[0], args[1:])
}

func runApp(cmd *cobra.Command, appID string, trailing []string) error {
	if geteuid() != 0 {
		return errors.PrivilegeRequired("run")
	}

	opts := sandbox.RunOptions{
		AppID:      appID,
		Args:       trailing,
		RawSockets: runRawSockets,
	}
	logging.Debug("running", "app", appID, "args", trailing, "raw_sockets", runRawSockets)

	a := app.Default
	sb := sandbox.New(a.Config, a.FS, a.Exec, a.Jail)

	report, err := sb.Run(cmd.Context(), opts)
	if report == nil {
		// Nothing was touched on the host.
		return err
	}

	recordEvent(audit.Event{
		Type:    audit.EventRun,
		App:     appID,
		Details: strings.Join(trailing, " "),
	})
	recordReport(appID, report)

	// ExitCode is only set once the application ran.
	if err == nil || report.ExitCode != 0 {
		recordEvent(audit.Event{Type: audit.EventExit, App: appID, ExitCode: report.ExitCode})
	} else {
		recordEvent(audit.Event{Type: audit.EventSetupFailed, App: appID, Details: err.Error()})
	}

	return err
}

// recordReport logs the degradations of a run and the cleanup actions
// that failed after an aborted setup. Unmount failures of the initial
// teardown are expected for targets that were never mounted and are only
// visible at debug level.
func recordReport(appID string, report *sandbox.Report) {
	for _, reason := range report.Degraded {
		recordEvent(audit.Event{Type: audit.EventDegraded, App: appID, Details: reason})
	}

	for _, f := range report.Cleanup.Failures() {
		logWarning("Cleanup action failed: %s: %v", f.Action, f.Err)
		recordEvent(audit.Event{
			Type:    audit.EventTeardownFailure,
			App:     appID,
			Details: fmt.Sprintf("%s: %v", f.Action, f.Err),
		})
	}
}
