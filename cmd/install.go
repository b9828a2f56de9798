package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/audit"
	"github.com/firefly-engineering/flatjail/internal/installer"
	"github.com/firefly-engineering/flatjail/internal/logging"
)

var installCmd = &cobra.Command{
	Use:   "install <identifier>",
	Short: "Install an application or runtime and its dependencies",
	Long: `Install pulls a reference from its remote, checks it out under the
installation base and makes it active. An application's runtime is
installed too.

The identifier may be:
  - a plain application id (org.gnome.Calculator), installed from the
    configured remote on the stable branch
  - a canonical reference (app/org.gnome.Calculator/x86_64/stable)
  - a path to a .flatpakref file`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	return installIdentifier(cmd, args[0])
}

func installIdentifier(cmd *cobra.Command, identifier string) error {
	ctx := cmd.Context()
	logging.Debug("installing", "identifier", identifier)

	inst, err := installer.FromConfig(ctx, cfg(), app.Default.FS, app.Default.Exec)
	if err != nil {
		return err
	}

	result, err := inst.Install(ctx, identifier)
	if result != nil {
		for _, item := range result.Installed {
			details := fmt.Sprintf("commit %s", item.Commit)
			if !item.CheckedOut {
				details += " (already checked out)"
			}
			recordEvent(audit.Event{
				Type:    audit.EventInstall,
				App:     item.Ref.ID,
				Ref:     item.Ref.String(),
				Details: details,
			})
		}
	}
	if err != nil {
		return err
	}

	for _, item := range result.Installed {
		logSuccess("Installed %s (%s)", item.Ref, shortCommit(item.Commit))
	}
	return nil
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
