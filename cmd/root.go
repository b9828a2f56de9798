package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "flatjail",
	Short: "Run Flatpak applications inside FreeBSD jails",
	Long: `flatjail installs Flatpak applications and runtimes from OSTree remotes
and runs them inside an ephemeral FreeBSD jail.

Each run gets a fresh root with:
  - Copies of the app and runtime trees
  - Host fonts, X11, Wayland, PulseAudio and D-Bus bridged in
  - Linux pseudo-filesystems (devfs, linprocfs, linsysfs)
  - Missing compat libraries injected from the host`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)

		// Tests install their own configuration before executing.
		if app.Default.Config != nil {
			return nil
		}

		cfg, err := config.Load(configPath, os.Getenv)
		if err != nil {
			return errors.ConfigError("failed to load configuration", err)
		}
		app.SetDefault(app.New(app.WithConfig(cfg)))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
