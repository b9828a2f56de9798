package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/logging"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Reserved; currently does nothing",
	Long: `Clean is reserved for removing unused installations. It currently
does nothing: jail roots are torn down at the start of the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Debug("clean is a no-op")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
