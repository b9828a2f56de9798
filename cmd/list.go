package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed applications",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	apps, err := installLayout().ListApps()
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, id := range apps {
		fmt.Fprintln(out, id)
	}
	return nil
}
