package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/flatjail/internal/audit"
)

var eventsCmd = &cobra.Command{
	Use:   "events <app-id>",
	Short: "Display the event log of an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

var (
	eventsRaw   bool
	eventsLimit int
	eventsClear bool
)

func init() {
	eventsCmd.Flags().BoolVar(&eventsRaw, "raw", false, "Output events as JSON lines")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "Show only the last n events (0 for all)")
	eventsCmd.Flags().BoolVar(&eventsClear, "clear", false, "Delete the event log instead of printing it")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if eventsClear {
		if err := auditLogger().Remove(args[0]); err != nil {
			return fmt.Errorf("failed to clear event log: %w", err)
		}
		logSuccess("Cleared event log of %s", args[0])
		return nil
	}
	return printEvents(cmd.OutOrStdout(), args[0])
}

func printEvents(out io.Writer, appID string) error {
	events, err := auditLogger().Tail(appID, eventsLimit)
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events found for %s", appID)
		return nil
	}

	for _, e := range events {
		if eventsRaw {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		fmt.Fprintln(out, formatEvent(e))
	}

	return nil
}

func formatEvent(e audit.Event) string {
	ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-16s %s", ts, e.Type, e.App)
	if e.Ref != "" {
		line += " " + e.Ref
	}
	if e.Type == audit.EventExit {
		line += fmt.Sprintf(" status=%d", e.ExitCode)
	}
	if e.Details != "" {
		line += fmt.Sprintf(" (%s)", e.Details)
	}
	return line
}
