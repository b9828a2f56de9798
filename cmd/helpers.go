package cmd

import (
	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/audit"
	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/logging"
)

// cfg returns the loaded configuration.
func cfg() *config.Config {
	return app.Default.Config
}

// installLayout returns the installation layout under the base dir.
func installLayout() *layout.Layout {
	return app.Default.Layout()
}

func auditLogger() *audit.Logger {
	return audit.NewLogger(cfg().StateDir)
}

// recordEvent appends an event to the app's audit log. A failing audit
// log never fails the command.
func recordEvent(event audit.Event) {
	if err := auditLogger().Log(event); err != nil {
		logging.Warn("failed to record event", "type", event.Type, "app", event.App, "error", err)
	}
}
