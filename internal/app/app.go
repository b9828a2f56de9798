// Package app provides the application context for flatjail.
// It allows dependency injection for testing.
package app

import (
	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/jail"
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// App holds the application dependencies
type App struct {
	// Config is the loaded configuration. It is nil until the CLI loads it.
	Config *config.Config

	// FS and Exec are the host file system and command runner
	FS   system.FileSystem
	Exec system.CommandExecutor

	// Jail is the confinement runtime
	Jail jail.Runtime
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithFS sets a custom file system
func WithFS(fs system.FileSystem) Option {
	return func(a *App) {
		a.FS = fs
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Exec = exec
	}
}

// WithJail sets a custom jail runtime
func WithJail(rt jail.Runtime) Option {
	return func(a *App) {
		a.Jail = rt
	}
}

// New creates a new App with the given options.
// If no jail runtime is provided and a config is, the FreeBSD runtime is
// built from the configured tools and launcher.
func New(opts ...Option) *App {
	app := &App{
		FS:   system.DefaultFS(),
		Exec: system.DefaultExecutor(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Jail == nil && app.Config != nil {
		app.Jail = jail.NewFreeBSD(app.Exec, app.Config.Tools, app.Config.Launcher)
	}

	return app
}

// Layout returns the installation layout under the configured base dir.
// It returns nil when no config is loaded.
func (a *App) Layout() *layout.Layout {
	if a.Config == nil {
		return nil
	}
	return layout.New(a.FS, a.Config.BaseDir)
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
