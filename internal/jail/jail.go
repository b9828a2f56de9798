package jail

import (
	"context"
)

// CreateOptions holds options for registering a jail.
type CreateOptions struct {
	Name     string
	Path     string // Root directory of the jail
	Hostname string
}

// ExecOptions holds options for executing a command in a jail.
type ExecOptions struct {
	// Root is the jail path, used by launchers that enter by directory.
	Root string
	// Env entries ("KEY=value") added to the inherited environment.
	Env []string
}

// ExecResult holds the result of executing a command in a jail.
type ExecResult struct {
	ExitCode int
}

// Runtime is the interface confinement backends implement.
type Runtime interface {
	// Name returns the runtime identifier
	Name() string

	// Create registers a persistent jail over opts.Path
	Create(ctx context.Context, opts CreateOptions) error

	// Exists reports whether a jail of that name is registered
	Exists(ctx context.Context, name string) bool

	// Exec runs command inside the jail with the terminal attached and
	// waits for it. A non-zero exit status is reported in the result, not
	// as an error; err is set only when the command could not be run.
	Exec(ctx context.Context, name string, command []string, opts ExecOptions) (*ExecResult, error)

	// Remove unregisters the jail
	Remove(ctx context.Context, name string) error
}
