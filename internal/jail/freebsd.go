package jail

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// FreeBSDRuntime implements Runtime with jail(8), jls(8) and jexec(8) or
// chroot(8).
type FreeBSDRuntime struct {
	exec     system.CommandExecutor
	tools    config.Tools
	launcher string
}

// NewFreeBSD creates a FreeBSD runtime. launcher selects how the process
// enters the root: config.LauncherJexec or config.LauncherChroot.
func NewFreeBSD(exec system.CommandExecutor, tools config.Tools, launcher string) *FreeBSDRuntime {
	return &FreeBSDRuntime{exec: exec, tools: tools, launcher: launcher}
}

// Name returns the runtime identifier
func (r *FreeBSDRuntime) Name() string {
	return "freebsd-" + r.launcher
}

// Create registers a persistent jail
func (r *FreeBSDRuntime) Create(ctx context.Context, opts CreateOptions) error {
	logging.Debug("creating jail", "name", opts.Name, "path", opts.Path)

	args := []string{
		"-c",
		"name=" + opts.Name,
		"path=" + opts.Path,
		"host.hostname=" + opts.Hostname,
		"persist",
	}
	out, err := r.exec.Execute(ctx, r.tools.Jail, args...)
	if err != nil {
		return fmt.Errorf("jail -c %s failed: %w: %s", opts.Name, err, out)
	}
	return nil
}

// Exists reports whether the jail is registered
func (r *FreeBSDRuntime) Exists(ctx context.Context, name string) bool {
	_, err := r.exec.Execute(ctx, r.tools.Jls, "-j", name, "jid")
	return err == nil
}

// Exec runs command in the jail with stdio attached
func (r *FreeBSDRuntime) Exec(ctx context.Context, name string, command []string, opts ExecOptions) (*ExecResult, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("no command given")
	}

	var bin string
	var args []string
	switch r.launcher {
	case config.LauncherChroot:
		bin = r.tools.Chroot
		args = append([]string{opts.Root}, command...)
	default:
		bin = r.tools.Jexec
		args = append([]string{name}, command...)
	}

	logging.Debug("executing in jail", "jail", name, "launcher", r.launcher, "command", command[0])

	err := r.exec.ExecuteAttached(ctx, opts.Env, bin, args...)
	code, ok := system.ExitCode(err)
	if !ok {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}
	return &ExecResult{ExitCode: code}, nil
}

// Remove unregisters the jail
func (r *FreeBSDRuntime) Remove(ctx context.Context, name string) error {
	logging.Debug("removing jail", "name", name)
	out, err := r.exec.Execute(ctx, r.tools.Jail, "-r", name)
	if err != nil {
		return fmt.Errorf("jail -r %s failed: %w: %s", name, err, out)
	}
	return nil
}
