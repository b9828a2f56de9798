package sandbox

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/mount"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// provisionRoot creates the root directory and mounts a tmpfs on it.
func (s *Sandbox) provisionRoot(ctx context.Context, inst *Instance, _ *Report) Result {
	if err := s.fs.MkdirAll(inst.Root, 0755); err != nil {
		return Abort(fmt.Errorf("failed to create %s: %w", inst.Root, err))
	}

	logging.UserInfo("Creating tmpfs root at %s", inst.Root)
	err := s.mount(ctx, inst, mount.MountPoint{
		Source:   mount.FSTmpfs,
		Target:   inst.Root,
		FSType:   mount.FSTmpfs,
		Required: true,
	})
	if err != nil {
		return Abort(err)
	}
	return Continue()
}

// provisionTrees copies the runtime tree into the root and the app tree
// into <root>/app.
func (s *Sandbox) provisionTrees(ctx context.Context, inst *Instance, _ *Report) Result {
	logging.UserInfo("Copying runtime files...")
	if err := s.copyTree(ctx, inst.RuntimeFiles, inst.Root); err != nil {
		return Abort(fmt.Errorf("failed to copy runtime %s: %w", inst.RuntimeRef, err))
	}

	logging.UserInfo("Copying app files...")
	appDir := inst.path("app")
	if err := s.fs.MkdirAll(appDir, 0755); err != nil {
		return Degraded(fmt.Sprintf("failed to create %s: %v", appDir, err))
	}
	if err := s.copyTree(ctx, inst.AppFiles, appDir); err != nil {
		return Degraded(fmt.Sprintf("app copy may be incomplete: %v", err))
	}
	return Continue()
}

// copyTree streams src into dst with a tar producer/consumer pair. Both
// exit statuses are checked.
func (s *Sandbox) copyTree(ctx context.Context, src, dst string) error {
	tar := s.cfg.Tools.Tar
	return s.exec.Pipe(ctx,
		system.Command{Name: tar, Args: []string{"-cf", "-", "."}, Dir: src},
		system.Command{Name: tar, Args: []string{"-xf", "-"}, Dir: dst},
	)
}
