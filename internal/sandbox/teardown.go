package sandbox

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/firefly-engineering/flatjail/internal/logging"
)

// TeardownPlan lists the cleanup actions for a sandbox root. Execute runs
// every action regardless of earlier failures.
type TeardownPlan struct {
	Root string

	// Jail is unregistered first when set and registered.
	Jail string

	// Targets are force-unmounted in order before the root.
	Targets []string

	// UnmountRoot unmounts the root itself after the targets.
	UnmountRoot bool

	// RemoveTree deletes the root tree, but only once the root is no
	// longer a mount point.
	RemoveTree bool
}

// ActionResult is the outcome of one teardown action.
type ActionResult struct {
	Action  string
	Err     error
	Skipped bool
}

// TeardownReport records every action of an executed plan.
type TeardownReport struct {
	Actions []ActionResult
	Removed bool
}

// Failures returns the actions that failed.
func (r *TeardownReport) Failures() []ActionResult {
	if r == nil {
		return nil
	}
	var out []ActionResult
	for _, a := range r.Actions {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

func (r *TeardownReport) record(action string, err error) {
	if err != nil {
		logging.Debug("teardown action failed", "action", action, "error", err)
	}
	r.Actions = append(r.Actions, ActionResult{Action: action, Err: err})
}

func (r *TeardownReport) skip(action string) {
	r.Actions = append(r.Actions, ActionResult{Action: action, Skipped: true})
}

// Execute runs the plan.
func (p *TeardownPlan) Execute(ctx context.Context, s *Sandbox) *TeardownReport {
	report := &TeardownReport{}

	if p.Jail != "" {
		action := "unregister jail " + p.Jail
		if s.rt.Exists(ctx, p.Jail) {
			report.record(action, s.rt.Remove(ctx, p.Jail))
		} else {
			report.skip(action)
		}
	}

	for _, target := range p.Targets {
		report.record("unmount "+target, s.mounter.Unmount(ctx, target))
	}

	rootUnmounted := !p.UnmountRoot
	if p.UnmountRoot {
		action := "unmount " + p.Root
		switch err := s.mounter.Unmount(ctx, p.Root); {
		case err == nil:
			report.record(action, nil)
			rootUnmounted = true
		case !s.stillMounted(p.Root):
			// Nothing is mounted there any more, e.g. after a reboot.
			logging.Debug("root is not a mount point", "path", p.Root, "error", err)
			report.skip(action)
			rootUnmounted = true
		default:
			report.record(action, err)
		}
	}

	if p.RemoveTree {
		action := "remove " + p.Root
		if !rootUnmounted {
			report.record(action, fmt.Errorf("root is still mounted, not removing"))
		} else {
			report.record(action, s.fs.RemoveAll(p.Root))
			report.Removed = !s.fs.Exists(p.Root)
		}
	}

	return report
}

// stillMounted reports whether path may still be a mount point. A path
// that cannot be inspected counts as mounted.
func (s *Sandbox) stillMounted(path string) bool {
	mounted, err := s.fs.IsMountPoint(path)
	if err != nil {
		logging.Debug("cannot check mount point", "path", path, "error", err)
		return true
	}
	return mounted
}

// teardownPlan covers everything a previous run may have mounted.
func (s *Sandbox) teardownPlan(inst *Instance) *TeardownPlan {
	uid := s.cfg.Identity.UID
	rels := []string{
		"tmp/.X11-unix",
		"dev",
		"proc",
		"sys",
		"var/run/dbus",
		filepath.Join("var/run/xdg", s.cfg.Identity.User, "at-spi"),
		"run/host/fonts",
	}
	if wl := s.waylandName(); wl != "" {
		rels = append(rels, filepath.Join("run/user", uid, wl))
	}
	rels = append(rels, filepath.Join("run/user", uid, "pulse/native"))

	plan := &TeardownPlan{
		Root:        inst.Root,
		Jail:        inst.JailName,
		UnmountRoot: true,
		RemoveTree:  true,
	}
	for _, rel := range rels {
		target, err := inst.inRoot(rel)
		if err != nil {
			logging.Debug("skipping teardown target", "target", rel, "error", err)
			continue
		}
		plan.Targets = append(plan.Targets, target)
	}
	return plan
}

// abortPlan undoes what this run did, newest first. The root tree is left
// for inspection and is removed by the next run's teardown.
func (s *Sandbox) abortPlan(inst *Instance) *TeardownPlan {
	plan := &TeardownPlan{Root: inst.Root}
	if inst.Registered {
		plan.Jail = inst.JailName
	}
	for i := len(inst.Mounts) - 1; i >= 0; i-- {
		target := inst.Mounts[i].Target
		if target == inst.Root {
			plan.UnmountRoot = true
			continue
		}
		plan.Targets = append(plan.Targets, target)
	}
	return plan
}

// teardown is the Teardown phase.
func (s *Sandbox) teardown(ctx context.Context, inst *Instance, report *Report) Result {
	if !s.fs.Exists(inst.Root) {
		return Continue()
	}

	logging.UserInfo("Cleaning up previous session...")
	report.Teardown = s.teardownPlan(inst).Execute(ctx, s)

	failures := report.Teardown.Failures()
	logging.Debug("teardown finished", "actions", len(report.Teardown.Actions), "failures", len(failures))
	if !report.Teardown.Removed {
		return Degraded(fmt.Sprintf("previous root %s could not be removed", inst.Root))
	}
	return Continue()
}
