package sandbox

import (
	"context"
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/environ"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/jail"
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/metadata"
	"github.com/firefly-engineering/flatjail/internal/mount"
	"github.com/firefly-engineering/flatjail/internal/ref"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// RunOptions holds the options of one sandbox run.
type RunOptions struct {
	AppID string

	// Args are the trailing command-line arguments.
	Args []string

	// RawSockets lets the first of Args replace the metadata command.
	RawSockets bool
}

// Instance is the state of one sandbox run.
type Instance struct {
	AppID    string
	Root     string
	JailName string

	AppRef       ref.Reference
	RuntimeRef   ref.Reference
	AppFiles     string
	RuntimeFiles string

	// Command is the in-root path of the executable and Args its arguments.
	Command string
	Args    []string

	// Mounts lists the mounts made by this run, in mount order.
	Mounts []mount.MountPoint

	// Registered is true while the jail exists.
	Registered bool

	ExitCode int
}

// Report summarizes a run.
type Report struct {
	// Completed lists the phases that finished, in order.
	Completed []Phase
	// Degraded lists "phase: reason" entries.
	Degraded []string

	Teardown  *TeardownReport
	Cleanup   *TeardownReport
	Injection *environ.InjectionReport
	Discovery *environ.Discovery

	ExitCode int
}

// Sandbox runs installed applications in ephemeral jail roots.
type Sandbox struct {
	cfg     *config.Config
	fs      system.FileSystem
	exec    system.CommandExecutor
	rt      jail.Runtime
	mounter *mount.Mounter
	layout  *layout.Layout
}

// New creates a Sandbox.
func New(cfg *config.Config, fs system.FileSystem, exec system.CommandExecutor, rt jail.Runtime) *Sandbox {
	return &Sandbox{
		cfg:     cfg,
		fs:      fs,
		exec:    exec,
		rt:      rt,
		mounter: mount.NewMounter(exec, cfg.Tools.Mount, cfg.Tools.Umount),
		layout:  layout.New(fs, cfg.BaseDir),
	}
}

type phaseFunc func(ctx context.Context, inst *Instance, report *Report) Result

func (s *Sandbox) phases() []struct {
	name Phase
	run  phaseFunc
} {
	return []struct {
		name Phase
		run  phaseFunc
	}{
		{PhaseTeardown, s.teardown},
		{PhaseProvisionRoot, s.provisionRoot},
		{PhaseProvisionTrees, s.provisionTrees},
		{PhaseRepairLayout, s.repairLayout},
		{PhaseBuildRunHierarchy, s.buildRunHierarchy},
		{PhaseBridgeResources, s.bridgeResources},
		{PhaseBridgePseudoFS, s.bridgePseudoFS},
		{PhaseBrand, s.brand},
		{PhaseLaunch, s.launch},
	}
}

// Run builds the sandbox for opts.AppID and runs the application. A
// non-zero exit of the application is returned as an errors.ChildExit.
func (s *Sandbox) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	inst, err := s.Prepare(opts)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	log := logging.With("app", inst.AppID, "root", inst.Root)

	for _, p := range s.phases() {
		log.Debug("entering phase", "phase", p.name)
		res := p.run(ctx, inst, report)

		switch res.Outcome {
		case OutcomeDegraded:
			for _, reason := range res.Reasons {
				report.Degraded = append(report.Degraded, fmt.Sprintf("%s: %s", p.name, reason))
				logging.UserWarning("%s", reason)
			}
		case OutcomeAbort:
			log.Debug("phase aborted", "phase", p.name, "error", res.Err)
			report.Cleanup = s.abortPlan(inst).Execute(ctx, s)
			return report, errors.SetupFailed(string(p.name), res.Err)
		}

		report.Completed = append(report.Completed, p.name)
	}

	report.ExitCode = inst.ExitCode
	if inst.ExitCode != 0 {
		return report, errors.ChildExit(inst.ExitCode)
	}
	return report, nil
}

// Prepare resolves the installed app and runtime trees and the command
// to launch. Nothing on the host is modified.
func (s *Sandbox) Prepare(opts RunOptions) (*Instance, error) {
	if err := config.ValidateAppID(opts.AppID); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	appRef, err := s.layout.FindInstalled(ref.KindApp, opts.AppID, s.cfg.Arch)
	if err != nil {
		return nil, errors.AppNotInstalled(opts.AppID, s.layout.ActiveFiles(appRef))
	}
	appFiles := s.layout.ActiveFiles(appRef)
	if !s.fs.IsDir(appFiles) {
		return nil, errors.AppNotInstalled(opts.AppID, appFiles)
	}

	md, err := metadata.Load(s.fs, s.layout.ActiveLink(appRef))
	if err != nil {
		return nil, errors.SetupFailed("metadata", err)
	}
	if !md.HasRuntime() {
		return nil, errors.SetupFailed("metadata", fmt.Errorf("%s declares no runtime", opts.AppID))
	}

	runtimeRef, err := ref.ParseReference(ref.WithKind(md.Runtime))
	if err != nil {
		return nil, errors.SetupFailed("metadata", err)
	}
	runtimeFiles := s.layout.ActiveFiles(runtimeRef)
	if !s.fs.IsDir(runtimeFiles) {
		return nil, errors.RuntimeNotInstalled(runtimeRef.String(), runtimeFiles)
	}

	command, args := selectCommand(md.Command, opts)

	return &Instance{
		AppID:        opts.AppID,
		Root:         s.cfg.RootDir(opts.AppID),
		JailName:     config.JailName(opts.AppID),
		AppRef:       appRef,
		RuntimeRef:   runtimeRef,
		AppFiles:     appFiles,
		RuntimeFiles: runtimeFiles,
		Command:      command,
		Args:         args,
	}, nil
}

// selectCommand picks the executable: with RawSockets the first trailing
// argument overrides the metadata command and the rest become its
// arguments; otherwise every trailing argument goes to the metadata
// command. An app without a command gets the shell.
func selectCommand(defaultCmd string, opts RunOptions) (string, []string) {
	command := defaultCmd
	args := opts.Args
	if opts.RawSockets && len(opts.Args) > 0 {
		command = opts.Args[0]
		args = opts.Args[1:]
	}
	if command == "" {
		return environ.DefaultShell, args
	}
	return environ.ResolveCommand(command), args
}

// inRoot resolves rel inside the instance root without letting symlinks
// or ".." escape it.
func (inst *Instance) inRoot(rel string) (string, error) {
	return securejoin.SecureJoin(inst.Root, rel)
}

// path joins rel onto the root for fixed, trusted paths.
func (inst *Instance) path(rel ...string) string {
	return filepath.Join(append([]string{inst.Root}, rel...)...)
}

func (inst *Instance) recordMount(m mount.MountPoint) {
	inst.Mounts = append(inst.Mounts, m)
}

// mount mounts m and records it on success.
func (s *Sandbox) mount(ctx context.Context, inst *Instance, m mount.MountPoint) error {
	if err := s.mounter.Mount(ctx, m); err != nil {
		return err
	}
	inst.recordMount(m)
	return nil
}
