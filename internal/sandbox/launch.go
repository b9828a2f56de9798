package sandbox

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/firefly-engineering/flatjail/internal/environ"
	"github.com/firefly-engineering/flatjail/internal/jail"
	"github.com/firefly-engineering/flatjail/internal/logging"
)

// launch prepares the graphics fallbacks, registers the jail, runs the
// application in it and unregisters the jail when the application exits.
func (s *Sandbox) launch(ctx context.Context, inst *Instance, report *Report) Result {
	pixbuf := environ.ResolvePixbufCache(s.fs, inst.Root)

	report.Injection = environ.InjectLibraries(s.fs, inst.Root, s.cfg.Compat.Libraries, s.cfg.Compat.SearchDirs)
	for _, lib := range report.Injection.Missing {
		logging.UserWarning("Compat library %s not found in any search dir", lib)
	}
	for _, lib := range slices.Sorted(maps.Keys(report.Injection.Failed)) {
		logging.UserWarning("Failed to inject compat library %s: %v", lib, report.Injection.Failed[lib])
	}

	report.Discovery = environ.Discover(s.fs, s.cfg.Host.VulkanICDDirs, s.cfg.Host.VulkanLayerDirs, s.cfg.Host.GLSearchDirs)
	logging.Debug("graphics discovery",
		"vulkan_icds", len(report.Discovery.VulkanICDs),
		"vulkan_layers", len(report.Discovery.VulkanLayers),
		"gl_libraries", len(report.Discovery.GLLibraries))

	err := s.rt.Create(ctx, jail.CreateOptions{
		Name:     inst.JailName,
		Path:     inst.Root,
		Hostname: s.cfg.Hostname,
	})
	if err != nil {
		return Abort(fmt.Errorf("failed to register jail %s: %w", inst.JailName, err))
	}
	inst.Registered = true

	builder := environ.Builder{
		AppID:       inst.AppID,
		UID:         s.cfg.Identity.UID,
		PixbufCache: pixbuf,
	}
	script := builder.Script(inst.Command, inst.Args)
	logging.Debug("launching", "jail", inst.JailName, "command", inst.Command, "args", inst.Args)

	logging.UserInfo("Launching %s...", inst.AppID)
	res, execErr := s.rt.Exec(ctx, inst.JailName, []string{environ.DefaultShell, "-c", script}, jail.ExecOptions{
		Root: inst.Root,
		Env:  s.displayEnv(),
	})

	if err := s.rt.Remove(ctx, inst.JailName); err != nil {
		logging.UserWarning("failed to unregister jail %s: %v", inst.JailName, err)
	} else {
		inst.Registered = false
	}

	if execErr != nil {
		return Abort(fmt.Errorf("failed to start %s: %w", inst.Command, execErr))
	}
	inst.ExitCode = res.ExitCode
	return Continue()
}

// displayEnv passes the host display variables through.
func (s *Sandbox) displayEnv() []string {
	var env []string
	if s.cfg.Display != "" {
		env = append(env, "DISPLAY="+s.cfg.Display)
	}
	if s.cfg.WaylandDisplay != "" {
		env = append(env, "WAYLAND_DISPLAY="+s.cfg.WaylandDisplay)
	}
	return env
}
