package sandbox

import (
	"context"
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/mount"
)

const fontDirsXML = `<?xml version="1.0"?>
<!DOCTYPE fontconfig SYSTEM "fonts.dtd">
<fontconfig>
  <dir>/run/host/fonts</dir>
  <dir>/usr/local/share/fonts</dir>
</fontconfig>
`

// bridge is a host resource nullfs-mounted into the root.
type bridge struct {
	name     string
	source   string
	target   string // relative to the root
	readOnly bool
	// socket bridges mount a single file, so the mount point is a file.
	socket bool
}

// waylandName returns the socket name from WAYLAND_DISPLAY, or "" when
// unset. An absolute WAYLAND_DISPLAY keeps its base name in the root.
func (s *Sandbox) waylandName() string {
	wl := s.cfg.WaylandDisplay
	if wl == "" {
		return ""
	}
	if filepath.IsAbs(wl) {
		return filepath.Base(wl)
	}
	return wl
}

// waylandSource resolves the host Wayland socket. The name cannot escape
// the user's runtime dir.
func (s *Sandbox) waylandSource() (string, error) {
	wl := s.cfg.WaylandDisplay
	if filepath.IsAbs(wl) {
		return wl, nil
	}
	return securejoin.SecureJoin(filepath.Join(s.cfg.Host.UserRuntimeDir, s.cfg.Identity.UID), wl)
}

func (s *Sandbox) bridges() ([]bridge, error) {
	id := s.cfg.Identity
	userRun := filepath.Join("run/user", id.UID)

	bridges := []bridge{
		{name: "host fonts", source: s.cfg.Host.Fonts, target: "run/host/fonts", readOnly: true},
		{name: "X11 socket dir", source: s.cfg.Host.X11, target: "tmp/.X11-unix"},
	}

	if wl := s.waylandName(); wl != "" {
		src, err := s.waylandSource()
		if err != nil {
			return nil, fmt.Errorf("invalid WAYLAND_DISPLAY %q: %w", s.cfg.WaylandDisplay, err)
		}
		bridges = append(bridges, bridge{name: "Wayland socket", source: src, target: filepath.Join(userRun, wl), socket: true})
	} else {
		logging.Debug("WAYLAND_DISPLAY not set, skipping Wayland bridge")
	}

	return append(bridges,
		bridge{
			name:   "PulseAudio socket",
			source: filepath.Join(s.cfg.Host.UserRuntimeDir, id.UID, "pulse", "native"),
			target: filepath.Join(userRun, "pulse", "native"),
			socket: true,
		},
		bridge{
			name:   "accessibility bus",
			source: filepath.Join(s.cfg.Host.XDGRuntimeDir, id.User, "at-spi"),
			target: filepath.Join("var/run/xdg", id.User, "at-spi"),
		},
		bridge{name: "system D-Bus", source: s.cfg.Host.DBus, target: "var/run/dbus"},
	), nil
}

// bridgeResources mounts the host resources that exist. A missing source
// or a failed mount degrades the run but never aborts it.
func (s *Sandbox) bridgeResources(ctx context.Context, inst *Instance, _ *Report) Result {
	var d degradations

	bridges, err := s.bridges()
	if err != nil {
		d.add("%v", err)
	}

	for _, b := range bridges {
		if !s.fs.Exists(b.source) {
			d.add("%s not found at %s, skipping", b.name, b.source)
			continue
		}

		target, err := inst.inRoot(b.target)
		if err != nil {
			d.add("%s: invalid target %s: %v", b.name, b.target, err)
			continue
		}
		if err := s.prepareMountPoint(target, b.socket); err != nil {
			d.add("%s: %v", b.name, err)
			continue
		}

		logging.UserInfo("Mounting %s...", b.name)
		err = s.mount(ctx, inst, mount.MountPoint{
			Source:   b.source,
			Target:   target,
			FSType:   mount.FSNullfs,
			ReadOnly: b.readOnly,
		})
		if err != nil {
			d.add("failed to mount %s: %v", b.name, err)
			continue
		}

		if b.target == "run/host/fonts" {
			if err := s.fs.WriteFile(inst.path("run/host/font-dirs.xml"), []byte(fontDirsXML), 0644); err != nil {
				d.add("failed to write font-dirs.xml: %v", err)
			}
		}
	}

	return d.result()
}

func (s *Sandbox) prepareMountPoint(target string, file bool) error {
	if !file {
		if err := s.fs.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("failed to create mount point %s: %w", target, err)
		}
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	if s.fs.Exists(target) {
		return nil
	}
	if err := s.fs.WriteFile(target, nil, 0600); err != nil {
		return fmt.Errorf("failed to create mount point %s: %w", target, err)
	}
	return nil
}

// bridgePseudoFS mounts devfs, linprocfs and linsysfs. They are required.
func (s *Sandbox) bridgePseudoFS(ctx context.Context, inst *Instance, _ *Report) Result {
	for _, m := range []struct{ fstype, dir string }{
		{mount.FSDevfs, "dev"},
		{mount.FSLinprocfs, "proc"},
		{mount.FSLinsysfs, "sys"},
	} {
		target := inst.path(m.dir)
		if err := s.fs.MkdirAll(target, 0755); err != nil {
			return Abort(fmt.Errorf("failed to create %s: %w", target, err))
		}
		err := s.mount(ctx, inst, mount.MountPoint{
			Source:   m.fstype,
			Target:   target,
			FSType:   m.fstype,
			Required: true,
		})
		if err != nil {
			return Abort(err)
		}
	}
	return Continue()
}
