package sandbox

import (
	"context"

	"github.com/firefly-engineering/flatjail/internal/config"
)

// repairLayout adds the links and identity files a merged-/usr Linux
// userland expects but a Flatpak runtime tree lacks.
func (s *Sandbox) repairLayout(_ context.Context, inst *Instance, _ *Report) Result {
	var d degradations

	if err := s.fs.MkdirAll(inst.path("usr"), 0755); err != nil {
		d.add("failed to create usr: %v", err)
	}
	for _, dir := range []string{"lib", "bin", "share"} {
		link := inst.path("usr", dir)
		if s.lexists(link) || !s.fs.IsDir(inst.path(dir)) {
			continue
		}
		if err := s.fs.Symlink("../"+dir, link); err != nil {
			d.add("failed to link usr/%s: %v", dir, err)
		}
	}

	if !s.lexists(inst.path("lib64")) && s.fs.IsDir(inst.path("lib")) {
		if err := s.fs.Symlink("lib", inst.path("lib64")); err != nil {
			d.add("failed to link lib64: %v", err)
		}
	}

	if err := s.writeMachineID(inst); err != nil {
		d.add("failed to provide etc/machine-id: %v", err)
	}

	dbusDir := inst.path("var/lib/dbus")
	if err := s.fs.MkdirAll(dbusDir, 0755); err != nil {
		d.add("failed to create var/lib/dbus: %v", err)
	} else if link := inst.path("var/lib/dbus/machine-id"); !s.lexists(link) {
		if err := s.fs.Symlink("/etc/machine-id", link); err != nil {
			d.add("failed to link var/lib/dbus/machine-id: %v", err)
		}
	}

	return d.result()
}

// writeMachineID copies the host machine id, or writes a fixed one when
// the host has none. An id shipped by the runtime is kept.
func (s *Sandbox) writeMachineID(inst *Instance) error {
	target := inst.path("etc/machine-id")
	if s.lexists(target) {
		return nil
	}
	if err := s.fs.MkdirAll(inst.path("etc"), 0755); err != nil {
		return err
	}
	if s.fs.Exists(s.cfg.Host.MachineID) {
		return s.fs.CopyFile(s.cfg.Host.MachineID, target)
	}
	return s.fs.WriteFile(target, []byte(config.FallbackMachineID+"\n"), 0644)
}

// lexists reports whether path exists, without following a final symlink.
func (s *Sandbox) lexists(path string) bool {
	_, err := s.fs.Lstat(path)
	return err == nil
}
