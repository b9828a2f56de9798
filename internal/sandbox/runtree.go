package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/environ"
)

// instanceNamespace scopes the deterministic instance ids.
var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://flatjail/instance"))

// InstanceID returns the stable instance id advertised for appID.
func InstanceID(appID string) string {
	return uuid.NewSHA1(instanceNamespace, []byte(appID)).String()
}

// FlatpakInfo renders the [Instance] descriptor applications read to
// detect they run confined.
func FlatpakInfo(appID, arch string) ([]byte, error) {
	f := ini.Empty()
	sec, err := f.NewSection("Instance")
	if err != nil {
		return nil, err
	}

	for _, kv := range [][2]string{
		{"instance-id", InstanceID(appID)},
		{"app-id", appID},
		{"arch", arch},
		{"flatpak-version", config.FlatpakVersion},
		{"runtime-path", "/usr"},
		{"original-app-path", "/app"},
	} {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildRunHierarchy creates /run, /tmp and the home dir, the instance
// descriptor and the host os-release copy.
func (s *Sandbox) buildRunHierarchy(_ context.Context, inst *Instance, _ *Report) Result {
	runtimeDir := environ.RuntimeDir(s.cfg.Identity.UID)

	for _, dir := range []string{
		"run/flatpak/app",
		"run/flatpak/bus",
		"run/flatpak/ld.so.conf.d",
		"run/flatpak/p11-kit",
		"run/host",
		runtimeDir,
		"tmp",
		environ.SandboxHome,
	} {
		if err := s.fs.MkdirAll(inst.path(dir), 0755); err != nil {
			return Abort(fmt.Errorf("failed to create %s: %w", dir, err))
		}
	}

	var d degradations

	info, err := FlatpakInfo(inst.AppID, s.cfg.Arch)
	if err != nil {
		d.add("failed to render flatpak-info: %v", err)
	} else {
		for _, p := range []string{filepath.Join(runtimeDir, "flatpak-info"), ".flatpak-info"} {
			if err := s.fs.WriteFile(inst.path(p), info, 0644); err != nil {
				d.add("failed to write %s: %v", p, err)
			}
		}
	}

	if s.fs.Exists(s.cfg.Host.OSRelease) {
		if err := s.fs.CopyFile(s.cfg.Host.OSRelease, inst.path("run/host/os-release")); err != nil {
			d.add("failed to copy os-release: %v", err)
		}
	}

	return d.result()
}
