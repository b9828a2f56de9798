// Package mount models the filesystem mounts that make up a sandbox and
// drives the host mount and umount tools.
package mount

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// Filesystem types used by the sandbox.
const (
	FSTmpfs     = "tmpfs"
	FSNullfs    = "nullfs"
	FSDevfs     = "devfs"
	FSLinprocfs = "linprocfs"
	FSLinsysfs  = "linsysfs"
)

// MountPoint is one mount in a sandbox root.
type MountPoint struct {
	// Source is the host path, or the filesystem name for pseudo filesystems.
	Source string
	// Target is the absolute path of the mount point on the host.
	Target   string
	FSType   string
	ReadOnly bool
	// Required mounts abort the run when they fail. Optional ones only
	// degrade it.
	Required bool
}

func (m MountPoint) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s (%s", m.Source, m.Target, m.FSType)
	if m.ReadOnly {
		b.WriteString(", read-only")
	}
	b.WriteString(")")
	return b.String()
}

// Args returns the mount(8) arguments for m.
func (m MountPoint) Args() []string {
	args := []string{"-t", m.FSType}
	if m.ReadOnly {
		args = append(args, "-o", "ro")
	}
	return append(args, m.Source, m.Target)
}

// Mounter runs mount and umount.
type Mounter struct {
	exec   system.CommandExecutor
	mount  string
	umount string
}

// NewMounter creates a Mounter using the given tool paths.
func NewMounter(exec system.CommandExecutor, mountBin, umountBin string) *Mounter {
	return &Mounter{exec: exec, mount: mountBin, umount: umountBin}
}

// Mount mounts m.
func (mt *Mounter) Mount(ctx context.Context, m MountPoint) error {
	logging.Debug("mounting", "mount", m.String())
	out, err := mt.exec.Execute(ctx, mt.mount, m.Args()...)
	if err != nil {
		return fmt.Errorf("mount %s: %w%s", m.Target, err, formatOutput(out))
	}
	return nil
}

// Unmount force-unmounts target.
func (mt *Mounter) Unmount(ctx context.Context, target string) error {
	logging.Debug("unmounting", "target", target)
	out, err := mt.exec.Execute(ctx, mt.umount, "-f", target)
	if err != nil {
		return fmt.Errorf("umount %s: %w%s", target, err, formatOutput(out))
	}
	return nil
}

func formatOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	return " (" + s + ")"
}
