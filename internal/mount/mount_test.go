package mount

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/firefly-engineering/flatjail/internal/system"
)

func TestMountPoint_Args(t *testing.T) {
	tests := []struct {
		name string
		mp   MountPoint
		want string
	}{
		{
			name: "read-only bridge",
			mp:   MountPoint{Source: "/usr/local/share/fonts", Target: "/mnt/r/run/host/fonts", FSType: FSNullfs, ReadOnly: true},
			want: "-t nullfs -o ro /usr/local/share/fonts /mnt/r/run/host/fonts",
		},
		{
			name: "pseudo filesystem",
			mp:   MountPoint{Source: "devfs", Target: "/mnt/r/dev", FSType: FSDevfs, Required: true},
			want: "-t devfs devfs /mnt/r/dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(tt.mp.Args(), " "); got != tt.want {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMountPoint_String(t *testing.T) {
	mp := MountPoint{Source: "/tmp/.X11-unix", Target: "/mnt/r/tmp/.X11-unix", FSType: FSNullfs, ReadOnly: true}
	if got := mp.String(); got != "/tmp/.X11-unix on /mnt/r/tmp/.X11-unix (nullfs, read-only)" {
		t.Errorf("String() = %q", got)
	}
}

func TestMounter(t *testing.T) {
	exec := system.NewMockExecutor()
	m := NewMounter(exec, "/sbin/mount", "/sbin/umount")
	ctx := context.Background()

	if err := m.Mount(ctx, MountPoint{Source: "tmpfs", Target: "/mnt/r", FSType: FSTmpfs}); err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	if err := m.Unmount(ctx, "/mnt/r"); err != nil {
		t.Fatalf("Unmount() error: %v", err)
	}

	want := []string{"/sbin/mount -t tmpfs tmpfs /mnt/r", "/sbin/umount -f /mnt/r"}
	for i, w := range want {
		if got := exec.Commands[i].String(); got != w {
			t.Errorf("command %d = %q, want %q", i, got, w)
		}
	}
}

func TestMounter_Errors(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("/sbin/mount", []byte("mount: /mnt/r: Operation not permitted\n"), fmt.Errorf("exit status 1"))
	exec.AddResponse("/sbin/umount", nil, fmt.Errorf("exit status 1"))
	m := NewMounter(exec, "/sbin/mount", "/sbin/umount")

	err := m.Mount(context.Background(), MountPoint{Source: "tmpfs", Target: "/mnt/r", FSType: FSTmpfs})
	if err == nil || !strings.Contains(err.Error(), "Operation not permitted") {
		t.Errorf("Mount() error = %v, want tool output included", err)
	}
	if err := m.Unmount(context.Background(), "/mnt/r"); err == nil {
		t.Error("Unmount() should fail")
	}
}
