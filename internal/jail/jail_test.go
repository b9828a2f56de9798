package jail

import (
	"context"
	"fmt"
	"testing"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/system"
)

func testTools() config.Tools {
	return config.Defaults(config.Identity{Home: "/root"}).Tools
}

func TestFreeBSDRuntime_Name(t *testing.T) {
	rt := NewFreeBSD(system.NewMockExecutor(), testTools(), config.LauncherJexec)
	if rt.Name() != "freebsd-jexec" {
		t.Errorf("Name() = %q", rt.Name())
	}
}

func TestFreeBSDRuntime_Lifecycle(t *testing.T) {
	exec := system.NewMockExecutor()
	rt := NewFreeBSD(exec, testTools(), config.LauncherJexec)
	ctx := context.Background()

	if err := rt.Create(ctx, CreateOptions{Name: "fj_org_foo", Path: "/mnt/flatjail_org.foo", Hostname: "flatjail"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !rt.Exists(ctx, "fj_org_foo") {
		t.Error("Exists() = false")
	}
	res, err := rt.Exec(ctx, "fj_org_foo", []string{"/bin/sh", "-c", "exec /app/bin/foo"},
		ExecOptions{Root: "/mnt/flatjail_org.foo", Env: []string{"DISPLAY=:0"}})
	if err != nil {
		t.Fatalf("Exec() error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d", res.ExitCode)
	}
	if err := rt.Remove(ctx, "fj_org_foo"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	want := []string{
		"/usr/sbin/jail -c name=fj_org_foo path=/mnt/flatjail_org.foo host.hostname=flatjail persist",
		"/usr/sbin/jls -j fj_org_foo jid",
		"/usr/sbin/jexec fj_org_foo /bin/sh -c exec /app/bin/foo",
		"/usr/sbin/jail -r fj_org_foo",
	}
	for i, w := range want {
		if got := exec.Commands[i].String(); got != w {
			t.Errorf("command %d = %q, want %q", i, got, w)
		}
	}
	if env := exec.Commands[2].Env; len(env) != 1 || env[0] != "DISPLAY=:0" {
		t.Errorf("exec env = %v", env)
	}
}

func TestFreeBSDRuntime_ChrootLauncher(t *testing.T) {
	exec := system.NewMockExecutor()
	rt := NewFreeBSD(exec, testTools(), config.LauncherChroot)

	if _, err := rt.Exec(context.Background(), "fj_org_foo", []string{"/bin/sh"}, ExecOptions{Root: "/mnt/flatjail_org.foo"}); err != nil {
		t.Fatalf("Exec() error: %v", err)
	}
	last, _ := exec.LastCommand()
	if last.String() != "/usr/sbin/chroot /mnt/flatjail_org.foo /bin/sh" {
		t.Errorf("command = %q", last.String())
	}
}

func TestFreeBSDRuntime_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  bool
	}{
		{name: "success", err: nil, wantCode: 0},
		{name: "child failure", err: &system.MockExitError{Code: 42}, wantCode: 42},
		{name: "cannot start", err: fmt.Errorf("exec: not found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := system.NewMockExecutor()
			exec.InteractiveErr = tt.err
			rt := NewFreeBSD(exec, testTools(), config.LauncherJexec)

			res, err := rt.Exec(context.Background(), "fj_x", []string{"/bin/sh"}, ExecOptions{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Exec() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Exec() error: %v", err)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tt.wantCode)
			}
		})
	}
}

func TestFreeBSDRuntime_ExecNoCommand(t *testing.T) {
	rt := NewFreeBSD(system.NewMockExecutor(), testTools(), config.LauncherJexec)
	if _, err := rt.Exec(context.Background(), "fj_x", nil, ExecOptions{}); err == nil {
		t.Error("Exec() without a command should fail")
	}
}

func TestFreeBSDRuntime_NotRegistered(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("/usr/sbin/jls", nil, &system.MockExitError{Code: 1})
	exec.AddResponse("/usr/sbin/jail -r", []byte("jail: not found"), &system.MockExitError{Code: 1})
	rt := NewFreeBSD(exec, testTools(), config.LauncherJexec)

	if rt.Exists(context.Background(), "fj_x") {
		t.Error("Exists() = true for an unknown jail")
	}
	if err := rt.Remove(context.Background(), "fj_x"); err == nil {
		t.Error("Remove() should fail for an unknown jail")
	}
}

func TestMockRuntime(t *testing.T) {
	m := NewMockRuntime()
	m.ExitCode = 3
	ctx := context.Background()

	if _, err := m.Exec(ctx, "fj_x", []string{"/bin/sh"}, ExecOptions{}); err == nil {
		t.Error("Exec() on an unregistered jail should fail")
	}
	if err := m.Create(ctx, CreateOptions{Name: "fj_x", Path: "/mnt/x"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Create(ctx, CreateOptions{Name: "fj_x", Path: "/mnt/x"}); err == nil {
		t.Error("duplicate Create() should fail")
	}
	res, err := m.Exec(ctx, "fj_x", []string{"/bin/sh"}, ExecOptions{})
	if err != nil || res.ExitCode != 3 {
		t.Errorf("Exec() = %+v, %v", res, err)
	}
	if err := m.Remove(ctx, "fj_x"); err != nil {
		t.Fatal(err)
	}
	if m.Exists(ctx, "fj_x") {
		t.Error("jail should be gone after Remove()")
	}
	if got := len(m.GetCallsFor("Create")); got != 2 {
		t.Errorf("Create calls = %d, want 2", got)
	}

	m.SetError("Remove", fmt.Errorf("busy"))
	if err := m.Remove(ctx, "fj_x"); err == nil {
		t.Error("injected Remove() error not returned")
	}
}
