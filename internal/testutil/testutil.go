// Package testutil provides test utilities for integration tests
package testutil

import (
	"debug/elf"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/flatjail/internal/app"
	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/jail"
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/ref"
	"github.com/firefly-engineering/flatjail/internal/system"
)

const (
	// CalculatorID is the app installed by InstallCalculator.
	CalculatorID = "org.gnome.Calculator"
	// CalculatorCommand is its metadata command.
	CalculatorCommand = "gnome-calculator"
	// PlatformRef is the runtime the calculator depends on.
	PlatformRef = "runtime/org.gnome.Platform/x86_64/46"
)

// TestEnv holds the test environment. Host paths, the installation base
// and the jail root prefix all live under TmpDir; external commands go to
// a mock executor whose pipes copy directory trees like tar would.
type TestEnv struct {
	T      *testing.T
	TmpDir string
	Config *config.Config
	Exec   *system.MockExecutor
	Jail   *jail.MockRuntime
	App    *app.App

	// HostDir is the fake host root holding fonts, sockets and libraries
	HostDir string

	cleanup func()
}

// NewTestEnv creates a new test environment with mock executor and jail runtime
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	host := filepath.Join(tmpDir, "host")

	id := config.Identity{
		Home: filepath.Join(tmpDir, "home", "alice"),
		User: "alice",
		UID:  "1001",
	}
	cfg := config.Defaults(id)
	cfg.StateDir = filepath.Join(tmpDir, "state")
	cfg.JailRootPrefix = filepath.Join(tmpDir, "mnt")
	cfg.Display = ":0"
	cfg.Host = config.HostPaths{
		Fonts:           filepath.Join(host, "usr/local/share/fonts"),
		X11:             filepath.Join(host, "tmp/.X11-unix"),
		UserRuntimeDir:  filepath.Join(host, "var/run/user"),
		XDGRuntimeDir:   filepath.Join(host, "var/run/xdg"),
		DBus:            filepath.Join(host, "var/run/dbus"),
		MachineID:       filepath.Join(host, "etc/machine-id"),
		OSRelease:       filepath.Join(host, "etc/os-release"),
		CompatRoot:      filepath.Join(tmpDir, "compat/ubuntu"),
		VulkanICDDirs:   []string{filepath.Join(host, "usr/share/vulkan/icd.d")},
		VulkanLayerDirs: []string{filepath.Join(host, "usr/share/vulkan/explicit_layer.d")},
		GLSearchDirs:    []string{filepath.Join(host, "usr/lib")},
	}
	cfg.Compat.SearchDirs = []string{
		filepath.Join(tmpDir, "compat/ubuntu/lib"),
		filepath.Join(tmpDir, "compat/ubuntu/lib64"),
	}

	env := &TestEnv{
		T:       t,
		TmpDir:  tmpDir,
		Config:  cfg,
		HostDir: host,
	}

	for _, dir := range []string{
		cfg.BaseDir,
		cfg.StateDir,
		cfg.Host.Fonts,
		cfg.Host.X11,
		filepath.Join(cfg.Host.XDGRuntimeDir, id.User, "at-spi"),
		cfg.Host.DBus,
		cfg.Host.VulkanLayerDirs[0],
		cfg.Compat.SearchDirs[1],
	} {
		env.mkdir(dir)
	}
	env.WriteFile(filepath.Join(cfg.Host.UserRuntimeDir, id.UID, "pulse", "native"), nil)
	env.WriteFile(cfg.Host.MachineID, []byte("0123456789abcdef0123456789abcdef\n"))
	env.WriteFile(cfg.Host.OSRelease, []byte("NAME=FreeBSD\nVERSION=14.1-RELEASE\n"))
	env.WriteFile(filepath.Join(cfg.Host.VulkanICDDirs[0], "radeon_icd.x86_64.json"), []byte("{}"))
	env.WriteFile(filepath.Join(cfg.Host.GLSearchDirs[0], "libGL.so.1"), []byte("gl"))
	env.WriteFile(filepath.Join(cfg.Compat.SearchDirs[0], "libGL.so.1"), []byte("gl"))
	env.WriteFile(filepath.Join(cfg.Compat.SearchDirs[0], "libEGL.so.1"), []byte("egl"))

	mockExec := system.NewMockExecutor()
	mockExec.OnPipe = func(producer, consumer system.Command) error {
		return CopyTree(producer.Dir, consumer.Dir)
	}
	mockJail := jail.NewMockRuntime()

	testApp := app.New(
		app.WithConfig(cfg),
		app.WithExecutor(mockExec),
		app.WithJail(mockJail),
	)

	originalDefault := app.Default
	app.SetDefault(testApp)

	env.Exec = mockExec
	env.Jail = mockJail
	env.App = testApp
	env.cleanup = func() {
		app.SetDefault(originalDefault)
	}

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// Layout returns the installation layout of the environment
func (e *TestEnv) Layout() *layout.Layout {
	return layout.New(system.DefaultFS(), e.Config.BaseDir)
}

// WriteFile writes data to path, creating parent directories
func (e *TestEnv) WriteFile(path string, data []byte) {
	e.T.Helper()

	e.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, data, 0755); err != nil {
		e.T.Fatalf("Failed to write %s: %v", path, err)
	}
}

func (e *TestEnv) mkdir(path string) {
	e.T.Helper()

	if err := os.MkdirAll(path, 0755); err != nil {
		e.T.Fatalf("Failed to create directory %s: %v", path, err)
	}
}

// InstallRef checks out files as commit of r and points the active link
// at it. Paths in files are relative to the commit dir.
func (e *TestEnv) InstallRef(r ref.Reference, commit string, files map[string][]byte) string {
	e.T.Helper()

	l := e.Layout()
	dir := l.CommitDir(r, commit)
	for rel, data := range files {
		e.WriteFile(filepath.Join(dir, rel), data)
	}
	if err := l.Activate(r, commit); err != nil {
		e.T.Fatalf("Failed to activate %s: %v", r, err)
	}
	return dir
}

// InstallRuntime installs a minimal runtime tree with a shell, a lib dir
// and a share dir.
func (e *TestEnv) InstallRuntime(canonical string) ref.Reference {
	e.T.Helper()

	r, err := ref.ParseReference(canonical)
	if err != nil {
		e.T.Fatalf("Invalid runtime ref %s: %v", canonical, err)
	}
	meta, err := LoadFixture("platform.metadata")
	if err != nil {
		e.T.Fatalf("Failed to load runtime metadata: %v", err)
	}
	files := map[string][]byte{
		"metadata":                meta,
		"files/bin/sh":            ELFHeader(elf.ELFOSABI_LINUX),
		"files/lib/libc.so.6":     ELFHeader(elf.ELFOSABI_NONE),
		"files/share/fonts/.keep": nil,
		"files/etc/ld.so.conf":    []byte("include /run/flatpak/ld.so.conf.d/*.conf\n"),
	}
	files["files/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache"] = []byte("# loaders\n")
	e.InstallRef(r, "runtimecommit", files)
	return r
}

// InstallApp installs an app whose metadata names runtime and command.
// The command binary is an ELF file branded for osabi.
func (e *TestEnv) InstallApp(id, runtime, command string, osabi elf.OSABI) ref.Reference {
	e.T.Helper()

	r := ref.Reference{Kind: ref.KindApp, ID: id, Arch: e.Config.Arch, Branch: config.DefaultBranch}
	meta := fmt.Sprintf("[Application]\nname=%s\nruntime=%s\ncommand=%s\n", id, runtime, command)
	e.InstallRef(r, "appcommit", map[string][]byte{
		"metadata":              []byte(meta),
		"files/bin/" + command:  ELFHeader(osabi),
		"files/share/README.md": []byte(id + "\n"),
	})
	return r
}

// InstallCalculator installs the calculator app and its platform runtime.
// The app binary is branded FreeBSD, as a fresh checkout would be.
func (e *TestEnv) InstallCalculator() (appRef, runtimeRef ref.Reference) {
	e.T.Helper()

	meta, err := CalculatorMetadata()
	if err != nil {
		e.T.Fatalf("Failed to load calculator metadata: %v", err)
	}
	runtimeRef = e.InstallRuntime("runtime/" + meta.Runtime)
	appRef = e.InstallApp(CalculatorID, meta.Runtime, meta.Command, elf.ELFOSABI_FREEBSD)
	return appRef, runtimeRef
}

// RootDir returns the jail root of appID in this environment
func (e *TestEnv) RootDir(appID string) string {
	return e.Config.RootDir(appID)
}

// ELFHeader returns a minimal 64-bit little-endian ELF header with the
// given OSABI.
func ELFHeader(osabi elf.OSABI) []byte {
	header := make([]byte, 64)
	copy(header, elf.ELFMAG)
	header[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	header[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	header[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	header[elf.EI_OSABI] = byte(osabi)
	return header
}

// CopyTree copies the contents of src into dst, keeping symlinks and
// permission bits.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := os.Lstat(path)
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return os.WriteFile(target, data, info.Mode().Perm())
		}
	})
}
