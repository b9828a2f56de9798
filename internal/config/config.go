package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/flatjail/internal/logging"
)

const (
	DefaultArch   = "x86_64"
	DefaultBranch = "stable"

	// FlathubName and FlathubURL describe the well-known public remote.
	FlathubName = "flathub"
	FlathubURL  = "https://dl.flathub.org/repo/"

	// OriginRemote is the private remote registered for .flatpakref installs.
	OriginRemote = "origin"

	// UserBaseDir is the installation base, relative to the home directory.
	UserBaseDir = ".local/share/flatpak"

	DefaultJailRootPrefix = "/mnt"
	RootDirPrefix         = "flatjail_"
	JailNamePrefix        = "fj_"
	DefaultHostname       = "flatjail"

	// FallbackMachineID is written when the host has no /etc/machine-id.
	FallbackMachineID = "5c02456317b34d6983792070381665ea"

	// SummaryMaxSize is the core.summary-max-size forced into repo configs.
	SummaryMaxSize = "268435456"

	// FlatpakVersion is advertised in the instance descriptor.
	FlatpakVersion = "1.14.0"

	DefaultUID  = "1000"
	DefaultUser = "root"

	LauncherJexec  = "jexec"
	LauncherChroot = "chroot"
)

// appIDRegex validates application ids: reverse-DNS style names made of
// letters, digits, underscores, hyphens and dots.
var appIDRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,254}$`)

// ValidateAppID checks that id is usable as a path component and jail name.
func ValidateAppID(id string) error {
	if id == "" {
		return fmt.Errorf("app id cannot be empty")
	}
	if !appIDRegex.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid app id %q: must contain only letters, digits, '_', '-' and '.', without '..'", id)
	}
	return nil
}

// Identity is the invoking user as seen through privilege escalation.
type Identity struct {
	Home string
	User string
	UID  string
}

// Remote is the well-known remote used for plain identifiers.
type Remote struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Tools holds the external commands flatjail drives.
type Tools struct {
	// Ostree lists candidate ostree binaries in priority order. Entries
	// without a slash are looked up on PATH.
	Ostree   []string `toml:"ostree"`
	Mount    string   `toml:"mount"`
	Umount   string   `toml:"umount"`
	Jail     string   `toml:"jail"`
	Jls      string   `toml:"jls"`
	Jexec    string   `toml:"jexec"`
	Chroot   string   `toml:"chroot"`
	Tar      string   `toml:"tar"`
	Brandelf string   `toml:"brandelf"`
}

// HostPaths locates the host resources bridged into a sandbox.
type HostPaths struct {
	Fonts string `toml:"fonts"`
	X11   string `toml:"x11"`
	// UserRuntimeDir holds per-uid runtime dirs (Wayland, Pulse sockets).
	UserRuntimeDir string `toml:"user_runtime_dir"`
	// XDGRuntimeDir holds per-user dirs with the AT-SPI bus.
	XDGRuntimeDir string `toml:"xdg_runtime_dir"`
	DBus          string `toml:"dbus"`
	MachineID     string `toml:"machine_id"`
	OSRelease     string `toml:"os_release"`
	// CompatRoot prefixes the home directory for the mirrored repo config.
	CompatRoot      string   `toml:"compat_root"`
	VulkanICDDirs   []string `toml:"vulkan_icd_dirs"`
	VulkanLayerDirs []string `toml:"vulkan_layer_dirs"`
	GLSearchDirs    []string `toml:"gl_search_dirs"`
}

// Compat lists the libraries injected into the root when missing.
type Compat struct {
	Libraries  []string `toml:"libraries"`
	SearchDirs []string `toml:"search_dirs"`
}

// Config is the explicit configuration threaded through every command.
// Ambient environment is read once, in Load.
type Config struct {
	Identity Identity `toml:"-"`

	// Display and WaylandDisplay are passed through to the confined process.
	Display        string `toml:"-"`
	WaylandDisplay string `toml:"-"`

	BaseDir        string `toml:"base_dir"`
	StateDir       string `toml:"state_dir"`
	Arch           string `toml:"arch"`
	Remote         Remote `toml:"remote"`
	JailRootPrefix string `toml:"jail_root_prefix"`
	Hostname       string `toml:"hostname"`
	Launcher       string `toml:"launcher"`

	Tools  Tools     `toml:"tools"`
	Host   HostPaths `toml:"host"`
	Compat Compat    `toml:"compat"`
}

// Defaults returns the built-in configuration for the given identity.
func Defaults(id Identity) *Config {
	return &Config{
		Identity:       id,
		BaseDir:        filepath.Join(id.Home, UserBaseDir),
		StateDir:       filepath.Join(id.Home, ".local", "state", "flatjail"),
		Arch:           DefaultArch,
		Remote:         Remote{Name: FlathubName, URL: FlathubURL},
		JailRootPrefix: DefaultJailRootPrefix,
		Hostname:       DefaultHostname,
		Launcher:       LauncherJexec,
		Tools: Tools{
			Ostree: []string{
				"/compat/ubuntu/usr/bin/ostree",
				"/compat/linux/usr/bin/ostree",
				"ostree",
			},
			Mount:    "/sbin/mount",
			Umount:   "/sbin/umount",
			Jail:     "/usr/sbin/jail",
			Jls:      "/usr/sbin/jls",
			Jexec:    "/usr/sbin/jexec",
			Chroot:   "/usr/sbin/chroot",
			Tar:      "tar",
			Brandelf: "brandelf",
		},
		Host: HostPaths{
			Fonts:          "/usr/local/share/fonts",
			X11:            "/tmp/.X11-unix",
			UserRuntimeDir: "/var/run/user",
			XDGRuntimeDir:  "/var/run/xdg",
			DBus:           "/var/run/dbus",
			MachineID:      "/etc/machine-id",
			OSRelease:      "/etc/os-release",
			CompatRoot:     "/compat/ubuntu",
			VulkanICDDirs: []string{
				"/compat/linux/usr/share/vulkan/icd.d",
				"/usr/share/vulkan/icd.d",
			},
			VulkanLayerDirs: []string{
				"/compat/linux/usr/share/vulkan/explicit_layer.d",
				"/usr/share/vulkan/explicit_layer.d",
			},
			GLSearchDirs: []string{
				"/compat/linux/usr/lib",
				"/compat/linux/usr/lib64",
				"/usr/lib",
				"/usr/lib64",
				"/lib",
				"/lib64",
				"/compat/linux/usr/lib/dri",
				"/compat/linux/usr/lib64/dri",
			},
		},
		Compat: Compat{
			Libraries: []string{
				"libGLEW.so.2.2",
				"libGL.so.1",
				"libGLU.so.1",
				"libEGL.so.1",
				"libGLESv2.so.2",
			},
			SearchDirs: []string{
				"/compat/ubuntu/lib",
				"/compat/ubuntu/lib64",
				"/compat/linux/usr/lib",
				"/compat/linux/usr/lib64",
			},
		},
	}
}

// IdentityFromEnv resolves the invoking user. The sudo-provided pair wins
// over the ambient user, and the uid falls back to DefaultUID.
func IdentityFromEnv(getenv func(string) string) Identity {
	id := Identity{
		Home: getenv("HOME"),
		User: getenv("SUDO_USER"),
		UID:  getenv("SUDO_UID"),
	}
	if id.User == "" {
		id.User = getenv("USER")
	}
	if id.User == "" {
		id.User = DefaultUser
	}
	if id.UID == "" {
		id.UID = DefaultUID
	}
	return id
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/flatjail/config.toml, or the
// same under ~/.config.
func DefaultConfigPath(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, "flatjail", "config.toml")
}

// Load builds the configuration from the environment and an optional TOML
// file. A missing file at the default location is not an error; a missing
// explicitly requested file is.
func Load(path string, getenv func(string) string) (*Config, error) {
	id := IdentityFromEnv(getenv)
	if id.Home == "" {
		return nil, fmt.Errorf("HOME is not set")
	}

	cfg := Defaults(id)
	cfg.Display = getenv("DISPLAY")
	cfg.WaylandDisplay = getenv("WAYLAND_DISPLAY")

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath(getenv)
	}

	if err := cfg.decodeFile(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			logging.Debug("no config file", "path", path)
		} else {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	for _, key := range md.Undecoded() {
		logging.Warn("unknown config key", "path", path, "key", key.String())
	}

	logging.Debug("loaded config file", "path", path)
	return nil
}

// Validate checks that the Config is usable.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if !filepath.IsAbs(c.BaseDir) {
		return fmt.Errorf("base_dir must be absolute (got %q)", c.BaseDir)
	}
	if c.Arch == "" {
		return fmt.Errorf("arch is required")
	}
	if c.Remote.Name == "" || c.Remote.URL == "" {
		return fmt.Errorf("remote name and url are required")
	}
	if !filepath.IsAbs(c.JailRootPrefix) {
		return fmt.Errorf("jail_root_prefix must be absolute (got %q)", c.JailRootPrefix)
	}
	switch c.Launcher {
	case LauncherJexec, LauncherChroot:
	default:
		return fmt.Errorf("invalid launcher %q (must be %s or %s)", c.Launcher, LauncherJexec, LauncherChroot)
	}
	if len(c.Tools.Ostree) == 0 {
		return fmt.Errorf("at least one ostree candidate is required")
	}
	return nil
}

// RepoDir is the ostree repository holding the content store state.
func (c *Config) RepoDir() string {
	return filepath.Join(c.BaseDir, "repo")
}

// CompatRepoConfig is the repo config mirrored under the compat root, as
// seen by an ostree binary running with the compat root as its prefix.
func (c *Config) CompatRepoConfig() string {
	home := strings.TrimPrefix(c.Identity.Home, "/")
	return filepath.Join(c.Host.CompatRoot, home, UserBaseDir, "repo", "config")
}

// RootDir is the ephemeral jail root for an application.
func (c *Config) RootDir(appID string) string {
	return filepath.Join(c.JailRootPrefix, RootDirPrefix+appID)
}

// JailName is the jail name registered for an application.
func JailName(appID string) string {
	return JailNamePrefix + strings.ReplaceAll(appID, ".", "_")
}
