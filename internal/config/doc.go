// Package config provides the configuration value threaded through
// flatjail's installer and sandbox.
//
// Configuration is resolved once, in Load, from three layers:
//
//  1. Built-in defaults (Defaults), matching a FreeBSD host with the Linux
//     compatibility layer under /compat/linux and an Ubuntu userland under
//     /compat/ubuntu.
//  2. The environment: HOME, SUDO_USER/USER and SUDO_UID identify the
//     invoking user; DISPLAY and WAYLAND_DISPLAY are recorded for
//     pass-through.
//  3. An optional TOML file, $XDG_CONFIG_HOME/flatjail/config.toml by
//     default:
//
//	base_dir = "/home/alice/.local/share/flatpak"
//	launcher = "chroot"
//
//	[remote]
//	name = "flathub"
//	url  = "https://dl.flathub.org/repo/"
//
//	[compat]
//	libraries   = ["libGL.so.1", "libEGL.so.1"]
//	search_dirs = ["/compat/linux/usr/lib"]
//
// Nothing below the cmd package reads the environment directly.
package config
