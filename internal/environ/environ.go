package environ

import (
	"fmt"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// Paths inside the sandbox root.
const (
	SandboxHome  = "/home/user"
	SandboxUser  = "user"
	AppBinDir    = "/app/bin"
	DefaultShell = "/bin/sh"
)

const (
	ldLibraryPath = "/app/lib:/app/lib64:/lib/x86_64-linux-gnu:/usr/lib/x86_64-linux-gnu:/lib64:/lib:/usr/lib64:/usr/lib"
	searchPath    = "/app/bin:/usr/bin:/bin:/sbin:/usr/sbin"
	typelibPath   = "/app/lib/girepository-1.0:/usr/lib/girepository-1.0:/usr/lib/x86_64-linux-gnu/girepository-1.0:/lib/girepository-1.0"
	gstPluginPath = "/app/lib/gstreamer-1.0:/usr/lib/extensions/gstreamer-1.0:/usr/lib/x86_64-linux-gnu/gstreamer-1.0"
)

// Var is one exported environment variable.
type Var struct {
	Name  string
	Value string
}

func (v Var) String() string {
	return v.Name + "=" + v.Value
}

// Builder produces the environment of a confined application.
type Builder struct {
	AppID string
	UID   string
	// PixbufCache is the in-root path of the gdk-pixbuf loaders cache.
	PixbufCache string
}

// RuntimeDir is the XDG runtime dir inside the root.
func RuntimeDir(uid string) string {
	return "/run/user/" + uid
}

// Vars returns the exported variables, in export order.
func (b Builder) Vars() []Var {
	return []Var{
		{"LD_LIBRARY_PATH", ldLibraryPath},
		{"TERM", "xterm-256color"},
		{"container", "flatpak"},
		{"FLATPAK_ID", b.AppID},
		{"HOME", SandboxHome},
		{"USER", SandboxUser},
		{"XDG_RUNTIME_DIR", RuntimeDir(b.UID)},
		{"PATH", searchPath},
		{"XDG_DATA_DIRS", "/app/share:/usr/share:/share"},
		{"XDG_CONFIG_DIRS", "/app/etc/xdg:/etc/xdg"},
		{"XDG_CACHE_HOME", SandboxHome + "/.cache"},
		{"GI_TYPELIB_PATH", typelibPath},
		{"GDK_PIXBUF_MODULE_FILE", b.PixbufCache},
		{"GST_PLUGIN_SYSTEM_PATH", gstPluginPath},
		{"XDG_CURRENT_DESKTOP", "GNOME"},
		{"LANG", "C.UTF-8"},
	}
}

// Script renders the shell program that exports Vars and replaces itself
// with bin. Every value and argument is shell-quoted.
func (b Builder) Script(bin string, args []string) string {
	var sb strings.Builder
	for _, v := range b.Vars() {
		fmt.Fprintf(&sb, "export %s=%s; ", v.Name, shellquote.Join(v.Value))
	}
	sb.WriteString("exec ")
	sb.WriteString(shellquote.Join(append([]string{bin}, args...)...))
	return sb.String()
}

// ResolveCommand maps a metadata command to an absolute in-root path.
// Relative commands live in /app/bin.
func ResolveCommand(command string) string {
	if strings.HasPrefix(command, "/") {
		return command
	}
	return AppBinDir + "/" + command
}
