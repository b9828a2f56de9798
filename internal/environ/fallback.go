package environ

import (
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// DefaultPixbufCache is used when no loaders cache exists in the root.
const DefaultPixbufCache = "/usr/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache"

var pixbufCandidates = []string{
	"/usr/lib/x86_64-linux-gnu/gdk-pixbuf-2.0/2.10.0/loaders.cache",
	"/usr/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache",
	"/lib/x86_64-linux-gnu/gdk-pixbuf-2.0/2.10.0/loaders.cache",
	"/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache",
}

// ResolvePixbufCache returns the in-root path of the first loaders cache
// present under root.
func ResolvePixbufCache(fs system.FileSystem, root string) string {
	for _, c := range pixbufCandidates {
		if fs.Exists(filepath.Join(root, c)) {
			return c
		}
	}
	logging.Debug("no gdk-pixbuf loaders cache found, using default", "path", DefaultPixbufCache)
	return DefaultPixbufCache
}

// InjectedLibrary is a compatibility library copied into the root.
type InjectedLibrary struct {
	Name   string
	Source string
	Dest   string
}

// InjectionReport summarizes InjectLibraries.
type InjectionReport struct {
	Copied  []InjectedLibrary
	Present []string
	Missing []string
	// Failed maps library names to the copy error.
	Failed map[string]error
}

// InjectLibraries copies each library missing from the root's lib and
// lib64 dirs from the first search dir that has it, moving on to the next
// one when a copy fails. Search dirs ending in "64" land in lib64, the
// others in lib. Libraries already present are left alone, so a second
// call copies nothing.
func InjectLibraries(fs system.FileSystem, root string, libs, searchDirs []string) *InjectionReport {
	report := &InjectionReport{Failed: make(map[string]error)}

	for _, lib := range libs {
		if present(fs, root, lib) {
			report.Present = append(report.Present, lib)
			continue
		}

		var (
			found   bool
			copied  *InjectedLibrary
			lastErr error
		)
		for _, dir := range searchDirs {
			src := filepath.Join(dir, lib)
			if !fs.Exists(src) {
				continue
			}
			found = true

			destDir := "lib"
			if strings.HasSuffix(dir, "64") {
				destDir = "lib64"
			}
			dest, err := securejoin.SecureJoin(root, filepath.Join(destDir, lib))
			if err == nil {
				err = fs.CopyFile(src, dest)
			}
			if err != nil {
				logging.Warn("failed to inject library", "lib", lib, "source", src, "error", err)
				lastErr = err
				continue
			}
			logging.Debug("injected library", "lib", lib, "source", src, "dest", dest)
			copied = &InjectedLibrary{Name: lib, Source: src, Dest: dest}
			break
		}

		switch {
		case copied != nil:
			report.Copied = append(report.Copied, *copied)
		case found:
			report.Failed[lib] = lastErr
		default:
			report.Missing = append(report.Missing, lib)
		}
	}

	return report
}

func present(fs system.FileSystem, root, lib string) bool {
	for _, dir := range []string{"lib", "lib64"} {
		if fs.Exists(filepath.Join(root, dir, lib)) {
			return true
		}
	}
	return false
}

// Discovery lists host graphics components, for diagnostics only.
type Discovery struct {
	VulkanICDs   []string
	VulkanLayers []string
	GLLibraries  []string
}

// DiscoverVulkan lists the JSON manifests in the ICD and layer dirs.
func DiscoverVulkan(fs system.FileSystem, icdDirs, layerDirs []string) (icds, layers []string) {
	icds = listMatching(fs, icdDirs, func(name string) bool { return strings.HasSuffix(name, ".json") })
	layers = listMatching(fs, layerDirs, func(name string) bool { return strings.HasSuffix(name, ".json") })
	return icds, layers
}

// DiscoverGL lists the libGL* (libGLX included) and libEGL* libraries in dirs.
func DiscoverGL(fs system.FileSystem, dirs []string) []string {
	return listMatching(fs, dirs, func(name string) bool {
		return strings.HasPrefix(name, "libGL") || strings.HasPrefix(name, "libEGL")
	})
}

// Discover runs both discoveries.
func Discover(fs system.FileSystem, icdDirs, layerDirs, glDirs []string) *Discovery {
	d := &Discovery{}
	d.VulkanICDs, d.VulkanLayers = DiscoverVulkan(fs, icdDirs, layerDirs)
	d.GLLibraries = DiscoverGL(fs, glDirs)
	return d
}

func listMatching(fs system.FileSystem, dirs []string, match func(string) bool) []string {
	var out []string
	for _, dir := range dirs {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			continue
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && match(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
	}
	return out
}
