package environ

import (
	"errors"
	"testing"

	"github.com/firefly-engineering/flatjail/internal/system"
)

const root = "/mnt/flatjail_org.test"

var errCopy = errors.New("copy failed")

func TestResolvePixbufCache(t *testing.T) {
	tests := []struct {
		name    string
		present []string
		want    string
	}{
		{name: "none", want: DefaultPixbufCache},
		{
			name:    "multiarch first",
			present: []string{"/usr/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache", "/usr/lib/x86_64-linux-gnu/gdk-pixbuf-2.0/2.10.0/loaders.cache"},
			want:    "/usr/lib/x86_64-linux-gnu/gdk-pixbuf-2.0/2.10.0/loaders.cache",
		},
		{
			name:    "lib fallback",
			present: []string{"/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache"},
			want:    "/lib/gdk-pixbuf-2.0/2.10.0/loaders.cache",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := system.NewMockFS()
			for _, p := range tt.present {
				fs.AddFile(root+p, []byte("cache"), 0644)
			}
			if got := ResolvePixbufCache(fs, root); got != tt.want {
				t.Errorf("ResolvePixbufCache() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInjectLibraries(t *testing.T) {
	fs := system.NewMockFS()
	fs.AddFile(root+"/lib/libGLU.so.1", []byte("present"), 0755)
	fs.AddFile("/compat/ubuntu/lib64/libGL.so.1", []byte("ubuntu64"), 0755)
	fs.AddFile("/compat/linux/usr/lib/libGL.so.1", []byte("linux"), 0755)
	fs.AddFile("/compat/linux/usr/lib/libEGL.so.1", []byte("egl"), 0755)

	libs := []string{"libGLEW.so.2.2", "libGL.so.1", "libGLU.so.1", "libEGL.so.1"}
	dirs := []string{"/compat/ubuntu/lib", "/compat/ubuntu/lib64", "/compat/linux/usr/lib", "/compat/linux/usr/lib64"}

	report := InjectLibraries(fs, root, libs, dirs)

	if len(report.Copied) != 2 {
		t.Fatalf("copied %d libs, want 2: %+v", len(report.Copied), report.Copied)
	}
	// The first search dir that has the library wins, and a dir ending in
	// 64 targets lib64.
	if report.Copied[0].Name != "libGL.so.1" || report.Copied[0].Source != "/compat/ubuntu/lib64/libGL.so.1" {
		t.Errorf("libGL copied from %q", report.Copied[0].Source)
	}
	if data, ok := fs.GetFile(root + "/lib64/libGL.so.1"); !ok || string(data) != "ubuntu64" {
		t.Errorf("lib64/libGL.so.1 = %q, %v", data, ok)
	}
	if data, ok := fs.GetFile(root + "/lib/libEGL.so.1"); !ok || string(data) != "egl" {
		t.Errorf("lib/libEGL.so.1 = %q, %v", data, ok)
	}
	if len(report.Present) != 1 || report.Present[0] != "libGLU.so.1" {
		t.Errorf("Present = %v", report.Present)
	}
	if len(report.Missing) != 1 || report.Missing[0] != "libGLEW.so.2.2" {
		t.Errorf("Missing = %v", report.Missing)
	}

	again := InjectLibraries(fs, root, libs, dirs)
	if len(again.Copied) != 0 {
		t.Errorf("second injection copied %v, want nothing", again.Copied)
	}
	if len(again.Present) != 3 {
		t.Errorf("second injection Present = %v", again.Present)
	}
}

func TestInjectLibraries_CopyFailure(t *testing.T) {
	fs := system.NewMockFS()
	fs.AddFile("/compat/linux/usr/lib/libGL.so.1", []byte("linux"), 0755)
	fs.CopyFileErr = errCopy

	report := InjectLibraries(fs, root, []string{"libGL.so.1"}, []string{"/compat/linux/usr/lib"})
	if report.Failed["libGL.so.1"] != errCopy {
		t.Errorf("Failed = %v", report.Failed)
	}
	if len(report.Missing) != 0 {
		t.Errorf("a failed copy is not a missing library: %v", report.Missing)
	}
}

// copyFailFS fails every copy from the listed sources.
type copyFailFS struct {
	*system.MockFS
	failing map[string]bool
}

func (f *copyFailFS) CopyFile(src, dst string) error {
	if f.failing[src] {
		return errCopy
	}
	return f.MockFS.CopyFile(src, dst)
}

func TestInjectLibraries_CopyFailureTriesNextDir(t *testing.T) {
	mock := system.NewMockFS()
	mock.AddFile("/compat/ubuntu/lib/libGL.so.1", []byte("ubuntu"), 0755)
	mock.AddFile("/compat/linux/usr/lib/libGL.so.1", []byte("linux"), 0755)
	mock.AddFile("/compat/ubuntu/lib/libEGL.so.1", []byte("egl"), 0755)
	fs := &copyFailFS{MockFS: mock, failing: map[string]bool{
		"/compat/ubuntu/lib/libGL.so.1":  true,
		"/compat/ubuntu/lib/libEGL.so.1": true,
	}}

	dirs := []string{"/compat/ubuntu/lib", "/compat/linux/usr/lib"}
	report := InjectLibraries(fs, root, []string{"libGL.so.1", "libEGL.so.1"}, dirs)

	if len(report.Copied) != 1 || report.Copied[0].Source != "/compat/linux/usr/lib/libGL.so.1" {
		t.Errorf("Copied = %+v, want libGL.so.1 from the second dir", report.Copied)
	}
	if data, ok := mock.GetFile(root + "/lib/libGL.so.1"); !ok || string(data) != "linux" {
		t.Errorf("lib/libGL.so.1 = %q, %v", data, ok)
	}
	if _, ok := report.Failed["libGL.so.1"]; ok {
		t.Error("libGL.so.1 should not be failed once a later copy succeeded")
	}
	// libEGL.so.1 has no other candidate
	if report.Failed["libEGL.so.1"] != errCopy {
		t.Errorf("Failed = %v", report.Failed)
	}
	if len(report.Missing) != 0 {
		t.Errorf("Missing = %v", report.Missing)
	}
}

func TestDiscover(t *testing.T) {
	fs := system.NewMockFS()
	fs.AddFile("/icd/radeon_icd.x86_64.json", []byte("{}"), 0644)
	fs.AddFile("/icd/intel_icd.x86_64.json", []byte("{}"), 0644)
	fs.AddFile("/icd/README", []byte(""), 0644)
	fs.AddFile("/layers/VkLayer_MESA_overlay.json", []byte("{}"), 0644)
	fs.AddFile("/gl/libGL.so.1", nil, 0755)
	fs.AddFile("/gl/libGLX_mesa.so.0", nil, 0755)
	fs.AddFile("/gl/libEGL.so.1", nil, 0755)
	fs.AddFile("/gl/libc.so.6", nil, 0755)

	d := Discover(fs, []string{"/icd", "/missing"}, []string{"/layers"}, []string{"/gl"})

	if len(d.VulkanICDs) != 2 || d.VulkanICDs[0] != "/icd/intel_icd.x86_64.json" {
		t.Errorf("VulkanICDs = %v", d.VulkanICDs)
	}
	if len(d.VulkanLayers) != 1 {
		t.Errorf("VulkanLayers = %v", d.VulkanLayers)
	}
	if len(d.GLLibraries) != 3 {
		t.Errorf("GLLibraries = %v", d.GLLibraries)
	}
}
