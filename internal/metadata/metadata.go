// Package metadata reads the per-application metadata keyfile shipped in
// every Flatpak commit.
package metadata

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/firefly-engineering/flatjail/internal/system"
)

const (
	// FileName is the keyfile name at the top of a commit or under files/.
	FileName = "metadata"

	applicationGroup = "Application"
	runtimeGroup     = "Runtime"
)

// Metadata is the subset of the keyfile flatjail acts on.
type Metadata struct {
	// Name is the application or runtime id.
	Name string
	// Runtime is the id/arch/branch runtime the application needs.
	Runtime string
	// Command is the default executable, absolute or relative to /app/bin.
	Command string
}

// HasRuntime reports whether the application declares a runtime dependency.
func (m *Metadata) HasRuntime() bool {
	return m != nil && m.Runtime != ""
}

// Parse decodes a metadata keyfile. Runtimes carry a [Runtime] group
// instead of [Application]; both are accepted.
func Parse(data []byte) (*Metadata, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	for _, group := range []string{applicationGroup, runtimeGroup} {
		sec, err := f.GetSection(group)
		if err != nil {
			continue
		}
		return &Metadata{
			Name:    sec.Key("name").String(),
			Runtime: sec.Key("runtime").String(),
			Command: sec.Key("command").String(),
		}, nil
	}

	return nil, fmt.Errorf("metadata has neither [%s] nor [%s] group", applicationGroup, runtimeGroup)
}

// Find returns the metadata path inside a checked-out commit: the
// top-level file, else files/metadata.
func Find(fs system.FileSystem, commitDir string) (string, error) {
	for _, p := range []string{
		filepath.Join(commitDir, FileName),
		filepath.Join(commitDir, "files", FileName),
	} {
		if fs.Exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("no metadata in %s", commitDir)
}

// Load finds and parses the metadata of a checked-out commit.
func Load(fs system.FileSystem, commitDir string) (*Metadata, error) {
	path, err := Find(fs, commitDir)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Parse(data)
}
