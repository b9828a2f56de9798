package ref

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// Kind distinguishes applications from the runtimes they depend on.
type Kind string

const (
	KindApp     Kind = "app"
	KindRuntime Kind = "runtime"
)

// FlatpakrefSuffix marks identifiers that name a .flatpakref file.
const FlatpakrefSuffix = ".flatpakref"

// Reference is a canonical kind/id/arch/branch reference.
type Reference struct {
	Kind   Kind
	ID     string
	Arch   string
	Branch string
}

// String returns the canonical form.
func (r Reference) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.Kind, r.ID, r.Arch, r.Branch)
}

// IsApp reports whether r names an application.
func (r Reference) IsApp() bool {
	return r.Kind == KindApp
}

// ParseReference parses a canonical reference string.
func ParseReference(s string) (Reference, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return Reference{}, errors.InvalidReference(s,
			fmt.Errorf("expected kind/id/arch/branch, got %d parts", len(parts)))
	}

	kind := Kind(parts[0])
	if kind != KindApp && kind != KindRuntime {
		return Reference{}, errors.InvalidReference(s,
			fmt.Errorf("unknown kind %q (must be %s or %s)", parts[0], KindApp, KindRuntime))
	}

	for i, name := range []string{"id", "arch", "branch"} {
		if parts[i+1] == "" {
			return Reference{}, errors.InvalidReference(s, fmt.Errorf("empty %s", name))
		}
	}

	if err := config.ValidateAppID(parts[1]); err != nil {
		return Reference{}, errors.InvalidReference(s, err)
	}

	return Reference{Kind: kind, ID: parts[1], Arch: parts[2], Branch: parts[3]}, nil
}

// Resolution is the outcome of resolving an identifier: the canonical
// reference and the remote it is pulled from.
type Resolution struct {
	Ref    Reference
	Remote config.Remote
}

// WithKind returns s prefixed with "runtime/" unless it already names a
// kind. Metadata runtime values may come in either form.
func WithKind(s string) string {
	if strings.HasPrefix(s, string(KindRuntime)+"/") || strings.HasPrefix(s, string(KindApp)+"/") {
		return s
	}
	return string(KindRuntime) + "/" + s
}

// Resolver maps identifiers to resolutions.
type Resolver struct {
	fs     system.FileSystem
	arch   string
	remote config.Remote
}

// NewResolver creates a resolver. Plain identifiers resolve against remote.
func NewResolver(fs system.FileSystem, arch string, remote config.Remote) *Resolver {
	return &Resolver{fs: fs, arch: arch, remote: remote}
}

// Resolve maps identifier to a canonical reference and its remote.
func (r *Resolver) Resolve(identifier string) (*Resolution, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.InvalidReference(identifier, fmt.Errorf("empty identifier"))
	}

	var (
		canonical string
		remote    = r.remote
	)

	switch {
	case strings.HasSuffix(identifier, FlatpakrefSuffix):
		ref, url, err := r.readFlatpakref(identifier)
		if err != nil {
			return nil, err
		}
		canonical = ref
		remote = config.Remote{Name: config.OriginRemote, URL: url}

	case strings.Contains(identifier, "/"):
		canonical = WithKind(identifier)

	default:
		canonical = Reference{Kind: KindApp, ID: identifier, Arch: r.arch, Branch: config.DefaultBranch}.String()
	}

	parsed, err := ParseReference(canonical)
	if err != nil {
		return nil, err
	}

	logging.Debug("resolved reference", "input", identifier, "ref", parsed.String(), "remote", remote.Name)
	return &Resolution{Ref: parsed, Remote: remote}, nil
}

// readFlatpakref reads the [Flatpak Ref] group of a .flatpakref file.
func (r *Resolver) readFlatpakref(path string) (string, string, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return "", "", errors.InvalidReference(path, fmt.Errorf("failed to read flatpakref: %w", err))
	}

	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return "", "", errors.InvalidReference(path, fmt.Errorf("failed to parse flatpakref: %w", err))
	}

	sec, err := f.GetSection("Flatpak Ref")
	if err != nil {
		return "", "", errors.InvalidReference(path, fmt.Errorf("missing [Flatpak Ref] group"))
	}

	name := sec.Key("Name").String()
	url := sec.Key("Url").String()
	if name == "" || url == "" {
		return "", "", errors.InvalidReference(path, fmt.Errorf("flatpakref must set Name and Url"))
	}

	branch := sec.Key("Branch").MustString(config.DefaultBranch)
	return Reference{Kind: KindApp, ID: name, Arch: r.arch, Branch: branch}.String(), url, nil
}
