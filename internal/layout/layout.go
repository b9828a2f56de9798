// Package layout maps references onto the on-disk installation tree:
//
//	<base>/<kind>/<id>/<arch>/<branch>/<commit>/...
//	<base>/<kind>/<id>/<arch>/<branch>/active -> <commit>
//
// The active pointer, when present, always names an existing non-empty
// commit directory. It is replaced atomically: a new link is created
// under a temporary name and renamed over the old one.
package layout

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/ref"
	"github.com/firefly-engineering/flatjail/internal/system"
)

const (
	ActiveName = "active"
	FilesDir   = "files"

	tmpActivePrefix = ".active-"
)

// Layout resolves installation paths under a base directory.
type Layout struct {
	fs   system.FileSystem
	base string
}

// New creates a Layout rooted at base.
func New(fs system.FileSystem, base string) *Layout {
	return &Layout{fs: fs, base: base}
}

// Base returns the installation base directory.
func (l *Layout) Base() string {
	return l.base
}

// InstallDir is the branch directory holding commits and the active pointer.
func (l *Layout) InstallDir(r ref.Reference) string {
	return filepath.Join(l.base, string(r.Kind), r.ID, r.Arch, r.Branch)
}

// CommitDir is the checkout directory of one commit.
func (l *Layout) CommitDir(r ref.Reference, commit string) string {
	return filepath.Join(l.InstallDir(r), commit)
}

// ActiveLink is the path of the active pointer.
func (l *Layout) ActiveLink(r ref.Reference) string {
	return filepath.Join(l.InstallDir(r), ActiveName)
}

// ActiveFiles is the files tree of the active commit, as seen through the
// pointer.
func (l *Layout) ActiveFiles(r ref.Reference) string {
	return filepath.Join(l.ActiveLink(r), FilesDir)
}

// NeedsCheckout reports whether the commit directory is missing or an
// empty leftover of an interrupted checkout.
func (l *Layout) NeedsCheckout(r ref.Reference, commit string) bool {
	dir := l.CommitDir(r, commit)
	return !l.fs.Exists(dir) || system.IsEmptyDir(l.fs, dir)
}

// ActiveCommit returns the commit the pointer names, or "" if there is no
// pointer.
func (l *Layout) ActiveCommit(r ref.Reference) (string, error) {
	link := l.ActiveLink(r)
	if _, err := l.fs.Lstat(link); err != nil {
		return "", nil
	}
	target, err := l.fs.Readlink(link)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", link, err)
	}
	return filepath.Base(target), nil
}

// Activate points the active link at commit. The commit directory must
// exist and be non-empty.
func (l *Layout) Activate(r ref.Reference, commit string) error {
	dir := l.CommitDir(r, commit)
	if !l.fs.IsDir(dir) || system.IsEmptyDir(l.fs, dir) {
		return fmt.Errorf("cannot activate %s: %s is missing or empty", r, dir)
	}

	link := l.ActiveLink(r)
	tmp := filepath.Join(l.InstallDir(r), tmpActivePrefix+commit)

	// A crashed earlier swap can leave the temporary link behind.
	if _, err := l.fs.Lstat(tmp); err == nil {
		if err := l.fs.Remove(tmp); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", tmp, err)
		}
	}

	if err := l.fs.Symlink(commit, tmp); err != nil {
		return fmt.Errorf("failed to create pointer for %s: %w", r, err)
	}
	if err := l.fs.Rename(tmp, link); err != nil {
		_ = l.fs.Remove(tmp)
		return fmt.Errorf("failed to activate %s: %w", r, err)
	}

	logging.Debug("activated commit", "ref", r.String(), "commit", commit)
	return nil
}

// FindInstalled returns the installed reference for id, preferring the
// stable branch and otherwise the first branch, in name order, that has an
// active pointer.
func (l *Layout) FindInstalled(kind ref.Kind, id, arch string) (ref.Reference, error) {
	stable := ref.Reference{Kind: kind, ID: id, Arch: arch, Branch: config.DefaultBranch}
	if l.hasActive(stable) {
		return stable, nil
	}

	archDir := filepath.Join(l.base, string(kind), id, arch)
	entries, err := l.fs.ReadDir(archDir)
	if err == nil {
		var branches []string
		for _, e := range entries {
			if e.IsDir() {
				branches = append(branches, e.Name())
			}
		}
		sort.Strings(branches)
		for _, b := range branches {
			r := ref.Reference{Kind: kind, ID: id, Arch: arch, Branch: b}
			if l.hasActive(r) {
				return r, nil
			}
		}
	}

	return stable, fmt.Errorf("%s %s is not installed for %s", kind, id, arch)
}

func (l *Layout) hasActive(r ref.Reference) bool {
	_, err := l.fs.Lstat(l.ActiveLink(r))
	return err == nil
}

// ListApps returns the ids of installed applications, sorted.
func (l *Layout) ListApps() ([]string, error) {
	dir := filepath.Join(l.base, string(ref.KindApp))
	if !l.fs.IsDir(dir) {
		return nil, nil
	}

	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
