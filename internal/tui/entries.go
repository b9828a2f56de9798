package tui

import (
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/metadata"
	"github.com/firefly-engineering/flatjail/internal/ref"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// AppEntry describes one installed application.
type AppEntry struct {
	ID      string
	Ref     ref.Reference
	Commit  string
	Runtime string

	// Broken is set when the app has no usable active tree.
	Broken bool
}

// LoadEntries lists the installed applications with their active commit
// and runtime. Apps without an active tree are kept and marked Broken.
func LoadEntries(fs system.FileSystem, l *layout.Layout, arch string) ([]AppEntry, error) {
	ids, err := l.ListApps()
	if err != nil {
		return nil, err
	}

	entries := make([]AppEntry, 0, len(ids))
	for _, id := range ids {
		entry := AppEntry{ID: id}

		r, err := l.FindInstalled(ref.KindApp, id, arch)
		entry.Ref = r
		if err != nil {
			logging.Debug("app has no active tree", "app", id, "error", err)
			entry.Broken = true
			entries = append(entries, entry)
			continue
		}

		if entry.Commit, err = l.ActiveCommit(r); err != nil {
			entry.Broken = true
		}
		if md, err := metadata.Load(fs, l.ActiveLink(r)); err == nil {
			entry.Runtime = md.Runtime
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
