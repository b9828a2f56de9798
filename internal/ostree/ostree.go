package ostree

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// Client is the set of repository operations the installer needs.
type Client interface {
	// Initialized reports whether the repository config exists.
	Initialized() bool

	// Init creates the repository in archive mode.
	Init(ctx context.Context) error

	// AddRemote registers remote unless a remote of that name exists.
	AddRemote(ctx context.Context, remote config.Remote) error

	// DisableVerification forces gpg-verify off for the named remote.
	DisableVerification(ctx context.Context, name string) error

	// RaiseSummaryLimit patches core.summary-max-size into the repo config.
	RaiseSummaryLimit() error

	// Pull fetches ref from remote.
	Pull(ctx context.Context, remote, ref string) error

	// RevParse returns the commit hash ref currently points at.
	RevParse(ctx context.Context, remote, ref string) (string, error)

	// Checkout materializes commit into dir.
	Checkout(ctx context.Context, commit, dir string) error
}

// FindBinary returns the first usable ostree binary among candidates.
// Absolute candidates must exist; bare names must answer --version.
func FindBinary(ctx context.Context, fs system.FileSystem, exec system.CommandExecutor, candidates []string) (string, error) {
	for _, c := range candidates {
		if strings.Contains(c, "/") {
			if fs.Exists(c) {
				logging.Debug("found ostree", "path", c)
				return c, nil
			}
			continue
		}
		if _, err := exec.Execute(ctx, c, "--version"); err == nil {
			logging.Debug("found ostree on PATH", "name", c)
			return c, nil
		}
	}
	return "", errors.RepoToolMissing()
}

// Repo implements Client by invoking the ostree binary.
type Repo struct {
	fs   system.FileSystem
	exec system.CommandExecutor
	bin  string
	dir  string

	// mirrors are extra copies of the repo config that get the same patch
	// as the primary one, when present.
	mirrors []string
}

// NewRepo creates a client for the repository at dir. mirrors lists other
// config files, such as the one seen through the compat root, that must
// carry the summary limit too.
func NewRepo(fs system.FileSystem, exec system.CommandExecutor, bin, dir string, mirrors ...string) *Repo {
	return &Repo{fs: fs, exec: exec, bin: bin, dir: dir, mirrors: mirrors}
}

// Dir returns the repository directory.
func (r *Repo) Dir() string {
	return r.dir
}

func (r *Repo) configPath() string {
	return filepath.Join(r.dir, "config")
}

func (r *Repo) Initialized() bool {
	return r.fs.Exists(r.configPath())
}

func (r *Repo) Init(ctx context.Context) error {
	if err := r.fs.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create repo dir: %w", err)
	}
	logging.UserInfo("Initializing repository at %s", r.dir)
	if err := r.exec.ExecuteInteractive(ctx, r.bin, "init", "--mode=archive-z2", "--repo", r.dir); err != nil {
		return fmt.Errorf("ostree init failed: %w", err)
	}
	return nil
}

func (r *Repo) AddRemote(ctx context.Context, remote config.Remote) error {
	logging.Debug("adding remote", "name", remote.Name, "url", remote.URL)
	err := r.exec.ExecuteInteractive(ctx, r.bin,
		"remote", "add", "--if-not-exists", "--no-gpg-verify",
		"--repo", r.dir, remote.Name, remote.URL)
	if err != nil {
		return fmt.Errorf("ostree remote add %s failed: %w", remote.Name, err)
	}
	return nil
}

func (r *Repo) DisableVerification(ctx context.Context, name string) error {
	key := fmt.Sprintf("remote.%s.gpg-verify", name)
	if err := r.exec.ExecuteInteractive(ctx, r.bin, "config", "--repo", r.dir, "set", key, "false"); err != nil {
		return fmt.Errorf("ostree config set %s failed: %w", key, err)
	}
	return nil
}

func (r *Repo) RaiseSummaryLimit() error {
	primary := r.configPath()
	if err := patchSummaryLimit(r.fs, primary); err != nil {
		return err
	}

	for _, m := range r.mirrors {
		if m == "" || filepath.Clean(m) == filepath.Clean(primary) || !r.fs.Exists(m) {
			continue
		}
		if err := patchSummaryLimit(r.fs, m); err != nil {
			logging.Warn("failed to patch mirrored repo config", "path", m, "error", err)
		}
	}
	return nil
}

// patchSummaryLimit sets [core] summary-max-size in the keyfile at path.
// A missing file is left alone.
func patchSummaryLimit(fs system.FileSystem, path string) error {
	data, err := fs.ReadFile(path)
	if err != nil {
		logging.Debug("repo config not readable, skipping summary limit", "path", path, "error", err)
		return nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	key := f.Section("core").Key("summary-max-size")
	if key.String() == config.SummaryMaxSize {
		return nil
	}
	key.SetValue(config.SummaryMaxSize)

	var buf strings.Builder
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := fs.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logging.Debug("raised summary limit", "path", path)
	return nil
}

func (r *Repo) Pull(ctx context.Context, remote, ref string) error {
	logging.UserInfo("Pulling %s from %s...", ref, remote)
	if err := r.exec.ExecuteInteractive(ctx, r.bin, "pull", "--repo", r.dir, remote, ref); err != nil {
		return errors.PullFailed(ref, err)
	}
	return nil
}

func (r *Repo) RevParse(ctx context.Context, remote, ref string) (string, error) {
	out, err := r.exec.Output(ctx, r.bin, "rev-parse", "--repo", r.dir, remote+":"+ref)
	if err != nil {
		return "", fmt.Errorf("ostree rev-parse %s failed: %w", ref, err)
	}
	commit := strings.TrimSpace(string(out))
	if commit == "" || strings.ContainsAny(commit, "/ \n") {
		return "", fmt.Errorf("ostree rev-parse %s returned %q", ref, commit)
	}
	return commit, nil
}

func (r *Repo) Checkout(ctx context.Context, commit, dir string) error {
	if err := r.fs.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dir), err)
	}
	logging.UserInfo("Checking out %s...", shortCommit(commit))
	if err := r.exec.ExecuteInteractive(ctx, r.bin, "checkout", "--repo", r.dir, "--user-mode", commit, dir); err != nil {
		return fmt.Errorf("ostree checkout failed: %w", err)
	}
	return nil
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
