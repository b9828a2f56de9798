// Package installer pulls references and their runtime dependencies into
// the local installation tree.
//
// Install processes a work-list seeded with the user's identifier. Each
// item is resolved, pulled, checked out (unless the commit is already on
// disk) and activated; an application's declared runtime is then queued.
// A canonical reference is never processed twice: a dependency that names
// one already visited in this install is rejected as a cycle.
package installer

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/errors"
	"github.com/firefly-engineering/flatjail/internal/layout"
	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/metadata"
	"github.com/firefly-engineering/flatjail/internal/ostree"
	"github.com/firefly-engineering/flatjail/internal/ref"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// Installed describes one reference processed by Install.
type Installed struct {
	Ref    ref.Reference
	Commit string
	// CheckedOut is false when the commit was already on disk.
	CheckedOut bool
	// Dependency is the runtime the app declared, if any.
	Dependency string
}

// Result lists the references processed, in install order.
type Result struct {
	Installed []Installed
}

// Installer orchestrates resolution, pull, checkout and activation.
type Installer struct {
	fs       system.FileSystem
	resolver *ref.Resolver
	repo     ostree.Client
	layout   *layout.Layout
}

// New creates an Installer.
func New(fs system.FileSystem, resolver *ref.Resolver, repo ostree.Client, l *layout.Layout) *Installer {
	return &Installer{fs: fs, resolver: resolver, repo: repo, layout: l}
}

// Install installs identifier and, transitively, the runtimes it needs.
func (i *Installer) Install(ctx context.Context, identifier string) (*Result, error) {
	result := &Result{}
	visited := make(map[string]bool)
	queue := []string{identifier}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		res, err := i.resolver.Resolve(item)
		if err != nil {
			return result, err
		}

		canonical := res.Ref.String()
		if visited[canonical] {
			return result, errors.DependencyCycle(canonical)
		}
		visited[canonical] = true

		inst, err := i.installOne(ctx, res)
		if err != nil {
			return result, err
		}
		result.Installed = append(result.Installed, *inst)

		if inst.Dependency != "" {
			logging.UserInfo("Found dependency: %s", inst.Dependency)
			queue = append(queue, inst.Dependency)
		}
	}

	return result, nil
}

func (i *Installer) installOne(ctx context.Context, res *ref.Resolution) (*Installed, error) {
	r := res.Ref
	canonical := r.String()
	log := logging.With("ref", canonical)

	if err := i.prepareRepo(ctx, res); err != nil {
		return nil, err
	}

	if err := i.repo.Pull(ctx, res.Remote.Name, canonical); err != nil {
		return nil, err
	}

	commit, err := i.repo.RevParse(ctx, res.Remote.Name, canonical)
	if err != nil {
		return nil, errors.CheckoutFailed(canonical, err)
	}

	inst := &Installed{Ref: r, Commit: commit}
	commitDir := i.layout.CommitDir(r, commit)

	if i.layout.NeedsCheckout(r, commit) {
		if i.fs.Exists(commitDir) {
			log.Debug("removing empty leftover commit dir", "dir", commitDir)
			if err := i.fs.RemoveAll(commitDir); err != nil {
				return nil, errors.CheckoutFailed(canonical, err)
			}
		}
		if err := i.repo.Checkout(ctx, commit, commitDir); err != nil {
			return nil, errors.CheckoutFailed(canonical, err)
		}
		if i.layout.NeedsCheckout(r, commit) {
			return nil, errors.CheckoutFailed(canonical, fmt.Errorf("checkout produced no files in %s", commitDir))
		}
		inst.CheckedOut = true
	} else {
		log.Debug("commit already checked out", "commit", commit)
	}

	if err := i.layout.Activate(r, commit); err != nil {
		return nil, errors.CheckoutFailed(canonical, err)
	}
	logging.UserSuccess("Installed: %s", r.ID)

	if r.IsApp() {
		md, err := metadata.Load(i.fs, commitDir)
		if err != nil {
			log.Debug("no usable metadata, skipping dependency step", "error", err)
		} else if md.HasRuntime() {
			inst.Dependency = md.Runtime
		}
	}

	return inst, nil
}

// prepareRepo makes sure the repository exists and knows the remote.
func (i *Installer) prepareRepo(ctx context.Context, res *ref.Resolution) error {
	if !i.repo.Initialized() {
		if err := i.repo.Init(ctx); err != nil {
			return err
		}
	}
	if err := i.repo.AddRemote(ctx, res.Remote); err != nil {
		return err
	}
	if err := i.repo.DisableVerification(ctx, res.Remote.Name); err != nil {
		return err
	}
	return i.repo.RaiseSummaryLimit()
}

// FromConfig locates the ostree binary and wires an Installer for cfg.
// A missing binary fails before any repository work.
func FromConfig(ctx context.Context, cfg *config.Config, fs system.FileSystem, exec system.CommandExecutor) (*Installer, error) {
	bin, err := ostree.FindBinary(ctx, fs, exec, cfg.Tools.Ostree)
	if err != nil {
		return nil, err
	}

	repo := ostree.NewRepo(fs, exec, bin, cfg.RepoDir(), cfg.CompatRepoConfig())
	resolver := ref.NewResolver(fs, cfg.Arch, cfg.Remote)
	return New(fs, resolver, repo, layout.New(fs, cfg.BaseDir)), nil
}
