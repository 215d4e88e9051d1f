package syncmanager

import (
	"context"
	"fmt"

	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/vsadapter"
)

// effectivePathSetter is implemented by vsadapter.Client; type-asserted so
// Bootstrap can apply path alignment (§4.8) without widening the VS
// interface with a method only the CLI-based adapter needs.
type effectivePathSetter interface {
	SetEffectivePath(path string)
}

// BootstrapOptions carries the inputs Bootstrap needs beyond the Manifest
// itself: where the VS is configured to live, and the project root to scan
// one level deeper from for path alignment (§4.8).
type BootstrapOptions struct {
	ConfiguredVSPath string
	ProjectRoot      string
}

// Bootstrap implements bootstrap(options) (§4.7): given manifest, detects
// which of {VS infrastructure, XS infrastructure, path alignment} is
// missing and performs the minimum required. Every sub-step is idempotent
// and logged as an executed action.
func (m *Manager) Bootstrap(ctx context.Context, manifest core.Manifest, opts BootstrapOptions) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		effectivePath, err := vsadapter.ResolveEffectivePath(opts.ConfiguredVSPath, opts.ProjectRoot)
		if err != nil {
			m.logger.InfoContext(ctx, "bootstrap: vs not found yet, cloning", "remote", manifest.RemoteURL)
			if err := m.vs.Clone(ctx, manifest.RemoteURL); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			effectivePath = opts.ConfiguredVSPath
		} else if effectivePath != opts.ConfiguredVSPath {
			m.logger.InfoContext(ctx, "bootstrap: path alignment resolved nested vs directory", "effective_path", effectivePath)
			if setter, ok := m.vs.(effectivePathSetter); ok {
				setter.SetEffectivePath(effectivePath)
			}
		}

		if _, err := m.xs.ListCollections(ctx); err != nil {
			return &core.Result{Status: core.OpFailed, Err: fmt.Errorf("bootstrap: xs infrastructure unreachable: %w", err)}, err
		}
		m.logger.InfoContext(ctx, "bootstrap: xs infrastructure reachable")

		if manifest.CurrentBranch != "" {
			if branch, err := m.vs.CurrentBranch(ctx); err != nil || branch != manifest.CurrentBranch {
				m.logger.InfoContext(ctx, "bootstrap: advancing to manifest branch", "branch", manifest.CurrentBranch)
				if err := m.vs.Checkout(ctx, manifest.CurrentBranch, false); err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
			}
		}
		if manifest.CurrentCommit != "" {
			m.logger.InfoContext(ctx, "bootstrap: advancing to manifest commit", "commit", manifest.CurrentCommit)
			if err := m.vs.ResetHard(ctx, manifest.CurrentCommit); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		head, err := m.vs.HeadCommit(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		names, err := m.listCollectionNames(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		var totalAdded int
		for _, name := range names {
			coll, err := m.loadCollection(ctx, name)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			m.logger.InfoContext(ctx, "bootstrap: full regenerate", "collection", name)
			res, err := m.hydrator.FullRegenerate(ctx, name, coll, head)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			totalAdded += res.Added

			if err := m.state.PutSyncState(ctx, core.SyncState{
				CollectionName: name, LastSyncCommit: head, LastSyncAt: nowUTC(),
				EmbeddingModel: coll.EmbeddingModel, Status: core.StatusClean,
			}); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{Status: core.OpCompleted, CommitHash: head, Added: totalAdded}, nil
	})
}

func (m *Manager) listCollectionNames(ctx context.Context) ([]string, error) {
	rows, err := m.vs.QueryJSON(ctx, "SELECT collection_name FROM collections")
	if err != nil {
		return nil, fmt.Errorf("syncmanager: list collections: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["collection_name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
