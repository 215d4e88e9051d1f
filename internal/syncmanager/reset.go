package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// Reset implements reset(commit) (§4.7): destructive. Resets VS and fully
// regenerates every collection.
func (m *Manager) Reset(ctx context.Context, commit string) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		if err := m.vs.ResetHard(ctx, commit); err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		newHead, err := m.vs.HeadCommit(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		states, err := m.state.ListSyncStates(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		var totalAdded int
		for _, s := range states {
			coll, err := m.loadCollection(ctx, s.CollectionName)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			res, err := m.hydrator.FullRegenerate(ctx, s.CollectionName, coll, newHead)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			totalAdded += res.Added

			s.LastSyncCommit = newHead
			s.LastSyncAt = nowUTC()
			s.Status = core.StatusClean
			if err := m.state.PutSyncState(ctx, s); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{Status: core.OpCompleted, CommitHash: newHead, Added: totalAdded}, nil
	})
}
