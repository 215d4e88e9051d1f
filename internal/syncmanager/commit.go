package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// Commit implements commit(message, auto_stage) (§4.7).
func (m *Manager) Commit(ctx context.Context, message string, autoStage bool) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		head, _ := m.vs.HeadCommit(ctx)

		var totalAdded, totalModified, totalDeleted, totalStaged int
		if autoStage {
			states, err := m.state.ListSyncStates(ctx)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			for _, s := range states {
				coll, err := m.loadCollection(ctx, s.CollectionName)
				if err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
				delta, err := m.detector.XSToVSPending(ctx, s.CollectionName, coll.ChunkOverlap)
				if err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
				if delta.Empty() {
					continue
				}
				res, err := m.stager.Apply(ctx, s.CollectionName, delta, coll.ChunkOverlap, head)
				if err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
				totalAdded += res.Added
				totalModified += res.Modified
				totalDeleted += res.Deleted
				totalStaged += res.StagedRows
			}
		}

		if totalStaged == 0 {
			status, err := m.vs.Status(ctx)
			if err == nil && len(status.Staged) == 0 && len(status.Modified) == 0 {
				return &core.Result{Status: core.OpNoChanges}, nil
			}
		}

		newHead, err := m.vs.Commit(ctx, message)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		states, err := m.state.ListSyncStates(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		for _, s := range states {
			s.LastSyncCommit = newHead
			s.LastSyncAt = nowUTC()
			s.Status = core.StatusClean
			if err := m.state.PutSyncState(ctx, s); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{
			Status: core.OpCompleted, CommitHash: newHead,
			Added: totalAdded, Modified: totalModified, Deleted: totalDeleted, StagedFromXS: totalStaged,
		}, nil
	})
}
