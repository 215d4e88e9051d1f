package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// Merge implements merge(source_branch, force) (§4.7).
func (m *Manager) Merge(ctx context.Context, sourceBranch string, force bool) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		if blocked, result := m.guardLocalChanges(ctx, force); blocked {
			return result, nil
		}

		preMergeHead, _ := m.vs.HeadCommit(ctx)

		mergeRes, err := m.vs.Merge(ctx, sourceBranch)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		if mergeRes.HadConflicts {
			conflicts, _ := m.vs.Conflicts(ctx, "documents")
			offending := make([]core.DocRef, len(conflicts))
			for i, c := range conflicts {
				offending[i] = core.DocRef{DocID: c.RowID}
			}
			return &core.Result{
				Status: core.OpConflicts, HadConflicts: true, Err: core.ErrConflicts,
				BlockedReason: "vs merge produced row-level conflicts", Offending: offending,
			}, nil
		}

		states, err := m.state.ListSyncStates(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		var totalAdded, totalModified, totalDeleted int
		for _, s := range states {
			coll, err := m.loadCollection(ctx, s.CollectionName)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			res, err := m.hydrator.Incremental(ctx, s.CollectionName, preMergeHead, mergeRes.MergeCommit, coll)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			totalAdded += res.Added
			totalModified += res.Modified
			totalDeleted += res.Deleted

			s.LastSyncCommit = mergeRes.MergeCommit
			s.LastSyncAt = nowUTC()
			s.Status = core.StatusClean
			if err := m.state.PutSyncState(ctx, s); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{
			Status: core.OpCompleted, CommitHash: mergeRes.MergeCommit,
			Added: totalAdded, Modified: totalModified, Deleted: totalDeleted,
		}, nil
	})
}
