package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// Pull implements pull(remote, force) (§4.7).
func (m *Manager) Pull(ctx context.Context, remote string, force bool) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		if blocked, result := m.guardLocalChanges(ctx, force); blocked {
			return result, nil
		}

		branch, err := m.vs.CurrentBranch(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		oldHead, _ := m.vs.HeadCommit(ctx)

		pullRes, err := m.vs.Pull(ctx, remote, branch)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		if pullRes.HadConflicts {
			return &core.Result{Status: core.OpConflicts, HadConflicts: true, Err: core.ErrConflicts}, nil
		}

		newHead, err := m.vs.HeadCommit(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		if newHead == oldHead {
			return &core.Result{Status: core.OpNoChanges, CommitHash: newHead}, nil
		}

		var totalAdded, totalModified, totalDeleted int
		states, err := m.state.ListSyncStates(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		for _, s := range states {
			coll, err := m.loadCollection(ctx, s.CollectionName)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			res, err := m.hydrator.Incremental(ctx, s.CollectionName, oldHead, newHead, coll)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			totalAdded += res.Added
			totalModified += res.Modified
			totalDeleted += res.Deleted

			s.LastSyncCommit = newHead
			s.LastSyncAt = nowUTC()
			s.Status = core.StatusClean
			if err := m.state.PutSyncState(ctx, s); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{
			Status: core.OpCompleted, CommitHash: newHead, FastForward: pullRes.FastForward,
			Added: totalAdded, Modified: totalModified, Deleted: totalDeleted,
		}, nil
	})
}

// guardLocalChanges refuses an operation with LocalChangesExist if any
// collection has non-empty XS->VS pending changes, unless force is set
// (§4.7 pull/checkout guard).
func (m *Manager) guardLocalChanges(ctx context.Context, force bool) (bool, *core.Result) {
	if force {
		return false, nil
	}
	states, err := m.state.ListSyncStates(ctx)
	if err != nil {
		return true, &core.Result{Status: core.OpFailed, Err: err}
	}
	var offending []core.DocRef
	for _, s := range states {
		coll, err := m.loadCollection(ctx, s.CollectionName)
		if err != nil {
			continue
		}
		delta, err := m.detector.XSToVSPending(ctx, s.CollectionName, coll.ChunkOverlap)
		if err != nil {
			continue
		}
		for _, d := range append(append(delta.New, delta.Modified...), delta.Deleted...) {
			offending = append(offending, core.DocRef{CollectionName: s.CollectionName, DocID: d.DocID})
		}
	}
	if len(offending) > 0 {
		return true, &core.Result{
			Status: core.OpLocalChangesExist, Err: core.ErrLocalChangesExist,
			BlockedReason: "xs has local changes pending sync to vs", Offending: offending,
		}
	}
	return false, nil
}
