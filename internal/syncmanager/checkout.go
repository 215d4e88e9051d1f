package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// Checkout implements checkout(branch, create, force) (§4.7).
func (m *Manager) Checkout(ctx context.Context, branch string, create, force bool) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		if blocked, result := m.guardLocalChanges(ctx, force); blocked {
			return result, nil
		}

		oldHead, _ := m.vs.HeadCommit(ctx)

		if err := m.vs.Checkout(ctx, branch, create); err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		newHead, err := m.vs.HeadCommit(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}
		if newHead == oldHead {
			return &core.Result{Status: core.OpNoChanges, CommitHash: newHead}, nil
		}

		states, err := m.state.ListSyncStates(ctx)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		var totalAdded, totalModified, totalDeleted int
		for _, s := range states {
			if s.LastSyncCommit == newHead {
				continue
			}
			coll, err := m.loadCollection(ctx, s.CollectionName)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}

			related, err := m.commitsRelated(ctx, s.LastSyncCommit, newHead)
			if err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}

			if related {
				res, err := m.hydrator.Incremental(ctx, s.CollectionName, s.LastSyncCommit, newHead, coll)
				if err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
				totalAdded += res.Added
				totalModified += res.Modified
				totalDeleted += res.Deleted
			} else {
				res, err := m.hydrator.FullRegenerate(ctx, s.CollectionName, coll, newHead)
				if err != nil {
					return &core.Result{Status: core.OpFailed, Err: err}, err
				}
				totalAdded += res.Added
			}

			s.LastSyncCommit = newHead
			s.LastSyncAt = nowUTC()
			s.Status = core.StatusClean
			if err := m.state.PutSyncState(ctx, s); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		return &core.Result{
			Status: core.OpCompleted, CommitHash: newHead,
			Added: totalAdded, Modified: totalModified, Deleted: totalDeleted,
		}, nil
	})
}

// commitsRelated reports whether `from` and `to` are in an ancestor/descendant
// relationship: `from` appears in the commit history reachable from `to`, or
// `to` in the history reachable from `from`
// (§4.7: "if the two commits are unrelated... do a full regenerate").
func (m *Manager) commitsRelated(ctx context.Context, from, to string) (bool, error) {
	if from == "" || from == to {
		return true, nil
	}
	history, err := m.vs.Log(ctx, to)
	if err != nil {
		return false, err
	}
	for _, c := range history {
		if c.Hash == from {
			return true, nil
		}
	}
	// A commit whose history cannot be listed is treated as unrelated.
	history, err = m.vs.Log(ctx, from)
	if err != nil {
		return false, nil
	}
	for _, c := range history {
		if c.Hash == to {
			return true, nil
		}
	}
	return false, nil
}
