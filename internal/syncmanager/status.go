package syncmanager

import (
	"context"

	"github.com/sevigo/docsync/internal/core"
)

// StatusReport is the read-only view returned by Status() (§4.7).
type StatusReport struct {
	Branch                string
	Head                  string
	UncommittedVS         []string
	PendingXSToVS         map[string]int
	SyncStatePerCollection []core.SyncState
}

// Status implements status() (§4.7): returns process state without
// mutating anything.
func (m *Manager) Status(ctx context.Context) (*StatusReport, error) {
	lock := m.locks.lockFor(m.repoID)
	lock.Lock()
	defer lock.Unlock()

	branch, err := m.vs.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	head, err := m.vs.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	vsStatus, err := m.vs.Status(ctx)
	if err != nil {
		return nil, err
	}

	states, err := m.state.ListSyncStates(ctx)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]int, len(states))
	for _, s := range states {
		coll, err := m.loadCollection(ctx, s.CollectionName)
		if err != nil {
			continue
		}
		delta, err := m.detector.XSToVSPending(ctx, s.CollectionName, coll.ChunkOverlap)
		if err != nil {
			continue
		}
		pending[s.CollectionName] = len(delta.New) + len(delta.Modified) + len(delta.Deleted)
	}

	uncommitted := append(append([]string{}, vsStatus.Staged...), vsStatus.Modified...)

	return &StatusReport{
		Branch: branch, Head: head, UncommittedVS: uncommitted,
		PendingXSToVS: pending, SyncStatePerCollection: states,
	}, nil
}

// PendingChanges is the result of get_pending_changes(collection) (§6).
type PendingChanges struct {
	New      int
	Modified int
	Deleted  int
	Sample   []core.Delta
}

// GetPendingChanges implements get_pending_changes(collection) (§6): a
// read-only, non-locking probe of the XS->VS delta set.
func (m *Manager) GetPendingChanges(ctx context.Context, collectionName string) (*PendingChanges, error) {
	coll, err := m.loadCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	delta, err := m.detector.XSToVSPending(ctx, collectionName, coll.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var sample []core.Delta
	const sampleSize = 10
	for _, group := range [][]core.Delta{delta.New, delta.Modified, delta.Deleted} {
		for _, d := range group {
			if len(sample) >= sampleSize {
				break
			}
			sample = append(sample, d)
		}
	}

	return &PendingChanges{
		New: len(delta.New), Modified: len(delta.Modified), Deleted: len(delta.Deleted), Sample: sample,
	}, nil
}
