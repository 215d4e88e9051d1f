package syncmanager

import (
	"context"
	"fmt"

	"github.com/sevigo/docsync/internal/core"
)

// InitializeFromXS implements initialize_from_xs(collection, message) (§4.7):
// used when VS is empty but XS holds user data.
func (m *Manager) InitializeFromXS(ctx context.Context, collectionName, message string) (*core.Result, error) {
	return m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		rows, err := m.vs.QueryJSON(ctx, "SELECT COUNT(*) AS n FROM documents")
		if err == nil && len(rows) > 0 {
			if n, ok := rows[0]["n"].(float64); ok && n > 0 {
				return &core.Result{Status: core.OpFailed, Err: fmt.Errorf("%w: vs already has commits touching documents", core.ErrInconsistent)}, core.ErrInconsistent
			}
		}

		if err := m.ensureSchema(ctx); err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		// The VS collections row does not exist yet on a brand-new
		// collection (§8 Scenario 1: empty VS, XS already holds the
		// collection's codec identity from CreateCollection). Source it
		// from the XS and write the VS row as part of this operation,
		// rather than requiring it to pre-exist.
		coll, err := m.loadCollection(ctx, collectionName)
		if err != nil {
			xsCfg, xsErr := m.xs.CollectionConfig(ctx, collectionName)
			if xsErr != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
			coll = core.Collection{
				Name: collectionName, EmbeddingModel: xsCfg.EmbeddingModel,
				ChunkSize: xsCfg.ChunkSize, ChunkOverlap: xsCfg.ChunkOverlap,
			}
			if err := m.insertCollectionRow(ctx, coll); err != nil {
				return &core.Result{Status: core.OpFailed, Err: err}, err
			}
		}

		head, _ := m.vs.HeadCommit(ctx)
		delta, err := m.detector.XSToVSPending(ctx, collectionName, coll.ChunkOverlap)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		stageRes, err := m.stager.Apply(ctx, collectionName, delta, coll.ChunkOverlap, head)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		newHead, err := m.vs.Commit(ctx, message)
		if err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		if err := m.state.PutSyncState(ctx, core.SyncState{
			CollectionName: collectionName, LastSyncCommit: newHead, LastSyncAt: nowUTC(),
			EmbeddingModel: coll.EmbeddingModel, Status: core.StatusClean,
		}); err != nil {
			return &core.Result{Status: core.OpFailed, Err: err}, err
		}

		return &core.Result{
			Status: core.OpCompleted, CommitHash: newHead,
			Added: stageRes.Added, Modified: stageRes.Modified, Deleted: stageRes.Deleted,
			StagedFromXS: stageRes.StagedRows,
		}, nil
	})
}
