package syncmanager

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docsync/internal/codec"
	"github.com/sevigo/docsync/internal/config"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/deltadetector"
	"github.com/sevigo/docsync/internal/hydrator"
	"github.com/sevigo/docsync/internal/stager"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

func newTestState(t *testing.T) *statestore.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := statestore.Open(config.StateStoreConfig{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func noopEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func newTestManager(t *testing.T, vs *fakeVS, xs *fakeXS) (*Manager, *statestore.Store) {
	t.Helper()
	state := newTestState(t)
	detector := deltadetector.New(vs, xs, state)
	logger := slog.Default()
	stg := stager.New(vs, xs, state, logger)
	hyd := hydrator.New(vs, xs, state, noopEmbed, 2, logger)
	return New("repo-1", vs, xs, state, detector, stg, hyd, NewLockRegistry(), logger), state
}

func collectionsRow() map[string]any {
	return map[string]any{
		"collection_name": "docs",
		"embedding_model": "m1",
		"chunk_size":      float64(100),
		"chunk_overlap":   float64(0),
	}
}

// chunkRecords encodes a document's content into XS records the way the
// Document Codec would, so fakeXS.ListIDsWithMetadata can return something
// the Delta Detector and Stager recognize.
func chunkRecords(docID, content string) []xsadapter.Record {
	doc := core.Document{
		DocID: docID, CollectionName: "docs", Content: content,
		ContentHash: codec.ContentHash(content),
	}
	chunks := codec.Encode(doc, 100, 0, "")
	records := make([]xsadapter.Record, len(chunks))
	for i, c := range chunks {
		records[i] = xsadapter.Record{ID: c.ID, Content: c.Content, Metadata: c.Metadata}
	}
	return records
}

func TestCommit_NoOpWhenNothingToStageOrCommit(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{}
	m, _ := newTestManager(t, vs, xs)

	res, err := m.Commit(context.Background(), "msg", true)
	require.NoError(t, err)
	assert.Equal(t, core.OpNoChanges, res.Status)
	assert.Equal(t, 0, vs.addAllCalls)
}

func TestCommit_StagesPendingXSChangesThenCommits(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{records: chunkRecords("doc-1", "hello world")}
	m, state := newTestManager(t, vs, xs)

	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))

	res, err := m.Commit(context.Background(), "msg", true)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.StagedFromXS)
	assert.Equal(t, 1, vs.addAllCalls)
	assert.NotEmpty(t, res.CommitHash)
}

func TestCommit_SkipsAutoStageWhenDisabled(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()},
		status: vsadapter.Status{Staged: []string{"documents"}}}
	xs := &fakeXS{records: chunkRecords("doc-1", "hello world")}
	m, _ := newTestManager(t, vs, xs)

	res, err := m.Commit(context.Background(), "msg", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, 0, vs.addAllCalls)
}

func TestPull_RefusesWhenLocalChangesExistAndNotForced(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1"}
	xs := &fakeXS{records: chunkRecords("doc-1", "hello world")}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Pull(context.Background(), "origin", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpLocalChangesExist, res.Status)
	assert.NotEmpty(t, res.Offending)
}

func TestPull_ReportsConflicts(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", pullResult: vsadapter.PullResult{HadConflicts: true}}
	xs := &fakeXS{}
	m, _ := newTestManager(t, vs, xs)

	res, err := m.Pull(context.Background(), "origin", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpConflicts, res.Status)
	assert.True(t, res.HadConflicts)
}

func TestPull_HydratesIncrementallyOnSuccess(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		pullResult: vsadapter.PullResult{Success: true, FastForward: true},
		diffRows: []vsadapter.DiffRow{
			{Kind: vsadapter.DiffAdded, ID: "doc-2", ToContent: "fresh content"},
		},
	}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Pull(context.Background(), "origin", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.True(t, res.FastForward)
	assert.Equal(t, 1, res.Added)
	assert.Contains(t, xs.addedIDs, "doc-2_chunk_0")
}

func TestCheckout_UsesIncrementalWhenCommitsAreRelated(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		log:         []vsadapter.Commit{{Hash: "old-commit"}, {Hash: "mid"}},
		branchHeads: map[string]string{"feature": "h2"},
	}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", LastSyncCommit: "old-commit", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Checkout(context.Background(), "feature", false, false)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, []string{"feature"}, vs.checkoutCalls)
	assert.Equal(t, 0, len(xs.deletedCollections), "incremental path must not recreate the collection")
}

func TestCheckout_FullRegenerateWhenCommitsAreUnrelated(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		log:         []vsadapter.Commit{{Hash: "unrelated-commit"}},
		branchHeads: map[string]string{"feature": "h2"},
		documents: []map[string]any{
			{"doc_id": "doc-1", "content": "body", "content_hash": codec.ContentHash("body")},
		},
	}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", LastSyncCommit: "orphaned-commit", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Checkout(context.Background(), "feature", false, false)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, []string{"docs"}, xs.deletedCollections)
	assert.Equal(t, []string{"docs"}, xs.createdCollections)
}

func TestMerge_ReportsConflictsWithOffendingRows(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		mergeResult: vsadapter.MergeResult{HadConflicts: true},
		conflicts:   []vsadapter.ConflictRow{{Table: "documents", RowID: "doc-1"}},
	}
	xs := &fakeXS{}
	m, _ := newTestManager(t, vs, xs)

	res, err := m.Merge(context.Background(), "feature", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpConflicts, res.Status)
	require.Len(t, res.Offending, 1)
	assert.Equal(t, "doc-1", res.Offending[0].DocID)
}

func TestMerge_HydratesIncrementallyOnCleanMerge(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		mergeResult: vsadapter.MergeResult{Success: true, MergeCommit: "merged-1"},
		diffRows: []vsadapter.DiffRow{
			{Kind: vsadapter.DiffModified, ID: "doc-1", ToContent: "updated"},
		},
	}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Merge(context.Background(), "feature", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, "merged-1", res.CommitHash)
	assert.Equal(t, 1, res.Modified)
}

func TestReset_RegeneratesEveryKnownCollection(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		documents: []map[string]any{
			{"doc_id": "doc-1", "content": "body", "content_hash": codec.ContentHash("body")},
		},
	}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))
	vs.collections = []map[string]any{collectionsRow()}

	res, err := m.Reset(context.Background(), "commit-x")
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, []string{"commit-x"}, vs.resetCalls)
	assert.Equal(t, []string{"docs"}, xs.deletedCollections)
}

func TestStatus_ReportsBranchHeadAndPendingCounts(t *testing.T) {
	vs := &fakeVS{
		branch: "main", head: "h1",
		status:      vsadapter.Status{Staged: []string{"documents"}},
		collections: []map[string]any{collectionsRow()},
	}
	xs := &fakeXS{records: chunkRecords("doc-1", "hello world")}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))

	report, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", report.Branch)
	assert.Equal(t, "h1", report.Head)
	assert.Equal(t, []string{"documents"}, report.UncommittedVS)
	assert.Equal(t, 1, report.PendingXSToVS["docs"])
}

func TestGetPendingChanges_SamplesUpToTenDeltas(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{records: chunkRecords("doc-1", "hello world")}
	m, _ := newTestManager(t, vs, xs)

	pending, err := m.GetPendingChanges(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, pending.New)
	assert.Len(t, pending.Sample, 1)
}

func TestBootstrap_ClonesWhenVSNotYetPresent(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{}
	m, _ := newTestManager(t, vs, xs)

	manifest := core.Manifest{CurrentBranch: "main", RemoteURL: "https://example.invalid/repo"}
	opts := BootstrapOptions{ConfiguredVSPath: filepath.Join(t.TempDir(), "missing-vs"), ProjectRoot: t.TempDir()}

	res, err := m.Bootstrap(context.Background(), manifest, opts)
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, []string{manifest.RemoteURL}, vs.cloneCalls)
	assert.Equal(t, []string{"docs"}, xs.createdCollections)
}

func TestWithLock_UnwindsOnContextCancellation(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1"}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	res, err := m.withLock(ctx, func(ctx context.Context) (*core.Result, error) {
		cancel()
		return &core.Result{Status: core.OpCompleted}, nil
	})
	require.Error(t, err)
	assert.Equal(t, core.OpFailed, res.Status)
	assert.ErrorIs(t, err, core.ErrCancelled)

	states, err := state.ListSyncStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, core.StatusError, states[0].Status)
}

// TestInitializeFromXS_SeedsVSFromBrandNewXSCollection covers §8 Scenario
// 1 ("Solo commit"): an empty VS (no collections row yet) seeded from an
// XS collection that already has a codec identity and one document.
func TestInitializeFromXS_SeedsVSFromBrandNewXSCollection(t *testing.T) {
	vs := &fakeVS{branch: "main"}
	xs := &fakeXS{
		records:          chunkRecords("d1", "ABC"),
		collectionConfig: xsadapter.CollectionConfig{EmbeddingModel: "m1", ChunkSize: 512, ChunkOverlap: 50},
	}
	m, state := newTestManager(t, vs, xs)

	res, err := m.InitializeFromXS(context.Background(), "teachings", "init")
	require.NoError(t, err)
	assert.Equal(t, core.OpCompleted, res.Status)
	assert.Equal(t, 1, res.Added)
	assert.NotEmpty(t, res.CommitHash)

	foundInsert := false
	for _, stmt := range vs.execStatements {
		if containsAll(stmt, "INSERT INTO collections") {
			foundInsert = true
		}
	}
	assert.True(t, foundInsert, "expected InitializeFromXS to write the VS collections row")

	states, err := state.ListSyncStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "m1", states[0].EmbeddingModel)
	assert.Equal(t, core.StatusClean, states[0].Status)
}

func TestPull_NoChangesWhenHeadUnmoved(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{}
	m, _ := newTestManager(t, vs, xs)

	res, err := m.Pull(context.Background(), "origin", false)
	require.NoError(t, err)
	assert.Equal(t, core.OpNoChanges, res.Status)
	assert.Empty(t, xs.addedIDs)
}

func TestCheckout_NoChangesWhenTargetIsCurrentHead(t *testing.T) {
	vs := &fakeVS{branch: "main", head: "h1", collections: []map[string]any{collectionsRow()}}
	xs := &fakeXS{}
	m, state := newTestManager(t, vs, xs)
	require.NoError(t, state.PutSyncState(context.Background(), core.SyncState{
		CollectionName: "docs", EmbeddingModel: "m1", LastSyncCommit: "h1",
	}))

	res, err := m.Checkout(context.Background(), "main", false, false)
	require.NoError(t, err)
	assert.Equal(t, core.OpNoChanges, res.Status)
	assert.Empty(t, xs.addedIDs)
}
