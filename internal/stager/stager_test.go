package stager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docsync/internal/codec"
	"github.com/sevigo/docsync/internal/config"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

type fakeVS struct {
	vsadapter.VS
	execs       []string
	addAllCalls int
	resetCalls  []string
	execErr     error
	addAllErr   error
}

func (f *fakeVS) Exec(ctx context.Context, sql string) (int64, error) {
	if f.execErr != nil {
		return 0, f.execErr
	}
	f.execs = append(f.execs, sql)
	return 1, nil
}

func (f *fakeVS) AddAll(ctx context.Context) error {
	f.addAllCalls++
	return f.addAllErr
}

func (f *fakeVS) ResetHard(ctx context.Context, ref string) error {
	f.resetCalls = append(f.resetCalls, ref)
	return nil
}

type fakeXS struct {
	xsadapter.XS
	records []xsadapter.Record
}

func (f *fakeXS) ListIDsWithMetadata(ctx context.Context, name string) ([]xsadapter.Record, error) {
	return f.records, nil
}

func newTestState(t *testing.T) *statestore.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "docsync.db")
	store, err := statestore.Open(config.StateStoreConfig{Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func chunkRecords(docID, content string) []xsadapter.Record {
	doc := core.Document{DocID: docID, CollectionName: "docs", Content: content, ContentHash: codec.ContentHash(content)}
	chunks := codec.Encode(doc, 100, 0, "")
	records := make([]xsadapter.Record, len(chunks))
	for i, c := range chunks {
		records[i] = xsadapter.Record{ID: c.ID, Content: c.Content, Metadata: c.Metadata}
	}
	return records
}

func TestApply_InsertsModifiesAndDeletes(t *testing.T) {
	ctx := context.Background()
	state := newTestState(t)

	vs := &fakeVS{}
	xs := &fakeXS{records: append(chunkRecords("new-doc", "hello"), chunkRecords("mod-doc", "updated")...)}
	require.NoError(t, state.PutSyncLogEntry(ctx, core.SyncLogEntry{
		CollectionName: "docs", DocID: "del-doc", ContentHash: "h", SyncedAt: time.Now().UTC(),
	}))

	s := New(vs, xs, state, nil)
	delta := core.DeltaSet{
		New:      []core.Delta{{CollectionName: "docs", DocID: "new-doc", Kind: core.DeltaNew}},
		Modified: []core.Delta{{CollectionName: "docs", DocID: "mod-doc", Kind: core.DeltaModified}},
		Deleted:  []core.Delta{{CollectionName: "docs", DocID: "del-doc", Kind: core.DeltaDeleted}},
	}

	res, err := s.Apply(ctx, "docs", delta, 0, "clean-head")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Modified)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 3, res.StagedRows)
	assert.Equal(t, 1, vs.addAllCalls)
	assert.Len(t, vs.execs, 3)

	_, err = state.GetSyncLogEntry(ctx, "docs", "del-doc")
	assert.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestApply_NoOpWhenDeltaEmpty(t *testing.T) {
	ctx := context.Background()
	state := newTestState(t)
	vs := &fakeVS{}
	s := New(vs, &fakeXS{}, state, nil)

	res, err := s.Apply(ctx, "docs", core.DeltaSet{}, 0, "clean-head")
	require.NoError(t, err)
	assert.Equal(t, 0, res.StagedRows)
	assert.Equal(t, 0, vs.addAllCalls)
}

func TestApply_ResetsOnFailureAndAbandonsBatch(t *testing.T) {
	ctx := context.Background()
	state := newTestState(t)

	vs := &fakeVS{execErr: assertErr}
	xs := &fakeXS{records: chunkRecords("new-doc", "hello")}
	s := New(vs, xs, state, nil)

	delta := core.DeltaSet{New: []core.Delta{{CollectionName: "docs", DocID: "new-doc", Kind: core.DeltaNew}}}
	_, err := s.Apply(ctx, "docs", delta, 0, "clean-head")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStagerFailure)
	require.Len(t, vs.resetCalls, 1)
	assert.Equal(t, "clean-head", vs.resetCalls[0])
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
