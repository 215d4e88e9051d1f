package xsadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(nil, dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CreateListDeleteCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.CreateCollection(ctx, "teachings", CollectionConfig{
		EmbeddingModel: "nomic-embed-text",
		ChunkSize:      512,
		ChunkOverlap:   50,
		Dimensions:     4,
	})
	require.NoError(t, err)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"teachings"}, names)

	require.NoError(t, s.DeleteCollection(ctx, "teachings"))
	names, err = s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_AddGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "c", CollectionConfig{Dimensions: 3}))

	ids := []string{"d1_chunk_0", "d1_chunk_1"}
	docs := []string{"hello", "world"}
	metas := []map[string]string{{"source_id": "d1"}, {"source_id": "d1"}}
	vecs := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}

	require.NoError(t, s.Add(ctx, "c", ids, docs, metas, vecs))

	count, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := s.Get(ctx, "c", []string{"d1_chunk_0"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].Content)
	assert.Equal(t, "d1", records[0].Metadata["source_id"])

	require.NoError(t, s.Delete(ctx, "c", []string{"d1_chunk_0"}))
	count, err = s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "c", CollectionConfig{Dimensions: 2}))

	require.NoError(t, s.Add(ctx, "c", []string{"x"}, []string{"old"}, []map[string]string{{}}, [][]float32{{1, 2}}))
	require.NoError(t, s.Update(ctx, "c", []string{"x"}, []string{"new"}, []map[string]string{{"tag": "v2"}}, [][]float32{{3, 4}}))

	records, err := s.Get(ctx, "c", []string{"x"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].Content)
	assert.Equal(t, "v2", records[0].Metadata["tag"])
}

func TestStore_ListIDsWithMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "c", CollectionConfig{Dimensions: 2}))
	require.NoError(t, s.Add(ctx, "c",
		[]string{"a", "b"},
		[]string{"A", "B"},
		[]map[string]string{{"k": "1"}, {"k": "2"}},
		[][]float32{{1, 0}, {0, 1}}))

	records, err := s.ListIDsWithMetadata(ctx, "c")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestStore_GraphPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(nil, dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s1.CreateCollection(ctx, "c", CollectionConfig{Dimensions: 2}))
	require.NoError(t, s1.Add(ctx, "c", []string{"a"}, []string{"A"}, []map[string]string{{}}, [][]float32{{1, 2}}))
	require.NoError(t, s1.Close())

	s2, err := Open(nil, dir)
	require.NoError(t, err)
	defer s2.Close()

	g, err := s2.graphFor("c")
	require.NoError(t, err)
	_, exists := g.idMap["a"]
	assert.True(t, exists, "id mapping for 'a' should survive reopen")
}
