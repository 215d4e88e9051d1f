package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docsync/internal/core"
)

func TestSyncState_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := core.SyncState{
		CollectionName: "docs",
		LastSyncCommit: "deadbeef",
		LastSyncAt:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		DocumentCount:  3,
		ChunkCount:     12,
		EmbeddingModel: "nomic-embed-text",
		Status:         core.StatusClean,
	}
	require.NoError(t, store.PutSyncState(ctx, state))

	got, err := store.GetSyncState(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, state.LastSyncCommit, got.LastSyncCommit)
	assert.Equal(t, state.DocumentCount, got.DocumentCount)
	assert.Equal(t, state.ChunkCount, got.ChunkCount)
	assert.Equal(t, state.Status, got.Status)
}

func TestSyncState_GetMissingReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSyncState(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncState_MarkError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSyncState(ctx, core.SyncState{
		CollectionName: "docs", LastSyncAt: time.Now().UTC(), Status: core.StatusInProgress,
	}))
	require.NoError(t, store.MarkError(ctx, "docs", "hydrator failed: model mismatch"))

	got, err := store.GetSyncState(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, core.StatusError, got.Status)
	assert.Equal(t, "hydrator failed: model mismatch", got.ErrorMessage)
}

func TestListSyncStates_ReturnsAllCollections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"notes", "docs"} {
		require.NoError(t, store.PutSyncState(ctx, core.SyncState{
			CollectionName: name, LastSyncAt: time.Now().UTC(), Status: core.StatusClean,
		}))
	}

	states, err := store.ListSyncStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "docs", states[0].CollectionName)
	assert.Equal(t, "notes", states[1].CollectionName)
}
