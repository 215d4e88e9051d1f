package statestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalChangeFlag_DefaultsFalse(t *testing.T) {
	store := newTestStore(t)
	flag, err := store.GetLocalChangeFlag(context.Background(), "docs", "readme")
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestLocalChangeFlag_SetAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLocalChangeFlag(ctx, "docs", "readme", true))
	flag, err := store.GetLocalChangeFlag(ctx, "docs", "readme")
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, store.ClearLocalChangeFlag(ctx, "docs", "readme"))
	flag, err = store.GetLocalChangeFlag(ctx, "docs", "readme")
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestListLocalChangeFlags_OnlyReturnsSetFlags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLocalChangeFlag(ctx, "docs", "a", true))
	require.NoError(t, store.SetLocalChangeFlag(ctx, "docs", "b", false))
	require.NoError(t, store.SetLocalChangeFlag(ctx, "docs", "c", true))

	flagged, err := store.ListLocalChangeFlags(ctx, "docs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, flagged)
}
