package badger

import (
	"context"
	"testing"

	"github.com/parcival-labs/ragstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SetAndGetFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SetFields(ctx, "job-1", map[string]string{
		"status": "pending",
		"total":  "5",
	})
	require.NoError(t, err)

	fields, err := store.GetFields(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "pending", "total": "5"}, fields)
}

func TestStore_SetFields_PartialUpdateKeepsOthers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFields(ctx, "job-1", map[string]string{
		"status":    "processing",
		"total":     "10",
		"processed": "0",
	}))

	// Checkpoint only the fields that moved.
	require.NoError(t, store.SetFields(ctx, "job-1", map[string]string{
		"processed": "4",
		"progress":  "40",
	}))

	fields, err := store.GetFields(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "processing", fields["status"])
	assert.Equal(t, "10", fields["total"])
	assert.Equal(t, "4", fields["processed"])
	assert.Equal(t, "40", fields["progress"])
}

func TestStore_GetFields_Unknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetFields(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_SetFields_EmptyID(t *testing.T) {
	store := newTestStore(t)

	err := store.SetFields(context.Background(), "", map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestStore_JobIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids, err := store.JobIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SetFields(ctx, id, map[string]string{"status": "pending"}))
	}

	ids, err = store.JobIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestStore_JobIDs_NotConfusedByFieldKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A job id ending in "f" exercises the marker/field prefix split.
	require.NoError(t, store.SetFields(ctx, "f", map[string]string{"status": "pending"}))

	ids, err := store.JobIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, ids)
}
