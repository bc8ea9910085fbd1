package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "coop.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Load(ctx, "tasks-2024-01-07")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, store.Save(ctx, "tasks-2024-01-07", []byte(`[{"id":"feed"}]`)))
	require.NoError(t, store.Save(ctx, "tasks-2024-01-07", []byte(`[]`)))

	got, err := store.Load(ctx, "tasks-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestStoreEmptyValue(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "eggs-2024-01-07", nil))

	got, err := store.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coop.db")

	store, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "coop-expenses", []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "coop-expenses")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestStoreRejectsInvalidKey(t *testing.T) {
	store := openTestStore(t)
	assert.ErrorIs(t, store.Save(context.Background(), "Not Valid", []byte("1")), kv.ErrInvalidKey)
}
