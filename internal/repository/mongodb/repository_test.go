package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

// Requires a reachable server; set TEST_MONGODB_URI to run.
func TestMongoDBRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("coopkeeper_test_%d", time.Now().UnixNano())
	repo, err := NewMongoDBRepository(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.client.Database(dbName).Drop(context.Background())
		_ = repo.Close(context.Background())
	})

	_, err = repo.Load(ctx, "eggs-2024-01-07")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "eggs-2024-01-07", []byte("5")))
	require.NoError(t, repo.Save(ctx, "eggs-2024-01-07", []byte("6")))

	got, err := repo.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("6"), got)

	assert.ErrorIs(t, repo.Save(ctx, "Bad Key", []byte("1")), kv.ErrInvalidKey)
}
