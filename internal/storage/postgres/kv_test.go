package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Needs a reachable database, e.g.
// STOREFRONT_TEST_DSN="host=localhost user=postgres password=postgres dbname=ecostore_test sslmode=disable"
func openTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("STOREFRONT_TEST_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	store := NewKVStore(db, zap.NewNop())
	require.NoError(t, store.EnsureSchema(ctx))
	t.Cleanup(func() { _ = store.Delete(ctx, "test:wishlist") })

	require.NoError(t, store.Set(ctx, "test:wishlist", []int64{3, 5}))
	require.NoError(t, store.Set(ctx, "test:wishlist", []int64{3, 5, 8}))

	var ids []int64
	found, err := store.Get(ctx, "test:wishlist", &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int64{3, 5, 8}, ids)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "test:wishlist")

	require.NoError(t, store.Delete(ctx, "test:wishlist"))
	found, err = store.Get(ctx, "test:wishlist", &ids)
	require.NoError(t, err)
	assert.False(t, found)
}
