package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/storage"
)

func TestWishlistSetSemantics(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()
	w := NewWishlist(st, zap.NewNop())

	assert.True(t, w.Add(ctx, 2))
	assert.False(t, w.Add(ctx, 2))
	assert.True(t, w.Add(ctx, 1))
	assert.Equal(t, []int64{2, 1}, w.IDs())
	assert.True(t, w.Contains(1))

	assert.True(t, w.Remove(ctx, 2))
	assert.False(t, w.Remove(ctx, 2))
	assert.Equal(t, []int64{1}, w.IDs())

	var ids []int64
	_, err := st.Get(ctx, storage.KeyWishlist, &ids)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestWishlistRestoreAndProducts(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(ctx, storage.KeyWishlist, []int64{3, 3, 42, 1}))

	w := NewWishlist(st, zap.NewNop())
	w.Restore(ctx)
	assert.Equal(t, []int64{3, 42, 1}, w.IDs())

	products := w.Products(testProducts())
	require.Len(t, products, 2)
	assert.Equal(t, int64(3), products[0].ID)
	assert.Equal(t, int64(1), products[1].ID)
}
