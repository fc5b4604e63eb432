package flat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

func newTestIndex(t *testing.T, dims int) *Index {
	t.Helper()
	ix, err := New(filepath.Join(t.TempDir(), "vectors.bin"), dims)
	require.NoError(t, err)
	return ix
}

func TestAddAndSearch(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, 3)

	require.NoError(t, ix.Add(ctx, 1, []float32{1, 0, 0}))
	require.NoError(t, ix.Add(ctx, 2, []float32{0, 1, 0}))
	require.NoError(t, ix.Add(ctx, 3, []float32{0.9, 0.1, 0}))

	hits, err := ix.Search(ctx, []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, int64(1), hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, int64(3), hits[1].ID)
	assert.Equal(t, int64(2), hits[2].ID)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestSearch_LimitAndThreshold(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, 2)
	require.NoError(t, ix.Add(ctx, 1, []float32{1, 0}))
	require.NoError(t, ix.Add(ctx, 2, []float32{0.8, 0.6}))
	require.NoError(t, ix.Add(ctx, 3, []float32{0, 1}))

	t.Run("limit truncates", func(t *testing.T) {
		hits, err := ix.Search(ctx, []float32{1, 0}, 2, 0)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, int64(1), hits[0].ID)
	})

	t.Run("threshold filters", func(t *testing.T) {
		hits, err := ix.Search(ctx, []float32{1, 0}, 10, 0.5)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		for _, h := range hits {
			assert.GreaterOrEqual(t, h.Score, 0.5)
		}
	})

	t.Run("empty index", func(t *testing.T) {
		empty := newTestIndex(t, 2)
		hits, err := empty.Search(ctx, []float32{1, 0}, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestDimensionChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("add rejects wrong dims", func(t *testing.T) {
		ix := newTestIndex(t, 3)
		err := ix.Add(ctx, 1, []float32{1, 0})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("search rejects wrong dims", func(t *testing.T) {
		ix := newTestIndex(t, 3)
		require.NoError(t, ix.Add(ctx, 1, []float32{1, 0, 0}))
		_, err := ix.Search(ctx, []float32{1, 0}, 10, 0)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("zero dims adopts first vector", func(t *testing.T) {
		ix := newTestIndex(t, 0)
		require.NoError(t, ix.Add(ctx, 1, []float32{1, 0, 0, 0}))
		err := ix.Add(ctx, 2, []float32{1, 0})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("empty vector rejected", func(t *testing.T) {
		ix := newTestIndex(t, 0)
		err := ix.Add(ctx, 1, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDeleteAndHas(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, 2)
	require.NoError(t, ix.Add(ctx, 1, []float32{1, 0}))
	require.NoError(t, ix.Add(ctx, 2, []float32{0, 1}))

	has, err := ix.Has(ctx, 1)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, ix.Delete(ctx, 1))
	has, err = ix.Has(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, ix.DeleteBatch(ctx, []int64{2, 99}))
	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.bin")

	ix, err := New(path, 3)
	require.NoError(t, err)
	require.NoError(t, ix.Add(ctx, 7, []float32{0.1, 0.2, 0.3}))
	require.NoError(t, ix.Add(ctx, 9, []float32{-1, 0, 1}))
	require.NoError(t, ix.Close())

	reloaded, err := New(path, 3)
	require.NoError(t, err)
	count, err := reloaded.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := reloaded.Search(ctx, []float32{0.1, 0.2, 0.3}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(7), hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestNew_DimensionConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.bin")

	ix, err := New(path, 3)
	require.NoError(t, err)
	require.NoError(t, ix.Add(ctx, 1, []float32{1, 0, 0}))
	require.NoError(t, ix.Close())

	_, err = New(path, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
