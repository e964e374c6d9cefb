package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atulRanaa/vector-db-book/blobstore"
)

func newTestCoordinator(t *testing.T, capacity int) *Coordinator {
	t.Helper()
	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	c, err := Open(context.Background(), Config{
		Dimension:       4,
		SegmentCapacity: capacity,
		DataDir:         t.TempDir(),
		BlobStore:       blobs,
	})
	require.NoError(t, err)
	return c
}

func TestInsertAndGet(t *testing.T) {
	c := newTestCoordinator(t, 100)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, 1, []float32{1, 2, 3, 4}, "a"))
	rec, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3, 4}, rec.Embedding)
	assert.Equal(t, "a", rec.Metadata)
}

func TestInsertDimensionMismatch(t *testing.T) {
	c := newTestCoordinator(t, 100)
	err := c.Insert(context.Background(), 1, []float32{1, 2}, "")
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
}

func TestInsertDuplicateID(t *testing.T) {
	c := newTestCoordinator(t, 100)
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, 1, []float32{1, 2, 3, 4}, ""))
	err := c.Insert(ctx, 1, []float32{5, 6, 7, 8}, "")
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSealOnCapacity(t *testing.T) {
	c := newTestCoordinator(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, 1, []float32{1, 0, 0, 0}, ""))
	require.NoError(t, c.Insert(ctx, 2, []float32{0, 1, 0, 0}, ""))
	require.NoError(t, c.Insert(ctx, 3, []float32{0, 0, 1, 0}, ""))

	stats := c.Stats()
	assert.Equal(t, 1, stats.SealedSegments)
	assert.Equal(t, 1, stats.ActiveRows)
	assert.Equal(t, 3, stats.TotalRows)

	rec, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0, 0}, rec.Embedding)
}

func TestDeleteActiveAndSealed(t *testing.T) {
	c := newTestCoordinator(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, 1, []float32{1, 0, 0, 0}, ""))
	require.NoError(t, c.Insert(ctx, 2, []float32{0, 1, 0, 0}, ""))
	require.NoError(t, c.Insert(ctx, 3, []float32{0, 0, 1, 0}, ""))

	assert.True(t, c.Delete(1)) // sealed segment
	assert.True(t, c.Delete(3)) // active segment
	assert.False(t, c.Delete(999))

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(3)
	assert.False(t, ok)
	assert.True(t, c.IsTombstoned(1))
	assert.Equal(t, 2, c.TombstoneCount())
}

func TestFlushForcesSeal(t *testing.T) {
	c := newTestCoordinator(t, 1000)
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, 1, []float32{1, 2, 3, 4}, ""))
	require.NoError(t, c.Flush(ctx))

	stats := c.Stats()
	assert.Equal(t, 1, stats.SealedSegments)
	assert.Equal(t, 0, stats.ActiveRows)
}

func TestReopenReplaysSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	blobDir := t.TempDir()
	ctx := context.Background()

	blobs, err := blobstore.NewLocalStore(blobDir)
	require.NoError(t, err)

	c1, err := Open(ctx, Config{Dimension: 4, SegmentCapacity: 1, DataDir: dataDir, BlobStore: blobs})
	require.NoError(t, err)
	require.NoError(t, c1.Insert(ctx, 1, []float32{1, 2, 3, 4}, "meta-1"))
	require.NoError(t, c1.Insert(ctx, 2, []float32{5, 6, 7, 8}, "meta-2"))

	c2, err := Open(ctx, Config{Dimension: 4, SegmentCapacity: 1, DataDir: dataDir, BlobStore: blobs})
	require.NoError(t, err)

	stats := c2.Stats()
	assert.Equal(t, 2, stats.SealedSegments)

	rec, ok := c2.Get(1)
	require.True(t, ok)
	assert.Equal(t, "meta-1", rec.Metadata)
}
