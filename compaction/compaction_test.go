package compaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atulRanaa/vector-db-book/blobstore"
	"github.com/atulRanaa/vector-db-book/graph"
	"github.com/atulRanaa/vector-db-book/store"
)

func newTestStore(t *testing.T, capacity int) *store.Coordinator {
	t.Helper()
	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	c, err := store.Open(context.Background(), store.Config{
		Dimension:       4,
		SegmentCapacity: capacity,
		DataDir:         t.TempDir(),
		BlobStore:       blobs,
	})
	require.NoError(t, err)
	return c
}

func TestCompactSkipsBelowThreshold(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, 1, []float32{1, 0, 0, 0}, ""))
	require.NoError(t, s.Insert(ctx, 2, []float32{0, 1, 0, 0}, ""))
	require.NoError(t, s.Flush(ctx))

	co := New(Config{Store: s})
	merged, err := co.Compact(ctx, 0.5)
	require.NoError(t, err)
	assert.False(t, merged)
}

func TestCompactMergesDirtySegments(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, 1, []float32{1, 0, 0, 0}, "a"))
	require.NoError(t, s.Insert(ctx, 2, []float32{0, 1, 0, 0}, "b"))
	require.NoError(t, s.Insert(ctx, 3, []float32{0, 0, 1, 0}, "c"))
	require.NoError(t, s.Insert(ctx, 4, []float32{0, 0, 0, 1}, "d"))
	require.NoError(t, s.Flush(ctx))

	// segment [1,2] and segment [3,4] are both sealed now.
	assert.True(t, s.Delete(1))
	assert.True(t, s.Delete(3))

	co := New(Config{Store: s})
	merged, err := co.Compact(ctx, 0.4)
	require.NoError(t, err)
	assert.True(t, merged)

	stats := s.Stats()
	assert.Equal(t, 1, stats.SealedSegments)

	rec, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", rec.Metadata)
	_, ok = s.Get(1)
	assert.False(t, ok)
}

func TestCompactMergesSingleDirtySegment(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, 1, []float32{1, 0, 0, 0}, "a"))
	require.NoError(t, s.Insert(ctx, 2, []float32{0, 1, 0, 0}, "b"))
	require.NoError(t, s.Flush(ctx))

	assert.True(t, s.Delete(1))

	co := New(Config{Store: s})
	merged, err := co.Compact(ctx, 0.4)
	require.NoError(t, err)
	assert.True(t, merged)

	stats := s.Stats()
	assert.Equal(t, 1, stats.SealedSegments)

	rec, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", rec.Metadata)
}

func TestCompactAndRebuild(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, 1, []float32{1, 0, 0, 0}, ""))
	require.NoError(t, s.Insert(ctx, 2, []float32{0, 1, 0, 0}, ""))
	require.NoError(t, s.Insert(ctx, 3, []float32{0, 0, 1, 0}, ""))
	assert.True(t, s.Delete(2))

	co := New(Config{Store: s})
	result, err := co.CompactAndRebuild(ctx, graph.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Graph.Size())
	assert.Len(t, result.NodeToRecord, 2)
	assert.ElementsMatch(t, []uint64{1, 3}, result.NodeToRecord)
}
