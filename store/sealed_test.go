package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atulRanaa/vector-db-book/blobstore"
)

func TestSealedSegmentWriteReadRoundTrip(t *testing.T) {
	ids := []uint64{10, 11, 12}
	dim := 3
	embeddings := []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	metadata := []string{"a", "", "c"}

	seg := NewSealedSegment(SegmentID(7), dim, ids, embeddings, metadata)
	seg.Tombstone(11)

	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, seg.WriteTo(ctx, blobs, "seg-0007.dat"))

	loaded, err := ReadSealedSegment(ctx, blobs, "seg-0007.dat")
	require.NoError(t, err)

	assert.Equal(t, SegmentID(7), loaded.ID())
	assert.Equal(t, 3, loaded.RowCount())
	assert.Equal(t, 2, loaded.LiveCount())
	assert.True(t, loaded.IsTombstoned(11))
	assert.False(t, loaded.IsTombstoned(10))

	v, ok := loaded.Vector(12)
	require.True(t, ok)
	assert.Equal(t, []float32{7, 8, 9}, v)

	_, ok = loaded.Vector(11)
	assert.False(t, ok)
}

func TestSealedSegmentTombstoneRatio(t *testing.T) {
	seg := NewSealedSegment(SegmentID(1), 2, []uint64{1, 2, 3, 4}, make([]float32, 8), make([]string, 4))
	assert.Equal(t, 0.0, seg.TombstoneRatio())

	seg.Tombstone(1)
	seg.Tombstone(2)
	assert.Equal(t, 0.5, seg.TombstoneRatio())
}
