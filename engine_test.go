package annstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atulRanaa/vector-db-book/batch"
)

func newTestEngine(t *testing.T, dim int) *Engine {
	t.Helper()
	eng, err := New(dim, WithDataDir(t.TempDir()), WithSegmentCapacity(4))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 4)

	vectors := map[uint64][]float32{
		1: {1, 0, 0, 0},
		2: {0, 1, 0, 0},
		3: {0, 0, 1, 0},
		4: {0, 0, 0, 1},
		5: {0.9, 0.1, 0, 0},
	}
	for id, v := range vectors {
		require.NoError(t, eng.Insert(ctx, id, v, ""))
	}

	results, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestInsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 4)

	err := eng.Insert(ctx, 1, []float32{1, 2}, "")
	require.Error(t, err)
	var dimErr *DimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestDeleteExcludesFromSearch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 2)

	require.NoError(t, eng.Insert(ctx, 1, []float32{1, 0}, ""))
	require.NoError(t, eng.Insert(ctx, 2, []float32{0, 1}, ""))

	found, err := eng.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)

	results, err := eng.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, uint64(1), r.ID)
	}
}

func TestIngestBatch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 2)

	b := batch.Batch{IDs: []uint64{1, 2, 3}, Embeddings: []float32{1, 0, 0, 1, 1, 1}}
	result, err := eng.IngestBatch(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)

	stats := eng.Stats()
	assert.Equal(t, 3, stats.TotalRows)
}

func TestIngestBatchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 4)

	b := batch.Batch{IDs: []uint64{1, 2}, Embeddings: []float32{1, 0, 0}}
	_, err := eng.IngestBatch(ctx, b)
	require.Error(t, err)
	var dimErr *DimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestIngestBatchSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 2)

	b := batch.Batch{IDs: []uint64{1, 2}, Embeddings: []float32{1, 0, 0, 1}, Metadata: []string{"only-one"}}
	_, err := eng.IngestBatch(ctx, b)
	require.Error(t, err)
	var schemaErr *SchemaMismatch
	assert.ErrorAs(t, err, &schemaErr)
}

func TestIngestBatchRollsBackOnDuplicateID(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 2)

	require.NoError(t, eng.Insert(ctx, 2, []float32{0, 1}, "existing"))

	b := batch.Batch{IDs: []uint64{1, 2, 3}, Embeddings: []float32{1, 0, 0, 1, 1, 1}}
	result, err := eng.IngestBatch(ctx, b)
	require.Error(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, uint64(2), result.FailedID)

	results, err := eng.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, uint64(1), r.ID, "row 1 was applied before the failing row and must be rolled back")
	}

	found := false
	for _, r := range results {
		if r.ID == 2 {
			found = true
		}
	}
	assert.True(t, found, "the pre-existing row must be untouched by the rollback")
}

func TestCompactAndRebuildReclaimsSpace(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, 2)

	for _, id := range []uint64{1, 2, 3, 4} {
		require.NoError(t, eng.Insert(ctx, id, []float32{float32(id), 0}, ""))
	}
	require.NoError(t, eng.Flush(ctx))

	_, err := eng.Delete(ctx, 1)
	require.NoError(t, err)
	_, err = eng.Delete(ctx, 2)
	require.NoError(t, err)

	reclaimed, err := eng.CompactAndRebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed)

	stats := eng.Stats()
	assert.Equal(t, 2, stats.GraphNodes)
}

func TestReopenRecoversFromSnapshotAndWAL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	eng1, err := New(4, WithDataDir(dir), WithSegmentCapacity(100))
	require.NoError(t, err)
	require.NoError(t, eng1.Insert(ctx, 1, []float32{1, 0, 0, 0}, "a"))
	require.NoError(t, eng1.Insert(ctx, 2, []float32{0, 1, 0, 0}, "b"))
	require.NoError(t, eng1.Close())

	eng2, err := New(4, WithDataDir(dir), WithSegmentCapacity(100))
	require.NoError(t, err)
	defer eng2.Close()

	results, err := eng2.Search(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
}
