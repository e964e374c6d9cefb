package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInserter struct {
	inserted []uint64
	deleted  []uint64
	failAt   uint64
}

func (f *fakeInserter) Insert(id uint64, embedding []float32, metadata string) error {
	if id == f.failAt {
		return errors.New("boom")
	}
	f.inserted = append(f.inserted, id)
	return nil
}

func (f *fakeInserter) Delete(id uint64) (bool, error) {
	for i, existing := range f.inserted {
		if existing == id {
			f.inserted = append(f.inserted[:i], f.inserted[i+1:]...)
			f.deleted = append(f.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

func TestBatchValidateDimensionMismatch(t *testing.T) {
	b := Batch{IDs: []uint64{1, 2}, Embeddings: make([]float32, 7)}
	err := b.Validate(4)
	require.Error(t, err)
	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 8, dimErr.Expected)
	assert.Equal(t, 7, dimErr.Actual)
}

func TestBatchValidateMetadataLengthMismatch(t *testing.T) {
	b := Batch{IDs: []uint64{1, 2}, Embeddings: make([]float32, 8), Metadata: []string{"only-one"}}
	err := b.Validate(4)
	require.Error(t, err)
	var schemaErr *ErrSchemaMismatch
	require.ErrorAs(t, err, &schemaErr)
}

func TestIngestAppliesAllRows(t *testing.T) {
	b := Batch{
		IDs:        []uint64{1, 2, 3},
		Embeddings: []float32{1, 0, 2, 0, 3, 0},
		Metadata:   []string{"a", "b", "c"},
	}
	ins := &fakeInserter{}
	result := Ingest(ins, b, 2)
	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, []uint64{1, 2, 3}, ins.inserted)
}

func TestIngestRollsBackOnMidBatchFailure(t *testing.T) {
	b := Batch{
		IDs:        []uint64{1, 2, 3},
		Embeddings: []float32{1, 0, 2, 0, 3, 0},
	}
	ins := &fakeInserter{failAt: 2}
	result := Ingest(ins, b, 2)
	require.Error(t, result.Err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, uint64(2), result.FailedID)
	assert.Empty(t, ins.inserted)
	assert.Equal(t, []uint64{1}, ins.deleted)
}

func TestIngestRejectsBadBatchWithoutPartialWrites(t *testing.T) {
	b := Batch{IDs: []uint64{1}, Embeddings: []float32{1, 2, 3}}
	ins := &fakeInserter{}
	result := Ingest(ins, b, 4)
	require.Error(t, result.Err)
	assert.Empty(t, ins.inserted)
}
