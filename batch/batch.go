package batch

import "fmt"

// Batch is a columnar set of records to ingest in one call. IDs and
// Embeddings are parallel flat slices (row-major: Embeddings[i*dim:(i+1)*dim]
// is the vector for IDs[i]) so a caller can hand over data straight from a
// columnar source without allocating one []float32 per row. Metadata is
// optional; if non-nil it must have one entry per ID.
type Batch struct {
	IDs        []uint64
	Embeddings []float32
	Metadata   []string
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return len(b.IDs) }

// Validate checks that the batch is internally consistent for vectors of
// the given dimension.
func (b Batch) Validate(dim int) error {
	if dim <= 0 {
		return &ErrSchemaMismatch{Reason: fmt.Sprintf("invalid dimension %d", dim)}
	}
	if len(b.Embeddings) != len(b.IDs)*dim {
		return &ErrDimensionMismatch{Expected: len(b.IDs) * dim, Actual: len(b.Embeddings)}
	}
	if len(b.Metadata) != 0 && len(b.Metadata) != len(b.IDs) {
		return &ErrSchemaMismatch{Reason: fmt.Sprintf("%d ids but %d metadata entries", len(b.IDs), len(b.Metadata))}
	}
	return nil
}

// Row returns the id, embedding slice, and metadata for row i.
func (b Batch) Row(i, dim int) (id uint64, embedding []float32, metadata string) {
	start := i * dim
	metadata = ""
	if len(b.Metadata) != 0 {
		metadata = b.Metadata[i]
	}
	return b.IDs[i], b.Embeddings[start : start+dim], metadata
}

// Inserter is the single-record write path a Batch is ingested through; the
// engine's insert and delete paths satisfy this, the latter letting Ingest
// roll back a partially applied batch.
type Inserter interface {
	Insert(id uint64, embedding []float32, metadata string) error
	Delete(id uint64) (bool, error)
}

// Result reports the outcome of an Ingest call. A batch either commits in
// full (Inserted == the batch length) or not at all (Inserted == 0); there
// is no partial-commit state to observe.
type Result struct {
	Inserted int
	FailedID uint64
	Err      error
}

// Ingest validates b against dim and then applies it row by row through
// ins. A batch either ingests all rows or zero: if a row fails partway
// through, every row already applied for this call is rolled back via
// Delete before Ingest returns, so a caller never observes a partial batch.
func Ingest(ins Inserter, b Batch, dim int) Result {
	if err := b.Validate(dim); err != nil {
		return Result{Err: err}
	}

	applied := make([]uint64, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		id, embedding, metadata := b.Row(i, dim)
		if err := ins.Insert(id, embedding, metadata); err != nil {
			for _, rolledBackID := range applied {
				ins.Delete(rolledBackID)
			}
			return Result{FailedID: id, Err: err}
		}
		applied = append(applied, id)
	}

	return Result{Inserted: b.Len()}
}
