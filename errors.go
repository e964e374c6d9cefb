package annstore

import (
	"errors"
	"fmt"

	"github.com/atulRanaa/vector-db-book/batch"
	"github.com/atulRanaa/vector-db-book/graph"
	"github.com/atulRanaa/vector-db-book/store"
)

// DimensionMismatch is returned when a vector's length does not match the
// engine's configured dimension.
type DimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("annstore: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatch) Unwrap() error { return e.cause }

// SchemaMismatch is returned when a batch passed to IngestBatch is not
// internally consistent (e.g. a Metadata column whose length differs from
// the ID column).
type SchemaMismatch struct {
	Reason string
	cause  error
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("annstore: schema mismatch: %s", e.Reason)
}

func (e *SchemaMismatch) Unwrap() error { return e.cause }

// InvalidConfig is returned when New is called with options that cannot
// produce a working engine (e.g. a non-positive dimension).
type InvalidConfig struct {
	Reason string
	cause  error
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("annstore: invalid config: %s", e.Reason)
}

func (e *InvalidConfig) Unwrap() error { return e.cause }

// StorageCorrupt is returned when a segment, snapshot, or WAL entry on disk
// fails to validate.
type StorageCorrupt struct {
	Reason string
	cause  error
}

func (e *StorageCorrupt) Error() string {
	return fmt.Sprintf("annstore: storage corrupt: %s", e.Reason)
}

func (e *StorageCorrupt) Unwrap() error { return e.cause }

// RecordNotFound describes a record ID that does not exist or has already
// been deleted. No Engine method returns it: Delete reports a missing ID
// through its bool result.
type RecordNotFound struct {
	ID uint64
}

func (e *RecordNotFound) Error() string {
	return fmt.Sprintf("annstore: record %d not found", e.ID)
}

// translateError maps an error returned by an internal package (graph,
// store, compaction, batch) into one of the observable error kinds above
// where one applies. Errors with no counterpart, such as store.ErrNotFound
// and store.ErrDuplicateID, are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var bdim *batch.ErrDimensionMismatch
	if errors.As(err, &bdim) {
		return &DimensionMismatch{Expected: bdim.Expected, Actual: bdim.Actual, cause: err}
	}

	var bschema *batch.ErrSchemaMismatch
	if errors.As(err, &bschema) {
		return &SchemaMismatch{Reason: bschema.Reason, cause: err}
	}

	var gdim *graph.ErrDimensionMismatch
	if errors.As(err, &gdim) {
		return &DimensionMismatch{Expected: gdim.Expected, Actual: gdim.Actual, cause: err}
	}

	var gcorrupt *graph.ErrCorruptIndex
	if errors.As(err, &gcorrupt) {
		return &StorageCorrupt{Reason: gcorrupt.Error(), cause: err}
	}

	var sdim *store.ErrDimensionMismatch
	if errors.As(err, &sdim) {
		return &DimensionMismatch{Expected: sdim.Expected, Actual: sdim.Actual, cause: err}
	}

	var scorrupt *store.ErrCorrupt
	if errors.As(err, &scorrupt) {
		return &StorageCorrupt{Reason: scorrupt.Error(), cause: err}
	}

	var sschema *store.ErrSchemaMismatch
	if errors.As(err, &sschema) {
		return &SchemaMismatch{Reason: sschema.Reason, cause: err}
	}

	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if errors.Is(err, store.ErrDuplicateID) {
		return err
	}

	return err
}
