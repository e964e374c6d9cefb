package store

import (
	"errors"
	"fmt"
)

// ErrNotFound names a record ID that does not exist (or has been deleted)
// in the store. No Coordinator method returns it: Get and Delete report a
// missing ID through their bool results.
var ErrNotFound = errors.New("store: record not found")

// ErrCorrupt is returned when a sealed segment file fails header validation
// or checksum verification on load.
type ErrCorrupt struct {
	Path   string
	Reason string
}

func (e *ErrCorrupt) Error() string {
	return fmt.Sprintf("store: corrupt segment %q: %s", e.Path, e.Reason)
}

// ErrSchemaMismatch describes a schema violation. The store treats metadata
// as an opaque string and no Coordinator method returns this error.
type ErrSchemaMismatch struct {
	Reason string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("store: schema mismatch: %s", e.Reason)
}

// ErrDimensionMismatch is returned when an embedding's length does not match
// the store's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("store: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
