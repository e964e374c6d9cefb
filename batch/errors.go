package batch

import "fmt"

// ErrDimensionMismatch is returned when a batch's embedding column does not
// hold exactly len(IDs)*dim values.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("batch: dimension mismatch: expected %d embedding values, got %d", e.Expected, e.Actual)
}

// ErrSchemaMismatch is returned when a batch's columns are not internally
// consistent, such as a Metadata column whose length does not match IDs.
type ErrSchemaMismatch struct {
	Reason string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("batch: schema mismatch: %s", e.Reason)
}
