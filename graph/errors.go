package graph

import "fmt"

// ErrDimensionMismatch is returned when a vector's length does not match
// the graph's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("graph: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrCorruptIndex is returned when a search or insert encounters an
// out-of-range node ID, which indicates the adjacency tables and node
// count have drifted out of sync (spec §4.2 "Failure semantics").
type ErrCorruptIndex struct {
	NodeID uint64
	Count  int
}

func (e *ErrCorruptIndex) Error() string {
	return fmt.Sprintf("graph: corrupt index: node %d out of range (count=%d)", e.NodeID, e.Count)
}
