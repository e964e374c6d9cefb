package store

// Record is a single logical row: a caller-supplied ID, its embedding, and
// opaque metadata (spec §3 record model).
type Record struct {
	ID        uint64
	Embedding []float32
	Metadata  string
}

// SegmentID identifies a sealed segment.
type SegmentID uint64

// SnapshotID identifies a committed point-in-time view of the store.
type SnapshotID uint64
