// Package store implements the columnar segment store and its coordinator
// (C5–C8): a single mutable active segment that receives writes, immutable
// sealed segments with a tombstone sidecar once the active segment fills,
// an append-only snapshot log recording which sealed segments exist at each
// point in time, and a coordinator that ties inserts, deletes, and reads
// across both.
//
// Node IDs (the graph's dense, insertion-order identifiers) and record IDs
// (the caller-supplied, stable identifiers) are related by a simple growing
// slice: node_id → record_id. Node IDs are never reordered by deletes, so no
// lazier scheme is needed to keep the mapping correct.
package store
