// Package annstore is an embeddable approximate nearest-neighbor vector
// store: a navigable proximity graph (HNSW-style) over a segmented,
// snapshot-durable record store.
//
// An Engine owns one graph.Graph for its configured dimension, a store.Coordinator that
// persists vectors and metadata into immutable sealed segments plus one
// mutable active segment, a compaction.Coordinator that reclaims space from
// deleted records, and a write-ahead log covering the active segment
// between snapshots. Construct one with New and release it with Close.
package annstore
