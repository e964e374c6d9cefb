// Package graph implements the navigable proximity graph index (C3+C4):
// a multi-layer small-world graph over dense node IDs that answers
// approximate k-NN queries via greedy descent plus bounded beam search.
//
// The package owns two closely coupled pieces of state: the per-layer
// adjacency lists (C3) and the insert/search/prune protocol that mutates
// them (C4). Node IDs are dense uint64s assigned in insertion order; the
// package never deletes a node, only edges — full removal happens only when
// the compaction coordinator builds a fresh Graph from the live records.
package graph
