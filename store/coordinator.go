package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atulRanaa/vector-db-book/blobstore"
)

// ErrDuplicateID is returned when Insert is called with a record ID that
// already exists (live or tombstoned) anywhere in the store.
var ErrDuplicateID = errors.New("store: duplicate record id")

// Stats summarizes the coordinator's current state.
type Stats struct {
	ActiveRows      int
	SealedSegments  int
	TotalRows       int
	TombstonedRows  int
}

// Coordinator owns the active segment, the sealed segments, and the
// snapshot log, and is the single point of truth for record-ID-keyed reads
// and writes (C8). It does not know about the graph or node IDs; the engine
// layer is responsible for keeping node_id -> record_id correspondence.
type Coordinator struct {
	mu sync.RWMutex

	dim      int
	capacity int

	blobs   blobstore.Store
	snaps   *SnapshotLog
	logger  *slog.Logger

	active *activeSegment
	sealed []*SealedSegment

	nextSegmentID  SegmentID
	nextSnapshotID SnapshotID

	tombstoned map[uint64]struct{} // global, across active + sealed
}

// Config configures a Coordinator.
type Config struct {
	Dimension       int
	SegmentCapacity int
	DataDir         string
	BlobStore       blobstore.Store
	Logger          *slog.Logger
}

func segmentFileName(id SegmentID) string {
	return fmt.Sprintf("segment-%08d.dat", uint64(id))
}

// Open creates a Coordinator, replaying any previously committed snapshot to
// rebuild the sealed-segment set. The graph itself is never persisted (spec
// §9); only the segment files and the snapshot pointing at them are.
func Open(ctx context.Context, cfg Config) (*Coordinator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	snaps, err := NewSnapshotLog(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		dim:        cfg.Dimension,
		capacity:   cfg.SegmentCapacity,
		blobs:      cfg.BlobStore,
		snaps:      snaps,
		logger:     logger,
		active:     newActiveSegment(cfg.Dimension, cfg.SegmentCapacity),
		tombstoned: make(map[uint64]struct{}),
	}

	snap, err := snaps.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, segID := range snap.SegmentIDs {
		seg, err := ReadSealedSegment(ctx, cfg.BlobStore, segmentFileName(segID))
		if err != nil {
			return nil, err
		}
		c.sealed = append(c.sealed, seg)
		if segID >= c.nextSegmentID {
			c.nextSegmentID = segID + 1
		}
		for row, id := range seg.ids {
			if !seg.IsLiveRow(row) {
				c.tombstoned[id] = struct{}{}
			}
		}
	}
	c.nextSnapshotID = snap.ID + 1

	logger.Info("store opened", "sealed_segments", len(c.sealed), "next_segment_id", c.nextSegmentID)
	return c, nil
}

// Dimension returns the configured vector dimension.
func (c *Coordinator) Dimension() int { return c.dim }

// Insert appends a new record to the active segment, then seals the segment
// if the append brought it to capacity (spec §4.3 seal-on-capacity).
func (c *Coordinator) Insert(ctx context.Context, id uint64, embedding []float32, metadata string) error {
	if len(embedding) != c.dim {
		return &ErrDimensionMismatch{Expected: c.dim, Actual: len(embedding)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.existsLocked(id) {
		return ErrDuplicateID
	}

	c.active.append(id, embedding, metadata)
	c.logger.Debug("record inserted", "id", id)

	if c.active.full() {
		if err := c.sealActiveLocked(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (c *Coordinator) existsLocked(id uint64) bool {
	if c.active.contains(id) {
		return true
	}
	for _, seg := range c.sealed {
		if seg.Contains(id) {
			return true
		}
	}
	return false
}

// sealActiveLocked seals the active segment, appends it to the sealed set,
// persists it to the blob store, and commits a new snapshot. Callers must
// hold c.mu.
func (c *Coordinator) sealActiveLocked(ctx context.Context) error {
	if c.active.len() == 0 {
		return nil
	}

	segID := c.nextSegmentID
	c.nextSegmentID++

	seg := c.active.seal(segID)
	if err := seg.WriteTo(ctx, c.blobs, segmentFileName(segID)); err != nil {
		return fmt.Errorf("store: seal segment %d: %w", segID, err)
	}

	c.sealed = append(c.sealed, seg)
	c.active = newActiveSegment(c.dim, c.capacity)

	if err := c.commitSnapshotLocked(ctx); err != nil {
		return err
	}

	c.logger.Info("segment sealed", "segment_id", segID, "rows", seg.RowCount())
	return nil
}

// Flush forces the active segment to seal even if it has not reached
// capacity, giving callers an explicit durability point.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sealActiveLocked(ctx)
}

func (c *Coordinator) commitSnapshotLocked(ctx context.Context) error {
	ids := make([]SegmentID, len(c.sealed))
	for i, seg := range c.sealed {
		ids[i] = seg.ID()
	}
	snap := Snapshot{ID: c.nextSnapshotID, SegmentIDs: ids}
	if err := c.snaps.Commit(ctx, snap); err != nil {
		return err
	}
	c.nextSnapshotID++
	c.logger.Debug("snapshot committed", "snapshot_id", snap.ID, "segments", len(ids))
	return nil
}

// Get returns the live record for id, searching the active segment first
// and then sealed segments from newest to oldest.
func (c *Coordinator) Get(id uint64) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.active.vector(id); ok {
		row := c.active.rowOf[id]
		return Record{ID: id, Embedding: v, Metadata: c.active.metadata[row]}, true
	}
	for i := len(c.sealed) - 1; i >= 0; i-- {
		if v, ok := c.sealed[i].Vector(id); ok {
			row := c.sealed[i].rowOf[id]
			return Record{ID: id, Embedding: v, Metadata: c.sealed[i].metadata[row]}, true
		}
	}
	return Record{}, false
}

// IsTombstoned reports whether id has been deleted, anywhere in the store.
func (c *Coordinator) IsTombstoned(id uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tombstoned[id]
	return ok
}

// TombstoneCount returns the number of tombstoned records, used by the
// engine to decide whether to widen ef_search (spec §4.2 step 3).
func (c *Coordinator) TombstoneCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tombstoned)
}

// Delete tombstones id wherever it lives, returning false if id was not
// found live.
func (c *Coordinator) Delete(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active.isLive(id) {
		c.active.tombstone(id)
		c.tombstoned[id] = struct{}{}
		return true
	}
	for _, seg := range c.sealed {
		if seg.IsTombstoned(id) {
			continue
		}
		if seg.Tombstone(id) {
			c.tombstoned[id] = struct{}{}
			return true
		}
	}
	return false
}

// Stats returns a point-in-time summary of the store's shape.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.active.len()
	for _, seg := range c.sealed {
		total += seg.RowCount()
	}
	return Stats{
		ActiveRows:     c.active.len(),
		SealedSegments: len(c.sealed),
		TotalRows:      total,
		TombstonedRows: len(c.tombstoned),
	}
}

// SegmentsSnapshot returns the current sealed segments, for the compaction
// coordinator to scan without holding the store lock while it works.
func (c *Coordinator) SegmentsSnapshot() []*SealedSegment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*SealedSegment, len(c.sealed))
	copy(out, c.sealed)
	return out
}

// CommitMerge atomically replaces the sealed segments named by dirtyIDs with
// merged, persists merged to the blob store, removes the old segment files,
// and commits a new snapshot (spec §4.5 compaction).
func (c *Coordinator) CommitMerge(ctx context.Context, dirtyIDs []SegmentID, merged *SealedSegment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirty := make(map[SegmentID]bool, len(dirtyIDs))
	for _, id := range dirtyIDs {
		dirty[id] = true
	}

	if err := merged.WriteTo(ctx, c.blobs, segmentFileName(merged.ID())); err != nil {
		return fmt.Errorf("store: write merged segment %d: %w", merged.ID(), err)
	}

	kept := c.sealed[:0:0]
	for _, seg := range c.sealed {
		if dirty[seg.ID()] {
			continue
		}
		kept = append(kept, seg)
	}
	kept = append(kept, merged)
	c.sealed = kept

	if err := c.commitSnapshotLocked(ctx); err != nil {
		return err
	}

	for id := range dirty {
		_ = c.blobs.Remove(ctx, segmentFileName(id))
	}

	c.logger.Info("compaction committed", "merged_segment_id", merged.ID(), "dropped", len(dirtyIDs))
	return nil
}

// ScanLive invokes fn once for every live record in the store, sealed
// segments first (in sealed-list order) followed by the active segment. Scan
// order matches insertion order until a compaction runs; CommitMerge places
// a merged segment after the segments it did not replace. Held under a read lock for
// the duration of the scan, so it is intended for use during a rebuild, not
// on the hot insert/search path.
func (c *Coordinator) ScanLive(fn func(Record) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, seg := range c.sealed {
		for row := 0; row < seg.RowCount(); row++ {
			if !seg.IsLiveRow(row) {
				continue
			}
			if err := fn(seg.Row(row)); err != nil {
				return err
			}
		}
	}

	for i, id := range c.active.ids {
		if _, dead := c.active.dead[id]; dead {
			continue
		}
		start := i * c.active.dim
		rec := Record{
			ID:        id,
			Embedding: c.active.embeddings[start : start+c.active.dim],
			Metadata:  c.active.metadata[i],
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// AllocateSegmentID reserves the next segment ID, for the compaction
// coordinator to stamp a merged segment before writing it.
func (c *Coordinator) AllocateSegmentID() SegmentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSegmentID
	c.nextSegmentID++
	return id
}
