package compaction

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/atulRanaa/vector-db-book/graph"
	"github.com/atulRanaa/vector-db-book/store"
)

// Config configures a Coordinator.
type Config struct {
	Store *store.Coordinator

	// MaxConcurrentMerges bounds how many Compact/CompactAndRebuild calls
	// may run at once. Defaults to 1.
	MaxConcurrentMerges int64

	// IOBytesPerSec throttles how fast compaction reads segment data. Zero
	// means unlimited.
	IOBytesPerSec int64

	Logger *slog.Logger
}

// Coordinator implements the compaction/rebuild coordinator (C9), bounding
// and throttling background work the way the teacher's resource.Controller
// does for its own background jobs.
type Coordinator struct {
	store *store.Coordinator

	sem       *semaphore.Weighted
	ioLimiter *rate.Limiter
	logger    *slog.Logger
}

// New constructs a Coordinator.
func New(cfg Config) *Coordinator {
	maxMerges := cfg.MaxConcurrentMerges
	if maxMerges <= 0 {
		maxMerges = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var limiter *rate.Limiter
	if cfg.IOBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}

	return &Coordinator{
		store:     cfg.Store,
		sem:       semaphore.NewWeighted(maxMerges),
		ioLimiter: limiter,
		logger:    logger,
	}
}

func (c *Coordinator) acquireIO(ctx context.Context, bytes int) error {
	if c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects requests larger than the burst, so wait in burst-sized
	// chunks.
	for bytes > 0 {
		n := bytes
		if burst := c.ioLimiter.Burst(); n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// Compact scans sealed segments and merges every segment whose tombstone
// ratio is at or above threshold into a single fresh segment (spec §4.5).
// It reports whether a merge happened; no dirty segments is a no-op, not an
// error. A single dirty segment is still merged, since merging drops its
// tombstoned rows and brings it back under threshold.
func (c *Coordinator) Compact(ctx context.Context, threshold float64) (bool, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer c.sem.Release(1)

	segments := c.store.SegmentsSnapshot()

	var dirty []store.SegmentID
	for _, seg := range segments {
		if seg.TombstoneRatio() >= threshold {
			dirty = append(dirty, seg.ID())
		}
	}
	if len(dirty) < 1 {
		c.logger.Debug("compact skipped", "dirty_segments", len(dirty), "threshold", threshold)
		return false, nil
	}

	dirtySet := make(map[store.SegmentID]bool, len(dirty))
	for _, id := range dirty {
		dirtySet[id] = true
	}

	dim := c.store.Dimension()
	var ids []uint64
	var embeddings []float32
	var metadata []string

	for _, seg := range segments {
		if !dirtySet[seg.ID()] {
			continue
		}
		if err := c.acquireIO(ctx, int(seg.RowCount())*dim*4); err != nil {
			return false, err
		}
		for row := 0; row < seg.RowCount(); row++ {
			if !seg.IsLiveRow(row) {
				continue
			}
			rec := seg.Row(row)
			ids = append(ids, rec.ID)
			embeddings = append(embeddings, rec.Embedding...)
			metadata = append(metadata, rec.Metadata)
		}
	}

	mergedID := c.store.AllocateSegmentID()
	merged := store.NewSealedSegment(mergedID, dim, ids, embeddings, metadata)

	if err := c.store.CommitMerge(ctx, dirty, merged); err != nil {
		return false, fmt.Errorf("compaction: commit merge: %w", err)
	}

	c.logger.Info("compaction merged segments", "dropped", len(dirty), "merged_segment_id", mergedID, "live_rows", len(ids))
	return true, nil
}

// RebuildResult holds a freshly constructed graph and the node_id ->
// record_id correspondence to install alongside it.
type RebuildResult struct {
	Graph        *graph.Graph
	NodeToRecord []uint64
}

// CompactAndRebuild reconstructs the graph from scratch against every live
// record currently in the store (the rebuild half of spec §4.5
// compact_and_rebuild). It merges no segments itself; the engine runs
// Compact before calling it. Unlike Compact, this always touches every
// segment; callers should reserve it for maintenance windows or explicit
// operator calls rather than routine use.
func (c *Coordinator) CompactAndRebuild(ctx context.Context, opts graph.Options) (*RebuildResult, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	dim := c.store.Dimension()
	g := graph.New(dim, opts)
	nodeToRecord := make([]uint64, 0)

	err := c.store.ScanLive(func(rec store.Record) error {
		if err := c.acquireIO(ctx, len(rec.Embedding)*4); err != nil {
			return err
		}
		nodeID, err := g.Insert(rec.Embedding)
		if err != nil {
			return err
		}
		if int(nodeID) != len(nodeToRecord) {
			return fmt.Errorf("compaction: rebuild produced out-of-order node id %d (expected %d)", nodeID, len(nodeToRecord))
		}
		nodeToRecord = append(nodeToRecord, rec.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compaction: rebuild: %w", err)
	}

	c.logger.Info("graph rebuilt", "nodes", len(nodeToRecord))
	return &RebuildResult{Graph: g, NodeToRecord: nodeToRecord}, nil
}
