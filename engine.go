package annstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/atulRanaa/vector-db-book/batch"
	"github.com/atulRanaa/vector-db-book/blobstore"
	"github.com/atulRanaa/vector-db-book/compaction"
	"github.com/atulRanaa/vector-db-book/distance"
	"github.com/atulRanaa/vector-db-book/graph"
	"github.com/atulRanaa/vector-db-book/store"
	"github.com/atulRanaa/vector-db-book/walog"
)

// SearchResult is a single search hit, enriched with the metadata stored
// alongside its vector (spec §4.4, §6).
type SearchResult struct {
	ID       uint64
	Distance float32
	Metadata string
}

// Stats summarizes the engine's current shape, combining the store's view
// with the graph's node count.
type Stats struct {
	store.Stats
	GraphNodes int
}

// Engine is the top-level façade wiring the distance primitive (C1), the
// proximity graph (C3+C4), the segmented store (C5-C8), the compaction
// coordinator (C9), and the batch ingestion façade (C10) together.
//
// An Engine's graph is never persisted; it is always rebuilt from the
// store's live records at construction time (spec §9), which is why New
// always performs one rebuild pass before returning.
type Engine struct {
	dim  int
	opts options

	store     *store.Coordinator
	compactor *compaction.Coordinator
	wal       *walog.WAL
	walPath   string

	mu           sync.RWMutex
	graph        *graph.Graph
	nodeToRecord []uint64

	sealedSeen int

	logger  *Logger
	metrics MetricsCollector
}

// New constructs an Engine for vectors of the given dimension. It opens (or
// creates) the on-disk store under the configured data directory, replays
// the write-ahead log to recover any active-segment mutations since the
// last seal, and rebuilds the graph from the store's live records.
func New(dim int, optFns ...Option) (*Engine, error) {
	if dim <= 0 {
		return nil, &InvalidConfig{Reason: fmt.Sprintf("dimension must be positive, got %d", dim)}
	}

	opts := applyOptions(optFns)
	ctx := context.Background()

	blobs := opts.blobStore
	if blobs == nil {
		local, err := blobstore.NewLocalStore(filepath.Join(opts.dataDir, "segments"))
		if err != nil {
			return nil, &InvalidConfig{Reason: "creating local blob store", cause: err}
		}
		blobs = local
	}

	st, err := store.Open(ctx, store.Config{
		Dimension:       dim,
		SegmentCapacity: opts.segmentCapacity,
		DataDir:         opts.dataDir,
		BlobStore:       blobs,
		Logger:          opts.logger.Logger,
	})
	if err != nil {
		return nil, translateError(err)
	}

	walPath := filepath.Join(opts.dataDir, "wal.log")
	var wal *walog.WAL
	if opts.walEnabled {
		wal, err = walog.Open(walPath)
		if err != nil {
			return nil, &InvalidConfig{Reason: "opening write-ahead log", cause: err}
		}
		if err := replayWAL(ctx, walPath, st); err != nil {
			return nil, translateError(err)
		}
	}

	compactor := compaction.New(compaction.Config{Store: st, Logger: opts.logger.Logger})

	result, err := compactor.CompactAndRebuild(ctx, graphOptionsFrom(opts))
	if err != nil {
		return nil, translateError(err)
	}

	e := &Engine{
		dim:          dim,
		opts:         opts,
		store:        st,
		compactor:    compactor,
		wal:          wal,
		walPath:      walPath,
		graph:        result.Graph,
		nodeToRecord: result.NodeToRecord,
		sealedSeen:   st.Stats().SealedSegments,
		logger:       opts.logger,
		metrics:      opts.metrics,
	}
	return e, nil
}

func graphOptionsFrom(o options) graph.Options {
	return graph.Options{
		M:              o.m,
		EFConstruction: o.efConstruction,
		EFSearch:       o.efSearch,
		Seed:           o.seed,
		Distance:       o.distance,
	}
}

// replayWAL reapplies mutations recorded since the last seal against a
// freshly opened store. A duplicate-ID error on replay means the mutation
// was already durable in a sealed segment or snapshot and is not an error.
func replayWAL(ctx context.Context, path string, st *store.Coordinator) error {
	return walog.Replay(path, func(e walog.Entry) error {
		switch e.Op {
		case walog.OpInsert:
			err := st.Insert(ctx, e.ID, e.Embedding, e.Metadata)
			if err != nil && !errors.Is(err, store.ErrDuplicateID) {
				return err
			}
			return nil
		case walog.OpDelete:
			st.Delete(e.ID)
			return nil
		default:
			return nil
		}
	})
}

// Dimension returns the configured vector dimension.
func (e *Engine) Dimension() int { return e.dim }

// Insert adds a single record (spec §4.1-§4.3 insert, wired end-to-end).
func (e *Engine) Insert(ctx context.Context, id uint64, embedding []float32, metadata string) error {
	start := time.Now()
	err := e.insert(ctx, id, embedding, metadata)
	e.metrics.RecordInsert(time.Since(start), err)
	e.logger.LogInsert(ctx, id, len(embedding), err)
	return err
}

func (e *Engine) insert(ctx context.Context, id uint64, embedding []float32, metadata string) error {
	if e.wal != nil {
		if err := e.wal.Append(walog.Entry{Op: walog.OpInsert, ID: id, Embedding: embedding, Metadata: metadata}); err != nil {
			return translateError(err)
		}
	}

	if err := e.store.Insert(ctx, id, embedding, metadata); err != nil {
		return translateError(err)
	}

	nodeID, err := e.graphInsert(embedding)
	if err != nil {
		return translateError(err)
	}

	e.mu.Lock()
	if int(nodeID) != len(e.nodeToRecord) {
		e.mu.Unlock()
		return &StorageCorrupt{Reason: fmt.Sprintf("graph returned out-of-order node id %d", nodeID)}
	}
	e.nodeToRecord = append(e.nodeToRecord, id)
	e.mu.Unlock()

	e.maybeTruncateWAL(ctx)
	return nil
}

func (e *Engine) graphInsert(embedding []float32) (uint64, error) {
	e.mu.RLock()
	g := e.graph
	e.mu.RUnlock()
	return g.Insert(embedding)
}

// maybeTruncateWAL truncates the write-ahead log once its entries have been
// subsumed by a newly sealed segment, so the log never grows past the
// lifetime of a single active segment.
func (e *Engine) maybeTruncateWAL(ctx context.Context) {
	if e.wal == nil {
		return
	}
	sealed := e.store.Stats().SealedSegments
	if sealed <= e.sealedSeen {
		return
	}
	e.sealedSeen = sealed
	if err := e.wal.Truncate(); err != nil {
		e.logger.WarnContext(ctx, "wal truncate failed", "error", err)
	}
}

// IngestBatch inserts a columnar batch of records (C10), rolling the whole
// batch back if any row fails to insert (spec §6 ingest_batch, spec §7
// propagation policy: a batch either ingests all rows or zero).
func (e *Engine) IngestBatch(ctx context.Context, b batch.Batch) (batch.Result, error) {
	start := time.Now()
	result := batch.Ingest(engineInserter{e: e, ctx: ctx}, b, e.dim)
	e.metrics.RecordBatchInsert(b.Len(), b.Len()-result.Inserted, time.Since(start))
	e.logger.LogBatchInsert(ctx, b.Len(), b.Len()-result.Inserted)
	if result.Err != nil {
		return result, translateError(result.Err)
	}
	return result, nil
}

// engineInserter adapts Engine's insert and delete paths to the
// batch.Inserter interface without exposing context-free Insert/Delete
// methods on Engine itself.
type engineInserter struct {
	e   *Engine
	ctx context.Context
}

func (i engineInserter) Insert(id uint64, embedding []float32, metadata string) error {
	return i.e.insert(i.ctx, id, embedding, metadata)
}

func (i engineInserter) Delete(id uint64) (bool, error) {
	return i.e.delete(i.ctx, id)
}

// Search returns up to k nearest neighbors of query (spec §4.2 search).
func (e *Engine) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	start := time.Now()
	results, err := e.search(query, k)
	e.metrics.RecordSearch(k, time.Since(start), err)
	e.logger.LogSearch(ctx, k, len(results), err)
	if err != nil {
		return nil, translateError(err)
	}
	return results, nil
}

func (e *Engine) search(query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	e.mu.RLock()
	g := e.graph
	nodeToRecord := e.nodeToRecord
	e.mu.RUnlock()

	efEff := e.opts.efSearch
	if k > efEff {
		efEff = k
	}
	if e.store.TombstoneCount() > 0 && efEff < 2*k {
		efEff = 2 * k
	}

	hits, err := g.Search(query, efEff)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, k)
	for _, h := range hits {
		if int(h.NodeID) >= len(nodeToRecord) {
			continue
		}
		recordID := nodeToRecord[h.NodeID]

		rec, ok := e.store.Get(recordID)
		if !ok {
			continue // tombstoned or otherwise no longer live (I6)
		}

		results = append(results, SearchResult{
			ID:       recordID,
			Distance: distance.Sqrt(h.Distance),
			Metadata: rec.Metadata,
		})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Delete tombstones id, returning whether it was found live (spec §4.3
// delete).
func (e *Engine) Delete(ctx context.Context, id uint64) (bool, error) {
	start := time.Now()
	found, err := e.delete(ctx, id)
	e.metrics.RecordDelete(time.Since(start), err)
	e.logger.LogDelete(ctx, id, found, err)
	return found, translateError(err)
}

func (e *Engine) delete(ctx context.Context, id uint64) (bool, error) {
	if e.wal != nil {
		if err := e.wal.Append(walog.Entry{Op: walog.OpDelete, ID: id}); err != nil {
			return false, err
		}
	}
	return e.store.Delete(id), nil
}

// Flush forces the active segment to seal even if under capacity, giving
// callers an explicit durability point.
func (e *Engine) Flush(ctx context.Context) error {
	err := e.store.Flush(ctx)
	e.maybeTruncateWAL(ctx)
	return translateError(err)
}

// Compact merges sealed segments at or above the engine's configured
// tombstone threshold, returning the number of rows physically reclaimed
// (spec §4.5 compact).
func (e *Engine) Compact(ctx context.Context) (int, error) {
	before := e.store.Stats()
	merged, err := e.compactor.Compact(ctx, e.opts.compactionThreshold)
	e.metrics.RecordCompaction(merged, 0, err)
	e.logger.LogCompaction(ctx, merged, err)
	if err != nil {
		return 0, translateError(err)
	}
	if !merged {
		return 0, nil
	}
	after := e.store.Stats()
	return before.TotalRows - after.TotalRows, nil
}

// CompactAndRebuild runs Compact and then rebuilds the graph from scratch
// against the resulting live set, atomically swapping it in (spec §4.5
// compact_and_rebuild). It restores full recall unconditionally (I6) and
// I7 by construction.
func (e *Engine) CompactAndRebuild(ctx context.Context) (int, error) {
	before := e.store.Stats()
	if _, err := e.compactor.Compact(ctx, e.opts.compactionThreshold); err != nil {
		return 0, translateError(err)
	}
	after := e.store.Stats()
	reclaimed := before.TotalRows - after.TotalRows

	result, err := e.compactor.CompactAndRebuild(ctx, graphOptionsFrom(e.opts))
	if err != nil {
		return 0, translateError(err)
	}

	e.mu.Lock()
	e.graph = result.Graph
	e.nodeToRecord = result.NodeToRecord
	e.mu.Unlock()

	e.logger.LogCompaction(ctx, true, nil)
	return reclaimed, nil
}

// Stats returns a point-in-time summary of the engine's store and graph.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	nodes := e.graph.Size()
	e.mu.RUnlock()
	return Stats{Stats: e.store.Stats(), GraphNodes: nodes}
}
