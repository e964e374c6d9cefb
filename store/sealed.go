package store

import (
	"context"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/atulRanaa/vector-db-book/blobstore"
)

// SealedSegment is an immutable, columnar segment (C6): once sealed, its id,
// embedding, and metadata columns never change shape. Deletes against a
// sealed segment are recorded in a tombstone bitmap keyed by row position,
// not by rewriting the columns.
type SealedSegment struct {
	id  SegmentID
	dim int

	ids        []uint64
	embeddings []float32 // row-major, len == len(ids)*dim
	metadata   []string

	rowOf sortedRowIndex // record ID -> row position, built once at seal time

	tombstones *roaring.Bitmap // bits are row positions
}

// sortedRowIndex is a simple id->row lookup built once when a segment is
// sealed (or loaded); like the columns it indexes over, it is never mutated
// afterward, so a plain map suffices.
type sortedRowIndex map[uint64]int

// NewSealedSegment builds a SealedSegment from columnar data, indexing ids
// for O(1) lookup and delete.
func NewSealedSegment(id SegmentID, dim int, ids []uint64, embeddings []float32, metadata []string) *SealedSegment {
	rowOf := make(sortedRowIndex, len(ids))
	for row, rid := range ids {
		rowOf[rid] = row
	}
	return &SealedSegment{
		id:         id,
		dim:        dim,
		ids:        ids,
		embeddings: embeddings,
		metadata:   metadata,
		rowOf:      rowOf,
		tombstones: roaring.New(),
	}
}

// ID returns the segment's identifier.
func (s *SealedSegment) ID() SegmentID { return s.id }

// RowCount returns the total number of rows, live and tombstoned.
func (s *SealedSegment) RowCount() int { return len(s.ids) }

// LiveCount returns the number of non-tombstoned rows.
func (s *SealedSegment) LiveCount() int {
	return len(s.ids) - int(s.tombstones.GetCardinality())
}

// TombstoneRatio returns the fraction of rows that are tombstoned, used by
// the compaction coordinator to pick merge candidates (spec §4.5).
func (s *SealedSegment) TombstoneRatio() float64 {
	if len(s.ids) == 0 {
		return 0
	}
	return float64(s.tombstones.GetCardinality()) / float64(len(s.ids))
}

// Contains reports whether id exists in this segment (live or tombstoned).
func (s *SealedSegment) Contains(id uint64) bool {
	_, ok := s.rowOf[id]
	return ok
}

// IsTombstoned reports whether id has been deleted from this segment.
func (s *SealedSegment) IsTombstoned(id uint64) bool {
	row, ok := s.rowOf[id]
	if !ok {
		return false
	}
	return s.tombstones.Contains(uint32(row))
}

// Tombstone marks id as deleted, returning false if id is not present.
func (s *SealedSegment) Tombstone(id uint64) bool {
	row, ok := s.rowOf[id]
	if !ok {
		return false
	}
	s.tombstones.Add(uint32(row))
	return true
}

// Vector returns the embedding for id and whether it is live.
func (s *SealedSegment) Vector(id uint64) ([]float32, bool) {
	row, ok := s.rowOf[id]
	if !ok || s.tombstones.Contains(uint32(row)) {
		return nil, false
	}
	start := row * s.dim
	return s.embeddings[start : start+s.dim], true
}

// Row returns the record at a given row position regardless of tombstone
// state, for use by the compaction coordinator when copying live rows
// forward into a merged segment.
func (s *SealedSegment) Row(row int) Record {
	start := row * s.dim
	return Record{
		ID:        s.ids[row],
		Embedding: s.embeddings[start : start+s.dim],
		Metadata:  s.metadata[row],
	}
}

// IsLiveRow reports whether the row at the given position has not been
// tombstoned.
func (s *SealedSegment) IsLiveRow(row int) bool {
	return !s.tombstones.Contains(uint32(row))
}

// WriteTo persists the segment to name in blobStore.
func (s *SealedSegment) WriteTo(ctx context.Context, blobs blobstore.Store, name string) error {
	w, err := blobs.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("store: create segment file: %w", err)
	}

	bodyLen, compressed, err := compressedBodyLength(s)
	if err != nil {
		w.Close()
		return fmt.Errorf("store: compress segment body: %w", err)
	}

	header := segmentHeader{
		Magic:      segmentMagic,
		Version:    segmentVersion,
		Dimension:  uint32(s.dim),
		RowCount:   uint32(len(s.ids)),
		SegmentID:  uint64(s.id),
		BodyLength: uint32(bodyLen),
	}
	if _, err := header.writeTo(w); err != nil {
		w.Close()
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		w.Close()
		return err
	}
	if _, err := s.tombstones.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("store: write tombstones: %w", err)
	}
	return w.Close()
}

// ReadSealedSegment reads a segment previously written by WriteTo.
func ReadSealedSegment(ctx context.Context, blobs blobstore.Store, name string) (*SealedSegment, error) {
	r, err := blobs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var header segmentHeader
	if _, err := header.readFrom(r); err != nil {
		return nil, &ErrCorrupt{Path: name, Reason: err.Error()}
	}

	ids, embeddings, metadata, err := readSegmentBody(r, int(header.Dimension), int(header.RowCount), int(header.BodyLength))
	if err != nil {
		return nil, &ErrCorrupt{Path: name, Reason: err.Error()}
	}

	seg := NewSealedSegment(SegmentID(header.SegmentID), int(header.Dimension), ids, embeddings, metadata)

	tb := roaring.New()
	if _, err := tb.ReadFrom(r); err != nil && err != io.EOF {
		return nil, &ErrCorrupt{Path: name, Reason: "bad tombstone bitmap: " + err.Error()}
	}
	seg.tombstones = tb

	return seg, nil
}
