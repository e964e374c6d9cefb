package annstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives per-operation outcomes. Implementations must be
// safe for concurrent use; every engine method calls its collector directly
// on the caller's goroutine.
type MetricsCollector interface {
	RecordInsert(d time.Duration, err error)
	RecordBatchInsert(count, failed int, d time.Duration)
	RecordSearch(k int, d time.Duration, err error)
	RecordDelete(d time.Duration, err error)
	RecordCompaction(merged bool, d time.Duration, err error)
}

// NoopMetricsCollector discards every recorded outcome. It is the default.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)            {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration)    {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)           {}
func (NoopMetricsCollector) RecordCompaction(bool, time.Duration, error) {}

// BasicMetricsCollector accumulates simple atomic counters, useful for
// embedding in a health/debug endpoint without pulling in a metrics backend.
type BasicMetricsCollector struct {
	inserts     atomic.Int64
	insertErrs  atomic.Int64
	batchRows   atomic.Int64
	batchFailed atomic.Int64
	searches    atomic.Int64
	searchErrs  atomic.Int64
	deletes     atomic.Int64
	deleteErrs  atomic.Int64
	compactions atomic.Int64
	merges      atomic.Int64
}

func (c *BasicMetricsCollector) RecordInsert(_ time.Duration, err error) {
	c.inserts.Add(1)
	if err != nil {
		c.insertErrs.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordBatchInsert(count, failed int, _ time.Duration) {
	c.batchRows.Add(int64(count))
	c.batchFailed.Add(int64(failed))
}

func (c *BasicMetricsCollector) RecordSearch(_ int, _ time.Duration, err error) {
	c.searches.Add(1)
	if err != nil {
		c.searchErrs.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	c.deletes.Add(1)
	if err != nil {
		c.deleteErrs.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordCompaction(merged bool, _ time.Duration, err error) {
	c.compactions.Add(1)
	if err == nil && merged {
		c.merges.Add(1)
	}
}

// Snapshot returns a point-in-time copy of the accumulated counters.
func (c *BasicMetricsCollector) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Inserts:        c.inserts.Load(),
		InsertErrors:   c.insertErrs.Load(),
		BatchRows:      c.batchRows.Load(),
		BatchFailed:    c.batchFailed.Load(),
		Searches:       c.searches.Load(),
		SearchErrors:   c.searchErrs.Load(),
		Deletes:        c.deletes.Load(),
		DeleteErrors:   c.deleteErrs.Load(),
		Compactions:    c.compactions.Load(),
		MergesPerformed: c.merges.Load(),
	}
}

// MetricsSnapshot is a read-only view of BasicMetricsCollector's counters.
type MetricsSnapshot struct {
	Inserts         int64
	InsertErrors    int64
	BatchRows       int64
	BatchFailed     int64
	Searches        int64
	SearchErrors    int64
	Deletes         int64
	DeleteErrors    int64
	Compactions     int64
	MergesPerformed int64
}
