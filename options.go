package annstore

import (
	"github.com/atulRanaa/vector-db-book/blobstore"
	"github.com/atulRanaa/vector-db-book/distance"
)

// options holds everything New needs beyond the vector dimension. Unexported
// so the public surface is entirely Option functions.
type options struct {
	m              int
	efConstruction int
	efSearch       int
	seed           int64
	distance       distance.Func

	segmentCapacity     int
	compactionThreshold float64

	dataDir   string
	blobStore blobstore.Store

	walEnabled bool

	logger  *Logger
	metrics MetricsCollector
}

// Option configures the engine returned by New.
type Option func(*options)

// WithM sets the per-layer neighbor count (spec §4.2 M). Default 16.
func WithM(m int) Option {
	return func(o *options) { o.m = m }
}

// WithEFConstruction sets the insert-time beam width. Default 200.
func WithEFConstruction(ef int) Option {
	return func(o *options) { o.efConstruction = ef }
}

// WithEFSearch sets the default query-time beam width. Default 50.
func WithEFSearch(ef int) Option {
	return func(o *options) { o.efSearch = ef }
}

// WithSeed sets the deterministic level-sampling seed. Default 1.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithDistance overrides the distance primitive (C1). Default
// distance.SquaredL2.
func WithDistance(d distance.Func) Option {
	return func(o *options) { o.distance = d }
}

// WithSegmentCapacity sets how many rows an active segment holds before it
// seals (spec §4.3). Default 1000.
func WithSegmentCapacity(n int) Option {
	return func(o *options) { o.segmentCapacity = n }
}

// WithCompactionThreshold sets the tombstone ratio at or above which a
// segment is eligible for compaction (spec §4.5). Default 0.3.
func WithCompactionThreshold(ratio float64) Option {
	return func(o *options) { o.compactionThreshold = ratio }
}

// WithDataDir sets the directory sealed segments, the snapshot log, and the
// write-ahead log are written under. Default "./data".
func WithDataDir(dir string) Option {
	return func(o *options) { o.dataDir = dir }
}

// WithBlobStore overrides the blob backend segments are persisted to.
// Default is a LocalStore rooted at the "segments" subdirectory of the
// configured data directory.
func WithBlobStore(store blobstore.Store) Option {
	return func(o *options) { o.blobStore = store }
}

// WithWAL enables or disables the write-ahead log that covers the active
// segment between snapshots (spec §9). Default true.
func WithWAL(enabled bool) Option {
	return func(o *options) { o.walEnabled = enabled }
}

// WithLogger sets the structured logger used for every engine operation.
// Default is a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector every engine operation reports to.
// Default is a no-op collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// defaultOptions returns spec-mandated defaults (§4.2, §4.3, §4.5).
func defaultOptions() options {
	return options{
		m:                   16,
		efConstruction:      200,
		efSearch:            50,
		seed:                1,
		distance:            distance.SquaredL2,
		segmentCapacity:     1000,
		compactionThreshold: 0.3,
		dataDir:             "./data",
		walEnabled:          true,
		logger:              NoopLogger(),
		metrics:             NoopMetricsCollector{},
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}
