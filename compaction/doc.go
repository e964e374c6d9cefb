// Package compaction implements the compaction/rebuild coordinator (C9):
// merging tombstone-heavy sealed segments into fresh ones, and rebuilding
// the graph from scratch against the store's current live rows.
//
// Background compaction work is bounded and throttled the way the teacher's
// resource.Controller bounds background jobs, using golang.org/x/sync's
// weighted semaphore for concurrency and golang.org/x/time/rate for IO
// throughput. IO is throttled only when Config.IOBytesPerSec is positive;
// otherwise compaction reads run unthrottled.
package compaction
