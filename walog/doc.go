// Package walog is an append-only durability log for records landing in the
// active segment (store.activeSegment). Every insert/delete is appended
// here before being applied to the in-memory active segment, so a crash
// between the two can be repaired by replaying the log on restart, ahead of
// the segment/snapshot durability C6/C7 already provide once a segment
// seals.
//
// Entries are framed individually (length-prefixed header + optionally
// LZ4-compressed body) rather than as one continuous compressed stream,
// grounded on the teacher's internal/segment/diskann block-compression
// format — this keeps a torn write at the tail of the file detectable and
// confined to the last entry instead of invalidating the whole log.
package walog
