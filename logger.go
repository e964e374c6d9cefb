package annstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with per-operation helpers so call sites log
// consistent fields instead of hand-rolling them at each call.
type Logger struct {
	*slog.Logger
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to stderr
// at the given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that writes human-readable logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards everything written to it.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "id", id, "dimension", dimension, "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "id", id, "dimension", dimension)
}

// LogBatchInsert logs a batch insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch insert completed with failures", "total", count, "failed", failed, "success", count-failed)
		return
	}
	l.InfoContext(ctx, "batch insert completed", "count", count)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", resultsFound)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id uint64, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "id", id, "found", found)
}

// LogCompaction logs a compaction pass.
func (l *Logger) LogCompaction(ctx context.Context, merged bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compaction failed", "error", err)
		return
	}
	l.InfoContext(ctx, "compaction completed", "merged", merged)
}

// LogSnapshot logs a snapshot commit.
func (l *Logger) LogSnapshot(ctx context.Context, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed", "error", err)
		return
	}
	l.InfoContext(ctx, "snapshot committed", "segments", segments)
}
