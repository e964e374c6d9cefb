package annstore

import "context"

// Close flushes the active segment and releases the engine's open file
// handles. An engine must not be used after Close returns.
func (e *Engine) Close() error {
	if e.wal != nil {
		defer e.wal.Close()
	}
	return e.Flush(context.Background())
}
