// Package blobstore abstracts where sealed segment files (C6) physically
// live. The store coordinator writes through a Store so that a segment can
// be persisted to the local data_dir (the default, and the only backend the
// spec requires) or mirrored to a remote object store for off-process
// durability, without either concern leaking into the store package.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errors.New("blobstore: not found")

// Store is an abstraction over a place segment files can be written and
// read back from.
type Store interface {
	// Create opens name for writing, truncating any prior content.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// Open opens name for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes name. Removing a name that does not exist is not an error.
	Remove(ctx context.Context, name string) error
}
