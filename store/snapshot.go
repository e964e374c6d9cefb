package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atulRanaa/vector-db-book/codec"
)

const (
	snapshotFileName = "SNAPSHOT"
	currentFileName  = "CURRENT"
)

// Snapshot describes which sealed segments exist as of a point in time
// (spec §9 supplement: the graph itself is never persisted and is always
// rebuilt from segments on restart, but the set of segment files is).
type Snapshot struct {
	ID         SnapshotID  `json:"id"`
	SegmentIDs []SegmentID `json:"segment_ids"`
}

// SnapshotLog persists Snapshots with an atomic temp-file-then-rename
// write, mirroring the teacher's manifest.Store pattern. The CURRENT file
// points at the latest snapshot file so a fresh process can discover it
// without scanning the whole data directory.
type SnapshotLog struct {
	mu    sync.Mutex
	dir   string
	codec codec.Codec
}

// NewSnapshotLog opens (creating if absent) a snapshot log rooted at dir,
// encoding entries with codec.Default.
func NewSnapshotLog(dir string) (*SnapshotLog, error) {
	return NewSnapshotLogWithCodec(dir, codec.Default)
}

// NewSnapshotLogWithCodec is NewSnapshotLog with an explicit codec, so a
// caller can swap the persisted encoding without touching this package.
func NewSnapshotLogWithCodec(dir string, c codec.Codec) (*SnapshotLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SnapshotLog{dir: dir, codec: c}, nil
}

// Load reads the current snapshot, or a zero-value Snapshot if none has
// been committed yet.
func (l *SnapshotLog) Load(_ context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	currentPath := filepath.Join(l.dir, currentFileName)
	name, err := os.ReadFile(currentPath)
	if os.IsNotExist(err) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}

	data, err := os.ReadFile(filepath.Join(l.dir, string(name)))
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := l.codec.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, &ErrCorrupt{Path: string(name), Reason: err.Error()}
	}
	return snap, nil
}

// Commit atomically writes snap as the new current snapshot: write to a temp
// file, fsync, rename over the versioned snapshot file, then repeat for the
// CURRENT pointer (spec supplement 1; grounded on manifest.Store.Save).
func (l *SnapshotLog) Commit(_ context.Context, snap Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	filename := fmt.Sprintf("%s-%08d.json", snapshotFileName, snap.ID)
	if err := l.writeAtomic(filename, snap); err != nil {
		return err
	}
	return l.writeCurrentPointer(filename)
}

func (l *SnapshotLog) writeAtomic(filename string, snap Snapshot) error {
	data, err := l.codec.Marshal(snap)
	if err != nil {
		return err
	}
	return atomicWriteFile(filepath.Join(l.dir, filename), data)
}

func (l *SnapshotLog) writeCurrentPointer(filename string) error {
	return atomicWriteFile(filepath.Join(l.dir, currentFileName), []byte(filename))
}

// atomicWriteFile writes data to path via a temp-file-write, fsync, rename
// sequence so a crash never leaves path partially written.
func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
