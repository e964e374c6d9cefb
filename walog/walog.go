package walog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// Op names the kind of mutation a WAL entry records.
type Op byte

const (
	OpInsert Op = 1
	OpDelete Op = 2
)

// Entry is a single durable record of a mutation against the active
// segment.
type Entry struct {
	Op        Op
	ID        uint64
	Embedding []float32 // unused for OpDelete
	Metadata  string    // unused for OpDelete
}

const blockHeaderSize = 8 // uncompressedSize uint32, compressedSize uint32 (0 = stored raw)

var (
	// ErrCorruptEntry is reported by the entry decoder when an entry's
	// contents cannot be parsed. Replay does not return it: it stops at the
	// first such entry without error, treating everything before it as
	// durable.
	ErrCorruptEntry = errors.New("walog: corrupt entry")
)

// WAL is an append-only, LZ4-framed durability log.
type WAL struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if absent) a WAL file at path.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("walog: open: %w", err)
	}
	return &WAL{file: f}, nil
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Append writes e as a new frame and fsyncs before returning, so a
// successful Append means e survives a crash.
func (w *WAL) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload := encodeEntry(e)
	frame := compressBlock(payload)

	if _, err := w.file.Write(frame); err != nil {
		return fmt.Errorf("walog: append: %w", err)
	}
	return w.file.Sync()
}

// Truncate discards all entries, called after the segment they describe has
// been sealed and durably written (spec §9: the WAL only needs to cover the
// still-mutable active segment).
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err := w.file.Seek(0, io.SeekStart)
	return err
}

// Replay reads every entry from the start of the log and invokes fn for
// each, stopping (without error) at the first truncated or corrupt frame,
// which is assumed to be a torn write from an in-progress Append at crash
// time.
func Replay(path string, fn func(Entry) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("walog: replay open: %w", err)
	}
	defer f.Close()

	for {
		header := make([]byte, blockHeaderSize)
		if _, err := io.ReadFull(f, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("walog: replay: %w", err)
		}

		uncompressedSize := binary.LittleEndian.Uint32(header[0:4])
		compressedSize := binary.LittleEndian.Uint32(header[4:8])

		size := uncompressedSize
		if compressedSize != 0 {
			size = compressedSize
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(f, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("walog: replay: %w", err)
		}

		payload := body
		if compressedSize != 0 {
			payload = make([]byte, uncompressedSize)
			n, err := lz4.UncompressBlock(body, payload)
			if err != nil || uint32(n) != uncompressedSize {
				return nil // torn/corrupt tail entry: stop, keep what replayed cleanly
			}
		}

		entry, err := decodeEntry(payload)
		if err != nil {
			return nil
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

// compressBlock frames payload the way the teacher's diskann block
// compressor does: an 8-byte header (uncompressed size, compressed size —
// zero means stored raw) followed by the block.
func compressBlock(payload []byte) []byte {
	bound := lz4.CompressBlockBound(len(payload))
	compressed := make([]byte, bound)

	n, err := lz4.CompressBlock(payload, compressed, nil)
	if err != nil || n == 0 || n >= len(payload) {
		frame := make([]byte, blockHeaderSize+len(payload))
		binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
		binary.LittleEndian.PutUint32(frame[4:8], 0)
		copy(frame[blockHeaderSize:], payload)
		return frame
	}

	frame := make([]byte, blockHeaderSize+n)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(n))
	copy(frame[blockHeaderSize:], compressed[:n])
	return frame
}

func encodeEntry(e Entry) []byte {
	metaBytes := []byte(e.Metadata)
	size := 1 + 8 + 4 + len(e.Embedding)*4 + 4 + len(metaBytes)
	buf := make([]byte, size)

	buf[0] = byte(e.Op)
	binary.LittleEndian.PutUint64(buf[1:9], e.ID)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(e.Embedding)))

	off := 13
	for _, f := range e.Embedding {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
		off += 4
	}

	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(metaBytes)))
	off += 4
	copy(buf[off:], metaBytes)

	return buf
}

func decodeEntry(buf []byte) (Entry, error) {
	if len(buf) < 13 {
		return Entry{}, ErrCorruptEntry
	}
	e := Entry{Op: Op(buf[0]), ID: binary.LittleEndian.Uint64(buf[1:9])}
	dim := int(binary.LittleEndian.Uint32(buf[9:13]))

	off := 13
	if len(buf) < off+dim*4+4 {
		return Entry{}, ErrCorruptEntry
	}
	e.Embedding = make([]float32, dim)
	for i := range e.Embedding {
		e.Embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}

	metaLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if len(buf) < off+metaLen {
		return Entry{}, ErrCorruptEntry
	}
	e.Metadata = string(buf[off : off+metaLen])

	return e, nil
}
