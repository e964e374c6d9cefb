package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Sealed segment files (C6) start with a fixed header naming the exact
// length of a zstd-compressed body (the id column, embedding column, and
// metadata column back to back), followed by that body, followed by an
// uncompressed Roaring-encoded tombstone bitmap. The header/checksum
// framing is grounded on the teacher's vectorstore/columnar FileHeader
// format; the length-prefixed body avoids relying on a streaming zstd
// reader to stop exactly at the frame boundary.
const (
	segmentMagic      uint32 = 0x414E4E30 // "ANN0"
	segmentVersion    uint32 = 1
	segmentHeaderSize        = 32
)

var (
	// ErrInvalidMagic is returned when a segment file does not start with
	// the expected magic number.
	ErrInvalidMagic = errors.New("store: invalid segment magic")
	// ErrUnsupportedVersion is returned when a segment file's version is
	// newer than this build understands.
	ErrUnsupportedVersion = errors.New("store: unsupported segment version")
	// ErrChecksumMismatch is returned when a segment's header checksum does
	// not match its contents.
	ErrChecksumMismatch = errors.New("store: segment checksum mismatch")
)

// segmentHeader is the fixed header at the start of every sealed segment
// file. All multi-byte fields are little-endian.
type segmentHeader struct {
	Magic      uint32
	Version    uint32
	Dimension  uint32
	RowCount   uint32
	SegmentID  uint64
	BodyLength uint32 // length in bytes of the compressed body that follows
	Checksum   uint32 // CRC32 over the preceding bytes
}

func (h *segmentHeader) writeTo(w io.Writer) (int64, error) {
	buf := make([]byte, segmentHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Dimension)
	binary.LittleEndian.PutUint32(buf[12:16], h.RowCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.SegmentID)
	binary.LittleEndian.PutUint32(buf[24:28], h.BodyLength)
	h.Checksum = crc32.ChecksumIEEE(buf[:28])
	binary.LittleEndian.PutUint32(buf[28:32], h.Checksum)
	n, err := w.Write(buf[:32])
	return int64(n), err
}

func (h *segmentHeader) readFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 32)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), err
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Dimension = binary.LittleEndian.Uint32(buf[8:12])
	h.RowCount = binary.LittleEndian.Uint32(buf[12:16])
	h.SegmentID = binary.LittleEndian.Uint64(buf[16:24])
	h.BodyLength = binary.LittleEndian.Uint32(buf[24:28])
	h.Checksum = binary.LittleEndian.Uint32(buf[28:32])

	if h.Magic != segmentMagic {
		return int64(n), ErrInvalidMagic
	}
	if h.Version > segmentVersion {
		return int64(n), ErrUnsupportedVersion
	}
	if crc32.ChecksumIEEE(buf[:28]) != h.Checksum {
		return int64(n), ErrChecksumMismatch
	}
	return int64(n), nil
}

// encodeSegmentBody serializes a segment's id column, embedding column, and
// metadata column into a single uncompressed buffer.
func encodeSegmentBody(seg *SealedSegment) []byte {
	var buf bytes.Buffer

	var scratch [8]byte
	for _, id := range seg.ids {
		binary.LittleEndian.PutUint64(scratch[:], id)
		buf.Write(scratch[:])
	}

	buf.Write(float32SliceToBytes(seg.embeddings))

	for _, md := range seg.metadata {
		b := []byte(md)
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(b)))
		buf.Write(scratch[:4])
		buf.Write(b)
	}

	return buf.Bytes()
}

// decodeSegmentBody parses a buffer produced by encodeSegmentBody.
func decodeSegmentBody(raw []byte, dim, rowCount int) (ids []uint64, embeddings []float32, metadata []string, err error) {
	r := bytes.NewReader(raw)

	ids = make([]uint64, rowCount)
	var scratch [8]byte
	for i := range ids {
		if _, err := io.ReadFull(r, scratch[:]); err != nil {
			return nil, nil, nil, err
		}
		ids[i] = binary.LittleEndian.Uint64(scratch[:])
	}

	embeddings = make([]float32, rowCount*dim)
	embBytes := make([]byte, len(embeddings)*4)
	if _, err := io.ReadFull(r, embBytes); err != nil {
		return nil, nil, nil, err
	}
	for i := range embeddings {
		embeddings[i] = math.Float32frombits(binary.LittleEndian.Uint32(embBytes[i*4:]))
	}

	metadata = make([]string, rowCount)
	for i := range metadata {
		if _, err := io.ReadFull(r, scratch[:4]); err != nil {
			return nil, nil, nil, err
		}
		n := binary.LittleEndian.Uint32(scratch[:4])
		if n == 0 {
			continue
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, nil, nil, err
		}
		metadata[i] = string(b)
	}

	return ids, embeddings, metadata, nil
}

// compressedBodyLength returns the size in bytes the compressed body of seg
// will occupy, so the header can be written before the body itself.
func compressedBodyLength(seg *SealedSegment) (int, []byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, nil, err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(encodeSegmentBody(seg), nil)
	return len(compressed), compressed, nil
}

// readSegmentBody reads exactly bodyLength compressed bytes from r and
// decodes them into a segment's columns.
func readSegmentBody(r io.Reader, dim, rowCount, bodyLength int) (ids []uint64, embeddings []float32, metadata []string, err error) {
	compressed := make([]byte, bodyLength)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, nil, nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	return decodeSegmentBody(raw, dim, rowCount)
}

// float32SliceToBytes encodes a []float32 as little-endian bytes.
func float32SliceToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
