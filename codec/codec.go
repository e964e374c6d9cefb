// Package codec centralizes encoding for the snapshot bookkeeping this
// module persists (store.SnapshotLog). Record metadata is not encoded
// through a Codec; it is stored as raw strings in the segment body.
//
// Codec selection is a breaking-change boundary: change codecs and bytes
// written by an older codec may no longer decode. The snapshot log does not
// record which codec wrote a file.
package codec

import "fmt"

// Codec encodes/decodes values. Implementations must be safe for concurrent
// use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = JSON{}

// MustMarshal panics on marshal failure; useful for paths where the value
// being encoded is known-good (e.g. the engine's own config types).
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
