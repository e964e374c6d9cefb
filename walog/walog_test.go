package walog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)

	entries := []Entry{
		{Op: OpInsert, ID: 1, Embedding: []float32{1, 2, 3}, Metadata: "a"},
		{Op: OpInsert, ID: 2, Embedding: []float32{4, 5, 6}, Metadata: ""},
		{Op: OpDelete, ID: 1},
	}
	for _, e := range entries {
		require.NoError(t, w.Append(e))
	}
	require.NoError(t, w.Close())

	var replayed []Entry
	require.NoError(t, Replay(path, func(e Entry) error {
		replayed = append(replayed, e)
		return nil
	}))

	require.Len(t, replayed, 3)
	assert.Equal(t, OpInsert, replayed[0].Op)
	assert.Equal(t, uint64(1), replayed[0].ID)
	assert.Equal(t, []float32{1, 2, 3}, replayed[0].Embedding)
	assert.Equal(t, "a", replayed[0].Metadata)
	assert.Equal(t, OpDelete, replayed[2].Op)
}

func TestReplayMissingFileIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.wal")
	called := false
	err := Replay(path, func(Entry) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestTruncateClearsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(Entry{Op: OpInsert, ID: 1, Embedding: []float32{1}}))
	require.NoError(t, w.Truncate())
	require.NoError(t, w.Close())

	var count int
	require.NoError(t, Replay(path, func(Entry) error {
		count++
		return nil
	}))
	assert.Equal(t, 0, count)
}
