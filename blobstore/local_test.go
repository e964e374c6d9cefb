package blobstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "segments")
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	w, err := s.Create(ctx, "seg-0001.dat")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello segment"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := s.Open(ctx, "seg-0001.dat")
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello segment", string(body))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "does-not-exist.dat")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRemoveMissingIsNotError(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Remove(context.Background(), "nope.dat"))
}
