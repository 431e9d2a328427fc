package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdwatch/internal/logger"
)

func newTestStore(t *testing.T, dir string) *UploadStore {
	t.Helper()

	store, err := NewUploadStore(dir, 1, logger.New(t.TempDir()))
	require.NoError(t, err)
	return store
}

func TestUploadStore_SaveAndPathFor(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	path, err := store.Save(1, strings.NewReader("fake video bytes"))
	require.NoError(t, err)
	assert.Equal(t, path, store.PathFor(1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(data))

	assert.Empty(t, store.PathFor(2))
}

func TestUploadStore_ReplaceRemovesPreviousUpload(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	first, err := store.Save(1, strings.NewReader("first"))
	require.NoError(t, err)
	second, err := store.Save(1, strings.NewReader("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, store.PathFor(1))

	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err))
}

func TestUploadStore_UsersKeepSeparateUploads(t *testing.T) {
	store := newTestStore(t, t.TempDir())

	pathA, err := store.Save(1, strings.NewReader("a"))
	require.NoError(t, err)
	pathB, err := store.Save(2, strings.NewReader("b"))
	require.NoError(t, err)

	assert.Equal(t, pathA, store.PathFor(1))
	assert.Equal(t, pathB, store.PathFor(2))
}

func TestUploadStore_ReindexOnStartup(t *testing.T) {
	dir := t.TempDir()
	first := newTestStore(t, dir)

	path, err := first.Save(7, strings.NewReader("persisted"))
	require.NoError(t, err)

	// A stray file that doesn't match the naming scheme is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	second := newTestStore(t, dir)
	assert.Equal(t, path, second.PathFor(7))
	assert.Empty(t, second.PathFor(1))
}
