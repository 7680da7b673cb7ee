package imagestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partscope/internal/imagestore"
	"partscope/internal/services"
	"partscope/internal/testsupport"
)

func TestSaveOpenRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := imagestore.New(dir)
	require.NoError(t, err)

	data := testsupport.SmallPNG(t)
	ref, err := store.Save(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref.File, ".png"))
	assert.Equal(t, imagestore.PublicPrefix+ref.File, ref.Path)

	got, err := store.Open(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	byName, err := store.Open(ref.File)
	require.NoError(t, err)
	assert.Equal(t, data, byName)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not linger")

	require.NoError(t, store.Remove(ref.Path))
	require.NoError(t, store.Remove(ref.Path), "second remove is a no-op")
	_, err = store.Open(ref.Path)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestSaveRejectsNonImages(t *testing.T) {
	store, err := imagestore.New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), []byte("definitely not an image"))
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = store.Save(context.Background(), nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestOpenRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := imagestore.New(filepath.Join(dir, "images"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	for _, path := range []string{"../secret.txt", "/inventory/images/../secret.txt", "..", ""} {
		_, err := store.Open(path)
		assert.ErrorIs(t, err, services.ErrValidation, "path %q", path)
	}
}

func TestDecodableReportsFormat(t *testing.T) {
	format, err := imagestore.Decodable(testsupport.SmallPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestDecodableRejectsTruncatedImage(t *testing.T) {
	data := testsupport.PNG(t, 16, 16, 90)
	_, err := imagestore.Decodable(data[:len(data)/2])
	assert.ErrorIs(t, err, services.ErrValidation)
}
