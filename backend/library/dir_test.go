package library

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func TestDirCreate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")
	lib, err := NewDir(root)
	require.NoError(t, err)

	data := jpegBytes(t, 30, 20)
	asset, err := lib.Create(context.Background(), data)
	require.NoError(t, err)

	require.NotEmpty(t, asset.ID)
	require.Equal(t, filepath.Join(root, asset.ID+".jpg"), asset.Path)
	require.Equal(t, "image/jpeg", asset.ContentType)
	require.Equal(t, int64(len(data)), asset.SizeBytes)
	require.Equal(t, 30, asset.Width)
	require.Equal(t, 20, asset.Height)
	require.False(t, asset.CreatedAt.IsZero())

	onDisk, err := os.ReadFile(asset.Path)
	require.NoError(t, err)
	require.Equal(t, data, onDisk)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestDirCreateDistinctAssets(t *testing.T) {
	lib, err := NewDir(t.TempDir())
	require.NoError(t, err)

	data := jpegBytes(t, 4, 4)
	a, err := lib.Create(context.Background(), data)
	require.NoError(t, err)
	b, err := lib.Create(context.Background(), data)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	require.NotEqual(t, a.Path, b.Path)
}

func TestDirCreateRejectsGarbage(t *testing.T) {
	root := t.TempDir()
	lib, err := NewDir(root)
	require.NoError(t, err)

	_, err = lib.Create(context.Background(), []byte("not a jpeg"))
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}
