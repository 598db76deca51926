package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStoreSaveAndRemove(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), ProfileImagesDir, "avatar.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, ProfileImagesDir+"/"))
	require.True(t, strings.HasSuffix(ref, "_avatar.png"))

	require.NoError(t, store.Remove(context.Background(), ref))
	// Removing an already-removed reference is not an error.
	require.NoError(t, store.Remove(context.Background(), ref))
}

func TestFSStoreSaveWritesBytes(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), EventImagesDir, "poster.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), data)
}

func TestFSStoreRejectsEmptyUpload(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), ProfileImagesDir, "empty.png", nil)
	require.ErrorIs(t, err, ErrEmptyUpload)
}

func TestFSStoreRemoveRejectsTraversal(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Remove(context.Background(), "../outside"))
	require.Error(t, store.Remove(context.Background(), "/etc/passwd"))
}

func TestObjectNamesAreUnique(t *testing.T) {
	first := objectName("poster.jpg")
	second := objectName("poster.jpg")

	require.NotEqual(t, first, second)
}

func TestSafeFilenameStripsHostilePaths(t *testing.T) {
	require.Equal(t, "a-b.png", safeFilename("../../a b.png"))
	require.Equal(t, "image", safeFilename(""))
	require.Equal(t, "passwd", safeFilename("..\\..\\passwd"))
}
