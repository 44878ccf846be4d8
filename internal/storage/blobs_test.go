package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	good := []string{"media/abc.jpg", "a.png"}
	for _, k := range good {
		got, err := CleanKey(k)
		require.NoError(t, err, k)
		require.Equal(t, k, got)
	}

	bad := []string{"", "/etc/passwd", "../x", "media/../../x", "a\\b", ".", "media//x"}
	for _, k := range bad {
		_, err := CleanKey(k)
		require.ErrorIs(t, err, ErrInvalidKey, k)
	}
}

func TestLocalBlobsRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs, err := NewLocalBlobs(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, blobs.Put(ctx, "media/one.png", strings.NewReader("png-bytes"), 9, "image/png"))

	rc, obj, err := blobs.Open(ctx, "media/one.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(body))
	require.Equal(t, "image/png", obj.ContentType)
	require.Equal(t, int64(9), obj.Size)

	require.NoError(t, blobs.Delete(ctx, "media/one.png"))
	_, _, err = blobs.Open(ctx, "media/one.png")
	require.ErrorIs(t, err, ErrNotFound)

	// deleting a missing object is a no-op
	require.NoError(t, blobs.Delete(ctx, "media/one.png"))
}

func TestLocalBlobsRejectsEscapes(t *testing.T) {
	blobs, err := NewLocalBlobs(t.TempDir())
	require.NoError(t, err)
	err = blobs.Put(context.Background(), "../evil", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, ErrInvalidKey)
}
