package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindFromContentType(t *testing.T) {
	cases := map[string]MediaKind{
		"video/mp4":       MediaVideo,
		"VIDEO/webm":      MediaVideo,
		"image/jpeg":      MediaImage,
		"application/pdf": MediaImage,
		"":                MediaImage,
	}
	for ct, want := range cases {
		require.Equal(t, want, KindFromContentType(ct), ct)
	}
}

func TestDefaultCaption(t *testing.T) {
	require.Equal(t, "beach", DefaultCaption("beach.jpg"))
	require.Equal(t, "party", DefaultCaption("party.final.mov"))
	require.Equal(t, "noext", DefaultCaption("noext"))
}

func TestCloneDoesNotAlias(t *testing.T) {
	a := Album{ID: 1, Name: "Trip", MediaItems: []MediaItem{{ID: 10, AlbumName: "Trip"}}}
	c := a.Clone()
	c.MediaItems[0].Caption = "changed"
	require.Empty(t, a.MediaItems[0].Caption)
}

func TestSyncNames(t *testing.T) {
	a := Album{Name: "Trip 2024", MediaItems: []MediaItem{{ID: 1, AlbumName: "Trip"}, {ID: 2}}}
	a.SyncNames()
	for _, it := range a.MediaItems {
		require.Equal(t, "Trip 2024", it.AlbumName)
	}
	require.Equal(t, 1, a.FindMedia(2))
	require.Equal(t, -1, a.FindMedia(3))
}
