package albums

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"birthday-app/internal/models"
)

func TestAddMediaClassifiesAndTags(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "Trip")

	items, err := s.AddMedia(ctx, a.ID, []File{
		imageFile("beach.day.jpg"),
		{Name: "clip.mp4", ContentType: "video/mp4"},
		{Name: "mystery", ContentType: ""},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, models.MediaImage, items[0].Type)
	require.Equal(t, "beach", items[0].Caption)
	require.Equal(t, "beach.day.jpg", items[0].Alt)
	require.Equal(t, models.MediaVideo, items[1].Type)
	require.Equal(t, "clip", items[1].Caption)
	require.Equal(t, models.MediaImage, items[2].Type)

	seen := map[int64]bool{}
	for _, it := range items {
		require.Equal(t, "Trip", it.AlbumName)
		require.False(t, seen[it.ID])
		seen[it.ID] = true
	}

	got, _ := s.Get(a.ID)
	require.Equal(t, items, got.MediaItems)
	require.Equal(t, s.List(), persisted(t, kv))
}

func TestAddMediaIsOneBatch(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "Trip")
	before := kv.sets

	_, err := s.AddMedia(ctx, a.ID, []File{imageFile("1.jpg"), imageFile("2.jpg"), imageFile("3.jpg")})
	require.NoError(t, err)
	require.Equal(t, before+1, kv.sets)
}

func TestAddMediaErrors(t *testing.T) {
	s, _, objs := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "Trip")

	_, err := s.AddMedia(ctx, a.ID, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.AddMedia(ctx, 12345, []File{imageFile("x.jpg")})
	require.ErrorIs(t, err, ErrAlbumNotFound)

	objs.failOn = "bad.jpg"
	_, err = s.AddMedia(ctx, a.ID, []File{imageFile("good.jpg"), imageFile("bad.jpg")})
	require.Error(t, err)
	require.Len(t, objs.released, 1, "already saved bytes are released on failure")

	got, _ := s.Get(a.ID)
	require.Empty(t, got.MediaItems)
}

func TestAddMediaWithoutObjectStore(t *testing.T) {
	s := NewStore(&countingKV{MemoryKV: nil}, nil, nil)
	_, err := s.AddMedia(context.Background(), 1, []File{imageFile("x.jpg")})
	require.Error(t, err)
}

func TestRemoveMedia(t *testing.T) {
	s, kv, objs := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "Trip")
	items, _ := s.AddMedia(ctx, a.ID, []File{imageFile("1.jpg"), imageFile("2.jpg"), imageFile("3.jpg")})

	require.NoError(t, s.RemoveMedia(ctx, a.ID, items[1].ID))
	got, _ := s.Get(a.ID)
	require.Equal(t, []models.MediaItem{items[0], items[2]}, got.MediaItems)
	require.Equal(t, []string{items[1].Src}, objs.released)
	require.Equal(t, s.List(), persisted(t, kv))

	require.ErrorIs(t, s.RemoveMedia(ctx, a.ID, items[1].ID), ErrMediaNotFound)
	require.ErrorIs(t, s.RemoveMedia(ctx, 999, items[0].ID), ErrAlbumNotFound)
}

func TestRenameAlbumPropagatesOnlyToItsItems(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "A")
	b, _ := s.CreateAlbum(ctx, "B")
	_, _ = s.AddMedia(ctx, a.ID, []File{imageFile("1.jpg"), imageFile("2.jpg")})
	_, _ = s.AddMedia(ctx, b.ID, []File{imageFile("3.jpg")})

	_, err := s.RenameAlbum(ctx, a.ID, "  ")
	require.ErrorIs(t, err, ErrValidation)

	renamed, err := s.RenameAlbum(ctx, a.ID, "A prime")
	require.NoError(t, err)
	require.Equal(t, "A prime", renamed.Name)
	for _, it := range renamed.MediaItems {
		require.Equal(t, "A prime", it.AlbumName)
	}

	other, _ := s.Get(b.ID)
	require.Equal(t, "B", other.MediaItems[0].AlbumName)
	require.Equal(t, s.List(), persisted(t, kv))
}

func TestSetCaption(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateAlbum(ctx, "Trip")
	items, _ := s.AddMedia(ctx, a.ID, []File{imageFile("1.jpg")})

	item, err := s.SetCaption(ctx, a.ID, items[0].ID, " sunset ")
	require.NoError(t, err)
	require.Equal(t, "sunset", item.Caption)

	_, err = s.SetCaption(ctx, a.ID, 1, "x")
	require.ErrorIs(t, err, ErrMediaNotFound)
}

func TestTripScenario(t *testing.T) {
	s, kv, _ := newTestStore(t)
	ctx := context.Background()

	trip, err := s.CreateAlbum(ctx, "Trip")
	require.NoError(t, err)
	_, err = s.AddMedia(ctx, trip.ID, []File{imageFile("a.jpg"), imageFile("b.png")})
	require.NoError(t, err)

	renamed, err := s.RenameAlbum(ctx, trip.ID, "Trip 2024")
	require.NoError(t, err)
	require.Len(t, renamed.MediaItems, 2)
	for _, it := range renamed.MediaItems {
		require.Equal(t, "Trip 2024", it.AlbumName)
	}

	require.NoError(t, s.DeleteAlbum(ctx, trip.ID))
	require.Empty(t, s.List())
	require.Empty(t, persisted(t, kv))
	_, err = s.Get(trip.ID)
	require.ErrorIs(t, err, ErrAlbumNotFound)
}
