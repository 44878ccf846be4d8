package albums

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"birthday-app/internal/models"
)

// File is one selected upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Objects keeps uploaded bytes and hands back the src the page loads them
// from. Release must ignore srcs it did not issue.
type Objects interface {
	Save(ctx context.Context, f File) (src string, err error)
	Release(ctx context.Context, src string) error
}

// AddMedia stores every file and appends the resulting items to the album
// in one batch.
func (s *Store) AddMedia(ctx context.Context, albumID int64, files []File) ([]models.MediaItem, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files selected", ErrValidation)
	}

	s.mu.Lock()
	objects := s.objects
	exists := s.indexLocked(albumID) >= 0
	s.mu.Unlock()
	if objects == nil {
		return nil, fmt.Errorf("media storage is not configured")
	}
	if !exists {
		return nil, ErrAlbumNotFound
	}

	// bytes are written outside the lock; only the list update is serialized
	items := make([]models.MediaItem, 0, len(files))
	for _, f := range files {
		src, err := objects.Save(ctx, f)
		if err != nil {
			s.release(ctx, objects, items)
			return nil, fmt.Errorf("save %q: %w", f.Name, err)
		}
		items = append(items, models.MediaItem{
			ID:      s.ids.Next(),
			Src:     src,
			Alt:     f.Name,
			Caption: models.DefaultCaption(f.Name),
			Type:    models.KindFromContentType(f.ContentType),
		})
	}

	album, err := s.update(ctx, albumID, OpAdd, func(a *models.Album) error {
		a.MediaItems = append(a.MediaItems, items...)
		return nil
	})
	if err != nil {
		s.release(ctx, objects, items)
		return nil, err
	}
	added := album.MediaItems[len(album.MediaItems)-len(items):]

	s.log.Info("media added",
		zap.Int64("album_id", albumID),
		zap.Int("count", len(added)))
	return added, nil
}

// RemoveMedia drops one item from the album. Its bytes are released unless
// another item shares the src.
func (s *Store) RemoveMedia(ctx context.Context, albumID, mediaID int64) error {
	_, err := s.update(ctx, albumID, OpRemove, func(a *models.Album) error {
		j := a.FindMedia(mediaID)
		if j < 0 {
			return ErrMediaNotFound
		}
		a.MediaItems = append(a.MediaItems[:j:j], a.MediaItems[j+1:]...)
		return nil
	})
	return err
}

// RenameAlbum changes the album name and every contained item's copy of it.
func (s *Store) RenameAlbum(ctx context.Context, albumID int64, newName string) (models.Album, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.Album{}, fmt.Errorf("%w: album name required", ErrValidation)
	}
	return s.update(ctx, albumID, OpRename, func(a *models.Album) error {
		a.Name = newName
		return nil
	})
}

// SetCaption edits one item's caption. An empty caption clears it.
func (s *Store) SetCaption(ctx context.Context, albumID, mediaID int64, caption string) (models.MediaItem, error) {
	album, err := s.update(ctx, albumID, OpCaption, func(a *models.Album) error {
		j := a.FindMedia(mediaID)
		if j < 0 {
			return ErrMediaNotFound
		}
		a.MediaItems[j].Caption = strings.TrimSpace(caption)
		return nil
	})
	if err != nil {
		return models.MediaItem{}, err
	}
	return album.MediaItems[album.FindMedia(mediaID)], nil
}
