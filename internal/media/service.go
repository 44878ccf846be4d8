// Package media stores uploaded photo and video bytes and serves them back,
// with cached JPEG thumbnails for images.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"birthday-app/internal/albums"
	"birthday-app/internal/storage"
)

const (
	// URLPrefix is the route media bytes are served under.
	URLPrefix = "/media/"
	// ThumbnailPrefix is the route thumbnails are served under.
	ThumbnailPrefix = "/thumbnail/"

	keyPrefix = "media/"
)

var ErrNotMedia = errors.New("not a stored media object")

// Service stores uploads in a blob backend and renders their previews.
type Service struct {
	blobs  storage.Blobs
	thumbs *lru.Cache[string, Thumbnail]
	log    *zap.Logger
	newKey func(ext string) string
}

// NewService creates a service with a default thumbnail cache.
func NewService(blobs storage.Blobs, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		blobs:  blobs,
		thumbs: NewThumbnailCache(defaultThumbnailCache),
		log:    log,
		newKey: func(ext string) string {
			return keyPrefix + uuid.NewString() + ext
		},
	}
}

// UseThumbnailCache replaces the default preview cache.
func (s *Service) UseThumbnailCache(c *lru.Cache[string, Thumbnail]) {
	if c != nil {
		s.thumbs = c
	}
}

// Save writes the upload and returns the URL the page should load it from.
func (s *Service) Save(ctx context.Context, f albums.File) (string, error) {
	if f.Body == nil {
		return "", fmt.Errorf("empty upload %q", f.Name)
	}
	contentType := strings.TrimSpace(f.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.newKey(extensionFor(f.Name, contentType))
	if err := s.blobs.Put(ctx, key, f.Body, f.Size, contentType); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	s.log.Debug("media stored", zap.String("key", key), zap.Int64("size", f.Size))
	return URLPrefix + key, nil
}

// Release deletes the bytes behind src. Srcs that don't point at this
// service (seed photos, external links) are ignored.
func (s *Service) Release(ctx context.Context, src string) error {
	key, err := KeyFromSrc(src)
	if err != nil {
		return nil
	}
	s.thumbs.Remove(key)
	if err := s.blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Open streams a stored object.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, storage.Object, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return nil, storage.Object{}, storage.ErrNotFound
	}
	return s.blobs.Open(ctx, key)
}

// KeyFromSrc turns a src issued by Save back into its object key.
func KeyFromSrc(src string) (string, error) {
	if !strings.HasPrefix(src, URLPrefix+keyPrefix) {
		return "", ErrNotMedia
	}
	key, err := storage.CleanKey(strings.TrimPrefix(src, URLPrefix))
	if err != nil {
		return "", ErrNotMedia
	}
	return key, nil
}

// ThumbnailURL maps a media src to its thumbnail route, or returns src
// unchanged for anything not stored here.
func ThumbnailURL(src string) string {
	key, err := KeyFromSrc(src)
	if err != nil {
		return src
	}
	return ThumbnailPrefix + key
}

func extensionFor(fileName, contentType string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext != "" && len(ext) <= 6 && !strings.ContainsAny(ext, `/\ `) {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
