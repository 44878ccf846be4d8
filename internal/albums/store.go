// Package albums owns the album list and the media each album contains.
// Every mutation is written through to the key-value store before it
// becomes visible.
package albums

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"birthday-app/internal/ids"
	"birthday-app/internal/models"
	"birthday-app/internal/storage"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrAlbumNotFound = errors.New("album not found")
	ErrMediaNotFound = errors.New("media item not found")
)

// Change ops reported to OnChange listeners.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRename  = "rename"
	OpAdd     = "media.add"
	OpRemove  = "media.remove"
	OpCaption = "media.caption"
	OpSelect  = "select"
	OpReplace = "replace"
)

// Store is the album collection. Reads return copies; writes go through
// commitLocked so the key-value store never lags the in-memory list.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	ids      *ids.Generator
	objects  Objects
	log      *zap.Logger
	albums   []models.Album
	selected *int64
	onChange []func(op string)
}

// NewStore builds an empty store. Call Load to pick up persisted albums.
func NewStore(kv storage.KV, gen *ids.Generator, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if gen == nil {
		gen = ids.NewGenerator()
	}
	return &Store{
		kv:     kv,
		ids:    gen,
		log:    log,
		albums: []models.Album{},
	}
}

// AttachObjects wires the store that keeps uploaded bytes. Without it
// AddMedia fails and removals only drop references.
func (s *Store) AttachObjects(objects Objects) {
	s.mu.Lock()
	s.objects = objects
	s.mu.Unlock()
}

// OnChange registers a listener called after every committed mutation.
func (s *Store) OnChange(fn func(op string)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Load replaces the in-memory list with what is persisted. A missing key
// yields an empty list; an unreadable value is logged and treated the same.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, storage.AlbumsKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load albums: %w", err)
	}

	loaded := []models.Album{}
	if err == nil {
		if jsonErr := json.Unmarshal(raw, &loaded); jsonErr != nil {
			s.log.Warn("stored albums are unreadable, starting empty", zap.Error(jsonErr))
			loaded = []models.Album{}
		}
	}

	for i := range loaded {
		if loaded[i].MediaItems == nil {
			loaded[i].MediaItems = []models.MediaItem{}
		}
		loaded[i].SyncNames()
		s.ids.Observe(loaded[i].ID)
		for _, item := range loaded[i].MediaItems {
			s.ids.Observe(item.ID)
		}
	}

	s.mu.Lock()
	s.albums = loaded
	s.selected = nil
	s.mu.Unlock()

	s.log.Info("albums loaded", zap.Int("count", len(loaded)))
	return nil
}

// List returns a copy of every album in display order.
func (s *Store) List() []models.Album {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAlbums(s.albums)
}

// Get returns a copy of one album.
func (s *Store) Get(id int64) (models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Album{}, ErrAlbumNotFound
	}
	return s.albums[i].Clone(), nil
}

// CreateAlbum appends an empty album. Blank names are rejected without
// touching storage.
func (s *Store) CreateAlbum(ctx context.Context, name string) (models.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Album{}, fmt.Errorf("%w: album name required", ErrValidation)
	}

	s.mu.Lock()
	album := models.Album{
		ID:         s.ids.Next(),
		Name:       name,
		MediaItems: []models.MediaItem{},
	}
	next := append(models.CloneAlbums(s.albums), album)
	err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return models.Album{}, err
	}

	s.notify(OpCreate)
	return album.Clone(), nil
}

// SelectAlbum sets which album is open. nil returns to the album list.
func (s *Store) SelectAlbum(id *int64) error {
	s.mu.Lock()
	if id == nil {
		s.selected = nil
	} else {
		if s.indexLocked(*id) < 0 {
			s.mu.Unlock()
			return ErrAlbumNotFound
		}
		v := *id
		s.selected = &v
	}
	s.mu.Unlock()

	s.notify(OpSelect)
	return nil
}

// Selected returns the open album, if any.
func (s *Store) Selected() (models.Album, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Album{}, false
	}
	i := s.indexLocked(*s.selected)
	if i < 0 {
		return models.Album{}, false
	}
	return s.albums[i].Clone(), true
}

// UpdateAlbum replaces the album with the same id by full value. Bytes
// behind items it no longer holds are released unless another item still
// points at them.
func (s *Store) UpdateAlbum(ctx context.Context, album models.Album) (models.Album, error) {
	return s.update(ctx, album.ID, OpUpdate, func(a *models.Album) error {
		*a = album.Clone()
		return nil
	})
}

// update runs edit against a copy of the album and commits the result
// through updateAlbumLocked. Every single-album mutation goes through here.
func (s *Store) update(ctx context.Context, albumID int64, op string, edit func(*models.Album) error) (models.Album, error) {
	s.mu.Lock()
	i := s.indexLocked(albumID)
	if i < 0 {
		s.mu.Unlock()
		return models.Album{}, ErrAlbumNotFound
	}
	album := s.albums[i].Clone()
	if err := edit(&album); err != nil {
		s.mu.Unlock()
		return models.Album{}, err
	}
	album.ID = albumID
	committed, dropped, err := s.updateAlbumLocked(ctx, i, album)
	objects := s.objects
	s.mu.Unlock()
	if err != nil {
		return models.Album{}, err
	}

	s.release(ctx, objects, dropped)
	s.notify(op)
	return committed, nil
}

// updateAlbumLocked validates album against the rest of the collection,
// writes it at index i and returns the items whose bytes nothing
// references any more.
func (s *Store) updateAlbumLocked(ctx context.Context, i int, album models.Album) (models.Album, []models.MediaItem, error) {
	album = album.Clone()
	album.Name = strings.TrimSpace(album.Name)
	album.SyncNames()

	next := models.CloneAlbums(s.albums)
	next[i] = album
	if err := Validate(next); err != nil {
		return models.Album{}, nil, err
	}
	for _, item := range album.MediaItems {
		s.ids.Observe(item.ID)
	}
	dropped := orphaned(s.albums, next)
	if err := s.commitLocked(ctx, next); err != nil {
		return models.Album{}, nil, err
	}
	return album.Clone(), dropped, nil
}

// DeleteAlbum removes the album and everything in it. If it was the open
// album the selection is cleared.
func (s *Store) DeleteAlbum(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrAlbumNotFound
	}
	removed := s.albums[i].Clone()
	next := make([]models.Album, 0, len(s.albums)-1)
	next = append(next, models.CloneAlbums(s.albums[:i])...)
	next = append(next, models.CloneAlbums(s.albums[i+1:])...)
	dropped := orphaned(s.albums, next)
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selected != nil && *s.selected == id {
		s.selected = nil
	}
	objects := s.objects
	s.mu.Unlock()

	s.release(ctx, objects, dropped)
	s.log.Info("album deleted",
		zap.Int64("album_id", id),
		zap.Int("media_items", len(removed.MediaItems)))
	s.notify(OpDelete)
	return nil
}

// Replace swaps the whole collection, used by import. The incoming list is
// checked with Validate before anything is written.
func (s *Store) Replace(ctx context.Context, albums []models.Album) error {
	next := models.CloneAlbums(albums)
	for i := range next {
		next[i].Name = strings.TrimSpace(next[i].Name)
		next[i].SyncNames()
	}
	if err := Validate(next); err != nil {
		return err
	}
	for _, a := range next {
		s.ids.Observe(a.ID)
		for _, item := range a.MediaItems {
			s.ids.Observe(item.ID)
		}
	}

	s.mu.Lock()
	dropped := orphaned(s.albums, next)
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.selected = nil
	objects := s.objects
	s.mu.Unlock()

	s.release(ctx, objects, dropped)
	s.notify(OpReplace)
	return nil
}

// Validate checks a whole collection: every album needs a name and an id,
// and album ids and media ids must each be unique across the list.
func Validate(albums []models.Album) error {
	albumIDs := make(map[int64]bool, len(albums))
	mediaIDs := make(map[int64]bool)
	for _, a := range albums {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: album name required", ErrValidation)
		}
		if a.ID == 0 || albumIDs[a.ID] {
			return fmt.Errorf("%w: duplicate or missing album id %d", ErrValidation, a.ID)
		}
		albumIDs[a.ID] = true
		for _, item := range a.MediaItems {
			if item.ID == 0 || mediaIDs[item.ID] {
				return fmt.Errorf("%w: duplicate or missing media id %d", ErrValidation, item.ID)
			}
			mediaIDs[item.ID] = true
		}
	}
	return nil
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.albums {
		if s.albums[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked persists next and only then makes it the live list.
func (s *Store) commitLocked(ctx context.Context, next []models.Album) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode albums: %w", err)
	}
	if err := s.kv.Set(ctx, storage.AlbumsKey, data); err != nil {
		return fmt.Errorf("persist albums: %w", err)
	}
	s.albums = next
	return nil
}

func (s *Store) notify(op string) {
	s.mu.Lock()
	listeners := append([]func(string){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(op)
	}
}

func (s *Store) release(ctx context.Context, objects Objects, items []models.MediaItem) {
	if objects == nil {
		return
	}
	for _, item := range items {
		if err := objects.Release(ctx, item.Src); err != nil {
			s.log.Warn("release media object",
				zap.Int64("media_id", item.ID),
				zap.String("src", item.Src),
				zap.Error(err))
		}
	}
}

// orphaned returns one item for every src that before references and after
// does not. Items sharing a src keep the bytes alive for each other.
func orphaned(before, after []models.Album) []models.MediaItem {
	live := make(map[string]bool)
	for _, a := range after {
		for _, it := range a.MediaItems {
			live[it.Src] = true
		}
	}
	var out []models.MediaItem
	for _, a := range before {
		for _, it := range a.MediaItems {
			if live[it.Src] {
				continue
			}
			live[it.Src] = true
			out = append(out, it)
		}
	}
	return out
}
