package models

// Album is a named container of media items.
type Album struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	MediaItems []MediaItem `json:"mediaItems"`
}

// Clone returns a deep copy so callers can't alias the store's slices.
func (a Album) Clone() Album {
	out := a
	out.MediaItems = make([]MediaItem, len(a.MediaItems))
	copy(out.MediaItems, a.MediaItems)
	return out
}

// SyncNames stamps the album name onto every contained item.
func (a *Album) SyncNames() {
	for i := range a.MediaItems {
		a.MediaItems[i].AlbumName = a.Name
	}
}

// FindMedia returns the index of the item with the given id, or -1.
func (a Album) FindMedia(id int64) int {
	for i := range a.MediaItems {
		if a.MediaItems[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneAlbums deep-copies a list of albums.
func CloneAlbums(in []Album) []Album {
	out := make([]Album, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
