package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"birthday-app/internal/albums"
	"birthday-app/internal/media"
	"birthday-app/internal/models"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// mediaView is a media item as the page receives it, with the route of its
// preview image.
type mediaView struct {
	models.MediaItem
	Thumbnail string `json:"thumbnail"`
}

type albumView struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	MediaItems []mediaView `json:"mediaItems"`
}

func viewItems(items []models.MediaItem) []mediaView {
	out := make([]mediaView, len(items))
	for i, item := range items {
		out[i] = viewItem(item)
	}
	return out
}

func viewItem(item models.MediaItem) mediaView {
	return mediaView{MediaItem: item, Thumbnail: media.ThumbnailURL(item.Src)}
}

func viewAlbum(a models.Album) albumView {
	return albumView{ID: a.ID, Name: a.Name, MediaItems: viewItems(a.MediaItems)}
}

type albumRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	list := s.albums.List()
	out := make([]albumView, len(list))
	for i, a := range list {
		out[i] = viewAlbum(a)
	}
	Write(w, http.StatusOK, out)
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	album, err := s.albums.CreateAlbum(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusCreated, viewAlbum(album))
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	album, err := s.albums.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusOK, viewAlbum(album))
}

func (s *Server) handleRenameAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req albumRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	album, err := s.albums.RenameAlbum(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusOK, viewAlbum(album))
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.albums.DeleteAlbum(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectRequest struct {
	ID *int64 `json:"id"`
}

func (s *Server) handleSelectAlbum(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.albums.SelectAlbum(req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleSelectedAlbum(w, r)
}

type selectedResponse struct {
	Album *albumView `json:"album"`
}

func (s *Server) handleSelectedAlbum(w http.ResponseWriter, r *http.Request) {
	var resp selectedResponse
	if album, ok := s.albums.Selected(); ok {
		view := viewAlbum(album)
		resp.Album = &view
	}
	Write(w, http.StatusOK, resp)
}

func (s *Server) handleAddMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.writeError(w, r, err)
			return
		}
		writeBadRequest(w, "expected a multipart form with files")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]albums.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		defer f.Close()
		files = append(files, albums.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	items, err := s.albums.AddMedia(r.Context(), id, files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusCreated, viewItems(items))
}

func (s *Server) handleRemoveMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	mediaID, err := pathID(r, "mediaID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.albums.RemoveMedia(r.Context(), id, mediaID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type captionRequest struct {
	Caption string `json:"caption"`
}

func (s *Server) handleSetCaption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	mediaID, err := pathID(r, "mediaID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req captionRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	item, err := s.albums.SetCaption(r.Context(), id, mediaID, req.Caption)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusOK, viewItem(item))
}
