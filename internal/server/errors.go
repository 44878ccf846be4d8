package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"birthday-app/internal/albums"
	"birthday-app/internal/celebration"
	"birthday-app/internal/media"
	"birthday-app/internal/messages"
	"birthday-app/internal/storage"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write sends payload as JSON with the given status.
func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	Write(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: msg})
}

// writeError maps domain errors to a status. Anything unrecognised is a 500
// and gets logged; the page keeps working either way.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, albums.ErrValidation), errors.Is(err, messages.ErrValidation):
		Write(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: err.Error()})
	case errors.Is(err, albums.ErrAlbumNotFound):
		Write(w, http.StatusNotFound, APIError{Code: "ALBUM_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, albums.ErrMediaNotFound):
		Write(w, http.StatusNotFound, APIError{Code: "MEDIA_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, messages.ErrMessageNotFound):
		Write(w, http.StatusNotFound, APIError{Code: "MESSAGE_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, media.ErrNotMedia), errors.Is(err, media.ErrNoThumbnail):
		Write(w, http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: "not found"})
	case errors.Is(err, celebration.ErrBlastInProgress):
		Write(w, http.StatusConflict, APIError{Code: "BLAST_IN_PROGRESS", Message: err.Error()})
	case errors.As(err, &maxBytes):
		Write(w, http.StatusRequestEntityTooLarge, APIError{Code: "UPLOAD_TOO_LARGE", Message: "upload exceeds the size limit"})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		Write(w, http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "something went wrong"})
	}
}
