package server

import (
	"fmt"
	"net/http"
	"time"

	"birthday-app/internal/albums"
	"birthday-app/internal/messages"
	"birthday-app/internal/models"
)

const importLimit = 16 << 20

// Snapshot is the export document. Uploaded bytes are referenced by src,
// not embedded.
type Snapshot struct {
	Albums     []models.Album   `json:"albums"`
	Messages   []models.Message `json:"messages"`
	ExportedAt time.Time        `json:"exportedAt"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := Snapshot{
		Albums:     s.albums.List(),
		Messages:   s.board.List(),
		ExportedAt: s.now().UTC(),
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="birthday-%s.json"`, snap.ExportedAt.Format("20060102-150405")))
	Write(w, http.StatusOK, snap)
}

// handleImport replaces both collections. Everything is checked up front so
// a bad document changes nothing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importLimit)
	var snap Snapshot
	if err := decode(r, &snap); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := albums.Validate(snap.Albums); err != nil {
		s.writeError(w, r, err)
		return
	}
	seen := make(map[int64]bool, len(snap.Messages))
	for _, m := range snap.Messages {
		if err := messages.Validate(m.Author, m.Content); err != nil {
			s.writeError(w, r, fmt.Errorf("message %d: %w", m.ID, err))
			return
		}
		if m.ID == 0 || seen[m.ID] {
			s.writeError(w, r, fmt.Errorf("%w: duplicate or missing message id %d", messages.ErrValidation, m.ID))
			return
		}
		seen[m.ID] = true
	}

	if err := s.albums.Replace(r.Context(), snap.Albums); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.board.Replace(r.Context(), snap.Messages); err != nil {
		s.writeError(w, r, err)
		return
	}

	Write(w, http.StatusOK, map[string]int{
		"albums":   len(snap.Albums),
		"messages": len(snap.Messages),
	})
}
