package server

import (
	"net/http"
	"time"

	"birthday-app/internal/celebration"
)

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusOK, celebration.Countdown(s.now(), s.target))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusOK, s.cfg.Celebration.Timeline)
}

// handleConfetti returns a layout for the page to animate. ?welcome=1 gives
// the longer shower shown when the page opens.
func (s *Server) handleConfetti(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("welcome") != "" {
		Write(w, http.StatusOK, s.coord.Welcome())
		return
	}
	Write(w, http.StatusOK, celebration.Celebration{
		Confetti:      s.coord.Confetti(),
		ConfettiUntil: s.now().Add(celebration.CelebrateConfetti),
	})
}

type blastResponse struct {
	Blast      []celebration.PaperPiece `json:"blast"`
	BlastUntil time.Time                `json:"blastUntil"`
}

func (s *Server) handleBlast(w http.ResponseWriter, r *http.Request) {
	pieces, until, err := s.coord.Blast()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusOK, blastResponse{Blast: pieces, BlastUntil: until})
}

// handleCelebrate fires the effects; open tabs hear about it through the
// coordinator's listeners.
func (s *Server) handleCelebrate(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusOK, s.coord.Celebrate())
}
