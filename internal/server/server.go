// Package server is the HTTP surface of the celebration page: the page
// itself, its JSON API, media streaming and the live-update socket.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"birthday-app/internal/albums"
	"birthday-app/internal/celebration"
	"birthday-app/internal/config"
	"birthday-app/internal/media"
	"birthday-app/internal/messages"
	"birthday-app/internal/metrics"
	"birthday-app/internal/models"
	"birthday-app/internal/storage"
	"birthday-app/internal/websocket"
	"birthday-app/web"
)

// Dependencies is everything the handlers call into.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	KV          storage.KV
	Albums      *albums.Store
	Messages    *messages.Board
	Hearts      *messages.Hearts
	Media       *media.Service
	Coordinator *celebration.Coordinator
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Server serves the page, the JSON API, media and the websocket.
type Server struct {
	cfg    config.Config
	log    *zap.Logger
	kv     storage.KV
	albums *albums.Store
	board  *messages.Board
	hearts *messages.Hearts
	media  *media.Service
	coord  *celebration.Coordinator
	hub    *websocket.Hub
	m      *metrics.Metrics
	now    func() time.Time
	target time.Time
	page   *template.Template
}

// New checks the dependencies and parses the page template.
func New(deps Dependencies) (*Server, error) {
	if deps.Albums == nil || deps.Messages == nil || deps.Hearts == nil ||
		deps.Media == nil || deps.Coordinator == nil || deps.Hub == nil {
		return nil, errors.New("server: missing dependency")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(deps.Hub.ClientCount)
	}

	target, err := deps.Config.Celebration.Target()
	if err != nil {
		return nil, err
	}
	page, err := template.ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Server{
		cfg:    deps.Config,
		log:    deps.Logger,
		kv:     deps.KV,
		albums: deps.Albums,
		board:  deps.Messages,
		hearts: deps.Hearts,
		media:  deps.Media,
		coord:  deps.Coordinator,
		hub:    deps.Hub,
		m:      deps.Metrics,
		now:    deps.Now,
		target: target,
		page:   page,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(s.m.Middleware)

	static, _ := fs.Sub(web.Static, "static")
	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.m.Handler())
	r.Get("/ws", s.hub.ServeWS)

	if dir := s.cfg.HTTP.PublicDir; dir != "" {
		r.NotFound(http.FileServer(http.Dir(dir)).ServeHTTP)
	}

	r.Get(media.URLPrefix+"*", s.handleMedia)
	r.Get(media.ThumbnailPrefix+"*", s.handleThumbnail)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(c.Handler)
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Route("/albums", func(r chi.Router) {
			r.Get("/", s.handleListAlbums)
			r.Post("/", s.handleCreateAlbum)
			r.Post("/select", s.handleSelectAlbum)
			r.Get("/selected", s.handleSelectedAlbum)
			r.Get("/{id}", s.handleGetAlbum)
			r.Put("/{id}", s.handleRenameAlbum)
			r.Delete("/{id}", s.handleDeleteAlbum)
			r.Post("/{id}/media", s.handleAddMedia)
			r.Delete("/{id}/media/{mediaID}", s.handleRemoveMedia)
			r.Patch("/{id}/media/{mediaID}", s.handleSetCaption)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", s.handleListMessages)
			r.Post("/", s.handlePostMessage)
			r.Delete("/", s.handleDeleteAllMessages)
			r.Delete("/{id}", s.handleDeleteMessage)
			r.Post("/{id}/hearts", s.handleHeartBurst)
		})

		r.Get("/countdown", s.handleCountdown)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/effects/confetti", s.handleConfetti)
		r.Post("/effects/blast", s.handleBlast)
		r.Post("/celebrate", s.handleCelebrate)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	return r
}

type pageData struct {
	FriendName string
	AudioSrc   string
	Target     string
	Timeline   []models.TimelineEvent
	MaxAuthor  int
	MaxContent int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cel := s.cfg.Celebration
	data := pageData{
		FriendName: cel.FriendName,
		AudioSrc:   cel.AudioSrc,
		Target:     s.target.Format(time.RFC3339),
		Timeline:   cel.Timeline,
		MaxAuthor:  models.MaxAuthorLength,
		MaxContent: models.MaxContentLength,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error("render page", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.kv != nil {
		if err := s.kv.Ping(r.Context()); err != nil {
			Write(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	Write(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}
