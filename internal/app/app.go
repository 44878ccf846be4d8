// Package app wires storage, the stores, the live-update hub and the HTTP
// server into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"birthday-app/internal/albums"
	"birthday-app/internal/celebration"
	"birthday-app/internal/config"
	"birthday-app/internal/ids"
	"birthday-app/internal/media"
	"birthday-app/internal/messages"
	"birthday-app/internal/metrics"
	"birthday-app/internal/server"
	"birthday-app/internal/storage"
	"birthday-app/internal/websocket"
)

// App owns the storage handles, the hub and the HTTP server.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	kv      storage.KV
	hub     *websocket.Hub
	hearts  *messages.Hearts
	server  *http.Server
	handler http.Handler
}

// New opens storage, loads both collections and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	kv, err := OpenKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobs(cfg.Blobs)
	if err != nil {
		kv.Close()
		return nil, err
	}

	gen := ids.NewGenerator()
	albumStore := albums.NewStore(kv, gen, log.Named("albums"))
	board := messages.NewBoard(kv, gen, log.Named("messages"))

	mediaService := media.NewService(blobs, log.Named("media"))
	mediaService.UseThumbnailCache(media.NewThumbnailCache(cfg.Upload.ThumbnailCache))
	albumStore.AttachObjects(mediaService)

	if err := albumStore.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}
	if err := board.Load(ctx, cfg.Celebration.Seeds()); err != nil {
		kv.Close()
		return nil, err
	}

	hub := websocket.NewHub(log.Named("ws"))
	m := metrics.New(hub.ClientCount)
	hearts := messages.NewHearts(nil, nil)
	coord := celebration.NewCoordinator(nil, nil)

	albumStore.OnChange(func(op string) {
		m.Mutation("albums", op)
		hub.Publish(websocket.MsgAlbumsChanged, op, nil)
	})
	board.OnChange(func(op string) {
		m.Mutation("messages", op)
		hub.Publish(websocket.MsgMessagesChanged, op, nil)
	})
	coord.OnCelebrate(func(c celebration.Celebration) {
		m.Celebration()
		hub.Publish(websocket.MsgCelebrate, "", c)
	})
	hub.Handle(websocket.MsgCelebrate, func(*websocket.Message) {
		coord.Celebrate()
	})

	srv, err := server.New(server.Dependencies{
		Config:      cfg,
		Logger:      log.Named("http"),
		KV:          kv,
		Albums:      albumStore,
		Messages:    board,
		Hearts:      hearts,
		Media:       mediaService,
		Coordinator: coord,
		Hub:         hub,
		Metrics:     m,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}
	handler := srv.Handler()

	return &App{
		cfg:    cfg,
		logger: log,
		kv:     kv,
		hub:    hub,
		hearts: hearts,
		server: &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		handler: handler,
	}, nil
}

// Handler returns the full router, used by tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.hub.Run(gctx) })
	g.Go(func() error { return a.hearts.Run(gctx, a.cfg.Celebration.HeartSweep) })
	g.Go(func() error {
		a.logger.Info("http server started", zap.String("addr", a.cfg.HTTP.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops the HTTP server and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	a.logger.Info("http server stopped")
	return errors.Join(errs...)
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.kv.Close()
}

// OpenKV connects the configured key-value backend and checks it answers.
func OpenKV(ctx context.Context, cfg config.StorageConfig) (storage.KV, error) {
	var kv storage.KV
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err := storage.InitDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		kv = db
	case "redis":
		client := storage.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		kv = storage.NewRedisKV(client, cfg.Redis.Prefix)
	case "memory":
		kv = storage.NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if err := kv.Ping(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("ping %s storage: %w", cfg.Driver, err)
	}
	return kv, nil
}

func openBlobs(cfg config.BlobsConfig) (storage.Blobs, error) {
	switch cfg.Driver {
	case "local":
		local, err := storage.NewLocalBlobs(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case "s3":
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Blobs(client, cfg.S3.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown blobs driver %q", cfg.Driver)
	}
}

// Reset removes every persisted collection. Uploaded bytes are left alone.
func Reset(ctx context.Context, kv storage.KV) error {
	for _, key := range []string{storage.AlbumsKey, storage.MessagesKey} {
		if err := kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}
