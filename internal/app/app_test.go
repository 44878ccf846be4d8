package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"birthday-app/internal/config"
	"birthday-app/internal/models"
	"birthday-app/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "data", "birthday.db")
	cfg.Blobs.Dir = filepath.Join(t.TempDir(), "media")
	return cfg
}

func TestNewSeedsMessagesAndServesAPI(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 4)
	require.Equal(t, "Your Best Friend", msgs[0].Author)
}

func TestStateSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	first.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/albums", strings.NewReader(`{"name":"Trip"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	rec = httptest.NewRecorder()
	second.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/albums", nil))
	var albums []models.Album
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &albums))
	require.Len(t, albums, 1)
	require.Equal(t, "Trip", albums[0].Name)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "memory"
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenKVRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	kv, err := OpenKV(context.Background(), config.StorageConfig{
		Driver: "redis",
		Redis:  config.RedisConfig{Addr: mr.Addr(), Prefix: "bday:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	require.NoError(t, kv.Set(context.Background(), storage.AlbumsKey, []byte("[]")))
	require.True(t, mr.Exists("bday:"+storage.AlbumsKey))
}

func TestOpenKVRejectsUnknownDriver(t *testing.T) {
	_, err := OpenKV(context.Background(), config.StorageConfig{Driver: "etcd"})
	require.Error(t, err)
}

func TestResetRemovesCollections(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, storage.AlbumsKey, []byte("[]")))
	require.NoError(t, kv.Set(ctx, storage.MessagesKey, []byte("[]")))

	require.NoError(t, Reset(ctx, kv))

	_, err := kv.Get(ctx, storage.AlbumsKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = kv.Get(ctx, storage.MessagesKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
