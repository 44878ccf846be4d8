package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Storage.Driver)
	require.Equal(t, "Trisha", cfg.Celebration.FriendName)
	require.Equal(t, "/Birthday.mp3", cfg.Celebration.AudioSrc)
	require.Len(t, cfg.Celebration.Timeline, 4)
	require.Len(t, cfg.Celebration.SeedMessages, 4)

	target, err := cfg.Celebration.Target()
	require.NoError(t, err)
	require.Equal(t, time.May, target.Month())
	require.Equal(t, 28, target.Day())
}

func TestTargetIsUTCMidnight(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("UTC+14", 14*60*60)
	t.Cleanup(func() { time.Local = prev })

	target, err := CelebrationConfig{BirthdayDate: "2025-05-28"}.Target()
	require.NoError(t, err)
	require.Equal(t, time.UTC, target.Location())
	require.True(t, time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC).Equal(target))

	_, err = CelebrationConfig{BirthdayDate: "28/05/2025"}.Target()
	require.Error(t, err)
}

func TestLoadUsesYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
storage:
  driver: redis
  redis:
    addr: cache:6379
celebration:
  friend_name: Sam
  birthday_date: "2026-01-02"
  timeline:
    - date: "2020"
      title: First trip
      description: Lisbon
      image_src: /lisbon.jpg
  seed_messages:
    - author: Dad
      content: Happy birthday!
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "redis", cfg.Storage.Driver)
	require.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	require.Equal(t, "birthday:", cfg.Storage.Redis.Prefix, "unset keys keep defaults")
	require.Equal(t, "Sam", cfg.Celebration.FriendName)
	require.Len(t, cfg.Celebration.Timeline, 1)
	require.Equal(t, "/lisbon.jpg", cfg.Celebration.Timeline[0].ImageSrc)

	seeds := cfg.Celebration.Seeds()
	require.Len(t, seeds, 1)
	require.Equal(t, int64(1), seeds[0].ID)
	require.Equal(t, "Dad", seeds[0].Author)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("HTTP_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("FRIEND_NAME", "Robin")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, "Robin", cfg.Celebration.FriendName)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := map[string]string{
		"STORAGE_DRIVER":   "postgres",
		"BLOBS_DRIVER":     "ftp",
		"BIRTHDAY_DATE":    "28/05/2025",
		"UPLOAD_MAX_BYTES": "lots",
		"S3_USE_SSL":       "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, os.Unsetenv("AUDIO_SRC"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nAUDIO_SRC=/song.mp3\n"), 0o600))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "/song.mp3", cfg.Celebration.AudioSrc)
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_CORS_ORIGINS",
		"PUBLIC_DIR",
		"LOG_LEVEL",
		"STORAGE_DRIVER",
		"SQLITE_PATH",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_PREFIX",
		"BLOBS_DRIVER",
		"BLOBS_DIR",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"UPLOAD_MAX_BYTES",
		"FRIEND_NAME",
		"BIRTHDAY_DATE",
		"AUDIO_SRC",
	} {
		t.Setenv(key, "")
	}
}
