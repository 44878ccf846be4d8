package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"birthday-app/internal/models"
)

const DateLayout = "2006-01-02"

type Config struct {
	Env         string            `yaml:"env"`
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Storage     StorageConfig     `yaml:"storage"`
	Blobs       BlobsConfig       `yaml:"blobs"`
	Upload      UploadConfig      `yaml:"upload"`
	Celebration CelebrationConfig `yaml:"celebration"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	// PublicDir holds the audio track and timeline pictures, served from /.
	PublicDir string `yaml:"public_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	// Driver is one of sqlite, redis or memory.
	Driver     string      `yaml:"driver"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type BlobsConfig struct {
	// Driver is local or s3.
	Driver string   `yaml:"driver"`
	Dir    string   `yaml:"dir"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type UploadConfig struct {
	MaxBytes       int64 `yaml:"max_bytes"`
	ThumbnailCache int   `yaml:"thumbnail_cache"`
}

type CelebrationConfig struct {
	FriendName   string                 `yaml:"friend_name"`
	BirthdayDate string                 `yaml:"birthday_date"`
	AudioSrc     string                 `yaml:"audio_src"`
	HeartSweep   time.Duration          `yaml:"heart_sweep"`
	Timeline     []models.TimelineEvent `yaml:"timeline"`
	SeedMessages []SeedMessage          `yaml:"seed_messages"`
}

// SeedMessage is a wish shown before anyone has posted.
type SeedMessage struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// Default returns the built-in configuration, including the celebration content.
func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			PublicDir:       "./public",
		},
		Log: LogConfig{Level: "info"},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "./data/birthday.db",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "birthday:",
			},
		},
		Blobs: BlobsConfig{
			Driver: "local",
			Dir:    "./data/media",
			S3: S3Config{
				Endpoint: "localhost:9000",
				Bucket:   "birthday-media",
			},
		},
		Upload: UploadConfig{
			MaxBytes:       200 << 20,
			ThumbnailCache: 256,
		},
		Celebration: CelebrationConfig{
			FriendName:   "Trisha",
			BirthdayDate: "2025-05-28",
			AudioSrc:     "/Birthday.mp3",
			HeartSweep:   500 * time.Millisecond,
			Timeline: []models.TimelineEvent{
				{Date: "2025", Title: "How We Met", Description: "In colors Our friendship get started", ImageSrc: "/32 (29) - Copy.jpg"},
				{Date: "2025", Title: "Fairwell", Description: "you gave me a photo frame", ImageSrc: "/27 - Copy.jpg"},
				{Date: "2025", Title: "Fairwell", Description: "Our Bond becomes more stronger", ImageSrc: "/18 - Copy.jpg"},
				{Date: "2025", Title: "Signature Day", Description: "Final day Clg, we me you at the late time in college", ImageSrc: "/16 - Copy.jpg"},
			},
			SeedMessages: []SeedMessage{
				{Author: "Your Best Friend", Content: "Happy birthday to the most amazing person I know! You've been there through thick and thin, and I'm so grateful for your friendship. Here's to many more years of adventures together!"},
				{Author: "Mom", Content: "Happy birthday sweetie! We're so proud of the wonderful person you've become. Enjoy your special day!"},
				{Author: "Alex", Content: "HBD! Remember that time we got lost on the way to the concert? Good times! Have an awesome birthday!"},
				{Author: "The Whole Gang", Content: "HAPPY BIRTHDAY!! We all love you so much and can't wait to celebrate with you this weekend!"},
			},
		},
	}
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load layers the YAML file and then the environment over Default, and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Blobs.Driver {
	case "local":
		if c.Blobs.Dir == "" {
			return errors.New("blobs.dir is required for the local driver")
		}
	case "s3":
		if c.Blobs.S3.Endpoint == "" || c.Blobs.S3.Bucket == "" {
			return errors.New("blobs.s3.endpoint and blobs.s3.bucket are required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blobs driver %q", c.Blobs.Driver)
	}

	if c.Celebration.HeartSweep <= 0 {
		return errors.New("celebration.heart_sweep must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	if _, err := c.Celebration.Target(); err != nil {
		return err
	}
	return nil
}

// Target is the birthday the countdown runs to, at midnight UTC so every
// host and every tab agrees on the same instant.
func (c CelebrationConfig) Target() (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, c.BirthdayDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse celebration.birthday_date: %w", err)
	}
	return t, nil
}

// Seeds numbers the configured seed wishes from 1.
func (c CelebrationConfig) Seeds() []models.Message {
	out := make([]models.Message, 0, len(c.SeedMessages))
	for i, m := range c.SeedMessages {
		out = append(out, models.Message{ID: int64(i + 1), Author: m.Author, Content: m.Content})
	}
	return out
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("PUBLIC_DIR"); v != "" {
		cfg.HTTP.PublicDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Storage.Redis.DB); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_PREFIX"); v != "" {
		cfg.Storage.Redis.Prefix = v
	}

	if v := os.Getenv("BLOBS_DRIVER"); v != "" {
		cfg.Blobs.Driver = v
	}
	if v := os.Getenv("BLOBS_DIR"); v != "" {
		cfg.Blobs.Dir = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Blobs.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.Blobs.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.Blobs.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Blobs.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Blobs.S3.Region = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.Blobs.S3.UseSSL); err != nil {
		return err
	}

	if err := overrideInt64("UPLOAD_MAX_BYTES", &cfg.Upload.MaxBytes); err != nil {
		return err
	}

	if v := os.Getenv("FRIEND_NAME"); v != "" {
		cfg.Celebration.FriendName = v
	}
	if v := os.Getenv("BIRTHDAY_DATE"); v != "" {
		cfg.Celebration.BirthdayDate = v
	}
	if v := os.Getenv("AUDIO_SRC"); v != "" {
		cfg.Celebration.AudioSrc = v
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideInt64(key string, target *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
