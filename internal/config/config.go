package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	PhotosDir    string `env:"PHOTOS_DIR" envDefault:"public/photos"`
	ManifestPath string `env:"MANIFEST_PATH"`
	CachePath    string `env:"CACHE_PATH"`

	GeocodeURL       string        `env:"GEOCODE_URL" envDefault:"https://nominatim.openstreetmap.org/reverse"`
	GeocodeUserAgent string        `env:"GEOCODE_USER_AGENT" envDefault:"PhotoDateGuessingGame/1.0 (personal project)"`
	GeocodeDelay     time.Duration `env:"GEOCODE_DELAY" envDefault:"1100ms"`
	GeocodeTimeout   time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"10s"`
	ExtractWorkers   int           `env:"EXTRACT_WORKERS" envDefault:"4"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`

	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:".photoguess/photoguess.db"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DatabaseURL    string `env:"DATABASE_URL"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.ExtractWorkers < 1 {
		cfg.ExtractWorkers = 1
	}
	return &cfg, nil
}

// Manifest returns the manifest path, defaulting to manifest.json inside
// the photos directory.
func (c *Config) Manifest() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return filepath.Join(c.PhotosDir, "manifest.json")
}

// Cache returns the metadata cache path, defaulting to a hidden file inside
// the photos directory so it is never picked up as an image.
func (c *Config) Cache() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	return filepath.Join(c.PhotosDir, ".manifest-cache.json")
}
