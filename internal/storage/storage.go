// Package storage persists small string values by key. The game uses it to
// keep its session snapshot across restarts.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/choiway/photoguess/internal/config"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.StorageBackend: "sqlite",
// "redis", "postgres" or "memory".
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres storage needs DATABASE_URL")
		}
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StorageBackend)
}
