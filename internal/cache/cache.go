// Package cache provides the key/value cache shared by request handlers.
//
// Two backends are available: an in-process LRU bounded by entry count and
// TTL, and Redis. Both are safe for concurrent callers without external
// locking.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourkin666/server-go/internal/config"
)

// ErrUnknownBackend is returned by Open for an unsupported cache.backend.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Cache is a string key/value cache.
type Cache interface {
	// Insert stores value under key, replacing any previous value.
	Insert(ctx context.Context, key, value string) error

	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Kind names the backend for health reports.
	Kind() string

	Close() error
}

// Backend names accepted in cache.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Open creates the backend selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Cache, error) {
	switch strings.ToLower(cfg.Cache.Backend) {
	case BackendMemory, "":
		logger.Info("creating memory cache",
			slog.Int("size", cfg.Performance.MemoryCacheSize),
			slog.Duration("ttl", cfg.Performance.MemoryCacheTTLDuration()),
		)
		return NewMemory(cfg.Performance.MemoryCacheSize, cfg.Performance.MemoryCacheTTLDuration()), nil
	case BackendRedis:
		logger.Info("creating redis cache", slog.Int("max_connections", cfg.Redis.MaxConnections))
		return NewRedis(ctx, cfg.Redis, cfg.Performance.MemoryCacheTTLDuration())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Cache.Backend)
	}
}
