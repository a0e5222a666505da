// Package cache defines the Store interface for the report payload cache and
// its backends.
//
// The store is a plain TTL-bounded key/value collaborator: the reporting
// pipeline only ever calls Get and Set, and treats every store error as a
// cache miss. Nothing in the application depends on which backend is
// configured — redis in deployment, memory in development and tests.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tsumanga/analytics-dashboard/internal/config"
)

// Store is a TTL-bounded key/value cache.
//
// Get returns (value, true, nil) on a hit and (nil, false, nil) on a clean
// miss; the error return is reserved for backend failures. Keys must be at
// most 250 characters — callers are responsible for hashing longer keys
// (see internal/distimo.CacheKey).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewStore creates the cache store selected by cache.backend in the
// configuration.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return NewRedisStore(cfg.Cache.Redis), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (must be 'redis' or 'memory')", cfg.Cache.Backend)
	}
}
