// redis.go implements the Redis-backed cache store used in deployment. TTL
// expiry is delegated entirely to Redis; the application never deletes keys.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tsumanga/analytics-dashboard/internal/config"
)

// RedisStore is a Store backed by a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis cache store from configuration. The
// connection is established lazily by go-redis on first use, so a Redis
// outage at startup does not prevent the server from booting — lookups
// simply degrade to misses until the server is reachable.
func NewRedisStore(cfg config.RedisCacheConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreFromClient wraps an existing Redis client. Used when the
// client is shared with other subsystems (e.g. the rate limiter).
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying Redis client for subsystems that share the
// connection, such as the redis_rate limiter.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Get retrieves a cached value. A redis.Nil reply is a clean miss, not an
// error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
