package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every redis round-trip so a slow server degrades to
// the fallback backend instead of blocking session reads.
const redisOpTimeout = 2 * time.Second

// RedisBackend stores session keys in redis under a caller-chosen prefix.
// Intended for server-rendered deployments where session material lives
// beside the renderer rather than on an end-user machine.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a redis-backed Backend. Keys are written with the
// given prefix and expire server-side after ttl (0 disables expiry).
func NewRedisBackend(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "authsession:"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisBackend) key(key string) string {
	return r.prefix + key
}

// Get returns the stored value for key, or ErrKeyNotFound.
func (r *RedisBackend) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisBackend) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the redis client is owned by the caller.
func (r *RedisBackend) Close() error { return nil }
