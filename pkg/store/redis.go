package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store backed by Redis.
//
// This is the production backend: atomic increments map directly to
// INCR/INCRBYFLOAT, so concurrent writers across process instances
// cannot lose updates. TTLs are enforced server-side.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Address is the host:port of the Redis server.
	Address string

	// Password is the Redis AUTH password (empty for none).
	Password string

	// DB is the Redis database number.
	DB int

	// KeyPrefix is prepended to every key, allowing several deployments
	// to share one Redis database. Optional.
	KeyPrefix string

	// DialTimeout is the connection timeout.
	// Default: 5 seconds
	DialTimeout time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	s := &RedisStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return s, nil
}

func (s *RedisStore) key(k string) string {
	return s.keyPrefix + k
}

// Incr atomically increments the integer counter at key.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, s.key(key)).Result()
}

// IncrByFloat atomically adds delta to the float accumulator at key.
func (s *RedisStore) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	return s.client.IncrByFloat(ctx, s.key(key), delta).Result()
}

// Expire sets the TTL for an existing key.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, s.key(key), ttl).Err()
}

// Get returns the value at key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set writes value at key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

// SetBatch writes all entries in one pipelined operation.
func (s *RedisStore) SetBatch(ctx context.Context, entries []Entry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, e := range entries {
		pipe.Set(ctx, s.key(e.Key), e.Value, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes the given keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

// Keys enumerates keys matching a glob pattern.
// The configured key prefix is stripped from the results.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.client.Keys(ctx, s.key(pattern)).Result()
	if err != nil {
		return nil, err
	}

	if s.keyPrefix != "" {
		for i, k := range keys {
			keys[i] = strings.TrimPrefix(k, s.keyPrefix)
		}
	}
	return keys, nil
}

// Ping verifies the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
