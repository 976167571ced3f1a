// Package cache wraps the volatile key-value store. The cache is never the
// source of truth: everything here must be safe to flush at any time with no
// consequence beyond a latency penalty on the next read.
package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mingyan/blogserver/config"
)

const opTimeout = 2 * time.Second

// NewRedisClient builds a Redis client from configuration. The client is
// constructed once at boot and handed to the components that need it.
func NewRedisClient(cfg config.AppConfig) *redis.Client {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	// Validate eagerly but tolerate failure; every read path falls back to
	// the relational store.
	_ = rc.Ping(ctx).Err()
	return rc
}

// Store is the primitive TTL-bounded key/value surface the services use.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps an existing Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Get returns the bytes for a key, reporting a miss for both absent keys and
// store errors.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil || s.rdb == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Set stores bytes under a key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// Delete removes keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Del(ctx, keys...).Err()
}

// GetDel atomically reads and removes a key, for single-use values.
func (s *Store) GetDel(ctx context.Context, key string) ([]byte, bool) {
	if s == nil || s.rdb == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	b, err := s.rdb.GetDel(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}
