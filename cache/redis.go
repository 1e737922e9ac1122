package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis.UniversalClient the store uses.
type RedisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisOption configures the Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
	ttl    time.Duration
}

// WithPrefix sets a key prefix for all artifacts.
// Keys are stored as "{prefix}:{key}".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// WithTTL sets the expiration of stored artifacts.
// Default: 0 (artifacts never expire).
func WithTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) { o.ttl = d }
}

// Redis stores artifacts as Redis strings. A single SET replaces the value
// atomically, which is all WriteAtomic needs.
type Redis struct {
	client RedisClient
	opts   redisOptions
}

// NewRedis creates a Redis-backed store.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedis(client, cache.WithPrefix("jsondecode"))
func NewRedis(client RedisClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// Exists reports whether key holds an artifact.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefixedKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Read returns the artifact under key.
func (r *Redis) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// WriteAtomic stores data under key.
func (r *Redis) WriteAtomic(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefixedKey(key), data, max(r.opts.ttl, 0)).Err()
}

func (r *Redis) prefixedKey(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

var _ Store = (*Redis)(nil)
