// Package cache provides the Cache interface shared by the in-memory and
// Redis backing stores used to hold fetched distance/duration matrices.
package cache

import (
	"context"
	"errors"
	"time"

	"vrpcore/pkg/config"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache is the storage contract a MatrixCache wraps. Both MemoryCache and
// RedisCache implement the full interface even though the matrix cache
// itself only needs Get/Set/Delete/DeleteByPattern — the rest exists for other
// callers that share this package.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetWithTTL also returns the remaining time-to-live for the key.
	GetWithTTL(ctx context.Context, key string) (value []byte, ttl time.Duration, err error)

	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	MDelete(ctx context.Context, keys []string) (int64, error)

	// Keys and DeleteByPattern scan the whole keyspace; avoid them on a
	// large Redis-backed cache outside of maintenance tooling.
	Keys(ctx context.Context, pattern string) ([]string, error)
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)

	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats reports point-in-time counters for a Cache instance.
type Stats struct {
	TotalKeys    int64
	Hits         int64
	Misses       int64
	HitRate      float64
	MemoryBytes  int64
	KeysByPrefix map[string]int64
	Backend      string
}

// Options configures a Cache built by New. Fields not relevant to the
// selected Backend are ignored.
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	MaxEntries      int
	MaxMemoryBytes  int64
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      5 * time.Minute,
		MaxEntries:      100000,
		MaxMemoryBytes:  256 * 1024 * 1024,
		CleanupInterval: 1 * time.Minute,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		RedisPoolSize:   10,
	}
}

// FromConfig translates a config.CacheConfig (as loaded by koanf) into
// cache Options.
func FromConfig(cfg *config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		DefaultTTL:    cfg.DefaultTTL,
		MaxEntries:    cfg.MaxEntries,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New builds a Cache for the backend named in opts, falling back to
// BackendMemory for an empty or unrecognized value.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew is New but panics on error, for call sites during startup where
// a cache failure should abort the process rather than degrade silently.
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
