package cache

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when non-empty,
	// e.g. redis://localhost:6379/0.
	RedisURL string

	// Prefix is the key prefix for the Redis backend.
	Prefix string

	// DefaultTTL is the default TTL for cache entries.
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for the memory backend
	// (0 = unlimited).
	MaxSize int

	// CleanupInterval is the expired entry sweep interval for the
	// memory backend.
	CleanupInterval time.Duration

	// FallbackToMemory falls back to the memory backend when the Redis
	// connection fails instead of returning an error.
	FallbackToMemory bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:          "mrp:",
		DefaultTTL:      time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// Info describes the backend a New call ended up with, for startup logging.
type Info struct {
	Backend string // "memory" or "redis"
	Detail  string // masked connection detail, empty for memory
}

// New creates a cache based on the provided configuration. The Redis
// backend is used when RedisURL is set, otherwise the memory backend.
func New(cfg Config) (Cache, Info, error) {
	if cfg.RedisURL != "" {
		opts := DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}

		c, err := NewRedisCache(opts)
		if err == nil {
			return c, Info{Backend: "redis", Detail: maskRedisURL(cfg.RedisURL)}, nil
		}
		if !cfg.FallbackToMemory {
			return nil, Info{}, fmt.Errorf("connect redis cache: %w", err)
		}
	}

	mem := NewMemoryCache(MemoryOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
	return mem, Info{Backend: "memory"}, nil
}

// maskRedisURL strips credentials from a Redis URL so it can be logged.
func maskRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "redis://***"
	}
	if u.User == nil {
		return u.String()
	}
	// url.Userinfo percent-encodes a literal mask, so splice it in
	// after dropping the credentials.
	u.User = nil
	return strings.Replace(u.String(), "://", "://***@", 1)
}
