// Package cache provides the candidate-title cache drivers.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps title lists under string keys with a time-to-live.
type Store interface {
	// Get returns ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (titles []string, ok bool, err error)
	Set(ctx context.Context, key string, titles []string, ttl time.Duration) error
	Close() error
}

// Type selects a cache driver.
type Type string

const (
	TypeMemory Type = "memory"
	TypeRedis  Type = "redis"
)

var (
	ErrInvalidType   = errors.New("cache: invalid store type")
	ErrInvalidConfig = errors.New("cache: invalid configuration")
)

// Option configures New.
type Option func(*options)

type options struct {
	redisURL string
	prefix   string
}

// WithRedisURL dials a new client from a redis:// URL.
func WithRedisURL(url string) Option {
	return func(o *options) { o.redisURL = url }
}

// WithKeyPrefix namespaces every key written to redis.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// New creates a cache store of the given type.
// The redis driver needs WithRedisURL.
func New(t Type, opts ...Option) (Store, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch t {
	case TypeMemory, "":
		return NewMemory(), nil

	case TypeRedis:
		if o.redisURL == "" {
			return nil, ErrInvalidConfig
		}
		ro, err := redis.ParseURL(o.redisURL)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		return NewRedis(redis.NewClient(ro), o.prefix), nil

	default:
		return nil, ErrInvalidType
	}
}
