package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is the key/value port used for checkout sessions and catalog pages.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl keeps the key until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
