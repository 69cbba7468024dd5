package cache

import (
	"context"
	"time"
)

// Cache stores upstream response bodies for a fixed time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
