package cache

import (
	"context"
	"time"
)

// Cache is a small key/value store used to short-circuit duplicate webhook
// deliveries before hitting Firestore. It is strictly an optimization: callers
// must treat a miss (or an unavailable cache) as "unknown" and fall back to
// the durable store.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}
