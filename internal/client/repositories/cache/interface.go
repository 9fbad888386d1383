// Package cache stores previously fetched API payloads keyed by request
// path. Entries are invalidated by key on mutation success and evicted
// wholesale on logout.
package cache

import (
	"context"
	"time"
)

// Entry is one cached API response.
type Entry struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Repository is the keyed response cache.
//
// Contract:
//   - Get returns (nil, nil) when the key is absent.
//   - Put performs an upsert.
//   - Invalidate removes a single key; EvictAll removes everything.
type Repository interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, payload []byte) error
	Invalidate(ctx context.Context, key string) error
	EvictAll(ctx context.Context) error
}
