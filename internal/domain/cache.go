package domain

import (
	"context"
	"time"
)

// SnapshotCache stores built snapshots so page loads within the TTL do not
// hit the upstream APIs again.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*Snapshot, error)
	Set(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
