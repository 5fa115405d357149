package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache with one JSON string per
// snapshot key, expired by Redis.
//
// Key schema:
//
//	{prefix}snapshot:{key} - JSON-encoded domain.Snapshot
type SnapshotCache struct {
	c *Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{c: c}
}

// Get returns the cached snapshot or domain.ErrCacheMiss.
func (sc *SnapshotCache) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	data, err := sc.c.Underlying().Get(ctx, sc.c.key("snapshot", key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: get snapshot %s: %w", key, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("redis: unmarshal snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// Set stores snap under key for ttl. A zero ttl keeps it until invalidated.
func (sc *SnapshotCache) Set(ctx context.Context, key string, snap *domain.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", key, err)
	}
	if err := sc.c.Underlying().Set(ctx, sc.c.key("snapshot", key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the snapshot stored under key.
func (sc *SnapshotCache) Invalidate(ctx context.Context, key string) error {
	if err := sc.c.Underlying().Del(ctx, sc.c.key("snapshot", key)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate snapshot %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
