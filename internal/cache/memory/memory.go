// Package memory provides in-process stand-ins for the Redis-backed snapshot
// cache and build lock, used when Redis is disabled.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

type entry struct {
	snap    *domain.Snapshot
	expires time.Time
}

// SnapshotCache is a mutex-guarded map with per-entry expiry.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewSnapshotCache creates an empty SnapshotCache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached snapshot or domain.ErrCacheMiss.
func (c *SnapshotCache) Get(_ context.Context, key string) (*domain.Snapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.evict(key, e.expires)
		return nil, domain.ErrCacheMiss
	}
	return e.snap, nil
}

// evict deletes key only if it still holds the entry that expired at
// expires; a concurrent Set may have replaced it since the read.
func (c *SnapshotCache) evict(key string, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur.expires.Equal(expires) {
		delete(c.entries, key)
	}
}

// Set stores snap under key for ttl. A zero ttl never expires.
func (c *SnapshotCache) Set(_ context.Context, key string, snap *domain.Snapshot, ttl time.Duration) error {
	e := entry{snap: snap}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Invalidate drops key.
func (c *SnapshotCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// LockManager hands out non-blocking, TTL-bounded locks within one process.
type LockManager struct {
	mu    sync.Mutex
	held  map[string]time.Time
	now   func() time.Time
	seq   uint64
	owner map[string]uint64
}

// NewLockManager creates a LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		held:  make(map[string]time.Time),
		owner: make(map[string]uint64),
		now:   time.Now,
	}
}

// Acquire takes key until the returned unlock is called or ttl elapses. It
// returns domain.ErrLockHeld if another holder has it.
func (lm *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := lm.now()
	if exp, ok := lm.held[key]; ok && now.Before(exp) {
		return nil, fmt.Errorf("memory: acquire lock %s: %w", key, domain.ErrLockHeld)
	}
	lm.seq++
	token := lm.seq
	lm.held[key] = now.Add(ttl)
	lm.owner[key] = token

	var once sync.Once
	return func() {
		once.Do(func() {
			lm.mu.Lock()
			defer lm.mu.Unlock()
			if lm.owner[key] == token {
				delete(lm.held, key)
				delete(lm.owner, key)
			}
		})
	}, nil
}

// Compile-time interface checks.
var (
	_ domain.SnapshotCache = (*SnapshotCache)(nil)
	_ domain.LockManager   = (*LockManager)(nil)
)
