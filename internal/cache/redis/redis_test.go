package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(t.Context(), ClientConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := New(t.Context(), ClientConfig{Addr: "127.0.0.1:1", MaxRetries: -1})
	require.Error(t, err)
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	cache := NewSnapshotCache(c)

	_, err := cache.Get(t.Context(), "48")
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))

	rec := domain.NewMarketRecord(domain.MarketFields{
		ID: "m-1", Question: "Will BTC rally?", YesTokenID: "y", NoTokenID: "n",
		HoursToClose: domain.Float(5), EnableOrderBook: true, Active: true,
	}, domain.Float(0.3), nil)
	snap := &domain.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		MaxHours:    48,
		Stats:       domain.SnapshotStats{TotalFetched: 3, Parsed: 3, Candidates: 1},
		Candidates:  []*domain.MarketRecord{rec},
		Focus:       domain.Focus{Crypto: rec, WindowHours: 48},
	}
	require.NoError(t, cache.Set(t.Context(), "48", snap, time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"snapshot:48"))

	got, err := cache.Get(t.Context(), "48")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.True(t, snap.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, snap.Stats, got.Stats)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "m-1", got.Candidates[0].ID())
	yes, ok := got.Candidates[0].YesPrice()
	require.True(t, ok)
	assert.Equal(t, 0.3, yes)
	require.NotNil(t, got.Focus.Crypto)
	assert.Nil(t, got.Focus.Sports)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(t.Context(), "48")
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewSnapshotCache(c)

	require.NoError(t, cache.Set(t.Context(), "k", &domain.Snapshot{ID: "x"}, 0))
	require.NoError(t, cache.Invalidate(t.Context(), "k"))
	_, err := cache.Get(t.Context(), "k")
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))
}

func TestRateLimiterAllow(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(t.Context(), "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := rl.Allow(t.Context(), "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(t.Context(), "5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	now = now.Add(61 * time.Second)
	ok, err = rl.Allow(t.Context(), "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window slid past old requests")

	ok, err = rl.Allow(t.Context(), "any", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "non-positive limit disables limiting")
}

func TestLockManager(t *testing.T) {
	c, _ := newTestClient(t)
	lm := NewLockManager(c)

	unlock, err := lm.Acquire(t.Context(), "build", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(t.Context(), "build", time.Minute)
	assert.True(t, errors.Is(err, domain.ErrLockHeld))

	unlock()
	unlock()

	unlock2, err := lm.Acquire(t.Context(), "build", time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestLockUnlockDoesNotReleaseForeignHolder(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)

	unlock, err := lm.Acquire(t.Context(), "build", time.Second)
	require.NoError(t, err)

	// Lock expires and someone else takes it.
	mr.FastForward(2 * time.Second)
	_, err = lm.Acquire(t.Context(), "build", time.Minute)
	require.NoError(t, err)

	unlock()
	assert.True(t, mr.Exists(DefaultKeyPrefix+"lock:build"))
}
