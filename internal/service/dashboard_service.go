package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
)

// DashboardOptions configures snapshot building.
type DashboardOptions struct {
	// MaxMarkets caps the raw listing; 0 means no cap.
	MaxMarkets int
	// FocusWindows are the max_hours windows tried in order when picking
	// focus markets.
	FocusWindows []float64
	CacheTTL     time.Duration
	// LockTTL bounds a single build; concurrent callers wait up to this long
	// for the holder's result.
	LockTTL time.Duration
}

// DefaultFocusWindows is used when DashboardOptions.FocusWindows is empty.
var DefaultFocusWindows = []float64{48, 168}

// DashboardService runs the fetch → parse → filter → enrich → select cycle
// and caches the resulting snapshot per max_hours window.
type DashboardService struct {
	lister MarketCollector
	parser *market.Parser
	prices *PriceService
	cache  domain.SnapshotCache
	locks  domain.LockManager
	opts   DashboardOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService creates a DashboardService with all required
// dependencies.
func NewDashboardService(
	lister MarketCollector,
	parser *market.Parser,
	prices *PriceService,
	cache domain.SnapshotCache,
	locks domain.LockManager,
	opts DashboardOptions,
	logger *slog.Logger,
) *DashboardService {
	if len(opts.FocusWindows) == 0 {
		opts.FocusWindows = DefaultFocusWindows
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &DashboardService{
		lister: lister,
		parser: parser,
		prices: prices,
		cache:  cache,
		locks:  locks,
		opts:   opts,
		logger: logger.With(slog.String("component", "dashboard_service")),
		now:    time.Now,
	}
}

// lockPollInterval is how often a waiting caller re-checks the cache while
// another caller builds.
const lockPollInterval = 100 * time.Millisecond

func snapshotKey(maxHours float64) string {
	return "h" + strconv.FormatFloat(maxHours, 'f', -1, 64)
}

// Snapshot returns the dashboard snapshot for maxHours, from cache unless
// refresh is set. It returns domain.ErrFetchFailed when the listing yielded
// no records at all.
func (s *DashboardService) Snapshot(ctx context.Context, maxHours float64, refresh bool) (*domain.Snapshot, error) {
	key := snapshotKey(maxHours)

	if !refresh {
		if snap, ok := s.cached(ctx, key); ok {
			return snap, nil
		}
	}

	unlock, err := s.locks.Acquire(ctx, "build:"+key, s.opts.LockTTL)
	switch {
	case err == nil:
		defer unlock()
	case errors.Is(err, domain.ErrLockHeld):
		if snap, ok := s.waitForPeer(ctx, key); ok {
			return snap, nil
		}
	default:
		s.logger.WarnContext(ctx, "dashboard_service: lock unavailable, building unlocked",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	snap, err := s.Build(ctx, maxHours)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, snap, s.opts.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "dashboard_service: cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for maxHours.
func (s *DashboardService) Invalidate(ctx context.Context, maxHours float64) error {
	if err := s.cache.Invalidate(ctx, snapshotKey(maxHours)); err != nil {
		return fmt.Errorf("dashboard_service: invalidate: %w", err)
	}
	return nil
}

func (s *DashboardService) cached(ctx context.Context, key string) (*domain.Snapshot, bool) {
	snap, err := s.cache.Get(ctx, key)
	if err == nil {
		return snap, true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "dashboard_service: cache get failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil, false
}

// waitForPeer polls the cache while another caller holds the build lock.
func (s *DashboardService) waitForPeer(ctx context.Context, key string) (*domain.Snapshot, bool) {
	deadline := time.NewTimer(s.opts.LockTTL)
	defer deadline.Stop()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-ticker.C:
			if snap, ok := s.cached(ctx, key); ok {
				return snap, true
			}
		}
	}
}

// Build runs one full refresh cycle without touching the cache.
func (s *DashboardService) Build(ctx context.Context, maxHours float64) (*domain.Snapshot, error) {
	start := s.now()

	raws, err := s.lister.Collect(ctx, s.opts.MaxMarkets)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard_service: listing incomplete",
			slog.Int("collected", len(raws)),
			slog.String("error", err.Error()),
		)
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("dashboard_service: build: %w", fetchFailed(err))
	}

	parsed := s.parser.ParseAll(raws)
	candidates := market.FilterCandidates(parsed, maxHours)
	priced := s.prices.Enrich(ctx, candidates)

	focus := s.selectFocus(parsed)
	var picks []*domain.MarketRecord
	if focus.Crypto != nil {
		picks = append(picks, focus.Crypto)
	}
	if focus.Sports != nil && focus.Sports != focus.Crypto {
		picks = append(picks, focus.Sports)
	}
	priced += s.prices.Enrich(ctx, picks)

	invalid := market.FilterInvalid(parsed)

	snap := &domain.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: start.UTC(),
		MaxHours:    maxHours,
		Stats: domain.SnapshotStats{
			TotalFetched: len(raws),
			Parsed:       len(parsed),
			Invalid:      len(invalid),
			Candidates:   len(candidates),
			Priced:       priced,
		},
		Candidates: candidates,
		Invalid:    invalid,
		Focus:      focus,
	}

	s.logger.InfoContext(ctx, "dashboard_service: snapshot built",
		slog.String("snapshot_id", snap.ID),
		slog.Float64("max_hours", maxHours),
		slog.Int("total_fetched", snap.Stats.TotalFetched),
		slog.Int("parsed", snap.Stats.Parsed),
		slog.Int("invalid", snap.Stats.Invalid),
		slog.Int("candidates", snap.Stats.Candidates),
		slog.Bool("crypto_focus", focus.Crypto != nil),
		slog.Bool("sports_focus", focus.Sports != nil),
		slog.Duration("elapsed", s.now().Sub(start)),
	)
	return snap, nil
}

// selectFocus tries each focus window in order and keeps the first one that
// fills at least one slot.
func (s *DashboardService) selectFocus(parsed []*domain.MarketRecord) domain.Focus {
	for _, w := range s.opts.FocusWindows {
		f := market.SelectFocus(market.FilterCandidates(parsed, w))
		if !f.Empty() {
			f.WindowHours = w
			return f
		}
	}
	return domain.Focus{}
}
