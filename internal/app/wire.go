package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/marketfocus/internal/cache/memory"
	"github.com/alanyoungcy/marketfocus/internal/cache/redis"
	"github.com/alanyoungcy/marketfocus/internal/config"
	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
	"github.com/alanyoungcy/marketfocus/internal/notify"
	"github.com/alanyoungcy/marketfocus/internal/pipeline"
	"github.com/alanyoungcy/marketfocus/internal/platform/polymarket"
	"github.com/alanyoungcy/marketfocus/internal/service"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	// Caches
	SnapshotCache domain.SnapshotCache
	LockManager   domain.LockManager
	// RateLimiter is nil when Redis is disabled.
	RateLimiter domain.RateLimiter
	// Redis is nil when Redis is disabled.
	Redis *redis.Client

	// Services
	Prices    *service.PriceService
	Markets   *service.MarketService
	Dashboard *service.DashboardService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Caches: Redis when enabled, in-process otherwise ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	} else {
		deps.SnapshotCache = memory.NewSnapshotCache()
		deps.LockManager = memory.NewLockManager()
	}

	// --- Polymarket clients ---
	opts := polymarket.Options{
		Timeout:   cfg.Polymarket.RequestTimeout.Duration,
		UserAgent: cfg.Polymarket.UserAgent,
	}
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost, opts)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, opts)

	// --- Services ---
	parser := market.NewParser(logger)
	lister := pipeline.NewMarketLister(gamma, cfg.Dashboard.PageSize, logger)

	deps.Prices = service.NewPriceService(clob, clob, service.PriceOptions{
		Side:        domain.PriceSide(strings.ToLower(cfg.Dashboard.PriceSide)),
		BatchSize:   cfg.Dashboard.PriceBatchSize,
		Concurrency: cfg.Dashboard.PriceConcurrency,
	}, logger)
	deps.Markets = service.NewMarketService(lister, gamma, parser, deps.Prices, logger)
	deps.Dashboard = service.NewDashboardService(
		lister, parser, deps.Prices,
		deps.SnapshotCache, deps.LockManager,
		service.DashboardOptions{
			MaxMarkets:   cfg.Dashboard.MaxMarkets,
			FocusWindows: cfg.Dashboard.FocusWindows,
			CacheTTL:     cfg.Dashboard.CacheTTL.Duration,
			LockTTL:      cfg.Dashboard.LockTTL.Duration,
		},
		logger,
	)

	// --- Notifications ---
	deps.Notifier = notify.NewNotifier(senders(cfg.Notify), cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

func senders(cfg config.NotifyConfig) []notify.Sender {
	var out []notify.Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		out = append(out, notify.NewTelegramSender("", cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		out = append(out, notify.NewDiscordSender(cfg.DiscordWebhookURL, cfg.DiscordUsername))
	}
	return out
}
