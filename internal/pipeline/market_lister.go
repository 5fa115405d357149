// Package pipeline drives the upstream fetch side of a dashboard refresh:
// paginated listing collection and the periodic refresher.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// DefaultPageSize is the Gamma page size used when none is configured.
const DefaultPageSize = 100

// MarketFetcher retrieves one page of raw markets from the listing API.
type MarketFetcher interface {
	GetMarkets(ctx context.Context, limit, offset int, closed *bool) ([]domain.RawMarket, error)
}

// MarketLister paginates through open markets.
type MarketLister struct {
	fetcher  MarketFetcher
	pageSize int
	logger   *slog.Logger
}

// NewMarketLister creates a MarketLister. pageSize <= 0 uses DefaultPageSize.
func NewMarketLister(fetcher MarketFetcher, pageSize int, logger *slog.Logger) *MarketLister {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MarketLister{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "market_lister")),
	}
}

// Collect fetches open markets page by page until an empty or short page,
// or until maxMarkets records have been gathered (maxMarkets <= 0 means no
// cap). A page error ends pagination: the records gathered so far are
// returned together with the error.
func (l *MarketLister) Collect(ctx context.Context, maxMarkets int) ([]domain.RawMarket, error) {
	closed := false
	offset := 0
	var out []domain.RawMarket

	for {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("market lister context cancelled: %w", err)
		}

		limit := l.pageSize
		if maxMarkets > 0 && maxMarkets-len(out) < limit {
			limit = maxMarkets - len(out)
		}

		batch, err := l.fetcher.GetMarkets(ctx, limit, offset, &closed)
		if err != nil {
			l.logger.Warn("market page fetch failed",
				slog.Int("offset", offset),
				slog.Int("collected", len(out)),
				slog.String("error", err.Error()),
			)
			return out, fmt.Errorf("fetching markets at offset %d: %w", offset, err)
		}

		if len(batch) == 0 {
			break
		}

		out = append(out, batch...)
		l.logger.Debug("fetched market page",
			slog.Int("batch_size", len(batch)),
			slog.Int("total", len(out)),
			slog.Int("offset", offset),
		)

		if len(batch) < limit {
			break
		}
		if maxMarkets > 0 && len(out) >= maxMarkets {
			out = out[:maxMarkets]
			break
		}

		offset += len(batch)
	}

	l.logger.Info("market listing complete", slog.Int("total", len(out)))
	return out, nil
}
