package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
)

// MarketCollector gathers raw listing records across pages.
type MarketCollector interface {
	Collect(ctx context.Context, maxMarkets int) ([]domain.RawMarket, error)
}

// MarketGetter fetches one raw market by ID.
type MarketGetter interface {
	GetMarket(ctx context.Context, id string) (domain.RawMarket, error)
}

// MarketService handles raw listing access and single-market lookups.
type MarketService struct {
	lister MarketCollector
	getter MarketGetter
	parser *market.Parser
	prices *PriceService
	logger *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	lister MarketCollector,
	getter MarketGetter,
	parser *market.Parser,
	prices *PriceService,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		lister: lister,
		getter: getter,
		parser: parser,
		prices: prices,
		logger: logger.With(slog.String("component", "market_service")),
	}
}

// Raw returns up to limit unparsed listing records.
func (s *MarketService) Raw(ctx context.Context, limit int) ([]domain.RawMarket, error) {
	raws, err := s.lister.Collect(ctx, limit)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: raw listing incomplete",
			slog.Int("count", len(raws)),
			slog.String("error", err.Error()),
		)
	}
	if len(raws) == 0 {
		return nil, fetchFailed(err)
	}
	return raws, nil
}

// GetMarket fetches, parses and prices a single market.
func (s *MarketService) GetMarket(ctx context.Context, id string) (*domain.MarketRecord, error) {
	raw, err := s.getter.GetMarket(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("market_service: get market %q: %w", id, err)
		}
		return nil, fmt.Errorf("market_service: get market %q: %w", id, fetchFailed(err))
	}

	rec := s.parser.Parse(raw)
	if rec == nil {
		return nil, fmt.Errorf("market_service: market %q has no identifier: %w", id, domain.ErrNotFound)
	}

	if rec.Valid() {
		s.prices.Enrich(ctx, []*domain.MarketRecord{rec})
	}
	return rec, nil
}

// fetchFailed wraps domain.ErrFetchFailed with the underlying cause, if any.
func fetchFailed(cause error) error {
	if cause == nil {
		return domain.ErrFetchFailed
	}
	return fmt.Errorf("%w: %v", domain.ErrFetchFailed, cause)
}
