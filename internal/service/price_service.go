package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
)

// PriceQuoter batch-fetches best prices for tokens.
type PriceQuoter interface {
	GetPrices(ctx context.Context, tokenIDs []string, side domain.PriceSide) (domain.Quotes, error)
}

// BookFetcher returns the order book for one token.
type BookFetcher interface {
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// PriceOptions tunes how PriceService talks to the price API.
type PriceOptions struct {
	Side        domain.PriceSide
	BatchSize   int
	Concurrency int
}

// PriceService enriches market records with CLOB quotes. Transport failures
// never surface to callers: a failed batch leaves its tokens unquoted.
type PriceService struct {
	quoter PriceQuoter
	books  BookFetcher
	opts   PriceOptions
	logger *slog.Logger
}

// NewPriceService creates a PriceService with all required dependencies.
func NewPriceService(
	quoter PriceQuoter,
	books BookFetcher,
	opts PriceOptions,
	logger *slog.Logger,
) *PriceService {
	if opts.Side == "" {
		opts.Side = domain.PriceSideBuy
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &PriceService{
		quoter: quoter,
		books:  books,
		opts:   opts,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// Quote fetches prices for tokenIDs in batches of BatchSize with at most
// Concurrency requests in flight. The result holds only tokens from batches
// that succeeded.
func (s *PriceService) Quote(ctx context.Context, tokenIDs []string) domain.Quotes {
	out := make(domain.Quotes, len(tokenIDs))
	if len(tokenIDs) == 0 {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for start := 0; start < len(tokenIDs); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(tokenIDs))
		batch := tokenIDs[start:end]

		g.Go(func() error {
			quotes, err := s.quoter.GetPrices(gctx, batch, s.opts.Side)
			if err != nil {
				s.logger.WarnContext(ctx, "price_service: price batch failed",
					slog.Int("batch_size", len(batch)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			for id, p := range quotes {
				out[id] = p
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Enrich prices every not-yet-priced record in recs and returns how many
// were priced.
func (s *PriceService) Enrich(ctx context.Context, recs []*domain.MarketRecord) int {
	ids := market.TokenIDs(recs)
	if len(ids) == 0 {
		return 0
	}
	quotes := s.Quote(ctx, ids)
	n := market.ApplyQuotes(recs, quotes)

	s.logger.DebugContext(ctx, "price_service: enriched records",
		slog.Int("tokens", len(ids)),
		slog.Int("quoted", len(quotes)),
		slog.Int("records", n),
	)
	return n
}

// Book returns the order book for tokenID. Transport failures other than
// domain.ErrNotFound are reported as domain.ErrFetchFailed.
func (s *PriceService) Book(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	book, err := s.books.GetOrderBook(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.OrderBook{}, fmt.Errorf("price_service: book %q: %w", tokenID, err)
		}
		return domain.OrderBook{}, fmt.Errorf("price_service: book %q: %w", tokenID, fetchFailed(err))
	}
	return book, nil
}
