package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// defaultRawLimit mirrors the raw listing page of the dashboard.
const defaultRawLimit = 50

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	GetMarket(ctx context.Context, id string) (*domain.MarketRecord, error)
	Raw(ctx context.Context, limit int) ([]domain.RawMarket, error)
}

// BookService returns order books.
type BookService interface {
	Book(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// MarketHandler serves single-market, raw listing and order book endpoints.
type MarketHandler struct {
	markets MarketService
	books   BookService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given services and logger.
func NewMarketHandler(markets MarketService, books BookService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		books:   books,
		logger:  logger,
	}
}

// GetMarket returns a single parsed and priced market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	rec, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get market", err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type rawResponse struct {
	Markets []domain.RawMarket `json:"markets"`
	Count   int                `json:"count"`
}

// Raw returns the first records of the listing, unparsed.
// GET /api/raw?limit=50
func (h *MarketHandler) Raw(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultRawLimit)
	if err != nil || limit == 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	raws, err := h.markets.Raw(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, "list raw markets", err)
		return
	}

	writeJSON(w, http.StatusOK, rawResponse{Markets: raws, Count: len(raws)})
}

type bookResponse struct {
	domain.OrderBook
	BestBid *decimal.Decimal `json:"best_bid"`
	BestAsk *decimal.Decimal `json:"best_ask"`
	Spread  *decimal.Decimal `json:"spread"`
}

// Book returns the order book for one token with best bid/ask and spread.
// GET /api/book/{token_id}
func (h *MarketHandler) Book(w http.ResponseWriter, r *http.Request) {
	tokenID := pathParam(r, "token_id")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing token id")
		return
	}

	book, err := h.books.Book(r.Context(), tokenID)
	if err != nil {
		writeServiceError(w, r, h.logger, "get order book", err)
		return
	}

	resp := bookResponse{OrderBook: book}
	if v, ok := book.BestBid(); ok {
		resp.BestBid = &v
	}
	if v, ok := book.BestAsk(); ok {
		resp.BestAsk = &v
	}
	if v, ok := book.Spread(); ok {
		resp.Spread = &v
	}
	writeJSON(w, http.StatusOK, resp)
}
