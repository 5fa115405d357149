package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeDashboard struct {
	snap     *domain.Snapshot
	err      error
	maxHours float64
	refresh  bool
}

func (f *fakeDashboard) Snapshot(_ context.Context, maxHours float64, refresh bool) (*domain.Snapshot, error) {
	f.maxHours, f.refresh = maxHours, refresh
	return f.snap, f.err
}

type fakeMarkets struct {
	rec  *domain.MarketRecord
	raws []domain.RawMarket
	err  error
	book domain.OrderBook
}

func (f *fakeMarkets) GetMarket(_ context.Context, id string) (*domain.MarketRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil || f.rec.ID() != id {
		return nil, fmt.Errorf("gamma: get market %s: %w", id, domain.ErrNotFound)
	}
	return f.rec, nil
}

func (f *fakeMarkets) Raw(_ context.Context, limit int) ([]domain.RawMarket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raws[:min(limit, len(f.raws))], nil
}

func (f *fakeMarkets) Book(_ context.Context, tokenID string) (domain.OrderBook, error) {
	if f.err != nil {
		return domain.OrderBook{}, f.err
	}
	b := f.book
	b.TokenID = tokenID
	return b, nil
}

func record(id, question string, yes, no *float64) *domain.MarketRecord {
	return domain.NewMarketRecord(domain.MarketFields{
		ID: id, Question: question, YesTokenID: id + "-y", NoTokenID: id + "-n",
		HoursToClose: domain.Float(6), EnableOrderBook: true, Active: true,
	}, yes, no)
}

func testSnapshot() *domain.Snapshot {
	btc := record("1", "Will BTC close above 100k?", domain.Float(0.4), domain.Float(0.6))
	nba := record("2", "Lakers vs Celtics: who wins?", domain.Float(0.55), nil)
	other := record("3", "Will it rain in Paris?", domain.Float(0.2), domain.Float(0.8))
	bad := domain.NewMarketRecord(domain.MarketFields{ID: "9", InvalidReason: "Missing clobTokenIds"}, nil, nil)
	return &domain.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		MaxHours:    48,
		Stats:       domain.SnapshotStats{TotalFetched: 4, Parsed: 4, Invalid: 1, Candidates: 3},
		Candidates:  []*domain.MarketRecord{btc, nba, other},
		Invalid:     []*domain.MarketRecord{bad},
		Focus:       domain.Focus{Crypto: btc, Sports: nba, WindowHours: 48},
	}
}

func serve(t *testing.T, method, route, target string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc(route, h).Methods(method)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDashboard(t *testing.T) {
	svc := &fakeDashboard{snap: testSnapshot()}
	h := NewDashboardHandler(svc, 48, discard)

	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard?max_hours=72&refresh=true", h.Dashboard)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 72.0, svc.maxHours)
	assert.True(t, svc.refresh)

	body := decode(t, rec)
	assert.Equal(t, "snap-1", body["snapshot_id"])
	assert.EqualValues(t, 3, body["count"])
	focus := body["focus"].(map[string]any)
	assert.Equal(t, "1", focus["crypto"].(map[string]any)["id"])
	assert.Equal(t, "2", focus["sports"].(map[string]any)["id"])
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 4, stats["total_fetched"])
	assert.EqualValues(t, 1, stats["invalid"])
}

func TestDashboardDefaultsAndValidPrices(t *testing.T) {
	svc := &fakeDashboard{snap: testSnapshot()}
	h := NewDashboardHandler(svc, 48, discard)

	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard?valid_prices=true", h.Dashboard)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 48.0, svc.maxHours)
	assert.False(t, svc.refresh)

	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"], "record with a missing NO price is dropped")
}

func TestDashboardEmptyIsSuccess(t *testing.T) {
	snap := testSnapshot()
	snap.Candidates = nil
	snap.Focus = domain.Focus{}
	h := NewDashboardHandler(&fakeDashboard{snap: snap}, 48, discard)

	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard", h.Dashboard)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{}, body["candidates"])
	assert.Equal(t, noMatchesMessage, body["message"])
	focus := body["focus"].(map[string]any)
	assert.Nil(t, focus["crypto"])
	assert.Nil(t, focus["sports"])
}

func TestDashboardRejectsBadMaxHours(t *testing.T) {
	svc := &fakeDashboard{snap: testSnapshot()}
	h := NewDashboardHandler(svc, 48, discard)
	for _, v := range []string{"0", "-5", "721", "abc", "NaN", "nan", "Inf", "-Inf"} {
		rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard?max_hours="+v, h.Dashboard)
		assert.Equal(t, http.StatusBadRequest, rec.Code, v)
	}
	assert.Zero(t, svc.maxHours, "service must not be called for a rejected window")
	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard?max_hours=720", h.Dashboard)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardFetchFailure(t *testing.T) {
	svc := &fakeDashboard{err: fmt.Errorf("dashboard_service: build: %w", domain.ErrFetchFailed)}
	h := NewDashboardHandler(svc, 48, discard)

	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard", h.Dashboard)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to fetch market data", decode(t, rec)["error"])
}

func TestDashboardInternalError(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboard{err: errors.New("boom")}, 48, discard)
	rec := serve(t, http.MethodGet, "/api/dashboard", "/api/dashboard", h.Dashboard)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to build dashboard", decode(t, rec)["error"])
}

func TestCategoryViews(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboard{snap: testSnapshot()}, 48, discard)

	rec := serve(t, http.MethodGet, "/api/markets/crypto", "/api/markets/crypto", h.Crypto)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "1", body["markets"].([]any)[0].(map[string]any)["id"])

	rec = serve(t, http.MethodGet, "/api/markets/sports", "/api/markets/sports?limit=1", h.Sports)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "2", body["markets"].([]any)[0].(map[string]any)["id"])

	rec = serve(t, http.MethodGet, "/api/markets/sports", "/api/markets/sports?limit=x", h.Sports)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidView(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboard{snap: testSnapshot()}, 48, discard)

	rec := serve(t, http.MethodGet, "/api/markets/invalid", "/api/markets/invalid", h.Invalid)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Missing clobTokenIds", body["markets"].([]any)[0].(map[string]any)["invalid_reason"])
}

func TestGetMarket(t *testing.T) {
	svc := &fakeMarkets{rec: record("42", "Will ETH flip BTC?", domain.Float(0.1), domain.Float(0.9))}
	h := NewMarketHandler(svc, svc, discard)

	rec := serve(t, http.MethodGet, "/api/markets/{id}", "/api/markets/42", h.GetMarket)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "42", body["id"])
	assert.Equal(t, 0.1, body["yes_price"])

	rec = serve(t, http.MethodGet, "/api/markets/{id}", "/api/markets/7", h.GetMarket)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRaw(t *testing.T) {
	svc := &fakeMarkets{raws: []domain.RawMarket{{"id": "1"}, {"id": "2"}, {"id": "3"}}}
	h := NewMarketHandler(svc, svc, discard)

	rec := serve(t, http.MethodGet, "/api/raw", "/api/raw?limit=2", h.Raw)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = serve(t, http.MethodGet, "/api/raw", "/api/raw?limit=0", h.Raw)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = fmt.Errorf("market_service: raw: %w", domain.ErrFetchFailed)
	rec = serve(t, http.MethodGet, "/api/raw", "/api/raw", h.Raw)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBook(t *testing.T) {
	svc := &fakeMarkets{book: domain.OrderBook{
		Bids: []domain.PriceLevel{
			{Price: decimal.RequireFromString("0.45"), Size: decimal.NewFromInt(100)},
			{Price: decimal.RequireFromString("0.47"), Size: decimal.NewFromInt(10)},
		},
		Asks: []domain.PriceLevel{
			{Price: decimal.RequireFromString("0.52"), Size: decimal.NewFromInt(50)},
		},
	}}
	h := NewMarketHandler(svc, svc, discard)

	rec := serve(t, http.MethodGet, "/api/book/{token_id}", "/api/book/tok-1", h.Book)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "tok-1", body["token_id"])
	assert.Equal(t, "0.47", body["best_bid"])
	assert.Equal(t, "0.52", body["best_ask"])
	assert.Equal(t, "0.05", body["spread"])
}

func TestBookOneSided(t *testing.T) {
	svc := &fakeMarkets{book: domain.OrderBook{
		Asks: []domain.PriceLevel{{Price: decimal.RequireFromString("0.9"), Size: decimal.NewFromInt(1)}},
	}}
	h := NewMarketHandler(svc, svc, discard)

	rec := serve(t, http.MethodGet, "/api/book/{token_id}", "/api/book/tok-2", h.Book)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Nil(t, body["best_bid"])
	assert.Nil(t, body["spread"])
	assert.Equal(t, "0.9", body["best_ask"])
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthCheck(t *testing.T) {
	rec := serve(t, http.MethodGet, "/api/health", "/api/health", NewHealthHandler(nil, discard).HealthCheck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = serve(t, http.MethodGet, "/api/health", "/api/health",
		NewHealthHandler(fakePinger{err: errors.New("dial tcp: refused")}, discard).HealthCheck)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["cache"])
}
