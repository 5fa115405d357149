package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/market"
)

// MaxHoursLimit is the widest window the API accepts.
const MaxHoursLimit = 720

// DashboardService defines what the dashboard handler needs from the service
// layer.
type DashboardService interface {
	Snapshot(ctx context.Context, maxHours float64, refresh bool) (*domain.Snapshot, error)
}

// DashboardHandler serves the dashboard and category views.
type DashboardHandler struct {
	dashboard       DashboardService
	defaultMaxHours float64
	logger          *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler. defaultMaxHours applies
// when a request carries no max_hours.
func NewDashboardHandler(dashboard DashboardService, defaultMaxHours float64, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard:       dashboard,
		defaultMaxHours: defaultMaxHours,
		logger:          logger,
	}
}

type focusResponse struct {
	Crypto      *domain.MarketRecord `json:"crypto"`
	Sports      *domain.MarketRecord `json:"sports"`
	WindowHours float64              `json:"window_hours"`
}

type dashboardResponse struct {
	SnapshotID  string                 `json:"snapshot_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	MaxHours    float64                `json:"max_hours"`
	Stats       domain.SnapshotStats   `json:"stats"`
	Focus       focusResponse          `json:"focus"`
	Candidates  []*domain.MarketRecord `json:"candidates"`
	Count       int                    `json:"count"`
	Message     string                 `json:"message,omitempty"`
}

type marketListResponse struct {
	SnapshotID string                 `json:"snapshot_id"`
	MaxHours   float64                `json:"max_hours"`
	Markets    []*domain.MarketRecord `json:"markets"`
	Count      int                    `json:"count"`
}

// noMatchesMessage distinguishes an empty result from a fetch failure.
const noMatchesMessage = "no markets match the current filters"

// Dashboard returns stats, focus picks and candidates.
// GET /api/dashboard?max_hours=48&valid_prices=false&refresh=false
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "build dashboard")
	if !ok {
		return
	}

	candidates := snap.Candidates
	if queryBool(r, "valid_prices") {
		candidates = market.FilterValidPrices(candidates)
	}

	resp := dashboardResponse{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt,
		MaxHours:    snap.MaxHours,
		Stats:       snap.Stats,
		Focus: focusResponse{
			Crypto:      snap.Focus.Crypto,
			Sports:      snap.Focus.Sports,
			WindowHours: snap.Focus.WindowHours,
		},
		Candidates: nonNil(candidates),
		Count:      len(candidates),
	}
	if len(candidates) == 0 {
		resp.Message = noMatchesMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// Crypto lists crypto candidates.
// GET /api/markets/crypto?max_hours=48&limit=0
func (h *DashboardHandler) Crypto(w http.ResponseWriter, r *http.Request) {
	h.category(w, r, market.IsCrypto)
}

// Sports lists sports candidates.
// GET /api/markets/sports?max_hours=48&limit=0
func (h *DashboardHandler) Sports(w http.ResponseWriter, r *http.Request) {
	h.category(w, r, market.IsSports)
}

// Invalid lists records the parser flagged, for debugging.
// GET /api/markets/invalid?max_hours=48
func (h *DashboardHandler) Invalid(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "list invalid markets")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, marketListResponse{
		SnapshotID: snap.ID,
		MaxHours:   snap.MaxHours,
		Markets:    nonNil(snap.Invalid),
		Count:      len(snap.Invalid),
	})
}

func (h *DashboardHandler) category(w http.ResponseWriter, r *http.Request, pred func(*domain.MarketRecord) bool) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := h.snapshot(w, r, "list markets")
	if !ok {
		return
	}

	candidates := snap.Candidates
	if queryBool(r, "valid_prices") {
		candidates = market.FilterValidPrices(candidates)
	}
	markets := market.FilterCategory(candidates, pred, limit)
	writeJSON(w, http.StatusOK, marketListResponse{
		SnapshotID: snap.ID,
		MaxHours:   snap.MaxHours,
		Markets:    markets,
		Count:      len(markets),
	})
}

// snapshot parses max_hours/refresh and fetches the snapshot, writing the
// error response itself when it fails.
func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request, op string) (*domain.Snapshot, bool) {
	maxHours := h.defaultMaxHours
	if v := r.URL.Query().Get("max_hours"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0 && f <= MaxHoursLimit) {
			writeError(w, http.StatusBadRequest, "max_hours must be in (0, 720]")
			return nil, false
		}
		maxHours = f
	}

	snap, err := h.dashboard.Snapshot(r.Context(), maxHours, queryBool(r, "refresh"))
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return nil, false
	}
	return snap, true
}

func nonNil(recs []*domain.MarketRecord) []*domain.MarketRecord {
	if recs == nil {
		return []*domain.MarketRecord{}
	}
	return recs
}
