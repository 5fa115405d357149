package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	cache  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. cache may be nil when the
// snapshot cache is in-process.
func NewHealthHandler(cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: cache, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "handler: cache ping failed",
				slog.String("error", err.Error()),
			)
			resp["status"] = "degraded"
			resp["cache"] = "unreachable"
		} else {
			resp["cache"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
