package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/alanyoungcy/marketfocus/internal/domain"
	"github.com/alanyoungcy/marketfocus/internal/server/handler"
	"github.com/alanyoungcy/marketfocus/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// RateLimitPerMinute caps requests per client IP; 0 disables limiting.
	RateLimitPerMinute int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Dashboard *handler.DashboardHandler
	Markets   *handler.MarketHandler
}

// Server is the headless HTTP API over the dashboard pipeline.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter registers every API route and wraps the router in the middleware
// chain. limiter may be nil.
func NewRouter(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	// Routes sit on the root router so a method mismatch yields 405.
	router.HandleFunc("/api/health", handlers.Health.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/dashboard", handlers.Dashboard.Dashboard).Methods(http.MethodGet)

	// Fixed category paths are registered before {id} so they win the match.
	router.HandleFunc("/api/markets/crypto", handlers.Dashboard.Crypto).Methods(http.MethodGet)
	router.HandleFunc("/api/markets/sports", handlers.Dashboard.Sports).Methods(http.MethodGet)
	router.HandleFunc("/api/markets/invalid", handlers.Dashboard.Invalid).Methods(http.MethodGet)
	router.HandleFunc("/api/markets/{id}", handlers.Markets.GetMarket).Methods(http.MethodGet)

	router.HandleFunc("/api/raw", handlers.Markets.Raw).Methods(http.MethodGet)
	router.HandleFunc("/api/book/{token_id}", handlers.Markets.Book).Methods(http.MethodGet)

	var h http.Handler = router
	if limiter != nil && cfg.RateLimitPerMinute > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMinute, time.Minute, logger)(h)
	}
	h = middleware.Logging(logger)(h)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	return c.Handler(h)
}

// NewServer creates a new Server with all routes registered.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, handlers, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
