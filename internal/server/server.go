// Package server provides the HTTP status surface for the bot runtime.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/market"
	"github.com/moneysignal/signals/internal/scheduler"
	"github.com/moneysignal/signals/internal/stats"
)

// StatsSource exposes the persisted stats document.
type StatsSource interface {
	Snapshot() *stats.Document
}

// JobSource exposes the scheduler's live job states.
type JobSource interface {
	Snapshot() []scheduler.JobStatus
}

// BotInfo is the static registry view the status endpoint reports.
type BotInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"-"`
	Enabled  bool          `json:"enabled"`
	TestMode bool          `json:"test_mode"`
}

// Config wires the HTTP server.
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Calendar  *market.Calendar
	Stats     StatsSource
	Jobs      JobSource
	Bots      []BotInfo
	StartedAt time.Time
}

// Server is the HTTP status server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	calendar  *market.Calendar
	stats     StatsSource
	jobs      JobSource
	bots      []BotInfo
	startedAt time.Time
}

// New creates the server and mounts its routes.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		calendar:  cfg.Calendar,
		stats:     cfg.Stats,
		jobs:      cfg.Jobs,
		bots:      cfg.Bots,
		startedAt: cfg.StartedAt,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	if cfg.DevMode {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	s.router.Get("/", s.handleStatus)
	s.router.Get("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
