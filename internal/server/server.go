// Package server exposes the ingest and reporting HTTP API
// consumed by the UK PACK client and the analytics dashboard.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ukpack/ukstats/internal/config"
	"github.com/ukpack/ukstats/internal/index"
	"github.com/ukpack/ukstats/internal/ingest"
	"github.com/ukpack/ukstats/internal/report"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server for the REST API.
type Server struct {
	mu       sync.RWMutex
	cfg      config.Config
	db       *index.DB
	engine   *ingest.Engine
	reporter *report.Reporter
	mux      *http.ServeMux
	httpSrv  *http.Server
	version  VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server.
func New(
	cfg config.Config,
	database *index.DB,
	engine *ingest.Engine,
	reporter *report.Reporter,
	opts ...Option,
) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		engine:   engine,
		reporter: reporter,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// SetPort overrides the configured port before ListenAndServe.
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

func (s *Server) routes() {
	s.mux.Handle("POST /api/v1/events", s.withTimeout(s.handleIngestEvent))

	s.mux.Handle("GET /api/v1/reports/summary", s.withTimeout(s.handleEngagement))
	s.mux.Handle("GET /api/v1/reports/reasoning", s.withTimeout(s.handleReasoning))
	s.mux.Handle("GET /api/v1/reports/journey", s.withTimeout(s.handleJourneyFunnel))
	s.mux.Handle("GET /api/v1/reports/reward-funnel", s.withTimeout(s.handleRewardFunnel))
	s.mux.Handle("GET /api/v1/reports/minigames/priority", s.withTimeout(s.handlePriorityMinigame))
	s.mux.Handle("GET /api/v1/reports/minigames/beneficiary", s.withTimeout(s.handleBeneficiaryMinigame))
	s.mux.Handle("GET /api/v1/reports/minigames/budget", s.withTimeout(s.handleBudgetMinigame))
	s.mux.Handle("GET /api/v1/reports/satisfaction", s.withTimeout(s.handleSatisfaction))
	s.mux.Handle("GET /api/v1/reports/fakenews", s.withTimeout(s.handleFakeNews))
	s.mux.Handle("GET /api/v1/reports/sessions", s.withTimeout(s.handleSessionSummaries))

	s.mux.Handle("GET /api/v1/feedback/suggestions", s.withTimeout(s.handleSuggestions))
	s.mux.Handle("GET /api/v1/feedback/custom-reasons", s.withTimeout(s.handleCustomReasons))

	s.mux.Handle("GET /api/v1/sessions", s.withTimeout(s.handleListSessions))
	s.mux.Handle("GET /api/v1/sessions/{id}", s.withTimeout(s.handleGetSession))
	s.mux.Handle("GET /api/v1/sessions/{id}/events", s.withTimeout(s.handleSessionEvents))

	s.mux.Handle("GET /api/v1/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
	s.mux.HandleFunc("POST /api/v1/reindex", s.handleReindex)
	s.mux.Handle("GET /api/v1/ingest/status", s.withTimeout(s.handleIngestStatus))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("stats error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReindex rebuilds the read-model from the log. Not
// timeout-wrapped: a full rebuild may legitimately exceed the
// write timeout.
func (s *Server) handleReindex(
	w http.ResponseWriter, _ *http.Request,
) {
	stats, err := s.engine.Rebuild()
	if err != nil {
		log.Printf("reindex error: %v", err)
		writeError(w, http.StatusInternalServerError,
			"internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIngestStatus(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, map[string]any{
		"last_run":   s.engine.LastRun(),
		"last_stats": s.engine.LastStats(),
	})
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set(
				"Access-Control-Allow-Methods",
				"GET, POST, OPTIONS",
			)
			w.Header().Set(
				"Access-Control-Allow-Headers",
				"Content-Type",
			)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}
