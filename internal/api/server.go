// Package api wires the HTTP surface: pass predictions, ephemeris
// coverage, the satellite catalog, and operational endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/skywatch/overpass/internal/auth"
	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/config"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/health"
	"github.com/skywatch/overpass/internal/httputil"
	"github.com/skywatch/overpass/internal/metrics"
	"github.com/skywatch/overpass/internal/transform"
)

// Deps carries everything the handlers need.
type Deps struct {
	Observer   transform.Observer
	Satellites []catalog.Satellite // index-aligned with dataset ephemerides
	Catalog    *catalog.Store
	Ephemeris  *ephem.Store
	Search     config.Search

	// Refresh refetches the catalog and regenerates ephemerides.
	// Nil disables the /api/v1/refresh endpoint.
	Refresh func(ctx context.Context) error

	TrustProxy bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	deps       Deps
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, deps Deps) *Server {
	s := &Server{logger: logger, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool {
		return deps.Ephemeris.Get() != nil
	}))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/passes", s.handleAllPasses)
	mux.HandleFunc("GET /api/v1/passes/{norad_id}", s.handleSatellitePasses)
	mux.HandleFunc("GET /api/v1/range", s.handleRange)
	mux.HandleFunc("GET /api/v1/satellites", s.handleSatellites)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = httputil.LogRequests(logger, deps.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
