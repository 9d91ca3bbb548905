// Package server wires the HTTP API, WebSocket hub and middleware together.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/web"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/wifiradar/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Config holds HTTP server settings.
type Config struct {
	Addr              string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	ReadHeaderTimeout time.Duration
}

// Deps are the services the API exposes.
type Deps struct {
	Version    string
	Sessions   handlers.ScanSessions
	History    ports.Storage // optional
	Interfaces ports.InterfaceLister
	Vendors    handlers.VendorLookup
	Tables     handlers.TablesStore
	Auth       ports.Authenticator // nil disables auth
	WS         *web.WSManager
	Logger     *slog.Logger
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	cfg     Config
	deps    Deps
	logger  *slog.Logger
	limiter *middleware.RateLimiter

	ScanHandler      *handlers.ScanHandler
	InterfaceHandler *handlers.InterfaceHandler
	VendorHandler    *handlers.VendorHandler
	HistoryHandler   *handlers.HistoryHandler
	TablesHandler    *handlers.TablesHandler
	HealthHandler    *handlers.HealthHandler

	router *mux.Router
	srv    *http.Server
}

// NewServer creates a new web server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.WS == nil {
		deps.WS = web.NewWSManager(cfg.CORSOrigins, logger)
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:              cfg,
		deps:             deps,
		logger:           logger,
		limiter:          middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitRequests),
		ScanHandler:      handlers.NewScanHandler(deps.Sessions, deps.History, logger),
		InterfaceHandler: handlers.NewInterfaceHandler(deps.Interfaces, logger),
		VendorHandler:    handlers.NewVendorHandler(deps.Vendors, logger),
		HistoryHandler:   handlers.NewHistoryHandler(deps.History, logger),
		TablesHandler:    handlers.NewTablesHandler(deps.Tables, logger),
		HealthHandler:    handlers.NewHealthHandler(deps.Version, deps.Sessions, deps.Vendors, deps.History != nil, logger),
	}
	s.router = SetupRoutes(s)
	return s
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, telemetry.ServiceName+"-http")
}

// Run serves until ctx is done, then shuts down gracefully. The WebSocket
// hub and the rate limiter cleanup run alongside.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	go s.deps.WS.Run(ctx)
	go s.limiter.Run(ctx, s.cfg.RateLimitWindow)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Web server listening", "addr", s.cfg.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Web server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Web server shutdown error", "error", err)
		return err
	}
	return nil
}
