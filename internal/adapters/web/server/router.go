package server

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// SetupRoutes builds the /api/v1 router.
func SetupRoutes(s *Server) *mux.Router {
	router := mux.NewRouter()
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(false)))
	if len(s.cfg.CORSOrigins) > 0 {
		router.Use(handlers.CORS(
			handlers.AllowedOrigins(s.cfg.CORSOrigins),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.APIKeyHeader}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		))
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RateLimitMiddleware(s.limiter))

	authz := middleware.NewAuthorizer(s.deps.Auth, s.logger)
	viewer := authz.Require(domain.RoleViewer)
	operator := authz.Require(domain.RoleOperator)
	admin := authz.Require(domain.RoleAdmin)
	handle := func(path string, guard func(http.Handler) http.Handler, h http.HandlerFunc, methods ...string) {
		api.Handle(path, guard(h)).Methods(methods...)
	}

	// Public
	api.HandleFunc("/health", s.HealthHandler.HandleHealth).Methods("GET")

	// Scans
	handle("/scans", operator, s.ScanHandler.HandleStart, "POST")
	handle("/scans", viewer, s.ScanHandler.HandleList, "GET")
	handle("/scans/active", viewer, s.ScanHandler.HandleActive, "GET")
	handle("/scans/{id}", viewer, s.ScanHandler.HandleGet, "GET")
	handle("/scans/{id}", operator, s.ScanHandler.HandleCancel, "DELETE")
	handle("/scans/{id}/export", viewer, s.ScanHandler.HandleExport, "GET")

	// Discovery and lookups
	handle("/interfaces", viewer, s.InterfaceHandler.HandleList, "GET")
	handle("/vendors", viewer, s.VendorHandler.HandleSearch, "GET")
	handle("/vendors/{mac}", viewer, s.VendorHandler.HandleLookup, "GET")

	// History
	handle("/history", viewer, s.HistoryHandler.HandleAccessPoint, "GET")
	handle("/history", admin, s.HistoryHandler.HandlePurge, "DELETE")

	// Scoring tables
	handle("/tables", viewer, s.TablesHandler.HandleGet, "GET")
	handle("/tables", admin, s.TablesHandler.HandleReplace, "PUT")

	// Metrics and events
	api.Handle("/metrics", viewer(promhttp.Handler())).Methods("GET")
	handle("/ws", viewer, s.deps.WS.HandleWebSocket, "GET")

	// Preflight requests only need to reach the CORS middleware.
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}
