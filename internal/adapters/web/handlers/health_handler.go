package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports process status
type HealthHandler struct {
	Version  string
	Sessions ScanSessions
	Vendors  VendorLookup
	History  bool
	started  time.Time
	logger   *slog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, sessions ScanSessions, vendors VendorLookup, history bool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		Version:  version,
		Sessions: sessions,
		Vendors:  vendors,
		History:  history,
		started:  time.Now(),
		logger:   logger,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Uptime      string    `json:"uptime"`
	ActiveScans int       `json:"active_scans"`
	History     bool      `json:"history_enabled"`
	OUIEntries  int       `json:"oui_entries"`
	OUIUpdated  time.Time `json:"oui_last_updated,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// HandleHealth returns liveness and component information
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Version:     h.Version,
		Uptime:      time.Since(h.started).Truncate(time.Second).String(),
		ActiveScans: len(h.Sessions.Active()),
		History:     h.History,
		Timestamp:   time.Now().UTC(),
	}
	if h.Vendors != nil {
		if stats, err := h.Vendors.Stats(r.Context()); err == nil {
			resp.OUIEntries = stats.TotalEntries
			resp.OUIUpdated = stats.LastUpdated
		} else {
			h.logger.Debug("OUI stats unavailable", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
