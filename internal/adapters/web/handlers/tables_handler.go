package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/tables"
)

// TablesStore publishes the scoring tables.
type TablesStore interface {
	Current() *domain.Tables
	Swap(t *domain.Tables) error
}

// TablesHandler exposes the scoring tables
type TablesHandler struct {
	Store  TablesStore
	logger *slog.Logger
}

// NewTablesHandler creates a new TablesHandler
func NewTablesHandler(store TablesStore, logger *slog.Logger) *TablesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TablesHandler{Store: store, logger: logger}
}

// HandleGet returns the published tables as JSON, or YAML with format=yaml
func (h *TablesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	current := h.Store.Current()
	if r.URL.Query().Get("format") != "yaml" {
		writeJSON(w, http.StatusOK, current)
		return
	}

	var buf bytes.Buffer
	if err := tables.Encode(&buf, current); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleReplace publishes tables from a YAML body. Scans already running
// keep the tables they started with.
func (h *TablesHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	t, err := tables.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.Store.Swap(t); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Configuration tables replaced via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "tables_updated"})
}
