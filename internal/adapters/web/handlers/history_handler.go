package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

// HistoryHandler serves stored sightings
type HistoryHandler struct {
	History ports.Storage // nil when persistence is disabled
	logger  *slog.Logger
	now     func() time.Time
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(history ports.Storage, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{History: history, logger: logger, now: time.Now}
}

// HandleAccessPoint returns the sightings of one BSSID
func (h *HistoryHandler) HandleAccessPoint(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, r, h.logger, errStorageDisabled)
		return
	}
	mac, err := fingerprint.ParseMAC(r.URL.Query().Get("bssid"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	since, err := queryTime(r, "since", h.now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	records, err := h.History.AccessPointHistory(r.Context(), mac.String(), since)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if records == nil {
		records = []domain.AccessPointRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bssid":     mac.String(),
		"sightings": records,
		"count":     len(records),
	})
}

// HandlePurge deletes stored scans finished before the cutoff
func (h *HistoryHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, r, h.logger, errStorageDisabled)
		return
	}
	before, err := queryTime(r, "before", h.now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if before.IsZero() {
		writeError(w, r, h.logger, badRequest("query parameter before is required"))
		return
	}

	n, err := h.History.PurgeBefore(r.Context(), before)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Scan history purged", "before", before, "scans", n)
	writeJSON(w, http.StatusOK, map[string]any{"purged": n, "before": before})
}
