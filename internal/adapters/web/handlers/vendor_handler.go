package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// VendorLookup resolves and searches OUI vendors.
type VendorLookup interface {
	Lookup(ctx context.Context, mac string) (fingerprint.VendorInfo, error)
	Search(ctx context.Context, term string, limit int) ([]fingerprint.OUIEntry, error)
	Stats(ctx context.Context) (fingerprint.RepositoryStats, error)
}

// VendorHandler serves OUI lookups
type VendorHandler struct {
	Vendors VendorLookup
	logger  *slog.Logger
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendors VendorLookup, logger *slog.Logger) *VendorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VendorHandler{Vendors: vendors, logger: logger}
}

// HandleLookup resolves the vendor of one MAC address
func (h *VendorHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	info, err := h.Vendors.Lookup(r.Context(), mux.Vars(r)["mac"])
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleSearch finds vendors whose name contains q
func (h *VendorHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeError(w, r, h.logger, badRequest("query parameter q is required"))
		return
	}
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit = max(1, min(limit, maxSearchLimit))

	entries, err := h.Vendors.Search(r.Context(), term, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []fingerprint.OUIEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   term,
		"results": entries,
		"count":   len(entries),
	})
}
