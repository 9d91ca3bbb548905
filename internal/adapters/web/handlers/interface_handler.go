package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

// InterfaceHandler lists wireless interfaces
type InterfaceHandler struct {
	Lister ports.InterfaceLister
	logger *slog.Logger
}

// NewInterfaceHandler creates a new InterfaceHandler
func NewInterfaceHandler(lister ports.InterfaceLister, logger *slog.Logger) *InterfaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterfaceHandler{Lister: lister, logger: logger}
}

// HandleList returns the detected wireless interfaces
func (h *InterfaceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ifaces, err := h.Lister.ListInterfaces(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interfaces": ifaces,
		"count":      len(ifaces),
	})
}
