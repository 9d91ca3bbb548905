package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/reporting"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

var errScanNotCompleted = errors.New("scan has not completed")

// HandleExport renders a completed scan as json, csv or pdf
func (h *ScanHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := reporting.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if session.Status != domain.ScanCompleted {
		writeError(w, r, h.logger, fmt.Errorf("%w: status is %s", errScanNotCompleted, session.Status))
		return
	}

	// Render fully before writing so failures still get a JSON error.
	var buf bytes.Buffer
	if err := reporting.Export(&buf, format, reporting.NewReport(session, time.Now().UTC())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=wifiradar_%s.%s", session.ID, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
