package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

const maxBodyBytes = 1 << 20

// ScanSessions is the session store surface used by the API.
type ScanSessions interface {
	Start(ctx context.Context, req domain.ScanRequest) (string, error)
	Get(id string) (domain.ScanSession, error)
	Cancel(id string) error
	Active() []domain.ScanSession
	List() []domain.ScanSession
}

// ScanHandler handles scan sessions and their exports
type ScanHandler struct {
	Sessions ScanSessions
	History  ports.Storage // nil when persistence is disabled
	logger   *slog.Logger
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(sessions ScanSessions, history ports.Storage, logger *slog.Logger) *ScanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanHandler{Sessions: sessions, History: history, logger: logger}
}

// StartResponse is returned when a scan is accepted.
type StartResponse struct {
	ScanID string            `json:"scan_id"`
	Status domain.ScanStatus `json:"status"`
}

// ListResponse wraps session lists.
type ListResponse struct {
	Scans []domain.ScanSession `json:"scans"`
	Count int                  `json:"count"`
}

// HandleStart starts an asynchronous scan
func (h *ScanHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req domain.ScanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.logger, badRequest("invalid request body: %v", err))
		return
	}

	id, err := h.Sessions.Start(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/scans/"+id)
	writeJSON(w, http.StatusAccepted, StartResponse{ScanID: id, Status: domain.ScanStarting})
}

// HandleGet returns one session, falling back to stored history
func (h *ScanHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleCancel cancels a running session
func (h *ScanHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Sessions.Cancel(id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StartResponse{ScanID: id, Status: domain.ScanCancelled})
}

// HandleList lists sessions; source=history reads stored scans
func (h *ScanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("source") == "history" {
		if h.History == nil {
			writeError(w, r, h.logger, errStorageDisabled)
			return
		}
		limit, err := queryInt(r, "limit", 50)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		scans, err := h.History.ListScans(r.Context(), limit)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ListResponse{Scans: scans, Count: len(scans)})
		return
	}

	writeJSON(w, http.StatusOK, summaries(h.Sessions.List()))
}

// HandleActive lists sessions that have not finished
func (h *ScanHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summaries(h.Sessions.Active()))
}

func (h *ScanHandler) lookup(ctx context.Context, id string) (domain.ScanSession, error) {
	session, err := h.Sessions.Get(id)
	if err == nil || !errors.Is(err, domain.ErrSessionNotFound) || h.History == nil {
		return session, err
	}
	stored, herr := h.History.GetScan(ctx, id)
	if herr != nil {
		return domain.ScanSession{}, herr
	}
	return *stored, nil
}

// summaries drops records from list responses
func summaries(sessions []domain.ScanSession) ListResponse {
	out := make([]domain.ScanSession, len(sessions))
	for i, s := range sessions {
		s.AccessPoints = nil
		out[i] = s
	}
	return ListResponse{Scans: out, Count: len(out)}
}
