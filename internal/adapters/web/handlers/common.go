// Package handlers provides the HTTP handlers of the /api/v1 surface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Failed to encode response", "error", err)
	}
}

// writeError maps err to a status code and writes a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("API error", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Timestamp: time.Now().UTC()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidInterfaceName),
		errors.Is(err, domain.ErrInvalidTables),
		errors.Is(err, fingerprint.ErrInvalidMAC),
		errors.Is(err, fingerprint.ErrEmptyMAC):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, fingerprint.ErrVendorNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, errScanNotCompleted):
		return http.StatusConflict
	case errors.Is(err, errStorageDisabled):
		return http.StatusServiceUnavailable
	}
	if _, ok := domain.AsScanFailure(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

var errStorageDisabled = errors.New("scan history storage is disabled")

// queryInt extracts an integer query parameter with a default value.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s parameter %q", key, v)
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps or a Go duration meaning "ago".
func queryTime(r *http.Request, key string, now time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, badRequest("invalid %s parameter %q: want RFC 3339 time or duration", key, v)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidRequest}, args...)...)
}
