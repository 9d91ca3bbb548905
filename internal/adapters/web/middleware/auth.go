package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

type contextKey string

// KeyContextKey holds the authenticated *domain.APIKey.
const KeyContextKey contextKey = "api_key"

// APIKeyHeader carries the API token.
const APIKeyHeader = "X-API-Key"

// Authorizer checks API tokens and roles. A nil Authenticator disables auth.
type Authorizer struct {
	authn  ports.Authenticator
	logger *slog.Logger
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(authn ports.Authenticator, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{authn: authn, logger: logger}
}

// Require ensures the request carries a key granting at least role.
func (a *Authorizer) Require(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if a == nil || a.authn == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			key, err := a.authn.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, domain.ErrTooManyAttempts):
				http.Error(w, "Too many failed attempts", http.StatusTooManyRequests)
				return
			case errors.Is(err, domain.ErrUnauthorized):
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			case err != nil:
				a.logger.Error("API key check failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !key.Role.Allows(role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), KeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// KeyFromContext returns the authenticated key, if any.
func KeyFromContext(ctx context.Context) (*domain.APIKey, bool) {
	key, ok := ctx.Value(KeyContextKey).(*domain.APIKey)
	return key, ok && key != nil
}

// tokenFrom reads the header, then a bearer token, then the api_key query
// parameter used by browser WebSocket clients.
func tokenFrom(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(APIKeyHeader)); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("api_key")
}
