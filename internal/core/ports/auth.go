package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// Authenticator resolves a presented API token to its key.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.APIKey, error)
}

// KeyRepository defines the persistence layer for API keys.
type KeyRepository interface {
	// SaveKey creates or updates a key.
	SaveKey(ctx context.Context, key domain.APIKey) error
	// GetKey retrieves a key by id.
	GetKey(ctx context.Context, id string) (*domain.APIKey, error)
	// ListKeys returns all keys.
	ListKeys(ctx context.Context) ([]domain.APIKey, error)
	// DeleteKey removes a key by id or name.
	DeleteKey(ctx context.Context, idOrName string) error
	// TouchKey records the last use of a key.
	TouchKey(ctx context.Context, id string, at time.Time) error
}
