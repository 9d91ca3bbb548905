package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// Storage defines the behavior for scan history persistence.
type Storage interface {
	// SaveScan saves or updates a finished scan session and its records.
	SaveScan(ctx context.Context, session domain.ScanSession) error

	// GetScan retrieves a stored session by id.
	GetScan(ctx context.Context, id string) (*domain.ScanSession, error)

	// ListScans returns sessions newest first, limited to limit entries.
	ListScans(ctx context.Context, limit int) ([]domain.ScanSession, error)

	// AccessPointHistory returns every stored sighting of a BSSID since the given time.
	AccessPointHistory(ctx context.Context, bssid string, since time.Time) ([]domain.AccessPointRecord, error)

	// PurgeBefore deletes sessions that finished before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the storage connection.
	Close() error
}
