package fingerprint

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RegistryStore is the part of the OUI database the updater writes to.
type RegistryStore interface {
	VendorStats
	BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error
}

// Updater keeps the OUI registry fresh by downloading it again once it is
// older than MaxAge.
type Updater struct {
	store  RegistryStore
	source string
	maxAge time.Duration
	logger *slog.Logger

	// URL overrides the source's default download location.
	URL    string
	Client *http.Client
}

// NewUpdater creates an updater for store. An empty source means IEEE and
// maxAge <= 0 means RefreshInterval.
func NewUpdater(store RegistryStore, source string, maxAge time.Duration, logger *slog.Logger) *Updater {
	if source == "" {
		source = SourceIEEE
	}
	if maxAge <= 0 {
		maxAge = RefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{store: store, source: source, maxAge: maxAge, logger: logger}
}

// Refresh downloads and stores the registry when it is stale, or always
// when force is set. It returns the number of entries imported, 0 when the
// registry was fresh.
func (u *Updater) Refresh(ctx context.Context, force bool) (int, error) {
	if !force {
		stats, err := u.store.GetStats(ctx)
		if err != nil {
			return 0, err
		}
		if !stats.NeedsRefresh(time.Now(), u.maxAge) {
			return 0, nil
		}
	}

	u.logger.Info("Downloading OUI registry", "source", u.source)
	entries, err := FetchURL(ctx, u.Client, u.URL, u.source)
	if err != nil {
		return 0, err
	}
	if err := u.store.BulkInsertOUIs(ctx, entries); err != nil {
		return 0, err
	}
	u.logger.Info("OUI registry updated", "source", u.source, "entries", len(entries))
	return len(entries), nil
}

// Run refreshes on start and then every interval until ctx is done.
// Failures are logged; lookups keep using the current registry.
func (u *Updater) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := u.Refresh(ctx, false); err != nil && ctx.Err() == nil {
			u.logger.Warn("OUI registry update failed", "source", u.source, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
