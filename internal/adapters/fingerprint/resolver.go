package fingerprint

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

// Resolver adapts a VendorRepository to the pipeline's vendor port. It never
// fails: anything that cannot be resolved becomes domain.UnknownVendor.
type Resolver struct {
	repo   VendorRepository
	logger *slog.Logger
}

// NewResolver creates a resolver over repo.
func NewResolver(repo VendorRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// NewDefaultResolver builds the usual chain: SQLite registry at dbPath with
// the built-in table as fallback. When the registry cannot be opened the
// built-in table is used alone.
func NewDefaultResolver(dbPath string, cacheSize int, logger *slog.Logger) (*Resolver, VendorRepository) {
	if logger == nil {
		logger = slog.Default()
	}
	static := NewStaticVendorRepository(CommonOUIs)
	if dbPath == "" {
		return NewResolver(static, logger), static
	}

	db, err := NewOUIDatabase(dbPath, cacheSize, static)
	if err != nil {
		logger.Warn("OUI database unavailable, using built-in vendor table", "path", dbPath, "error", err)
		return NewResolver(static, logger), static
	}
	if stats, err := db.GetStats(context.Background()); err == nil {
		logger.Info("OUI database initialized", "entries", stats.TotalEntries, "last_updated", stats.LastUpdated)
	}
	return NewResolver(db, logger), db
}

// ResolveVendor returns the cleaned vendor name for the BSSID's prefix.
func (r *Resolver) ResolveVendor(ctx context.Context, bssid string) string {
	mac, err := ParseMAC(bssid)
	if err != nil {
		telemetry.VendorLookups.WithLabelValues("invalid").Inc()
		return domain.UnknownVendor
	}

	vendor, err := r.repo.LookupVendor(ctx, mac)
	switch {
	case err == nil:
		if name := CleanVendorName(vendor); name != "" {
			telemetry.VendorLookups.WithLabelValues("found").Inc()
			return name
		}
		telemetry.VendorLookups.WithLabelValues("unknown").Inc()
	case errors.Is(err, ErrVendorNotFound):
		telemetry.VendorLookups.WithLabelValues("unknown").Inc()
	default:
		telemetry.VendorLookups.WithLabelValues("error").Inc()
		r.logger.Debug("Vendor lookup failed", "bssid", bssid, "error", err)
	}
	return domain.UnknownVendor
}

// Lookup resolves a MAC address and reports whether the prefix is known.
func (r *Resolver) Lookup(ctx context.Context, mac string) (VendorInfo, error) {
	parsed, err := ParseMAC(mac)
	if err != nil {
		return VendorInfo{}, err
	}
	vendor := r.ResolveVendor(ctx, parsed.String())
	return VendorInfo{
		MAC:                 parsed.String(),
		OUI:                 parsed.OUI(),
		Vendor:              vendor,
		Known:               vendor != domain.UnknownVendor,
		LocallyAdministered: parsed.IsLocallyAdministered(),
	}, nil
}

// VendorInfo describes the vendor resolution of one address.
type VendorInfo struct {
	MAC                 string `json:"mac_address"`
	OUI                 string `json:"oui"`
	Vendor              string `json:"vendor"`
	Known               bool   `json:"is_known"`
	LocallyAdministered bool   `json:"locally_administered"`
}

// Search finds vendors by name when the repository supports it.
func (r *Resolver) Search(ctx context.Context, term string, limit int) ([]OUIEntry, error) {
	s, ok := r.repo.(VendorSearcher)
	if !ok {
		return nil, nil
	}
	return s.Search(ctx, term, limit)
}

// Stats returns repository statistics when supported.
func (r *Resolver) Stats(ctx context.Context) (RepositoryStats, error) {
	s, ok := r.repo.(VendorStats)
	if !ok {
		return RepositoryStats{}, nil
	}
	return s.GetStats(ctx)
}
