package fingerprint

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// VendorRepository looks up the registered vendor of a MAC prefix
type VendorRepository interface {
	// LookupVendor returns ErrVendorNotFound when the prefix is not registered
	LookupVendor(ctx context.Context, mac MACAddress) (string, error)

	// Close releases any resources held by the repository
	Close() error
}

// VendorWriter stores registry entries
type VendorWriter interface {
	InsertOUI(ctx context.Context, entry OUIEntry) error
	BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error
}

// VendorSearcher finds registry entries by vendor name
type VendorSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]OUIEntry, error)
}

// VendorStats provides statistics about a repository
type VendorStats interface {
	GetStats(ctx context.Context) (RepositoryStats, error)
}

// RepositoryStats contains statistics about a vendor repository
type RepositoryStats struct {
	TotalEntries int       `json:"total_entries"`
	CacheHits    int64     `json:"cache_hits"`
	CacheMisses  int64     `json:"cache_misses"`
	LastUpdated  time.Time `json:"last_updated"`
}

// NeedsRefresh reports whether the registry is older than maxAge or empty.
func (s RepositoryStats) NeedsRefresh(now time.Time, maxAge time.Duration) bool {
	return s.TotalEntries == 0 || s.LastUpdated.IsZero() || now.Sub(s.LastUpdated) > maxAge
}

// CompositeVendorRepository tries repositories in order until one answers
type CompositeVendorRepository struct {
	repositories []VendorRepository
}

// NewCompositeVendorRepository creates a chain over repos
func NewCompositeVendorRepository(repos ...VendorRepository) *CompositeVendorRepository {
	return &CompositeVendorRepository{repositories: repos}
}

// LookupVendor returns the first non-empty answer. A failing repository does
// not stop the chain; its error is reported only if nothing answered.
func (c *CompositeVendorRepository) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	if !mac.IsValid() {
		return "", ErrInvalidMAC
	}

	var lastErr error
	for _, repo := range c.repositories {
		vendor, err := repo.LookupVendor(ctx, mac)
		if err == nil && vendor != "" {
			return vendor, nil
		}
		if err != nil && !errors.Is(err, ErrVendorNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrVendorNotFound
}

// Search merges results of every searchable repository, first one wins per prefix.
func (c *CompositeVendorRepository) Search(ctx context.Context, term string, limit int) ([]OUIEntry, error) {
	seen := make(map[string]struct{})
	var out []OUIEntry
	for _, repo := range c.repositories {
		s, ok := repo.(VendorSearcher)
		if !ok {
			continue
		}
		entries, err := s.Search(ctx, term, limit)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if _, dup := seen[e.Prefix]; dup {
				continue
			}
			seen[e.Prefix] = struct{}{}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Close closes all repositories
func (c *CompositeVendorRepository) Close() error {
	var errs []error
	for _, repo := range c.repositories {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StaticVendorRepository serves lookups from an in-memory prefix map
type StaticVendorRepository struct {
	vendors map[string]string
}

// NewStaticVendorRepository creates a static repository. Keys are "XX:XX:XX".
func NewStaticVendorRepository(vendors map[string]string) *StaticVendorRepository {
	return &StaticVendorRepository{vendors: vendors}
}

// LookupVendor looks up the prefix in the map
func (s *StaticVendorRepository) LookupVendor(_ context.Context, mac MACAddress) (string, error) {
	if vendor, ok := s.vendors[mac.OUI()]; ok {
		return vendor, nil
	}
	return "", ErrVendorNotFound
}

// Search returns entries whose vendor contains term, sorted by prefix
func (s *StaticVendorRepository) Search(_ context.Context, term string, limit int) ([]OUIEntry, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []OUIEntry
	for prefix, vendor := range s.vendors {
		if strings.Contains(strings.ToLower(vendor), term) {
			out = append(out, OUIEntry{Prefix: prefix, Vendor: vendor, VendorShort: vendor})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the static repository
func (s *StaticVendorRepository) Close() error {
	return nil
}
