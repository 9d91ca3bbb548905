package fingerprint

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	ouiSchema = `
	CREATE TABLE IF NOT EXISTS oui_registry (
		prefix TEXT PRIMARY KEY,
		vendor TEXT NOT NULL,
		vendor_short TEXT,
		address TEXT,
		country TEXT,
		last_updated INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_vendor ON oui_registry(vendor);
	CREATE INDEX IF NOT EXISTS idx_vendor_short ON oui_registry(vendor_short);
	`

	ouiLookupQuery = "SELECT COALESCE(NULLIF(vendor_short, ''), vendor) FROM oui_registry WHERE prefix = ?"

	ouiUpsert = `
	INSERT OR REPLACE INTO oui_registry (prefix, vendor, vendor_short, address, country, last_updated)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	ouiSearchQuery = `
	SELECT prefix, vendor, COALESCE(vendor_short, ''), COALESCE(address, ''), COALESCE(country, ''), COALESCE(last_updated, 0)
	FROM oui_registry
	WHERE vendor LIKE ? OR vendor_short LIKE ?
	ORDER BY prefix
	LIMIT ?
	`

	ouiStatsQuery = "SELECT COUNT(*), COALESCE(MAX(last_updated), 0) FROM oui_registry"
)

// OUIDatabase serves vendor lookups from the SQLite OUI registry.
// It implements VendorRepository, VendorWriter, VendorSearcher and VendorStats.
type OUIDatabase struct {
	db       *sql.DB
	cache    *OUICache
	mu       sync.RWMutex
	fallback VendorRepository
	closed   bool

	lookupStmt *sql.Stmt
}

// OUIEntry represents a single OUI registry entry
type OUIEntry struct {
	Prefix      string    `json:"prefix"`
	Vendor      string    `json:"vendor"`
	VendorShort string    `json:"vendor_short,omitempty"`
	Address     string    `json:"address,omitempty"`
	Country     string    `json:"country,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewOUIDatabase opens (creating if needed) the registry at dbPath.
// fallback, when set, answers prefixes missing from the registry.
func NewOUIDatabase(dbPath string, cacheSize int, fallback VendorRepository) (*OUIDatabase, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &DatabaseError{Op: "ping", Err: err}
	}

	oui, err := OpenOUIDatabase(db, cacheSize, fallback)
	if err != nil {
		db.Close()
		return nil, err
	}
	return oui, nil
}

// OpenOUIDatabase wraps an already opened handle. The repository owns db
// afterwards and closes it on Close.
func OpenOUIDatabase(db *sql.DB, cacheSize int, fallback VendorRepository) (*OUIDatabase, error) {
	if _, err := db.Exec(ouiSchema); err != nil {
		return nil, &DatabaseError{Op: "initialize_schema", Err: err}
	}

	stmt, err := db.Prepare(ouiLookupQuery)
	if err != nil {
		return nil, &DatabaseError{Op: "prepare_statement", Err: err}
	}

	return &OUIDatabase{
		db:         db,
		cache:      NewOUICache(cacheSize),
		fallback:   fallback,
		lookupStmt: stmt,
	}, nil
}

func (o *OUIDatabase) isClosed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.closed
}

// LookupVendor implements VendorRepository
func (o *OUIDatabase) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	if o.isClosed() {
		return "", ErrRepositoryClosed
	}
	if !mac.IsValid() {
		return "", ErrInvalidMAC
	}

	prefix := mac.OUI()
	if vendor, ok := o.cache.Get(prefix); ok {
		return vendor, nil
	}

	var vendor string
	err := o.lookupStmt.QueryRowContext(ctx, prefix).Scan(&vendor)
	switch {
	case err == nil:
		o.cache.Set(prefix, vendor)
		return vendor, nil

	case errors.Is(err, sql.ErrNoRows):
		if o.fallback != nil {
			if v, ferr := o.fallback.LookupVendor(ctx, mac); ferr == nil && v != "" {
				o.cache.Set(prefix, v)
				return v, nil
			}
		}
		return "", ErrVendorNotFound

	default:
		if o.fallback != nil {
			if v, ferr := o.fallback.LookupVendor(ctx, mac); ferr == nil && v != "" {
				return v, nil
			}
		}
		return "", &DatabaseError{Op: "lookup", Err: err}
	}
}

// InsertOUI implements VendorWriter
func (o *OUIDatabase) InsertOUI(ctx context.Context, entry OUIEntry) error {
	return o.BulkInsertOUIs(ctx, []OUIEntry{entry})
}

// BulkInsertOUIs upserts entries in one transaction and invalidates the cache
func (o *OUIDatabase) BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrRepositoryClosed
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return &DatabaseError{Op: "begin_transaction", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, ouiUpsert)
	if err != nil {
		return &DatabaseError{Op: "prepare_bulk_insert", Err: err}
	}
	defer stmt.Close()

	now := time.Now()
	for _, entry := range entries {
		prefix := normalizePrefix(entry.Prefix)
		if prefix == "" || strings.TrimSpace(entry.Vendor) == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			prefix,
			entry.Vendor,
			entry.VendorShort,
			entry.Address,
			entry.Country,
			cmp.Or(entry.LastUpdated, now).Unix(),
		)
		if err != nil {
			return &DatabaseError{Op: "bulk_insert_entry", Err: fmt.Errorf("%s: %w", prefix, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &DatabaseError{Op: "commit_transaction", Err: err}
	}
	o.cache.Clear()
	return nil
}

// Search implements VendorSearcher with a case-insensitive substring match
func (o *OUIDatabase) Search(ctx context.Context, term string, limit int) ([]OUIEntry, error) {
	if o.isClosed() {
		return nil, ErrRepositoryClosed
	}
	if limit <= 0 {
		limit = 50
	}
	like := "%" + strings.TrimSpace(term) + "%"

	rows, err := o.db.QueryContext(ctx, ouiSearchQuery, like, like, limit)
	if err != nil {
		return nil, &DatabaseError{Op: "search", Err: err}
	}
	defer rows.Close()

	var out []OUIEntry
	for rows.Next() {
		var (
			e       OUIEntry
			updated int64
		)
		if err := rows.Scan(&e.Prefix, &e.Vendor, &e.VendorShort, &e.Address, &e.Country, &updated); err != nil {
			return nil, &DatabaseError{Op: "search_scan", Err: err}
		}
		if updated > 0 {
			e.LastUpdated = time.Unix(updated, 0).UTC()
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Op: "search", Err: err}
	}
	return out, nil
}

// GetStats implements VendorStats
func (o *OUIDatabase) GetStats(ctx context.Context) (RepositoryStats, error) {
	if o.isClosed() {
		return RepositoryStats{}, ErrRepositoryClosed
	}

	var (
		count          int
		lastUpdateUnix int64
	)
	if err := o.db.QueryRowContext(ctx, ouiStatsQuery).Scan(&count, &lastUpdateUnix); err != nil {
		return RepositoryStats{}, &DatabaseError{Op: "get_stats", Err: err}
	}

	stats := o.cache.Stats()
	rs := RepositoryStats{
		TotalEntries: count,
		CacheHits:    stats.Hits,
		CacheMisses:  stats.Misses,
	}
	if lastUpdateUnix > 0 {
		rs.LastUpdated = time.Unix(lastUpdateUnix, 0).UTC()
	}
	return rs, nil
}

// Close implements VendorRepository
func (o *OUIDatabase) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	if o.lookupStmt != nil {
		o.lookupStmt.Close()
	}
	o.cache.Close()
	if o.fallback != nil {
		o.fallback.Close()
	}
	return o.db.Close()
}
