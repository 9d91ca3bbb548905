package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

const (
	batchSize        = 100
	defaultListLimit = 50
)

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("failed to enable db tracing: %w", err)
	}

	// SQLite allows one writer; serialize through a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&ScanModel{}, &RecordModel{}, &domain.APIKey{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scan_models(started_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_records_bssid_seen ON record_models(bssid, last_seen)")

	return &SQLiteAdapter{db: db}, nil
}

// SaveScan saves or updates a session and its records in one transaction.
func (a *SQLiteAdapter) SaveScan(ctx context.Context, session domain.ScanSession) error {
	scan := toScanModel(session)
	records := toRecordModels(session.ID, session.AccessPoints)

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&scan).Error; err != nil {
			return fmt.Errorf("failed to save scan %s: %w", session.ID, err)
		}
		// a rescan under the same id replaces the record set
		if err := tx.Where("scan_id = ?", session.ID).Delete(&RecordModel{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			UpdateAll: true,
		}).CreateInBatches(records, batchSize).Error
	})
}

// GetScan retrieves a session with its records in scan order.
func (a *SQLiteAdapter) GetScan(ctx context.Context, id string) (*domain.ScanSession, error) {
	var model ScanModel
	err := a.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return nil, err
	}
	s := toSession(model)
	return &s, nil
}

// ListScans returns sessions newest first without their records.
func (a *SQLiteAdapter) ListScans(ctx context.Context, limit int) ([]domain.ScanSession, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var models []ScanModel
	if err := a.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	sessions := make([]domain.ScanSession, len(models))
	for i, m := range models {
		sessions[i] = toSession(m)
	}
	return sessions, nil
}

// AccessPointHistory returns every stored sighting of bssid since the given
// time, oldest first.
func (a *SQLiteAdapter) AccessPointHistory(ctx context.Context, bssid string, since time.Time) ([]domain.AccessPointRecord, error) {
	query := a.db.WithContext(ctx).Where("bssid = ?", strings.ToUpper(strings.TrimSpace(bssid)))
	if !since.IsZero() {
		query = query.Where("last_seen >= ?", since)
	}

	var models []RecordModel
	if err := query.Order("last_seen").Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.AccessPointRecord, len(models))
	for i, m := range models {
		records[i] = toRecord(m)
	}
	return records, nil
}

// PurgeBefore deletes sessions that finished before cutoff together with
// their records.
func (a *SQLiteAdapter) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&ScanModel{}).Select("id").Where("finished_at < ?", cutoff)
		if err := tx.Where("scan_id IN (?)", old).Delete(&RecordModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("finished_at < ?", cutoff).Delete(&ScanModel{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
