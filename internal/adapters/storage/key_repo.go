package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
)

// Ensure interface compliance
var _ ports.KeyRepository = (*SQLiteAdapter)(nil)

// SaveKey creates or updates a key.
func (a *SQLiteAdapter) SaveKey(ctx context.Context, key domain.APIKey) error {
	err := a.db.WithContext(ctx).Save(&key).Error
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", domain.ErrKeyNameTaken, key.Name)
	}
	return err
}

// GetKey retrieves a key by its ID.
func (a *SQLiteAdapter) GetKey(ctx context.Context, id string) (*domain.APIKey, error) {
	var key domain.APIKey
	if err := a.db.WithContext(ctx).First(&key, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

// ListKeys returns all keys ordered by creation time.
func (a *SQLiteAdapter) ListKeys(ctx context.Context) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	if err := a.db.WithContext(ctx).Order("created_at").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteKey removes a key by id or name.
func (a *SQLiteAdapter) DeleteKey(ctx context.Context, idOrName string) error {
	res := a.db.WithContext(ctx).Where("id = ? OR name = ?", idOrName, idOrName).Delete(&domain.APIKey{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

// TouchKey records the last use of a key.
func (a *SQLiteAdapter) TouchKey(ctx context.Context, id string, at time.Time) error {
	return a.db.WithContext(ctx).Model(&domain.APIKey{}).Where("id = ?", id).Update("last_used", at).Error
}
