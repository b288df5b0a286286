// Package setting provides CRUD operations for the key/value settings table.
package setting

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kandinsky-studio/design-shop/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when a setting name is empty.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetValues returns the values of all existing settings in names.
// Names without a row are absent from the result.
func GetValues(ctx context.Context, db *gorm.DB, names ...string) (map[string]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	if err := db.WithContext(ctx).Where("name IN ?", names).Find(&settings).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Name] = string(s.Value)
	}

	return out, nil
}

// Set creates or overwrites a setting by name. No history is kept.
func Set(ctx context.Context, db *gorm.DB, name string, value []byte) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Name: name, Value: value}).Error
}

// Delete removes a setting by name.
func Delete(ctx context.Context, db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.WithContext(ctx).Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
