package store

import (
	"context"
	"fmt"

	"filmorate_social/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsStore system_settings 表
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) LoadSettings(ctx context.Context) ([]model.SystemSettings, error) {
	var settings []model.SystemSettings
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsStore) SaveSetting(ctx context.Context, setting *model.SystemSettings) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"setting_value", "description", "updated_at"}),
		}).
		Create(setting).Error
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
