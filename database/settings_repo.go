package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-cms/models"
)

type SettingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{db}
}

// Get returns the settings row. It returns gorm.ErrRecordNotFound until the
// first save.
func (r *SettingsRepo) Get(ctx context.Context) (*models.ProfileSettings, error) {
	var settings models.ProfileSettings
	if err := r.db.WithContext(ctx).First(&settings, "id = ?", models.ProfileSettingsID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the settings row, replacing every column.
func (r *SettingsRepo) Upsert(ctx context.Context, settings *models.ProfileSettings) error {
	settings.ID = models.ProfileSettingsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
