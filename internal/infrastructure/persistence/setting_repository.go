package persistence

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormSettingRepository implements settings.Repository using GORM
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// FindAll returns settings ordered by key, optionally of one category
func (r *GormSettingRepository) FindAll(ctx context.Context, category string) ([]*settings.Setting, error) {
	var settingModels []*models.SystemSettingModel
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", strings.ToLower(category))
	}
	if err := query.Order("category ASC, key ASC").Find(&settingModels).Error; err != nil {
		return nil, err
	}
	result := make([]*settings.Setting, len(settingModels))
	for i, m := range settingModels {
		result[i] = m.ToDomain()
	}
	return result, nil
}

// FindByKey finds a setting by key
func (r *GormSettingRepository) FindByKey(ctx context.Context, key string) (*settings.Setting, error) {
	var m models.SystemSettingModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", strings.ToLower(strings.TrimSpace(key))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Save inserts or overwrites a setting
func (r *GormSettingRepository) Save(ctx context.Context, s *settings.Setting) error {
	m := &models.SystemSettingModel{}
	m.FromDomain(s)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "value_type", "category", "description", "updated_by", "updated_at"}),
	}).Create(m).Error
}

// Delete removes a setting
func (r *GormSettingRepository) Delete(ctx context.Context, key string) error {
	return affectedOrNotFound(r.db.WithContext(ctx).
		Delete(&models.SystemSettingModel{}, "key = ?", strings.ToLower(strings.TrimSpace(key))))
}

// CreateIfMissing inserts s when its key does not exist yet
func (r *GormSettingRepository) CreateIfMissing(ctx context.Context, s *settings.Setting) error {
	m := &models.SystemSettingModel{}
	m.FromDomain(s)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}
