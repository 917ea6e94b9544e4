package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/activity"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormActivityRepository implements activity.Repository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Create appends a log entry
func (r *GormActivityRepository) Create(ctx context.Context, log *activity.Log) error {
	m := &models.ActivityLogModel{}
	m.FromDomain(log)
	return r.db.WithContext(ctx).Create(m).Error
}

// FindAll returns entries newest first with the total count
func (r *GormActivityRepository) FindAll(ctx context.Context, filter activity.Filter) ([]*activity.Log, int64, error) {
	var logModels []*models.ActivityLogModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ActivityLogModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&logModels).Error; err != nil {
		return nil, 0, err
	}
	return toLogs(logModels), total, nil
}

// FindRecent returns the newest entries
func (r *GormActivityRepository) FindRecent(ctx context.Context, limit int) ([]*activity.Log, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var logModels []*models.ActivityLogModel
	if err := r.db.WithContext(ctx).Order("created_at DESC, id ASC").Limit(limit).Find(&logModels).Error; err != nil {
		return nil, err
	}
	return toLogs(logModels), nil
}

// DeleteOlderThan removes entries created before cutoff and returns the count
func (r *GormActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLogModel{})
	return result.RowsAffected, result.Error
}

func toLogs(logModels []*models.ActivityLogModel) []*activity.Log {
	logs := make([]*activity.Log, len(logModels))
	for i, m := range logModels {
		logs[i] = m.ToDomain()
	}
	return logs
}
