package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormBackupRepository implements backup.Repository using GORM
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// Create stores backup metadata
func (r *GormBackupRepository) Create(ctx context.Context, b *backup.Backup) error {
	m := &models.BackupModel{}
	m.FromDomain(b)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Delete removes backup metadata
func (r *GormBackupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affectedOrNotFound(r.db.WithContext(ctx).Delete(&models.BackupModel{}, "id = ?", id))
}

// FindByID finds a backup by ID
func (r *GormBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*backup.Backup, error) {
	var m models.BackupModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns backups newest first with the total count
func (r *GormBackupRepository) FindAll(ctx context.Context, filter backup.Filter) ([]*backup.Backup, int64, error) {
	var backupModels []*models.BackupModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BackupModel{})
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&backupModels).Error; err != nil {
		return nil, 0, err
	}
	return toBackups(backupModels), total, nil
}

// FindByTypeOlderThanNewest returns backups of type beyond the newest keep entries
func (r *GormBackupRepository) FindByTypeOlderThanNewest(ctx context.Context, backupType backup.Type, keep int) ([]*backup.Backup, error) {
	if keep < 0 {
		keep = 0
	}
	var backupModels []*models.BackupModel
	if err := r.db.WithContext(ctx).
		Where("type = ?", backupType).
		Order("created_at DESC, id ASC").
		Offset(keep).Limit(10000).
		Find(&backupModels).Error; err != nil {
		return nil, err
	}
	return toBackups(backupModels), nil
}

func toBackups(backupModels []*models.BackupModel) []*backup.Backup {
	result := make([]*backup.Backup, len(backupModels))
	for i, m := range backupModels {
		result[i] = m.ToDomain()
	}
	return result
}
