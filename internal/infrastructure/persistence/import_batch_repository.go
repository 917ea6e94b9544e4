package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormImportBatchRepository implements bulk.ImportBatchRepository using GORM
type GormImportBatchRepository struct {
	db *gorm.DB
}

// NewGormImportBatchRepository creates a new GormImportBatchRepository
func NewGormImportBatchRepository(db *gorm.DB) *GormImportBatchRepository {
	return &GormImportBatchRepository{db: db}
}

// FindByID finds a batch by ID
func (r *GormImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportBatch, error) {
	var m models.ImportBatchModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns batches newest first with the total count
func (r *GormImportBatchRepository) FindAll(ctx context.Context, filter bulk.BatchFilter) ([]*bulk.ImportBatch, int64, error) {
	var batchModels []*models.ImportBatchModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ImportBatchModel{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ImportedBy != nil {
		query = query.Where("imported_by = ?", *filter.ImportedBy)
	}
	if filter.StartedFrom != nil {
		query = query.Where("started_at >= ?", *filter.StartedFrom)
	}
	if filter.StartedTo != nil {
		query = query.Where("started_at <= ?", *filter.StartedTo)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&batchModels).Error; err != nil {
		return nil, 0, err
	}
	return toBatches(batchModels), total, nil
}

// Save creates or updates a batch
func (r *GormImportBatchRepository) Save(ctx context.Context, batch *bulk.ImportBatch) error {
	m := &models.ImportBatchModel{}
	m.FromDomain(batch)
	return r.db.WithContext(ctx).Save(m).Error
}

func toBatches(batchModels []*models.ImportBatchModel) []*bulk.ImportBatch {
	batches := make([]*bulk.ImportBatch, len(batchModels))
	for i, m := range batchModels {
		batches[i] = m.ToDomain()
	}
	return batches
}
