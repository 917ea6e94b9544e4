package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormPrimRateRepository implements prim.RateRepository using GORM
type GormPrimRateRepository struct {
	db *gorm.DB
}

// NewGormPrimRateRepository creates a new GormPrimRateRepository
func NewGormPrimRateRepository(db *gorm.DB) *GormPrimRateRepository {
	return &GormPrimRateRepository{db: db}
}

// Create inserts a rate without touching the others
func (r *GormPrimRateRepository) Create(ctx context.Context, rate *prim.Rate) error {
	m := &models.PrimRateModel{}
	m.FromDomain(rate)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Activate stores rate and deactivates every other rate atomically
func (r *GormPrimRateRepository) Activate(ctx context.Context, rate *prim.Rate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PrimRateModel{}).
			Where("id <> ? AND is_active = ?", rate.ID, true).
			Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}
		rate.IsActive = true
		m := &models.PrimRateModel{}
		m.FromDomain(rate)
		return tx.Save(m).Error
	})
}

// FindActive returns the active rate
func (r *GormPrimRateRepository) FindActive(ctx context.Context) (*prim.Rate, error) {
	var m models.PrimRateModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("effective_from DESC").First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindEffectiveAt returns the newest rate whose EffectiveFrom is not after t
func (r *GormPrimRateRepository) FindEffectiveAt(ctx context.Context, t time.Time) (*prim.Rate, error) {
	var m models.PrimRateModel
	if err := r.db.WithContext(ctx).Where("effective_from <= ?", t).
		Order("effective_from DESC, created_at DESC").First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns the rate history, newest first
func (r *GormPrimRateRepository) FindAll(ctx context.Context) ([]*prim.Rate, error) {
	var rateModels []*models.PrimRateModel
	if err := r.db.WithContext(ctx).Order("effective_from DESC, created_at DESC").Find(&rateModels).Error; err != nil {
		return nil, err
	}
	rates := make([]*prim.Rate, len(rateModels))
	for i, m := range rateModels {
		rates[i] = m.ToDomain()
	}
	return rates, nil
}

// GormPrimPeriodRepository implements prim.PeriodRepository using GORM
type GormPrimPeriodRepository struct {
	db *gorm.DB
}

// NewGormPrimPeriodRepository creates a new GormPrimPeriodRepository
func NewGormPrimPeriodRepository(db *gorm.DB) *GormPrimPeriodRepository {
	return &GormPrimPeriodRepository{db: db}
}

// Create inserts a period; a duplicate month returns ErrAlreadyExists
func (r *GormPrimPeriodRepository) Create(ctx context.Context, period *prim.Period) error {
	m := &models.PrimPeriodModel{}
	m.FromDomain(period)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Update updates a period
func (r *GormPrimPeriodRepository) Update(ctx context.Context, period *prim.Period) error {
	m := &models.PrimPeriodModel{}
	m.FromDomain(period)
	return updateAll(ctx, r.db, m)
}

// FindByID finds a period by ID
func (r *GormPrimPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*prim.Period, error) {
	var m models.PrimPeriodModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByMonth finds the period of a calendar month
func (r *GormPrimPeriodRepository) FindByMonth(ctx context.Context, month, year int) (*prim.Period, error) {
	var m models.PrimPeriodModel
	if err := r.db.WithContext(ctx).First(&m, "month = ? AND year = ?", month, year).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns periods newest first
func (r *GormPrimPeriodRepository) FindAll(ctx context.Context, onlyActive bool) ([]*prim.Period, error) {
	var periodModels []*models.PrimPeriodModel
	query := r.db.WithContext(ctx)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("year DESC, month DESC").Find(&periodModels).Error; err != nil {
		return nil, err
	}
	periods := make([]*prim.Period, len(periodModels))
	for i, m := range periodModels {
		periods[i] = m.ToDomain()
	}
	return periods, nil
}
