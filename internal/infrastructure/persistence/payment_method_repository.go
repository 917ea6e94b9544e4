package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormPaymentMethodRepository implements paymentmethod.Repository using GORM
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewGormPaymentMethodRepository creates a new GormPaymentMethodRepository
func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// Create inserts a payment method
func (r *GormPaymentMethodRepository) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	m := &models.PaymentMethodModel{}
	m.FromDomain(pm)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Update updates a payment method
func (r *GormPaymentMethodRepository) Update(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	m := &models.PaymentMethodModel{}
	m.FromDomain(pm)
	return updateAll(ctx, r.db, m)
}

// Delete removes a payment method
func (r *GormPaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affectedOrNotFound(r.db.WithContext(ctx).Delete(&models.PaymentMethodModel{}, "id = ?", id))
}

// FindByID finds a payment method by ID
func (r *GormPaymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error) {
	var m models.PaymentMethodModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByName matches case-insensitively
func (r *GormPaymentMethodRepository) FindByName(ctx context.Context, name string) (*paymentmethod.PaymentMethod, error) {
	var m models.PaymentMethodModel
	if err := r.db.WithContext(ctx).
		First(&m, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns methods in display order
func (r *GormPaymentMethodRepository) FindAll(ctx context.Context, onlyActive bool) ([]*paymentmethod.PaymentMethod, error) {
	var pmModels []*models.PaymentMethodModel
	query := r.db.WithContext(ctx)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order ASC, name ASC").Find(&pmModels).Error; err != nil {
		return nil, err
	}
	result := make([]*paymentmethod.PaymentMethod, len(pmModels))
	for i, m := range pmModels {
		result[i] = m.ToDomain()
	}
	return result, nil
}

// FindDefault returns the default method
func (r *GormPaymentMethodRepository) FindDefault(ctx context.Context) (*paymentmethod.PaymentMethod, error) {
	var m models.PaymentMethodModel
	if err := r.db.WithContext(ctx).First(&m, "is_default = ?", true).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// ExistsByName checks whether another method uses name, ignoring case
func (r *GormPaymentMethodRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PaymentMethodModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// SetDefault clears the flag on every other method and sets it on id
func (r *GormPaymentMethodRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&models.PaymentMethodModel{}).
			Where("is_default = ? AND id <> ?", true, id).
			Updates(map[string]any{"is_default": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return affectedOrNotFound(tx.Model(&models.PaymentMethodModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_default": true, "updated_at": now}))
	})
}
