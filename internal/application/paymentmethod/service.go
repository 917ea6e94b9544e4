// Package paymentmethod contains the payment method administration use cases.
package paymentmethod

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// PaymentMethodDTO is the API representation of a payment method
type PaymentMethodDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsDefault   bool      `json:"is_default"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPaymentMethodDTO converts a domain payment method
func ToPaymentMethodDTO(pm *paymentmethod.PaymentMethod) PaymentMethodDTO {
	return PaymentMethodDTO{
		ID:          pm.ID,
		Name:        pm.Name,
		Description: pm.Description,
		IsActive:    pm.IsActive,
		IsDefault:   pm.IsDefault,
		SortOrder:   pm.SortOrder,
		CreatedAt:   pm.CreatedAt,
		UpdatedAt:   pm.UpdatedAt,
	}
}

// Input creates or updates a payment method
type Input struct {
	Name        string
	Description string
	SortOrder   int
}

// builtins are created on first start
var builtins = []Input{
	{Name: "Peşin", Description: "Peşin ödeme", SortOrder: 1},
	{Name: "Kredi", Description: "Banka kredisi", SortOrder: 2},
	{Name: "Taksit", Description: "Senetli taksit", SortOrder: 3},
}

// Service handles payment methods
type Service struct {
	repo      paymentmethod.Repository
	sales     sales.SaleRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new payment method service
func NewService(repo paymentmethod.Repository, saleRepo sales.SaleRepository, publisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		sales:     saleRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns the payment methods in sort order
func (s *Service) List(ctx context.Context, onlyActive bool) ([]PaymentMethodDTO, error) {
	items, err := s.repo.FindAll(ctx, onlyActive)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentMethodDTO, len(items))
	for i, pm := range items {
		out[i] = ToPaymentMethodDTO(pm)
	}
	return out, nil
}

// Get returns one payment method
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PaymentMethodDTO, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToPaymentMethodDTO(pm)
	return &dto, nil
}

// Create adds a payment method. The first method becomes the default.
func (s *Service) Create(ctx context.Context, input Input, by uuid.UUID) (*PaymentMethodDTO, error) {
	pm, err := paymentmethod.NewPaymentMethod(input.Name, input.Description, input.SortOrder, by)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, pm.Name, nil); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindDefault(ctx); errors.Is(err, shared.ErrNotFound) {
		if err := pm.MakeDefault(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, pm); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, nameExists(pm.Name)
		}
		return nil, err
	}
	s.publish(ctx, pm)

	dto := ToPaymentMethodDTO(pm)
	return &dto, nil
}

// Update changes name, description and sort order.
// Sales store the method by name, so a method in use cannot be renamed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input Input) (*PaymentMethodDTO, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" && !strings.EqualFold(name, pm.Name) {
		if err := s.checkName(ctx, name, &pm.ID); err != nil {
			return nil, err
		}
		used, err := s.sales.CountByPaymentMethod(ctx, pm.Name)
		if err != nil {
			return nil, err
		}
		if used > 0 {
			return nil, shared.NewDomainError("PAYMENT_METHOD_IN_USE", "Satışlarda kullanılan ödeme yöntemi yeniden adlandırılamaz")
		}
	}
	if err := pm.Update(input.Name, input.Description, input.SortOrder); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, pm); err != nil {
		return nil, err
	}
	s.publish(ctx, pm)

	dto := ToPaymentMethodDTO(pm)
	return &dto, nil
}

// Toggle flips the active flag
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (*PaymentMethodDTO, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := pm.ToggleActive(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, pm); err != nil {
		return nil, err
	}
	s.publish(ctx, pm)

	dto := ToPaymentMethodDTO(pm)
	return &dto, nil
}

// SetDefault makes the method the only default
func (s *Service) SetDefault(ctx context.Context, id uuid.UUID) (*PaymentMethodDTO, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := pm.MakeDefault(); err != nil {
		return nil, err
	}
	if err := s.repo.SetDefault(ctx, pm.ID); err != nil {
		return nil, err
	}
	s.publish(ctx, pm)

	dto := ToPaymentMethodDTO(pm)
	return &dto, nil
}

// Delete removes an unused, non-default method
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	pm, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.sales.CountByPaymentMethod(ctx, pm.Name)
	if err != nil {
		return err
	}
	if err := pm.CanDelete(used); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, pm.ID); err != nil {
		return err
	}
	pm.MarkDeleted()
	s.publish(ctx, pm)
	return nil
}

// EnsureDefaults creates the built-in methods when none exist yet
func (s *Service) EnsureDefaults(ctx context.Context, by uuid.UUID) error {
	existing, err := s.repo.FindAll(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, in := range builtins {
		if _, err := s.Create(ctx, in, by); err != nil {
			return err
		}
	}
	s.logger.Info("Default payment methods created", zap.Int("count", len(builtins)))
	return nil
}

func (s *Service) checkName(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return nameExists(name)
	}
	return nil
}

func nameExists(name string) error {
	return shared.NewDomainError("PAYMENT_METHOD_EXISTS", "Ödeme yöntemi zaten var: "+name)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error) {
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PAYMENT_METHOD_NOT_FOUND", "Ödeme yöntemi bulunamadı")
		}
		return nil, err
	}
	return pm, nil
}

func (s *Service) publish(ctx context.Context, pm *paymentmethod.PaymentMethod) {
	if err := shared.PublishEvents(ctx, s.publisher, pm); err != nil {
		s.logger.Warn("Failed to publish payment method events", zap.String("payment_method_id", pm.ID.String()), zap.Error(err))
	}
}
