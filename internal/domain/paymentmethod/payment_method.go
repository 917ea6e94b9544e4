package paymentmethod

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

const AggregateType = "PaymentMethod"

// Event types
const (
	EventTypeCreated       = "PaymentMethodCreated"
	EventTypeUpdated       = "PaymentMethodUpdated"
	EventTypeDeleted       = "PaymentMethodDeleted"
	EventTypeStatusChanged = "PaymentMethodStatusChanged"
	EventTypeDefaultSet    = "PaymentMethodDefaultSet"
)

// PaymentMethod is a selectable payment plan for sales (Peşin, Kredi, Taksit...)
type PaymentMethod struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	IsActive    bool
	IsDefault   bool
	SortOrder   int
}

// NewPaymentMethod creates an active payment method
func NewPaymentMethod(name, description string, sortOrder int, createdBy uuid.UUID) (*PaymentMethod, error) {
	pm := &PaymentMethod{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		IsActive:          true,
	}
	if err := pm.apply(name, description, sortOrder); err != nil {
		return nil, err
	}
	pm.addEvent(EventTypeCreated, "Ödeme yöntemi oluşturuldu: "+pm.Name)
	return pm, nil
}

// Update replaces the editable fields
func (pm *PaymentMethod) Update(name, description string, sortOrder int) error {
	if err := pm.apply(name, description, sortOrder); err != nil {
		return err
	}
	pm.IncrementVersion()
	pm.addEvent(EventTypeUpdated, "Ödeme yöntemi güncellendi: "+pm.Name)
	return nil
}

func (pm *PaymentMethod) apply(name, description string, sortOrder int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Ödeme yöntemi adı boş olamaz")
	}
	if len([]rune(name)) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Ödeme yöntemi adı 100 karakteri geçemez")
	}
	if sortOrder < 0 {
		return shared.NewDomainError("INVALID_SORT_ORDER", "Sıralama negatif olamaz")
	}
	pm.Name = name
	pm.Description = strings.TrimSpace(description)
	pm.SortOrder = sortOrder
	return nil
}

// ToggleActive flips the active flag; the default method cannot be deactivated
func (pm *PaymentMethod) ToggleActive() error {
	if pm.IsActive && pm.IsDefault {
		return shared.NewDomainError("DEFAULT_PAYMENT_METHOD", "Varsayılan ödeme yöntemi pasif yapılamaz")
	}
	pm.IsActive = !pm.IsActive
	pm.IncrementVersion()
	state := "pasif"
	if pm.IsActive {
		state = "aktif"
	}
	pm.addEvent(EventTypeStatusChanged, "Ödeme yöntemi "+state+" yapıldı: "+pm.Name)
	return nil
}

// MakeDefault marks the method as default; inactive methods are refused
func (pm *PaymentMethod) MakeDefault() error {
	if !pm.IsActive {
		return shared.NewDomainError("PAYMENT_METHOD_INACTIVE", "Pasif ödeme yöntemi varsayılan olamaz")
	}
	if pm.IsDefault {
		return nil
	}
	pm.IsDefault = true
	pm.IncrementVersion()
	pm.addEvent(EventTypeDefaultSet, "Varsayılan ödeme yöntemi: "+pm.Name)
	return nil
}

// ClearDefault removes the default flag
func (pm *PaymentMethod) ClearDefault() {
	if pm.IsDefault {
		pm.IsDefault = false
		pm.IncrementVersion()
	}
}

// CanDelete checks deletion rules given the number of referencing sales
func (pm *PaymentMethod) CanDelete(referencingSales int64) error {
	if pm.IsDefault {
		return shared.NewDomainError("DEFAULT_PAYMENT_METHOD", "Varsayılan ödeme yöntemi silinemez")
	}
	if referencingSales > 0 {
		return shared.NewDomainError("PAYMENT_METHOD_IN_USE", "Ödeme yöntemi satışlarda kullanılıyor, silmek yerine pasif yapın")
	}
	return nil
}

// MarkDeleted records the deletion event
func (pm *PaymentMethod) MarkDeleted() {
	pm.addEvent(EventTypeDeleted, "Ödeme yöntemi silindi: "+pm.Name)
}

func (pm *PaymentMethod) addEvent(eventType, description string) {
	pm.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateType, pm.ID, description),
		Name:            pm.Name,
	})
}

// Event is published on payment method changes
type Event struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// Repository persists payment methods
type Repository interface {
	Create(ctx context.Context, pm *PaymentMethod) error
	Update(ctx context.Context, pm *PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	// FindByName matches case-insensitively
	FindByName(ctx context.Context, name string) (*PaymentMethod, error)
	FindAll(ctx context.Context, onlyActive bool) ([]*PaymentMethod, error)
	FindDefault(ctx context.Context) (*PaymentMethod, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	// SetDefault clears the flag on every other method and sets it on id
	SetDefault(ctx context.Context, id uuid.UUID) error
}
