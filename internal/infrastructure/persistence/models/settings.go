package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/settings"
)

// PaymentMethodModel is the persistence model for paymentmethod.PaymentMethod
type PaymentMethodModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
	IsDefault   bool   `gorm:"not null;default:false"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// ToDomain converts the model to a domain payment method
func (m *PaymentMethodModel) ToDomain() *paymentmethod.PaymentMethod {
	return &paymentmethod.PaymentMethod{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		IsActive:          m.IsActive,
		IsDefault:         m.IsDefault,
		SortOrder:         m.SortOrder,
	}
}

// FromDomain populates the model from a domain payment method
func (m *PaymentMethodModel) FromDomain(pm *paymentmethod.PaymentMethod) {
	m.FromDomainAggregateRoot(pm.BaseAggregateRoot)
	m.Name = pm.Name
	m.Description = pm.Description
	m.IsActive = pm.IsActive
	m.IsDefault = pm.IsDefault
	m.SortOrder = pm.SortOrder
}

// SystemSettingModel is a key/value setting row
type SystemSettingModel struct {
	Key         string             `gorm:"column:key;type:varchar(100);primaryKey"`
	Value       string             `gorm:"type:text;not null"`
	ValueType   settings.ValueType `gorm:"type:varchar(20);not null;default:'string'"`
	Category    string             `gorm:"type:varchar(50);not null;default:'general';index"`
	Description string             `gorm:"type:text"`
	UpdatedBy   *uuid.UUID         `gorm:"type:uuid"`
	UpdatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SystemSettingModel) TableName() string {
	return "system_settings"
}

// ToDomain converts the model to a domain setting
func (m *SystemSettingModel) ToDomain() *settings.Setting {
	return &settings.Setting{
		Key:         m.Key,
		Value:       m.Value,
		ValueType:   m.ValueType,
		Category:    m.Category,
		Description: m.Description,
		UpdatedBy:   m.UpdatedBy,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain setting
func (m *SystemSettingModel) FromDomain(s *settings.Setting) {
	m.Key = s.Key
	m.Value = s.Value
	m.ValueType = s.ValueType
	m.Category = s.Category
	m.Description = s.Description
	m.UpdatedBy = s.UpdatedBy
	m.UpdatedAt = s.UpdatedAt
}
