package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/prim"
)

// PrimRateModel is the persistence model for prim.Rate
type PrimRateModel struct {
	AggregateModel
	Rate          decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	Description   string          `gorm:"type:text"`
	EffectiveFrom time.Time       `gorm:"not null;index"`
	IsActive      bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (PrimRateModel) TableName() string {
	return "prim_rates"
}

// ToDomain converts the model to a domain rate
func (m *PrimRateModel) ToDomain() *prim.Rate {
	return &prim.Rate{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Rate:              m.Rate,
		Description:       m.Description,
		EffectiveFrom:     m.EffectiveFrom,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the model from a domain rate
func (m *PrimRateModel) FromDomain(r *prim.Rate) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.Rate = r.Rate
	m.Description = r.Description
	m.EffectiveFrom = r.EffectiveFrom
	m.IsActive = r.IsActive
}

// PrimPeriodModel is the persistence model for prim.Period
type PrimPeriodModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(50);not null"`
	Month    int    `gorm:"not null;uniqueIndex:idx_prim_periods_month_year"`
	Year     int    `gorm:"not null;uniqueIndex:idx_prim_periods_month_year"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PrimPeriodModel) TableName() string {
	return "prim_periods"
}

// ToDomain converts the model to a domain period
func (m *PrimPeriodModel) ToDomain() *prim.Period {
	return &prim.Period{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Month:             m.Month,
		Year:              m.Year,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the model from a domain period
func (m *PrimPeriodModel) FromDomain(p *prim.Period) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Month = p.Month
	m.Year = p.Year
	m.IsActive = p.IsActive
}
