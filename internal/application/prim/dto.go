package prim

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/prim"
)

// RateDTO is the API view of a prim rate
type RateDTO struct {
	ID            uuid.UUID       `json:"id"`
	Rate          decimal.Decimal `json:"rate"`
	Description   string          `json:"description"`
	EffectiveFrom time.Time       `json:"effective_from"`
	IsActive      bool            `json:"is_active"`
	IsDefault     bool            `json:"is_default,omitempty"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToRateDTO converts a domain rate
func ToRateDTO(r *prim.Rate) RateDTO {
	return RateDTO{
		ID:            r.ID,
		Rate:          r.Rate,
		Description:   r.Description,
		EffectiveFrom: r.EffectiveFrom,
		IsActive:      r.IsActive,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

// PeriodDTO is the API view of a dönem
type PeriodDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPeriodDTO converts a domain period
func ToPeriodDTO(p *prim.Period) PeriodDTO {
	return PeriodDTO{
		ID:        p.ID,
		Name:      p.Name,
		Month:     p.Month,
		Year:      p.Year,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

// SetRateInput sets a new active rate
type SetRateInput struct {
	Rate          decimal.Decimal
	Description   string
	EffectiveFrom *time.Time
	CreatedBy     uuid.UUID
}

// CreatePeriodInput creates a dönem
type CreatePeriodInput struct {
	Month     int
	Year      int
	CreatedBy uuid.UUID
}

// EarningsInput narrows the earnings summary
type EarningsInput struct {
	PeriodID      *uuid.UUID
	SalespersonID *uuid.UUID
}

// EarningDTO is the prim summary of one salesperson
type EarningDTO struct {
	SalespersonID   uuid.UUID       `json:"salesperson_id"`
	SalespersonName string          `json:"salesperson_name"`
	SaleCount       int64           `json:"sale_count"`
	KaporaCount     int64           `json:"kapora_count"`
	TotalPrim       decimal.Decimal `json:"total_prim"`
	PaidPrim        decimal.Decimal `json:"paid_prim"`
	UnpaidPrim      decimal.Decimal `json:"unpaid_prim"`
}

// EarningsResult is the earnings report of a period
type EarningsResult struct {
	Period     *PeriodDTO      `json:"period,omitempty"`
	Items      []EarningDTO    `json:"items"`
	TotalPrim  decimal.Decimal `json:"total_prim"`
	PaidPrim   decimal.Decimal `json:"paid_prim"`
	UnpaidPrim decimal.Decimal `json:"unpaid_prim"`
}
