// Package prim holds commission (prim) rate settings and accounting periods (dönem).
package prim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/shared"
)

// AggregateTypePrimRate is the aggregate type recorded on rate events
const AggregateTypePrimRate = "PrimRate"

// AggregateTypePrimPeriod is the aggregate type recorded on period events
const AggregateTypePrimPeriod = "PrimPeriod"

// Event types
const (
	EventTypePrimRateChanged   = "PrimRateChanged"
	EventTypePrimPeriodCreated = "PrimPeriodCreated"
	EventTypePrimPeriodToggled = "PrimPeriodToggled"
)

var (
	hundred = decimal.NewFromInt(100)

	// DefaultRate is used when no rate has ever been configured
	DefaultRate = decimal.NewFromInt(1)
)

var turkishMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// MonthName returns the Turkish name of month (1-12)
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return turkishMonths[month-1]
}

// Rate is a commission percentage. Exactly one rate is active at a time.
type Rate struct {
	shared.BaseAggregateRoot
	Rate          decimal.Decimal
	Description   string
	EffectiveFrom time.Time
	IsActive      bool
}

// NewRate creates an active rate effective from the given time
func NewRate(rate decimal.Decimal, description string, effectiveFrom time.Time, createdBy uuid.UUID) (*Rate, error) {
	if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_PRIM_RATE", "Prim oranı 0'dan büyük ve en fazla 100 olmalı")
	}
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now()
	}

	r := &Rate{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		Rate:              rate.Round(4),
		Description:       description,
		EffectiveFrom:     effectiveFrom,
		IsActive:          true,
	}
	r.AddDomainEvent(&RateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrimRateChanged, AggregateTypePrimRate, r.ID,
			fmt.Sprintf("Prim oranı %%%s olarak ayarlandı", r.Rate.String())),
		Rate: r.Rate,
	})
	return r, nil
}

// Deactivate retires the rate when a newer one is set
func (r *Rate) Deactivate() {
	if !r.IsActive {
		return
	}
	r.IsActive = false
	r.IncrementVersion()
}

// CalculatePrim returns base × rate / 100 rounded to two decimals
func CalculatePrim(base, rate decimal.Decimal) decimal.Decimal {
	if base.IsNegative() || rate.IsNegative() {
		return decimal.Zero
	}
	return base.Mul(rate).Div(hundred).Round(2)
}

// RateChangedEvent is published when a new rate becomes active
type RateChangedEvent struct {
	shared.BaseDomainEvent
	Rate decimal.Decimal `json:"rate"`
}

// Period is a monthly commission accounting period (dönem)
type Period struct {
	shared.BaseAggregateRoot
	Name     string
	Month    int
	Year     int
	IsActive bool
}

// NewPeriod creates an active period named after its month, e.g. "Ocak 2025"
func NewPeriod(month, year int, createdBy uuid.UUID) (*Period, error) {
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD_MONTH", "Ay 1 ile 12 arasında olmalı")
	}
	if year < 2000 || year > 2100 {
		return nil, shared.NewDomainError("INVALID_PERIOD_YEAR", "Yıl 2000 ile 2100 arasında olmalı")
	}

	p := &Period{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		Name:              PeriodName(month, year),
		Month:             month,
		Year:              year,
		IsActive:          true,
	}
	p.AddDomainEvent(&PeriodEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrimPeriodCreated, AggregateTypePrimPeriod, p.ID,
			fmt.Sprintf("Prim dönemi oluşturuldu: %s", p.Name)),
		Name: p.Name,
	})
	return p, nil
}

// PeriodName formats the display name of a period
func PeriodName(month, year int) string {
	return fmt.Sprintf("%s %d", MonthName(month), year)
}

// ToggleActive flips the active flag
func (p *Period) ToggleActive() {
	p.IsActive = !p.IsActive
	p.IncrementVersion()
	p.AddDomainEvent(&PeriodEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrimPeriodToggled, AggregateTypePrimPeriod, p.ID,
			fmt.Sprintf("Prim dönemi aktiflik durumu değişti: %s (%t)", p.Name, p.IsActive)),
		Name: p.Name,
	})
}

// PeriodEvent is published for period lifecycle changes
type PeriodEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}
