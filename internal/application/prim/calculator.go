// Package prim contains the commission (prim) use cases and the calculator shared by
// sales, import and migration.
package prim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

type periodKey struct {
	year, month int
}

// Calculator resolves the dönem and rate of a sale and stores the prim on it.
// Missing periods are created on the fly. A Calculator caches lookups and is meant
// for one request or one transaction.
type Calculator struct {
	rates   prim.RateRepository
	periods prim.PeriodRepository
	actor   uuid.UUID

	rate    *decimal.Decimal
	cache   map[periodKey]*prim.Period
	created []*prim.Period
}

// NewCalculator creates a calculator; actor is recorded as creator of auto-created periods
func NewCalculator(rates prim.RateRepository, periods prim.PeriodRepository, actor uuid.UUID) *Calculator {
	return &Calculator{
		rates:   rates,
		periods: periods,
		actor:   actor,
		cache:   make(map[periodKey]*prim.Period),
	}
}

// CurrentRate returns the active rate, DefaultRate when none was ever set
func (c *Calculator) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	if c.rate != nil {
		return *c.rate, nil
	}
	rate := prim.DefaultRate
	active, err := c.rates.FindActive(ctx)
	switch {
	case err == nil:
		rate = active.Rate
	case !errors.Is(err, shared.ErrNotFound):
		return decimal.Zero, fmt.Errorf("load active prim rate: %w", err)
	}
	c.rate = &rate
	return rate, nil
}

// Period returns the period of the given month, creating it when missing
func (c *Calculator) Period(ctx context.Context, month, year int) (*prim.Period, error) {
	key := periodKey{year: year, month: month}
	if p, ok := c.cache[key]; ok {
		return p, nil
	}

	p, err := c.periods.FindByMonth(ctx, month, year)
	if errors.Is(err, shared.ErrNotFound) {
		p, err = prim.NewPeriod(month, year, c.actor)
		if err != nil {
			return nil, err
		}
		if err = c.periods.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create prim period %s: %w", p.Name, err)
		}
		c.created = append(c.created, p)
	} else if err != nil {
		return nil, fmt.Errorf("load prim period: %w", err)
	}

	c.cache[key] = p
	return p, nil
}

// Apply assigns the period of the sale's prim date and recalculates its prim at the current rate
func (c *Calculator) Apply(ctx context.Context, s *sales.Sale) error {
	rate, err := c.CurrentRate(ctx)
	if err != nil {
		return err
	}
	return c.ApplyAt(ctx, s, rate)
}

// ApplyAt is Apply with an explicit rate
func (c *Calculator) ApplyAt(ctx context.Context, s *sales.Sale, rate decimal.Decimal) error {
	date := s.PrimDate()
	period, err := c.Period(ctx, int(date.Month()), date.Year())
	if err != nil {
		return err
	}
	s.ApplyPrim(&period.ID, rate)
	return nil
}

// Aggregates returns the periods created by this calculator for shared.PublishEvents.
// The caller publishes them once the surrounding work is committed.
func (c *Calculator) Aggregates() []shared.AggregateRoot {
	out := make([]shared.AggregateRoot, len(c.created))
	for i, p := range c.created {
		out[i] = p
	}
	return out
}
