package prim

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateRepository persists prim rates
type RateRepository interface {
	Create(ctx context.Context, rate *Rate) error
	// Activate stores rate and deactivates every other rate atomically
	Activate(ctx context.Context, rate *Rate) error
	FindActive(ctx context.Context) (*Rate, error)
	// FindEffectiveAt returns the newest rate whose EffectiveFrom is not after t
	FindEffectiveAt(ctx context.Context, t time.Time) (*Rate, error)
	FindAll(ctx context.Context) ([]*Rate, error)
}

// PeriodRepository persists prim periods
type PeriodRepository interface {
	Create(ctx context.Context, period *Period) error
	Update(ctx context.Context, period *Period) error
	FindByID(ctx context.Context, id uuid.UUID) (*Period, error)
	FindByMonth(ctx context.Context, month, year int) (*Period, error)
	FindAll(ctx context.Context, onlyActive bool) ([]*Period, error)
}
