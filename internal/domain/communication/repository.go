package communication

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordRepository persists daily communication records
type RecordRepository interface {
	// Save inserts or updates the record of (user, date)
	Save(ctx context.Context, record *Record) error
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*Record, error)
	FindAll(ctx context.Context, filter RecordFilter) ([]*Record, int64, error)
	// FindByDate returns all records of date keyed by user
	FindByDate(ctx context.Context, date time.Time) (map[uuid.UUID]*Record, error)
	FindInRange(ctx context.Context, from, to time.Time, userID *uuid.UUID) ([]*Record, error)
}

// YearRepository persists quota settings
type YearRepository interface {
	Save(ctx context.Context, year *Year) error
	FindByYear(ctx context.Context, year int) (*Year, error)
	FindAll(ctx context.Context) ([]*Year, error)
}

// PenaltyRepository persists penalty records
type PenaltyRepository interface {
	Create(ctx context.Context, penalty *Penalty) error
	Update(ctx context.Context, penalty *Penalty) error
	FindByID(ctx context.Context, id uuid.UUID) (*Penalty, error)
	FindAll(ctx context.Context, filter PenaltyFilter) ([]*Penalty, int64, error)
	// ExistsAuto reports whether an automatic penalty, cancelled or not, exists for (user, date)
	ExistsAuto(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error)
	// ActivePointsByUser sums uncancelled points per user, optionally since a date
	ActivePointsByUser(ctx context.Context, since *time.Time) (map[uuid.UUID]PenaltySummary, error)
}

// RecordFilter narrows record listings
type RecordFilter struct {
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// Offset returns the offset for pagination
func (f RecordFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f RecordFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// PenaltyFilter narrows penalty listings
type PenaltyFilter struct {
	UserID           *uuid.UUID
	Type             *PenaltyType
	IncludeCancelled bool
	DateFrom         *time.Time
	DateTo           *time.Time
	Page             int
	PageSize         int
}

// Offset returns the offset for pagination
func (f PenaltyFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f PenaltyFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
