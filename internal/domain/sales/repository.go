package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRepository defines persistence for sales
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	CreateBatch(ctx context.Context, sales []*Sale) error
	Update(ctx context.Context, sale *Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByContractNo(ctx context.Context, contractNo string) (*Sale, error)
	// FindByContractNos returns the sales matching any of the given contract numbers
	FindByContractNos(ctx context.Context, contractNos []string) ([]*Sale, error)
	// ExistsByContractNo checks uniqueness, ignoring excludeID when set
	ExistsByContractNo(ctx context.Context, contractNo string, excludeID *uuid.UUID) (bool, error)
	// ExistsActiveByCustomer checks for another active sale of the same customer, case-insensitively
	ExistsActiveByCustomer(ctx context.Context, customerName string, excludeID *uuid.UUID) (bool, error)
	FindAll(ctx context.Context, filter Filter) ([]*Sale, int64, error)
	// FindAllUnpaged returns every sale matching filter, ignoring pagination
	FindAllUnpaged(ctx context.Context, filter Filter) ([]*Sale, error)
	// FindImported returns import-sourced sales created inside the window
	FindImported(ctx context.Context, filter ImportedFilter) ([]*Sale, error)
	CountBySalesperson(ctx context.Context, salespersonID uuid.UUID) (int64, error)
	// CountByImportBatch counts the sales still linked to an import batch
	CountByImportBatch(ctx context.Context, batchID uuid.UUID) (int64, error)
	CountByPaymentMethod(ctx context.Context, name string) (int64, error)
	CountWithoutPeriod(ctx context.Context) (int64, error)
	// CountOrphaned counts sales whose salesperson no longer exists
	CountOrphaned(ctx context.Context) (int64, error)
	Earnings(ctx context.Context, filter EarningsFilter) ([]EarningsRow, error)
}

// Filter contains filter options for listing sales
type Filter struct {
	Search        string
	SalespersonID *uuid.UUID
	PrimPeriodID  *uuid.UUID
	SaleType      *SaleType
	Status        *Status
	PrimStatus    *PrimStatus
	Source        *Source
	DateFrom      *time.Time
	DateTo        *time.Time

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NewFilter returns a filter with default paging and sort
func NewFilter() Filter {
	return Filter{
		Page:      1,
		PageSize:  20,
		SortBy:    "sale_date",
		SortOrder: "desc",
	}
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 200 {
		return 200
	}
	return f.PageSize
}

// ImportedFilter selects import-sourced sales for rollback
type ImportedFilter struct {
	From    time.Time
	To      time.Time
	BatchID *uuid.UUID
	Source  Source
}

// EarningsFilter narrows the earnings summary
type EarningsFilter struct {
	PrimPeriodID  *uuid.UUID
	SalespersonID *uuid.UUID
}

// EarningsRow is the per-salesperson prim summary of a period
type EarningsRow struct {
	SalespersonID uuid.UUID       `json:"salesperson_id"`
	SaleCount     int64           `json:"sale_count"`
	KaporaCount   int64           `json:"kapora_count"`
	TotalPrim     decimal.Decimal `json:"total_prim"`
	PaidPrim      decimal.Decimal `json:"paid_prim"`
	UnpaidPrim    decimal.Decimal `json:"unpaid_prim"`
}
