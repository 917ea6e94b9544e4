package persistence

import (
	"context"

	"gorm.io/gorm"

	appbulk "github.com/salescrm/backend/internal/application/bulk"
	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
)

// GormTransactionScope runs bulk work inside one GORM transaction
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute commits when fn succeeds and rolls back when it returns an error
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbulk.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to tx
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Batches() bulk.ImportBatchRepository {
	return NewGormImportBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) Rates() prim.RateRepository {
	return NewGormPrimRateRepository(r.tx)
}

func (r *gormTransactionalRepositories) Periods() prim.PeriodRepository {
	return NewGormPrimPeriodRepository(r.tx)
}

var (
	_ appbulk.TransactionScope          = (*GormTransactionScope)(nil)
	_ appbulk.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
