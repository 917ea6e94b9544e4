package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create creates a new sale
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return translateError(r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error)
}

// CreateBatch inserts sales in chunks
func (r *GormSaleRepository) CreateBatch(ctx context.Context, batch []*sales.Sale) error {
	if len(batch) == 0 {
		return nil
	}
	saleModels := make([]*models.SaleModel, len(batch))
	for i, s := range batch {
		saleModels[i] = models.SaleModelFromDomain(s)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(saleModels, 200).Error)
}

// Update updates an existing sale
func (r *GormSaleRepository) Update(ctx context.Context, sale *sales.Sale) error {
	return updateAll(ctx, r.db, models.SaleModelFromDomain(sale))
}

// Delete deletes a sale by ID
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affectedOrNotFound(r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", id))
}

// DeleteByIDs deletes the given sales and returns how many rows went away
func (r *GormSaleRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	for start := 0; start < len(ids); start += 500 {
		end := min(start+500, len(ids))
		result := r.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Delete(&models.SaleModel{})
		if result.Error != nil {
			return deleted, result.Error
		}
		deleted += result.RowsAffected
	}
	return deleted, nil
}

// FindByID finds a sale by ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByContractNo finds a sale by contract number
func (r *GormSaleRepository) FindByContractNo(ctx context.Context, contractNo string) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "contract_no = ?", strings.TrimSpace(contractNo)).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByContractNos returns the sales whose contract number is in the list
func (r *GormSaleRepository) FindByContractNos(ctx context.Context, contractNos []string) ([]*sales.Sale, error) {
	result := make([]*sales.Sale, 0, len(contractNos))
	for start := 0; start < len(contractNos); start += 500 {
		end := min(start+500, len(contractNos))
		var saleModels []*models.SaleModel
		if err := r.db.WithContext(ctx).Where("contract_no IN ?", contractNos[start:end]).Find(&saleModels).Error; err != nil {
			return nil, err
		}
		for _, m := range saleModels {
			result = append(result, m.ToDomain())
		}
	}
	return result, nil
}

// ExistsByContractNo checks whether another sale uses the contract number
func (r *GormSaleRepository) ExistsByContractNo(ctx context.Context, contractNo string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("contract_no = ?", strings.TrimSpace(contractNo))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ExistsActiveByCustomer reports whether another active sale has the same customer name
func (r *GormSaleRepository) ExistsActiveByCustomer(ctx context.Context, customerName string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("LOWER(customer_name) = ? AND status = ?", strings.ToLower(strings.TrimSpace(customerName)), sales.StatusActive)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// FindAll returns sales matching the filter with the total count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter sales.Filter) ([]*sales.Sale, int64, error) {
	var saleModels []*models.SaleModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := orderClause(filter.SortBy, SaleSortFields, "sale_date", filter.SortOrder)
	if err := query.Order(order).Offset(filter.Offset()).Limit(filter.Limit()).Find(&saleModels).Error; err != nil {
		return nil, 0, err
	}
	return toSales(saleModels), total, nil
}

// FindAllUnpaged returns every sale matching the filter, used by exports and recalculation
func (r *GormSaleRepository) FindAllUnpaged(ctx context.Context, filter sales.Filter) ([]*sales.Sale, error) {
	var saleModels []*models.SaleModel
	order := orderClause(filter.SortBy, SaleSortFields, "sale_date", filter.SortOrder)
	if err := r.applyFilter(r.db.WithContext(ctx), filter).Order(order).Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// FindImported returns sales of a source created inside the window, optionally of one batch
func (r *GormSaleRepository) FindImported(ctx context.Context, filter sales.ImportedFilter) ([]*sales.Sale, error) {
	var saleModels []*models.SaleModel
	query := r.db.WithContext(ctx).Where("created_at >= ? AND created_at <= ?", filter.From, filter.To)
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.BatchID != nil {
		query = query.Where("import_batch_id = ?", *filter.BatchID)
	}
	if err := query.Order("created_at ASC, id ASC").Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels), nil
}

// CountBySalesperson counts sales owned by a salesperson
func (r *GormSaleRepository) CountBySalesperson(ctx context.Context, salespersonID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("salesperson_id = ?", salespersonID).Count(&count).Error
	return count, err
}

// CountByImportBatch counts the sales still linked to an import batch
func (r *GormSaleRepository) CountByImportBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("import_batch_id = ?", batchID).Count(&count).Error
	return count, err
}

// CountByPaymentMethod counts sales using a payment method name, ignoring case
func (r *GormSaleRepository) CountByPaymentMethod(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("LOWER(payment_method) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count, err
}

// CountWithoutPeriod counts active prim-earning sales with no prim period
func (r *GormSaleRepository) CountWithoutPeriod(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("prim_period_id IS NULL AND status = ? AND sale_type = ?", sales.StatusActive, sales.SaleTypeNormal).
		Count(&count).Error
	return count, err
}

// CountOrphaned counts sales whose salesperson no longer exists
func (r *GormSaleRepository) CountOrphaned(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("salesperson_id NOT IN (?)", r.db.Model(&models.UserModel{}).Select("id")).
		Count(&count).Error
	return count, err
}

type earningsScan struct {
	SalespersonID uuid.UUID
	SaleCount     int64
	KaporaCount   int64
	TotalPrim     decimal.NullDecimal
	PaidPrim      decimal.NullDecimal
}

// Earnings aggregates active sales per salesperson
func (r *GormSaleRepository) Earnings(ctx context.Context, filter sales.EarningsFilter) ([]sales.EarningsRow, error) {
	var rows []earningsScan
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Select(`salesperson_id,
			SUM(CASE WHEN sale_type <> ? THEN 1 ELSE 0 END) AS sale_count,
			SUM(CASE WHEN sale_type = ? THEN 1 ELSE 0 END) AS kapora_count,
			SUM(prim_amount) AS total_prim,
			SUM(CASE WHEN prim_status = ? THEN prim_amount ELSE 0 END) AS paid_prim`,
			sales.SaleTypeKapora, sales.SaleTypeKapora, sales.PrimStatusPaid).
		Where("status = ?", sales.StatusActive)
	if filter.PrimPeriodID != nil {
		query = query.Where("prim_period_id = ?", *filter.PrimPeriodID)
	}
	if filter.SalespersonID != nil {
		query = query.Where("salesperson_id = ?", *filter.SalespersonID)
	}
	if err := query.Group("salesperson_id").Order("salesperson_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]sales.EarningsRow, len(rows))
	for i, row := range rows {
		total := row.TotalPrim.Decimal
		paid := row.PaidPrim.Decimal
		result[i] = sales.EarningsRow{
			SalespersonID: row.SalespersonID,
			SaleCount:     row.SaleCount,
			KaporaCount:   row.KaporaCount,
			TotalPrim:     total.Round(2),
			PaidPrim:      paid.Round(2),
			UnpaidPrim:    total.Sub(paid).Round(2),
		}
	}
	return result, nil
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter sales.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(contract_no) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_phone) LIKE ?"+
			" OR LOWER(block_no) LIKE ? OR LOWER(apartment_no) LIKE ?)",
			pattern, pattern, pattern, pattern, pattern)
	}
	if filter.SalespersonID != nil {
		query = query.Where("salesperson_id = ?", *filter.SalespersonID)
	}
	if filter.PrimPeriodID != nil {
		query = query.Where("prim_period_id = ?", *filter.PrimPeriodID)
	}
	if filter.SaleType != nil {
		query = query.Where("sale_type = ?", *filter.SaleType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PrimStatus != nil {
		query = query.Where("prim_status = ?", *filter.PrimStatus)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.DateFrom != nil {
		query = query.Where("COALESCE(sale_date, kapora_date) >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("COALESCE(sale_date, kapora_date) <= ?", *filter.DateTo)
	}
	return query
}

func toSales(saleModels []*models.SaleModel) []*sales.Sale {
	result := make([]*sales.Sale, len(saleModels))
	for i, m := range saleModels {
		result[i] = m.ToDomain()
	}
	return result
}
