package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

func TestGormSaleRepository_FindByID_SQL(t *testing.T) {
	t.Run("maps the row", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormSaleRepository(db.DB)

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "contract_no", "customer_name", "sale_type", "list_price", "status", "transfers"}).
			AddRow(id.String(), "A-101", "Ahmet Demir", "satis", "2000000.00", "active", "[]")
		mock.ExpectQuery(`SELECT \* FROM "sales" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		sale, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "A-101", sale.ContractNo)
		assert.Equal(t, sales.SaleTypeNormal, sale.SaleType)
		assert.True(t, decimal.NewFromInt(2000000).Equal(sale.ListPrice))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormSaleRepository(db.DB)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "sales" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		sale, err := repo.FindByID(context.Background(), id)
		assert.Nil(t, sale)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func newTestSale(t *testing.T, contractNo string, salespersonID uuid.UUID, source sales.Source) *sales.Sale {
	t.Helper()
	date := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	s, err := sales.NewSale(sales.Details{
		ContractNo:        contractNo,
		CustomerName:      "Müşteri " + contractNo,
		SaleDate:          &date,
		ListPrice:         decimal.NewFromInt(1000000),
		ActivitySalePrice: decimal.NewFromInt(950000),
		SalespersonID:     salespersonID,
	}, source, uuid.New())
	require.NoError(t, err)
	return s
}

func TestGormSaleRepository_RoundTrip(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	users := NewGormUserRepository(db.DB)
	ctx := context.Background()

	owner, err := identity.NewUser("ayse", "Ayşe Yılmaz", "Password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, owner))

	manual := newTestSale(t, "A-1", owner.ID, sales.SourceManual)
	require.NoError(t, repo.Create(ctx, manual))

	batchID := uuid.New()
	imported := []*sales.Sale{
		newTestSale(t, "B-1", owner.ID, sales.SourceImport),
		newTestSale(t, "B-2", uuid.New(), sales.SourceImport),
	}
	for _, s := range imported {
		s.MarkImported(batchID)
	}
	require.NoError(t, repo.CreateBatch(ctx, imported))

	inBatch, err := repo.CountByImportBatch(ctx, batchID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inBatch)

	err = repo.Create(ctx, newTestSale(t, "A-1", owner.ID, sales.SourceManual))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	found, err := repo.FindByContractNos(ctx, []string{"A-1", "B-2", "Z-9"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	exists, err := repo.ExistsByContractNo(ctx, " A-1 ", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByContractNo(ctx, "A-1", &manual.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	window := sales.ImportedFilter{
		From:    time.Now().UTC().Add(-time.Hour),
		To:      time.Now().UTC().Add(time.Hour),
		BatchID: &batchID,
		Source:  sales.SourceImport,
	}
	matched, err := repo.FindImported(ctx, window)
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	orphaned, err := repo.CountOrphaned(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, orphaned)

	withoutPeriod, err := repo.CountWithoutPeriod(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, withoutPeriod)

	deleted, err := repo.DeleteByIDs(ctx, []uuid.UUID{imported[0].ID, imported[1].ID, uuid.New()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = repo.FindByID(ctx, imported[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSaleRepository_UpdateKeepsZeroValues(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	ctx := context.Background()

	s := newTestSale(t, "C-1", uuid.New(), sales.SourceManual)
	s.ApplyPrim(nil, decimal.NewFromInt(2))
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, s.Cancel("Müşteri vazgeçti", uuid.New()))
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, got.Status)
	assert.Equal(t, "Müşteri vazgeçti", got.CancelReason)
	assert.True(t, decimal.NewFromInt(19000).Equal(got.PrimAmount))

	page, total, err := repo.FindAll(ctx, sales.Filter{Search: "c-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, page, 1)
}
