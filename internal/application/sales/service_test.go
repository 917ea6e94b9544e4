package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/persistence"
)

type fakeWriter struct {
	sheet   string
	headers []string
	rows    [][]any
}

func (w *fakeWriter) WriteSheet(sheet string, headers []string, rows [][]any) ([]byte, error) {
	w.sheet, w.headers, w.rows = sheet, headers, rows
	return []byte("xlsx"), nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

type fixture struct {
	svc       *Service
	sales     *persistence.GormSaleRepository
	rates     *persistence.GormPrimRateRepository
	settings  *persistence.GormSettingRepository
	writer    *fakeWriter
	publisher *recordingPublisher
	admin     *identity.User
	seller    *identity.User
	other     *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	users := persistence.NewGormUserRepository(db.DB)
	methods := persistence.NewGormPaymentMethodRepository(db.DB)

	f := &fixture{
		sales:     persistence.NewGormSaleRepository(db.DB),
		rates:     persistence.NewGormPrimRateRepository(db.DB),
		settings:  persistence.NewGormSettingRepository(db.DB),
		writer:    &fakeWriter{},
		publisher: &recordingPublisher{},
	}
	f.admin = createUser(t, users, "admin", "Sistem Yöneticisi")
	f.seller = createUser(t, users, "ayse", "Ayşe Yılmaz")
	f.other = createUser(t, users, "mehmet", "Mehmet Kaya")

	pm, err := paymentmethod.NewPaymentMethod("Peşin", "", 1, f.admin.ID)
	require.NoError(t, err)
	require.NoError(t, methods.Create(ctx, pm))

	f.svc = NewService(f.sales, users, methods, f.settings,
		f.rates, persistence.NewGormPrimPeriodRepository(db.DB),
		f.writer, f.publisher, zap.NewNop())
	return f
}

func createUser(t *testing.T, repo identity.UserRepository, username, fullName string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, fullName, "Password123")
	require.NoError(t, err)
	u.SetSalesperson(true)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func (f *fixture) setRate(t *testing.T, rate string) {
	t.Helper()
	r, err := prim.NewRate(decimal.RequireFromString(rate), "", time.Now(), f.admin.ID)
	require.NoError(t, err)
	require.NoError(t, f.rates.Activate(context.Background(), r))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func saleInput(contractNo string) SaleInput {
	return SaleInput{
		ContractNo:        contractNo,
		CustomerName:      "Fatma Demir",
		BlockNo:           "B",
		ApartmentNo:       "7",
		SaleType:          string(sales.SaleTypeNormal),
		SaleDate:          date(2025, time.March, 12),
		ListPrice:         decimal.NewFromInt(2_000_000),
		DiscountRate:      decimal.NewFromInt(10),
		ActivitySalePrice: decimal.NewFromInt(1_900_000),
		PaymentMethod:     "peşin",
	}
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_Create_CalculatesPrimAndPeriod(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "1.5")
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, Viewer{UserID: f.seller.ID}, saleInput("A-1"))
	require.NoError(t, err)

	assert.Equal(t, f.seller.ID, dto.SalespersonID)
	assert.Equal(t, "Ayşe Yılmaz", dto.SalespersonName)
	assert.Equal(t, "Peşin", dto.PaymentMethod)
	assert.True(t, decimal.NewFromInt(1_800_000).Equal(dto.DiscountedListPrice))
	assert.True(t, decimal.NewFromInt(1_800_000).Equal(dto.BasePrimPrice))
	assert.True(t, decimal.NewFromInt(27_000).Equal(dto.PrimAmount), dto.PrimAmount.String())
	require.NotNil(t, dto.PrimPeriodID)
	assert.Equal(t, "Mart 2025", dto.PrimPeriodName)
	assert.Contains(t, f.publisher.types, sales.EventTypeSaleCreated)
	assert.Contains(t, f.publisher.types, prim.EventTypePrimPeriodCreated)
}

func TestService_Create_Kapora_HasNoPrim(t *testing.T) {
	f := newFixture(t)
	in := saleInput("K-1")
	in.SaleType = string(sales.SaleTypeKapora)
	in.SaleDate = nil
	in.KaporaDate = date(2025, time.April, 2)

	dto, err := f.svc.Create(context.Background(), Viewer{UserID: f.seller.ID}, in)
	require.NoError(t, err)
	assert.True(t, dto.PrimAmount.IsZero())
	assert.Equal(t, "Nisan 2025", dto.PrimPeriodName)
}

func TestService_Create_RejectsDuplicateContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	_, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, viewer, saleInput("A-1"))
	assert.Equal(t, "CONTRACT_NO_EXISTS", codeOf(err))
}

func TestService_Create_DuplicateCustomerSetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	_, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, viewer, saleInput("A-2"))
	require.NoError(t, err)

	setting := settings.DefaultFor(settings.KeyAllowDuplicateCustomer)
	require.NoError(t, setting.SetValue("false", nil))
	require.NoError(t, f.settings.Save(ctx, setting))

	in := saleInput("A-3")
	in.CustomerName = "FATMA  demir"
	_, err = f.svc.Create(ctx, viewer, in)
	assert.Equal(t, "DUPLICATE_CUSTOMER", codeOf(err))
}

func TestService_Create_UnknownPaymentMethod(t *testing.T) {
	f := newFixture(t)
	in := saleInput("A-1")
	in.PaymentMethod = "Takas"

	_, err := f.svc.Create(context.Background(), Viewer{UserID: f.seller.ID}, in)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", codeOf(err))
}

func TestService_Create_ForOtherSalespersonNeedsReadAll(t *testing.T) {
	f := newFixture(t)
	in := saleInput("A-1")
	in.SalespersonID = &f.other.ID

	_, err := f.svc.Create(context.Background(), Viewer{UserID: f.seller.ID}, in)
	assert.Equal(t, "FORBIDDEN", codeOf(err))

	dto, err := f.svc.Create(context.Background(), Viewer{UserID: f.admin.ID, ReadAll: true}, in)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, dto.SalespersonID)
	assert.Equal(t, f.admin.ID, *dto.CreatedBy)
}

func TestService_List_ScopesToOwnSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, Viewer{UserID: f.seller.ID}, saleInput("A-1"))
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, Viewer{UserID: f.other.ID}, saleInput("A-2"))
	require.NoError(t, err)

	page, err := f.svc.List(ctx, Viewer{UserID: f.seller.ID}, ListInput{SalespersonID: &f.other.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A-1", page.Items[0].ContractNo)

	page, err = f.svc.List(ctx, Viewer{UserID: f.admin.ID, ReadAll: true}, ListInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = f.svc.Get(ctx, Viewer{UserID: f.seller.ID}, other.ID)
	assert.Equal(t, "FORBIDDEN", codeOf(err))
}

func TestService_Update_KeepsStoredRate(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "1")
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	created, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)

	f.setRate(t, "2")
	in := saleInput("A-1")
	in.ActivitySalePrice = decimal.NewFromInt(1_500_000)
	updated, err := f.svc.Update(ctx, viewer, created.ID, in)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(1).Equal(updated.PrimRate))
	assert.True(t, decimal.NewFromInt(15_000).Equal(updated.PrimAmount), updated.PrimAmount.String())
}

func TestService_CancelRestoreAndPrimStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	created, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, viewer, created.ID, "Müşteri vazgeçti")
	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusCancelled), cancelled.Status)

	_, err = f.svc.SetPrimStatus(ctx, viewer, created.ID, string(sales.PrimStatusPaid))
	assert.Equal(t, "SALE_CANCELLED", codeOf(err))

	restored, err := f.svc.Restore(ctx, viewer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusActive), restored.Status)

	paid, err := f.svc.SetPrimStatus(ctx, viewer, created.ID, string(sales.PrimStatusPaid))
	require.NoError(t, err)
	assert.Equal(t, string(sales.PrimStatusPaid), paid.PrimStatus)
	assert.NotNil(t, paid.PrimPaidAt)
}

func TestService_ConvertKapora(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "2")
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	in := saleInput("K-1")
	in.SaleType = string(sales.SaleTypeKapora)
	in.SaleDate = nil
	in.KaporaDate = date(2025, time.January, 20)
	created, err := f.svc.Create(ctx, viewer, in)
	require.NoError(t, err)

	converted, err := f.svc.Convert(ctx, viewer, created.ID, ConvertInput{SaleDate: *date(2025, time.February, 5)})
	require.NoError(t, err)
	assert.Equal(t, string(sales.SaleTypeNormal), converted.SaleType)
	assert.Equal(t, "Şubat 2025", converted.PrimPeriodName)
	assert.True(t, decimal.NewFromInt(36_000).Equal(converted.PrimAmount), converted.PrimAmount.String())

	_, err = f.svc.Convert(ctx, viewer, created.ID, ConvertInput{SaleDate: time.Now()})
	assert.Equal(t, "NOT_KAPORA", codeOf(err))
}

func TestService_ConvertKapora_PeriodFromContractDate(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "2")
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	in := saleInput("K-2")
	in.SaleType = string(sales.SaleTypeKapora)
	in.SaleDate = nil
	in.KaporaDate = date(2025, time.January, 20)
	created, err := f.svc.Create(ctx, viewer, in)
	require.NoError(t, err)

	converted, err := f.svc.Convert(ctx, viewer, created.ID, ConvertInput{
		SaleDate:     *date(2025, time.February, 5),
		ContractDate: date(2025, time.March, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mart 2025", converted.PrimPeriodName)
	assert.NotNil(t, converted.ConvertedAt)

	stored, err := f.sales.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConvertedAt)
	assert.Equal(t, time.March, stored.PrimDate().Month())

	// a sale entered directly keeps its sale date even with a later contract
	direct := saleInput("D-1")
	direct.SaleDate = date(2025, time.February, 5)
	direct.ContractDate = date(2025, time.March, 3)
	plain, err := f.svc.Create(ctx, viewer, direct)
	require.NoError(t, err)
	assert.Equal(t, "Şubat 2025", plain.PrimPeriodName)
}

func TestService_Transfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := Viewer{UserID: f.admin.ID, ReadAll: true}

	created, err := f.svc.Create(ctx, Viewer{UserID: f.seller.ID}, saleInput("A-1"))
	require.NoError(t, err)

	moved, err := f.svc.Transfer(ctx, admin, created.ID, TransferInput{SalespersonID: f.other.ID, Reason: "İzin"})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, moved.SalespersonID)
	require.Len(t, moved.Transfers, 1)
	assert.Equal(t, "Ayşe Yılmaz", moved.Transfers[0].FromSalespersonName)
	assert.Equal(t, "Mehmet Kaya", moved.Transfers[0].ToSalespersonName)

	_, err = f.svc.Transfer(ctx, admin, created.ID, TransferInput{SalespersonID: uuid.New()})
	assert.Equal(t, "SALESPERSON_NOT_FOUND", codeOf(err))
}

func TestService_DeletePublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	created, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, viewer, created.ID))
	assert.Contains(t, f.publisher.types, sales.EventTypeSaleDeleted)

	_, err = f.svc.Get(ctx, viewer, created.ID)
	assert.Equal(t, "SALE_NOT_FOUND", codeOf(err))
}

func TestService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := Viewer{UserID: f.seller.ID}

	_, err := f.svc.Create(ctx, viewer, saleInput("A-1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, viewer, saleInput("A-2"))
	require.NoError(t, err)

	file, err := f.svc.Export(ctx, viewer, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, xlsxContentType, file.ContentType)
	assert.Contains(t, file.FileName, ".xlsx")
	assert.Len(t, f.writer.rows, 2)
	assert.Equal(t, len(exportHeaders), len(f.writer.rows[0]))
}
