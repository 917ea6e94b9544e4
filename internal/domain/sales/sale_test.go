package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/domain/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func validDetails() Details {
	return Details{
		ContractNo:        "A-101",
		CustomerName:      "  Mehmet   Demir ",
		BlockNo:           "A",
		ApartmentNo:       "12",
		SaleType:          SaleTypeNormal,
		SaleDate:          day(2025, time.March, 10),
		ListPrice:         dec("2500000"),
		DiscountRate:      dec("10"),
		ActivitySalePrice: dec("2300000"),
		PaymentMethod:     "Peşin",
		SalespersonID:     uuid.New(),
	}
}

func TestNewSale(t *testing.T) {
	s, err := NewSale(validDetails(), "", uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "Mehmet Demir", s.CustomerName)
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, PrimStatusUnpaid, s.PrimStatus)
	assert.Equal(t, SourceManual, s.Source)
	assert.True(t, dec("2250000").Equal(s.DiscountedListPrice))
	assert.Len(t, s.GetDomainEvents(), 1)
}

func TestDetails_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Details)
		code   string
	}{
		{"missing contract", func(d *Details) { d.ContractNo = "" }, "INVALID_CONTRACT_NO"},
		{"bad contract chars", func(d *Details) { d.ContractNo = "#12" }, "INVALID_CONTRACT_NO"},
		{"missing customer", func(d *Details) { d.CustomerName = "" }, "INVALID_CUSTOMER_NAME"},
		{"unknown type", func(d *Details) { d.SaleType = "rent" }, "INVALID_SALE_TYPE"},
		{"missing salesperson", func(d *Details) { d.SalespersonID = uuid.Nil }, "INVALID_SALESPERSON"},
		{"discount above 100", func(d *Details) { d.DiscountRate = dec("101") }, "INVALID_DISCOUNT_RATE"},
		{"missing sale date", func(d *Details) { d.SaleDate = nil }, "INVALID_SALE_DATE"},
		{"zero activity price", func(d *Details) { d.ActivitySalePrice = decimal.Zero }, "INVALID_PRICE"},
		{"kapora without date", func(d *Details) { d.SaleType = SaleTypeKapora; d.KaporaDate = nil }, "INVALID_KAPORA_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)
			_, err := NewSale(d, SourceManual, uuid.New())
			require.Error(t, err)
			assert.Equal(t, tt.code, errorCode(err))
		})
	}

	t.Run("kapora without prices is valid", func(t *testing.T) {
		d := validDetails()
		d.SaleType = SaleTypeKapora
		d.SaleDate = nil
		d.KaporaDate = day(2025, time.January, 5)
		d.ListPrice = decimal.Zero
		d.ActivitySalePrice = decimal.Zero
		_, err := NewSale(d, SourceManual, uuid.New())
		assert.NoError(t, err)
	})
}

func TestSale_ApplyPrim(t *testing.T) {
	s, err := NewSale(validDetails(), SourceManual, uuid.New())
	require.NoError(t, err)
	periodID := uuid.New()

	s.ApplyPrim(&periodID, dec("1"))

	assert.Equal(t, &periodID, s.PrimPeriodID)
	assert.True(t, dec("2250000").Equal(s.BasePrimPrice), "lower of discounted list and activity price")
	assert.True(t, dec("22500").Equal(s.PrimAmount))

	d := validDetails()
	d.SaleType = SaleTypeManual
	manual, err := NewSale(d, SourceManual, uuid.New())
	require.NoError(t, err)
	manual.ApplyPrim(&periodID, dec("1"))
	assert.True(t, manual.PrimAmount.IsZero())
	assert.True(t, manual.PrimRate.IsZero())
}

func TestBasePrimPrice(t *testing.T) {
	assert.True(t, dec("100").Equal(BasePrimPrice(dec("100"), dec("120"))))
	assert.True(t, dec("90").Equal(BasePrimPrice(dec("100"), dec("90"))))
	assert.True(t, dec("90").Equal(BasePrimPrice(decimal.Zero, dec("90"))))
	assert.True(t, dec("100").Equal(BasePrimPrice(dec("100"), decimal.Zero)))
}

func TestSale_CancelRestore(t *testing.T) {
	s, err := NewSale(validDetails(), SourceManual, uuid.New())
	require.NoError(t, err)
	by := uuid.New()

	assert.Error(t, s.Cancel(" ", by))
	require.NoError(t, s.Cancel("Müşteri vazgeçti", by))
	assert.Equal(t, StatusCancelled, s.Status)
	assert.Equal(t, &by, s.CancelledBy)
	assert.Error(t, s.Cancel("again", by))

	assert.Error(t, s.SetPrimStatus(PrimStatusPaid))

	require.NoError(t, s.Restore())
	assert.Equal(t, StatusActive, s.Status)
	assert.Nil(t, s.CancelledAt)
	assert.Error(t, s.Restore())
}

func TestSale_PrimStatus(t *testing.T) {
	s, err := NewSale(validDetails(), SourceManual, uuid.New())
	require.NoError(t, err)

	require.NoError(t, s.SetPrimStatus(PrimStatusPaid))
	assert.NotNil(t, s.PrimPaidAt)

	d := s.Details()
	d.ActivitySalePrice = dec("2000000")
	assert.Error(t, s.Update(d), "prices are frozen once prim is paid")

	d = s.Details()
	d.CustomerPhone = "05320000000"
	assert.NoError(t, s.Update(d), "non-price fields stay editable")

	assert.Error(t, s.TransferTo(uuid.New(), "", uuid.New()))

	require.NoError(t, s.SetPrimStatus(PrimStatusUnpaid))
	assert.Nil(t, s.PrimPaidAt)
	assert.Error(t, s.SetPrimStatus("later"))
}

func TestSale_ConvertKapora(t *testing.T) {
	d := validDetails()
	d.SaleType = SaleTypeKapora
	d.SaleDate = nil
	d.KaporaDate = day(2025, time.January, 20)
	s, err := NewSale(d, SourceManual, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, *d.KaporaDate, s.PrimDate())

	price := dec("2200000")
	require.NoError(t, s.ConvertKapora(*day(2025, time.February, 3), day(2025, time.March, 4), &price))
	assert.Equal(t, SaleTypeNormal, s.SaleType)
	assert.True(t, price.Equal(s.ActivitySalePrice))
	require.NotNil(t, s.ConvertedAt)
	assert.Equal(t, *day(2025, time.March, 4), s.PrimDate())

	assert.Error(t, s.ConvertKapora(time.Now(), nil, nil), "already a sale")
}

func TestSale_TransferTo(t *testing.T) {
	s, err := NewSale(validDetails(), SourceManual, uuid.New())
	require.NoError(t, err)
	original := s.SalespersonID
	target := uuid.New()

	assert.Error(t, s.TransferTo(original, "", uuid.New()))
	require.NoError(t, s.TransferTo(target, "Ekip değişikliği", uuid.New()))

	assert.True(t, s.IsOwnedBy(target))
	require.Len(t, s.Transfers, 1)
	assert.Equal(t, original, s.Transfers[0].FromSalespersonID)
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return err.Error()
}

func TestCanonicalContractNo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a-2025-001", "A-2025-001"},
		{"  b 12 / 4 ", "B 12/4"},
		{"C  - 7", "C-7"},
		{"D.10", "D.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalContractNo(tt.in), tt.in)
	}

	s, err := NewSale(validDetails(), SourceImport, uuid.New())
	require.NoError(t, err)
	s.ContractNo = "x - 1"
	got, changed := s.NormalizeContractNo()
	assert.True(t, changed)
	assert.Equal(t, "X-1", got)
	_, changed = s.NormalizeContractNo()
	assert.False(t, changed)
}
