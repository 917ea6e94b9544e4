package bulk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/sales"
)

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Sözleşme_No":       "sozlesme no",
		"  SÖZLEŞME   NO ":  "sozlesme no",
		"İNDİRİM ORANI":     "indirim orani",
		"Satış Temsilcisi":  "satis temsilcisi",
		"Müşteri-Adı":       "musteri adi",
		"ödeme şekli":       "odeme sekli",
		"activity_sale.fee": "activity sale fee",
	}
	for in, want := range tests {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestMapColumns(t *testing.T) {
	cols, unknown := mapColumns([]string{"Sözleşme No", "MÜŞTERİ ADI", "Bilinmeyen", "satış temsilcisi", "", "Sozlesme"})

	assert.Equal(t, 0, cols[ColContractNo])
	assert.Equal(t, 1, cols[ColCustomerName])
	assert.Equal(t, 3, cols[ColSalesperson])
	assert.Equal(t, []string{"Bilinmeyen"}, unknown)
	assert.Empty(t, cols.missing())
	assert.False(t, cols.has(ColListPrice))

	partial, _ := mapColumns([]string{"Müşteri"})
	assert.Equal(t, []string{"contract_no", "salesperson"}, partial.missing())
}

func TestParseDate(t *testing.T) {
	loc := time.UTC
	want := time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)

	for _, raw := range []string{"15.03.2025", "15.3.2025", "2025-03-15", "15/03/2025", "45731", "2025-03-15T10:30:00Z"} {
		got, err := parseDate(raw, loc)
		require.NoError(t, err, raw)
		require.NotNil(t, got, raw)
		assert.True(t, want.Equal(*got), "%s parsed as %s", raw, got)
	}

	empty, err := parseDate("  ", loc)
	require.NoError(t, err)
	assert.Nil(t, empty)

	for _, raw := range []string{"0", "31.02.2025", "dün", "999999"} {
		_, err := parseDate(raw, loc)
		assert.ErrorIs(t, err, errInvalidDate, raw)
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.250.000,50", "1250000.5"},
		{"1,250,000.50", "1250000.5"},
		{"2.000.000", "2000000"},
		{"12,5", "12.5"},
		{"1.5", "1.5"},
		{"%10", "10"},
		{"₺ 1.850.000", "1850000"},
		{"1850000 TL", "1850000"},
		{"", "0"},
	}
	for _, tt := range tests {
		got, err := parseDecimal(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s parsed as %s", tt.raw, got)
	}

	_, err := parseDecimal("bir milyon")
	assert.Error(t, err)
}

func TestParseSaleType(t *testing.T) {
	tests := []struct {
		raw  string
		want sales.SaleType
		ok   bool
	}{
		{"", sales.SaleTypeNormal, true},
		{"Satış", sales.SaleTypeNormal, true},
		{"KAPORA", sales.SaleTypeKapora, true},
		{"Manuel", sales.SaleTypeManual, true},
		{"iade", "", false},
	}
	for _, tt := range tests {
		got, ok := parseSaleType(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func newTestLookups(t *testing.T) (*lookups, *identity.User) {
	t.Helper()
	ayse, err := identity.NewUser("ayse", "Ayşe Yılmaz", "Password123")
	require.NoError(t, err)
	ayse.SetSalesperson(true)
	twinA, err := identity.NewUser("ali1", "Ali Kaya", "Password123")
	require.NoError(t, err)
	twinB, err := identity.NewUser("ali2", "Ali Kaya", "Password123")
	require.NoError(t, err)

	pesin, err := paymentmethod.NewPaymentMethod("Peşin", "", 1, uuid.New())
	require.NoError(t, err)
	require.NoError(t, pesin.MakeDefault())
	kredi, err := paymentmethod.NewPaymentMethod("Kredi", "", 2, uuid.New())
	require.NoError(t, err)
	require.NoError(t, kredi.ToggleActive())

	return newLookups([]*identity.User{ayse, twinA, twinB}, []*paymentmethod.PaymentMethod{pesin, kredi}, time.UTC), ayse
}

func TestLookups_ParseRow(t *testing.T) {
	l, ayse := newTestLookups(t)
	cols, _ := mapColumns([]string{"Sözleşme No", "Müşteri Adı", "Satış Tarihi", "Liste Fiyatı", "İndirim Oranı", "Aktivite Satış Fiyatı", "Ödeme Şekli", "Satış Temsilcisi"})

	t.Run("valid row uses default payment method", func(t *testing.T) {
		row := SheetRow{Number: 2, Cells: []string{"A-1", "Ahmet  Demir", "15.03.2025", "2.000.000", "10", "1.850.000", "", "ayşe yılmaz"}}
		parsed, errs := l.parseRow(cols, row)
		require.Empty(t, errs)
		assert.Equal(t, ayse.ID, parsed.Details.SalespersonID)
		assert.Equal(t, "Peşin", parsed.Details.PaymentMethod)
		assert.Equal(t, sales.SaleTypeNormal, parsed.Details.SaleType)
		assert.True(t, decimal.NewFromInt(2000000).Equal(parsed.Details.ListPrice))
		assert.Equal(t, "Ayşe Yılmaz", parsed.SalespersonName)
	})

	t.Run("collects every field error", func(t *testing.T) {
		row := SheetRow{Number: 7, Cells: []string{"", "Ahmet Demir", "32.13.2025", "çok", "", "1", "Kredi", "Ali Kaya"}}
		parsed, errs := l.parseRow(cols, row)
		assert.Nil(t, parsed)
		codes := make([]string, len(errs))
		for i, e := range errs {
			assert.Equal(t, 7, e.Row)
			codes[i] = e.Code
		}
		assert.ElementsMatch(t, []string{"REQUIRED", "INVALID_DATE", "INVALID_NUMBER", "SALESPERSON_AMBIGUOUS", "INVALID_PAYMENT_METHOD"}, codes)
	})

	t.Run("domain validation", func(t *testing.T) {
		row := SheetRow{Number: 3, Cells: []string{"A-2", "Ahmet Demir", "", "100", "", "100", "", "ayse"}}
		_, errs := l.parseRow(cols, row)
		require.Len(t, errs, 1)
		assert.Equal(t, "INVALID_SALE_DATE", errs[0].Code)
	})

	t.Run("unknown salesperson", func(t *testing.T) {
		row := SheetRow{Number: 4, Cells: []string{"A-3", "Ahmet Demir", "15.03.2025", "100", "", "100", "", "Zeynep"}}
		_, errs := l.parseRow(cols, row)
		require.Len(t, errs, 1)
		assert.Equal(t, "SALESPERSON_NOT_FOUND", errs[0].Code)
		assert.Equal(t, "Zeynep", errs[0].Value)
	})
}

func TestNormalizeSteps(t *testing.T) {
	steps, err := normalizeSteps([]string{StepRecalculatePrims, StepNormalizeContracts})
	require.NoError(t, err)
	assert.Equal(t, []string{StepNormalizeContracts, StepRecalculatePrims}, steps)

	_, err = normalizeSteps(nil)
	assert.Error(t, err)
	_, err = normalizeSteps([]string{"drop_everything"})
	assert.Error(t, err)
}
