package bulk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// lookups resolves names found in a file to stored records
type lookups struct {
	salespeople    map[string][]*identity.User
	paymentMethods map[string]*paymentmethod.PaymentMethod
	defaultMethod  string
	loc            *time.Location
}

func newLookups(users []*identity.User, methods []*paymentmethod.PaymentMethod, loc *time.Location) *lookups {
	l := &lookups{
		salespeople:    make(map[string][]*identity.User),
		paymentMethods: make(map[string]*paymentmethod.PaymentMethod),
		loc:            loc,
	}
	for _, u := range users {
		keys := map[string]struct{}{Fold(u.Username): {}}
		if u.FullName != "" {
			keys[Fold(u.FullName)] = struct{}{}
		}
		for k := range keys {
			l.salespeople[k] = append(l.salespeople[k], u)
		}
	}
	for _, pm := range methods {
		l.paymentMethods[Fold(pm.Name)] = pm
		if pm.IsDefault && pm.IsActive {
			l.defaultMethod = pm.Name
		}
	}
	return l
}

// parsedRow is a validated file row
type parsedRow struct {
	Number          int
	Details         sales.Details
	SalespersonName string
}

type rowErrors []bulk.ErrorDetail

func (e *rowErrors) add(row int, col Column, code, message, value string) {
	*e = append(*e, bulk.ErrorDetail{Row: row, Column: string(col), Code: code, Message: message, Value: value})
}

// parseRow converts a sheet row into sale details. It returns nil and the
// collected errors when any field is invalid.
func (l *lookups) parseRow(cols columnMap, row SheetRow) (*parsedRow, rowErrors) {
	var errs rowErrors
	n := row.Number
	get := func(c Column) string { return cols.value(row, c) }

	d := sales.Details{
		ContractNo:    get(ColContractNo),
		CustomerName:  get(ColCustomerName),
		CustomerPhone: get(ColCustomerPhone),
		BlockNo:       get(ColBlockNo),
		ApartmentNo:   get(ColApartmentNo),
		PeriodNo:      get(ColPeriodNo),
		Notes:         get(ColNotes),
	}
	if d.ContractNo == "" {
		errs.add(n, ColContractNo, "REQUIRED", "Sözleşme no zorunludur", "")
	}
	if d.CustomerName == "" {
		errs.add(n, ColCustomerName, "REQUIRED", "Müşteri adı zorunludur", "")
	}

	saleType, ok := parseSaleType(get(ColSaleType))
	if !ok {
		errs.add(n, ColSaleType, "INVALID_SALE_TYPE", "Satış tipi satis, kapora veya manuel olmalıdır", get(ColSaleType))
	}
	d.SaleType = saleType

	for _, f := range []struct {
		col Column
		dst **time.Time
	}{
		{ColSaleDate, &d.SaleDate},
		{ColKaporaDate, &d.KaporaDate},
		{ColContractDate, &d.ContractDate},
	} {
		t, err := parseDate(get(f.col), l.loc)
		if err != nil {
			errs.add(n, f.col, "INVALID_DATE", "Tarih biçimi geçersiz (GG.AA.YYYY)", get(f.col))
			continue
		}
		*f.dst = t
	}

	var err error
	if d.ListPrice, err = parseDecimal(get(ColListPrice)); err != nil {
		errs.add(n, ColListPrice, "INVALID_NUMBER", "Liste fiyatı sayı olmalıdır", get(ColListPrice))
	}
	if d.DiscountRate, err = parseDecimal(get(ColDiscountRate)); err != nil {
		errs.add(n, ColDiscountRate, "INVALID_NUMBER", "İndirim oranı sayı olmalıdır", get(ColDiscountRate))
	}
	if d.ActivitySalePrice, err = parseDecimal(get(ColActivitySalePrice)); err != nil {
		errs.add(n, ColActivitySalePrice, "INVALID_NUMBER", "Aktivite satış fiyatı sayı olmalıdır", get(ColActivitySalePrice))
	}

	person := get(ColSalesperson)
	user, code, msg := l.salesperson(person)
	if code != "" {
		errs.add(n, ColSalesperson, code, msg, person)
	} else {
		d.SalespersonID = user.ID
	}

	method := get(ColPaymentMethod)
	if name, code, msg := l.paymentMethod(method); code != "" {
		errs.add(n, ColPaymentMethod, code, msg, method)
	} else {
		d.PaymentMethod = name
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if err := d.Validate(); err != nil {
		if de, ok := shared.AsDomainError(err); ok {
			errs.add(n, "", de.Code, de.Message, "")
		} else {
			errs.add(n, "", "INVALID_ROW", err.Error(), "")
		}
		return nil, errs
	}
	return &parsedRow{Number: n, Details: d, SalespersonName: user.DisplayName()}, nil
}

func (l *lookups) salesperson(name string) (*identity.User, string, string) {
	if name == "" {
		return nil, "REQUIRED", "Satış temsilcisi zorunludur"
	}
	matches := l.salespeople[Fold(name)]
	switch len(matches) {
	case 0:
		return nil, "SALESPERSON_NOT_FOUND", fmt.Sprintf("Satış temsilcisi bulunamadı: %s", name)
	case 1:
		return matches[0], "", ""
	default:
		return nil, "SALESPERSON_AMBIGUOUS", fmt.Sprintf("Birden fazla kullanıcı eşleşti: %s", name)
	}
}

func (l *lookups) paymentMethod(name string) (string, string, string) {
	if name == "" {
		return l.defaultMethod, "", ""
	}
	pm, ok := l.paymentMethods[Fold(name)]
	if !ok {
		return "", "INVALID_PAYMENT_METHOD", fmt.Sprintf("Ödeme şekli bulunamadı: %s", name)
	}
	if !pm.IsActive {
		return "", "INVALID_PAYMENT_METHOD", fmt.Sprintf("Ödeme şekli pasif: %s", name)
	}
	return pm.Name, "", ""
}

func uuidsOf(rows []*sales.Sale) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, s := range rows {
		ids[i] = s.ID
	}
	return ids
}
