package bulk

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Column is a canonical import field
type Column string

const (
	ColContractNo        Column = "contract_no"
	ColCustomerName      Column = "customer_name"
	ColCustomerPhone     Column = "customer_phone"
	ColBlockNo           Column = "block_no"
	ColApartmentNo       Column = "apartment_no"
	ColPeriodNo          Column = "period_no"
	ColSaleType          Column = "sale_type"
	ColSaleDate          Column = "sale_date"
	ColKaporaDate        Column = "kapora_date"
	ColContractDate      Column = "contract_date"
	ColListPrice         Column = "list_price"
	ColDiscountRate      Column = "discount_rate"
	ColActivitySalePrice Column = "activity_sale_price"
	ColPaymentMethod     Column = "payment_method"
	ColSalesperson       Column = "salesperson"
	ColNotes             Column = "notes"
)

// templateColumns is the column order of the import template, with the Turkish header
var templateColumns = []struct {
	col    Column
	header string
	sample any
}{
	{ColContractNo, "Sözleşme No", "A-2025-001"},
	{ColCustomerName, "Müşteri Adı", "Ahmet Demir"},
	{ColCustomerPhone, "Telefon", "0532 000 00 00"},
	{ColBlockNo, "Blok", "A"},
	{ColApartmentNo, "Daire No", "12"},
	{ColPeriodNo, "Dönem No", "36 ay"},
	{ColSaleType, "Satış Tipi", "satis"},
	{ColSaleDate, "Satış Tarihi", "15.03.2025"},
	{ColKaporaDate, "Kapora Tarihi", ""},
	{ColContractDate, "Sözleşme Tarihi", "20.03.2025"},
	{ColListPrice, "Liste Fiyatı", 2000000},
	{ColDiscountRate, "İndirim Oranı", 10},
	{ColActivitySalePrice, "Aktivite Satış Fiyatı", 1850000},
	{ColPaymentMethod, "Ödeme Şekli", "Peşin"},
	{ColSalesperson, "Satış Temsilcisi", "Ayşe Yılmaz"},
	{ColNotes, "Notlar", ""},
}

var requiredColumns = []Column{ColContractNo, ColCustomerName, ColSalesperson}

// columnAliases maps folded header spellings to canonical columns
var columnAliases = buildAliases(map[Column][]string{
	ColContractNo:        {"sözleşme no", "sözleşme numarası", "sözleşme", "sozlesme no", "contract no", "contract_no"},
	ColCustomerName:      {"müşteri adı", "müşteri", "müşteri adı soyadı", "ad soyad", "customer", "customer name", "customer_name"},
	ColCustomerPhone:     {"telefon", "müşteri telefonu", "müşteri telefon", "tel", "phone", "customer_phone"},
	ColBlockNo:           {"blok", "blok no", "block", "block_no"},
	ColApartmentNo:       {"daire", "daire no", "apartment", "apartment_no"},
	ColPeriodNo:          {"dönem no", "vade", "taksit sayısı", "period no", "period_no"},
	ColSaleType:          {"satış tipi", "satış türü", "tip", "tür", "sale type", "sale_type"},
	ColSaleDate:          {"satış tarihi", "tarih", "sale date", "sale_date"},
	ColKaporaDate:        {"kapora tarihi", "kapora date", "kapora_date"},
	ColContractDate:      {"sözleşme tarihi", "contract date", "contract_date"},
	ColListPrice:         {"liste fiyatı", "liste fiyat", "list price", "list_price"},
	ColDiscountRate:      {"indirim oranı", "indirim", "iskonto", "indirim %", "discount", "discount rate", "discount_rate"},
	ColActivitySalePrice: {"aktivite satış fiyatı", "aktivite fiyatı", "satış fiyatı", "activity sale price", "activity_sale_price"},
	ColPaymentMethod:     {"ödeme şekli", "ödeme yöntemi", "ödeme", "payment method", "payment_method"},
	ColSalesperson:       {"satış temsilcisi", "temsilci", "danışman", "satıcı", "salesperson", "sales person"},
	ColNotes:             {"notlar", "not", "açıklama", "notes"},
})

func buildAliases(in map[Column][]string) map[string]Column {
	out := make(map[string]Column)
	for col, aliases := range in {
		out[Fold(string(col))] = col
		for _, a := range aliases {
			out[Fold(a)] = col
		}
	}
	return out
}

var (
	turkishLower = cases.Lower(language.Turkish)
	dotless      = strings.NewReplacer("ı", "i")
	separators   = strings.NewReplacer("_", " ", "-", " ", ".", " ", ":", " ", "/", " ")
)

// Fold lower-cases s with Turkish rules, strips diacritics and collapses
// separators so that "Sözleşme_No" and "sozlesme no" compare equal.
func Fold(s string) string {
	s = turkishLower.String(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = dotless.Replace(folded)
	return strings.Join(strings.Fields(separators.Replace(folded)), " ")
}

// columnMap is the column index of each recognised header
type columnMap map[Column]int

// mapColumns resolves headers; unknown headers are returned for the report
func mapColumns(headers []string) (columnMap, []string) {
	m := make(columnMap)
	var unknown []string
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		col, ok := columnAliases[Fold(h)]
		if !ok {
			unknown = append(unknown, h)
			continue
		}
		if _, dup := m[col]; !dup {
			m[col] = i
		}
	}
	return m, unknown
}

func (m columnMap) missing() []string {
	var out []string
	for _, c := range requiredColumns {
		if _, ok := m[c]; !ok {
			out = append(out, string(c))
		}
	}
	return out
}

func (m columnMap) value(row SheetRow, col Column) string {
	idx, ok := m[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Cell(idx))
}

func (m columnMap) has(col Column) bool {
	_, ok := m[col]
	return ok
}
