package bulk

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/salescrm/backend/internal/domain/sales"
)

var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006.01.02",
	"02.01.06",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	time.RFC3339,
}

var errInvalidDate = errors.New("invalid date")

// parseDate accepts day-first Turkish dates, ISO dates and Excel serial numbers.
// Empty input returns nil.
func parseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial < 1 || serial > 100000 {
			return nil, errInvalidDate
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, errInvalidDate
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		return &d, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			return &d, nil
		}
	}
	return nil, errInvalidDate
}

var moneyNoise = strings.NewReplacer("₺", "", "TL", "", "tl", "", "TRY", "", "%", "", " ", "", " ", "")

// parseDecimal reads plain numbers as well as Turkish "1.250.000,50" formatting.
// Empty input is zero.
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := moneyNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, nil
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}

// parseSaleType maps spellings like "Satış", "KAPORA" or "manual"; empty is a normal sale
func parseSaleType(raw string) (sales.SaleType, bool) {
	switch Fold(raw) {
	case "", "satis", "normal", "sale":
		return sales.SaleTypeNormal, true
	case "kapora", "deposit", "on odeme":
		return sales.SaleTypeKapora, true
	case "manuel", "manual", "elle":
		return sales.SaleTypeManual, true
	}
	return "", false
}

// formatCell renders a template or preview value
func formatCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}
