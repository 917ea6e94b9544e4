// Package sales models apartment sales, kapora (deposit) records and their prim.
package sales

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/shared"
)

// SaleType distinguishes normal sales from deposits and manual entries
type SaleType string

const (
	// SaleTypeNormal is a completed sale that earns prim
	SaleTypeNormal SaleType = "satis"
	// SaleTypeKapora is a deposit taken before the contract; no prim until converted
	SaleTypeKapora SaleType = "kapora"
	// SaleTypeManual is a manually entered sale that never earns prim
	SaleTypeManual SaleType = "manuel"
)

// IsValid reports whether the sale type is known
func (t SaleType) IsValid() bool {
	switch t {
	case SaleTypeNormal, SaleTypeKapora, SaleTypeManual:
		return true
	}
	return false
}

// Status of a sale
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// PrimStatus tracks whether the prim has been paid out
type PrimStatus string

const (
	PrimStatusUnpaid PrimStatus = "unpaid"
	PrimStatusPaid   PrimStatus = "paid"
)

// IsValid reports whether the prim status is known
func (s PrimStatus) IsValid() bool {
	return s == PrimStatusUnpaid || s == PrimStatusPaid
}

// Source records how a sale entered the system
type Source string

const (
	SourceManual    Source = "manual"
	SourceImport    Source = "import"
	SourceMigration Source = "migration"
)

var contractNoPattern = regexp.MustCompile(`^[\p{L}0-9][\p{L}0-9 ./_\-]*$`)

// IsValidContractNo reports whether contractNo uses only the allowed characters
func IsValidContractNo(contractNo string) bool {
	contractNo = strings.TrimSpace(contractNo)
	return len(contractNo) <= 50 && contractNoPattern.MatchString(contractNo)
}

// Transfer records a change of salesperson
type Transfer struct {
	FromSalespersonID uuid.UUID `json:"from_salesperson_id"`
	ToSalespersonID   uuid.UUID `json:"to_salesperson_id"`
	Reason            string    `json:"reason"`
	TransferredBy     uuid.UUID `json:"transferred_by"`
	TransferredAt     time.Time `json:"transferred_at"`
}

// Sale is one apartment sale or kapora
type Sale struct {
	shared.BaseAggregateRoot
	ContractNo          string
	CustomerName        string
	CustomerPhone       string
	BlockNo             string
	ApartmentNo         string
	PeriodNo            string
	SaleType            SaleType
	SaleDate            *time.Time
	KaporaDate          *time.Time
	ContractDate        *time.Time
	ConvertedAt         *time.Time
	ListPrice           decimal.Decimal
	DiscountRate        decimal.Decimal
	DiscountedListPrice decimal.Decimal
	ActivitySalePrice   decimal.Decimal
	PaymentMethod       string
	SalespersonID       uuid.UUID
	PrimPeriodID        *uuid.UUID
	PrimRate            decimal.Decimal
	BasePrimPrice       decimal.Decimal
	PrimAmount          decimal.Decimal
	PrimStatus          PrimStatus
	PrimPaidAt          *time.Time
	Status              Status
	CancelledAt         *time.Time
	CancelledBy         *uuid.UUID
	CancelReason        string
	Notes               string
	Source              Source
	ImportBatchID       *uuid.UUID
	Transfers           []Transfer
}

// Details are the user-editable fields of a sale
type Details struct {
	ContractNo        string
	CustomerName      string
	CustomerPhone     string
	BlockNo           string
	ApartmentNo       string
	PeriodNo          string
	SaleType          SaleType
	SaleDate          *time.Time
	KaporaDate        *time.Time
	ContractDate      *time.Time
	ListPrice         decimal.Decimal
	DiscountRate      decimal.Decimal
	ActivitySalePrice decimal.Decimal
	PaymentMethod     string
	SalespersonID     uuid.UUID
	Notes             string
}

// NewSale validates details and creates an active, unpaid sale
func NewSale(d Details, source Source, createdBy uuid.UUID) (*Sale, error) {
	d = normalizeDetails(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceManual
	}

	s := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		PrimStatus:        PrimStatusUnpaid,
		Status:            StatusActive,
		Source:            source,
		Transfers:         make([]Transfer, 0),
	}
	s.applyDetails(d)
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleCreated))
	return s, nil
}

// Validate checks field-level rules that depend on the sale type
func (d Details) Validate() error {
	if d.ContractNo == "" {
		return shared.NewDomainError("INVALID_CONTRACT_NO", "Sözleşme numarası zorunludur")
	}
	if len(d.ContractNo) > 50 || !contractNoPattern.MatchString(d.ContractNo) {
		return shared.NewDomainError("INVALID_CONTRACT_NO", "Sözleşme numarası geçersiz karakter içeriyor")
	}
	if d.CustomerName == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Müşteri adı zorunludur")
	}
	if len(d.CustomerName) > 200 {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Müşteri adı 200 karakteri geçemez")
	}
	if !d.SaleType.IsValid() {
		return shared.NewDomainError("INVALID_SALE_TYPE", "Satış türü satis, kapora veya manuel olmalı")
	}
	if d.SalespersonID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALESPERSON", "Satış temsilcisi zorunludur")
	}
	if d.DiscountRate.IsNegative() || d.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT_RATE", "İndirim oranı 0 ile 100 arasında olmalı")
	}
	if d.ListPrice.IsNegative() || d.ActivitySalePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Fiyatlar negatif olamaz")
	}

	switch d.SaleType {
	case SaleTypeKapora:
		if d.KaporaDate == nil {
			return shared.NewDomainError("INVALID_KAPORA_DATE", "Kapora kayıtları için kapora tarihi zorunludur")
		}
	default:
		if d.SaleDate == nil {
			return shared.NewDomainError("INVALID_SALE_DATE", "Satış tarihi zorunludur")
		}
		if !d.ListPrice.IsPositive() {
			return shared.NewDomainError("INVALID_PRICE", "Liste fiyatı 0'dan büyük olmalı")
		}
		if !d.ActivitySalePrice.IsPositive() {
			return shared.NewDomainError("INVALID_PRICE", "Aktivite satış fiyatı 0'dan büyük olmalı")
		}
	}
	return nil
}

func normalizeDetails(d Details) Details {
	d.ContractNo = strings.TrimSpace(d.ContractNo)
	d.CustomerName = strings.Join(strings.Fields(d.CustomerName), " ")
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	d.BlockNo = strings.TrimSpace(d.BlockNo)
	d.ApartmentNo = strings.TrimSpace(d.ApartmentNo)
	d.PeriodNo = strings.TrimSpace(d.PeriodNo)
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.SaleType == "" {
		d.SaleType = SaleTypeNormal
	}
	return d
}

func (s *Sale) applyDetails(d Details) {
	s.ContractNo = d.ContractNo
	s.CustomerName = d.CustomerName
	s.CustomerPhone = d.CustomerPhone
	s.BlockNo = d.BlockNo
	s.ApartmentNo = d.ApartmentNo
	s.PeriodNo = d.PeriodNo
	s.SaleType = d.SaleType
	s.SaleDate = d.SaleDate
	s.KaporaDate = d.KaporaDate
	s.ContractDate = d.ContractDate
	s.ListPrice = d.ListPrice.Round(2)
	s.DiscountRate = d.DiscountRate.Round(2)
	s.ActivitySalePrice = d.ActivitySalePrice.Round(2)
	s.PaymentMethod = d.PaymentMethod
	s.SalespersonID = d.SalespersonID
	s.Notes = d.Notes
	s.DiscountedListPrice = DiscountedPrice(s.ListPrice, s.DiscountRate)
}

// Details returns the editable fields of the sale
func (s *Sale) Details() Details {
	return Details{
		ContractNo:        s.ContractNo,
		CustomerName:      s.CustomerName,
		CustomerPhone:     s.CustomerPhone,
		BlockNo:           s.BlockNo,
		ApartmentNo:       s.ApartmentNo,
		PeriodNo:          s.PeriodNo,
		SaleType:          s.SaleType,
		SaleDate:          s.SaleDate,
		KaporaDate:        s.KaporaDate,
		ContractDate:      s.ContractDate,
		ListPrice:         s.ListPrice,
		DiscountRate:      s.DiscountRate,
		ActivitySalePrice: s.ActivitySalePrice,
		PaymentMethod:     s.PaymentMethod,
		SalespersonID:     s.SalespersonID,
		Notes:             s.Notes,
	}
}

// Update replaces the editable fields. Price fields are frozen once prim is paid.
func (s *Sale) Update(d Details) error {
	d = normalizeDetails(d)
	if err := d.Validate(); err != nil {
		return err
	}
	if s.PrimStatus == PrimStatusPaid && s.pricingChanged(d) {
		return shared.NewDomainError("PRIM_ALREADY_PAID", "Primi ödenmiş satışın fiyat ve tarihleri değiştirilemez")
	}

	s.applyDetails(d)
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleUpdated))
	return nil
}

func (s *Sale) pricingChanged(d Details) bool {
	return d.SaleType != s.SaleType ||
		!d.ListPrice.Round(2).Equal(s.ListPrice) ||
		!d.DiscountRate.Round(2).Equal(s.DiscountRate) ||
		!d.ActivitySalePrice.Round(2).Equal(s.ActivitySalePrice) ||
		!sameDay(d.SaleDate, s.SaleDate) ||
		(s.ConvertedAt != nil && !sameDay(d.ContractDate, s.ContractDate))
}

// EarnsPrim reports whether the sale type earns commission
func (s *Sale) EarnsPrim() bool {
	return s.SaleType == SaleTypeNormal
}

// PrimDate is the date that decides the prim period and rate. A sale
// converted from kapora is dated by its contract when one is recorded.
func (s *Sale) PrimDate() time.Time {
	switch {
	case s.SaleType == SaleTypeKapora && s.KaporaDate != nil:
		return *s.KaporaDate
	case s.ConvertedAt != nil && s.ContractDate != nil:
		return *s.ContractDate
	case s.SaleDate != nil:
		return *s.SaleDate
	case s.KaporaDate != nil:
		return *s.KaporaDate
	default:
		return s.CreatedAt
	}
}

// ApplyPrim stores the period and recomputes the prim with rate.
// Non-earning sale types keep a zero prim.
func (s *Sale) ApplyPrim(periodID *uuid.UUID, rate decimal.Decimal) {
	s.PrimPeriodID = periodID
	base, amount := s.ExpectedPrim(rate)
	if s.EarnsPrim() {
		s.PrimRate = rate
	} else {
		s.PrimRate = decimal.Zero
	}
	s.BasePrimPrice = base
	s.PrimAmount = amount
}

// ExpectedPrim returns the base price and prim amount the sale would earn at rate
func (s *Sale) ExpectedPrim(rate decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !s.EarnsPrim() {
		return decimal.Zero, decimal.Zero
	}
	base := BasePrimPrice(s.DiscountedListPrice, s.ActivitySalePrice)
	return base, prim.CalculatePrim(base, rate)
}

// Cancel marks the sale cancelled
func (s *Sale) Cancel(reason string, by uuid.UUID) error {
	if s.Status == StatusCancelled {
		return shared.NewDomainError("SALE_ALREADY_CANCELLED", "Satış zaten iptal edilmiş")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_CANCEL_REASON", "İptal nedeni zorunludur")
	}

	now := time.Now()
	s.Status = StatusCancelled
	s.CancelledAt = &now
	s.CancelledBy = &by
	s.CancelReason = reason
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleCancelled))
	return nil
}

// Restore reactivates a cancelled sale
func (s *Sale) Restore() error {
	if s.Status != StatusCancelled {
		return shared.NewDomainError("SALE_NOT_CANCELLED", "Yalnızca iptal edilmiş satışlar geri yüklenebilir")
	}
	s.Status = StatusActive
	s.CancelledAt = nil
	s.CancelledBy = nil
	s.CancelReason = ""
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleRestored))
	return nil
}

// SetPrimStatus marks the prim paid or unpaid
func (s *Sale) SetPrimStatus(status PrimStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_PRIM_STATUS", "Prim durumu paid veya unpaid olmalı")
	}
	if status == s.PrimStatus {
		return nil
	}
	if status == PrimStatusPaid {
		if s.Status == StatusCancelled {
			return shared.NewDomainError("SALE_CANCELLED", "İptal edilmiş satışın primi ödenemez")
		}
		if !s.EarnsPrim() {
			return shared.NewDomainError("NO_PRIM", "Bu satış türü prim kazandırmaz")
		}
		now := time.Now()
		s.PrimPaidAt = &now
	} else {
		s.PrimPaidAt = nil
	}

	s.PrimStatus = status
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSalePrimStatusChanged))
	return nil
}

// ConvertKapora turns a kapora into a normal sale. The caller recalculates prim.
func (s *Sale) ConvertKapora(saleDate time.Time, contractDate *time.Time, activitySalePrice *decimal.Decimal) error {
	if s.SaleType != SaleTypeKapora {
		return shared.NewDomainError("NOT_KAPORA", "Yalnızca kapora kayıtları satışa dönüştürülebilir")
	}
	if s.Status == StatusCancelled {
		return shared.NewDomainError("SALE_CANCELLED", "İptal edilmiş kapora satışa dönüştürülemez")
	}
	if saleDate.IsZero() {
		return shared.NewDomainError("INVALID_SALE_DATE", "Satış tarihi zorunludur")
	}

	d := s.Details()
	d.SaleType = SaleTypeNormal
	d.SaleDate = &saleDate
	if contractDate != nil {
		d.ContractDate = contractDate
	}
	if activitySalePrice != nil {
		d.ActivitySalePrice = *activitySalePrice
	}
	if err := d.Validate(); err != nil {
		return err
	}

	s.applyDetails(d)
	convertedAt := shared.Now()
	s.ConvertedAt = &convertedAt
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleKaporaConverted))
	return nil
}

// TransferTo moves the sale to another salesperson, keeping history
func (s *Sale) TransferTo(salespersonID uuid.UUID, reason string, by uuid.UUID) error {
	if salespersonID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALESPERSON", "Hedef satış temsilcisi zorunludur")
	}
	if salespersonID == s.SalespersonID {
		return shared.NewDomainError("SAME_SALESPERSON", "Satış zaten bu satış temsilcisine ait")
	}
	if s.PrimStatus == PrimStatusPaid {
		return shared.NewDomainError("PRIM_ALREADY_PAID", "Primi ödenmiş satışlar devredilemez")
	}

	s.Transfers = append(s.Transfers, Transfer{
		FromSalespersonID: s.SalespersonID,
		ToSalespersonID:   salespersonID,
		Reason:            strings.TrimSpace(reason),
		TransferredBy:     by,
		TransferredAt:     time.Now(),
	})
	s.SalespersonID = salespersonID
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleEvent(s, EventTypeSaleTransferred))
	return nil
}

// SetNotes replaces the notes
func (s *Sale) SetNotes(notes string) error {
	notes = strings.TrimSpace(notes)
	if len(notes) > 2000 {
		return shared.NewDomainError("INVALID_NOTES", "Notlar 2000 karakteri geçemez")
	}
	s.Notes = notes
	s.IncrementVersion()
	return nil
}

// AssignPeriod sets the prim period and leaves the amounts untouched
func (s *Sale) AssignPeriod(periodID uuid.UUID) {
	s.PrimPeriodID = &periodID
	s.IncrementVersion()
}

// NormalizeContractNo rewrites the contract number to its canonical spelling:
// upper case, single spaces and no spaces around separators.
func (s *Sale) NormalizeContractNo() (string, bool) {
	normalized := CanonicalContractNo(s.ContractNo)
	if normalized == s.ContractNo {
		return s.ContractNo, false
	}
	s.ContractNo = normalized
	s.IncrementVersion()
	return normalized, true
}

// CanonicalContractNo returns the canonical spelling of a contract number
func CanonicalContractNo(contractNo string) string {
	c := strings.ToUpper(strings.Join(strings.Fields(contractNo), " "))
	for _, sep := range []string{"-", "/", "."} {
		c = strings.ReplaceAll(c, " "+sep, sep)
		c = strings.ReplaceAll(c, sep+" ", sep)
	}
	return c
}

// MarkImported tags the sale with the import batch that created it
func (s *Sale) MarkImported(batchID uuid.UUID) {
	s.ImportBatchID = &batchID
}

// IsOwnedBy reports whether userID is the salesperson of the sale
func (s *Sale) IsOwnedBy(userID uuid.UUID) bool {
	return s.SalespersonID == userID
}

// DiscountedPrice applies a percentage discount, rounded to 2 decimals
func DiscountedPrice(listPrice, discountRate decimal.Decimal) decimal.Decimal {
	if discountRate.IsZero() {
		return listPrice.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(discountRate.Div(decimal.NewFromInt(100)))
	return listPrice.Mul(factor).Round(2)
}

// BasePrimPrice is the lower of the discounted list price and the activity sale price.
// A missing (zero) price falls back to the other one.
func BasePrimPrice(discountedListPrice, activitySalePrice decimal.Decimal) decimal.Decimal {
	switch {
	case discountedListPrice.IsZero():
		return activitySalePrice
	case activitySalePrice.IsZero():
		return discountedListPrice
	default:
		return decimal.Min(discountedListPrice, activitySalePrice)
	}
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
