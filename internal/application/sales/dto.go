package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/sales"
)

// Viewer limits what a caller can see. Without ReadAll only own sales are visible.
type Viewer struct {
	UserID  uuid.UUID
	ReadAll bool
}

// CanSee reports whether the viewer may read s
func (v Viewer) CanSee(s *sales.Sale) bool {
	return v.ReadAll || s.IsOwnedBy(v.UserID)
}

// TransferDTO is one entry of the transfer history
type TransferDTO struct {
	FromSalespersonID   uuid.UUID `json:"from_salesperson_id"`
	FromSalespersonName string    `json:"from_salesperson_name,omitempty"`
	ToSalespersonID     uuid.UUID `json:"to_salesperson_id"`
	ToSalespersonName   string    `json:"to_salesperson_name,omitempty"`
	Reason              string    `json:"reason"`
	TransferredBy       uuid.UUID `json:"transferred_by"`
	TransferredAt       time.Time `json:"transferred_at"`
}

// SaleDTO is the API representation of a sale
type SaleDTO struct {
	ID                  uuid.UUID       `json:"id"`
	ContractNo          string          `json:"contract_no"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	BlockNo             string          `json:"block_no"`
	ApartmentNo         string          `json:"apartment_no"`
	PeriodNo            string          `json:"period_no,omitempty"`
	SaleType            string          `json:"sale_type"`
	SaleDate            *time.Time      `json:"sale_date,omitempty"`
	KaporaDate          *time.Time      `json:"kapora_date,omitempty"`
	ContractDate        *time.Time      `json:"contract_date,omitempty"`
	ConvertedAt         *time.Time      `json:"converted_at,omitempty"`
	ListPrice           decimal.Decimal `json:"list_price"`
	DiscountRate        decimal.Decimal `json:"discount_rate"`
	DiscountedListPrice decimal.Decimal `json:"discounted_list_price"`
	ActivitySalePrice   decimal.Decimal `json:"activity_sale_price"`
	PaymentMethod       string          `json:"payment_method"`
	SalespersonID       uuid.UUID       `json:"salesperson_id"`
	SalespersonName     string          `json:"salesperson_name,omitempty"`
	PrimPeriodID        *uuid.UUID      `json:"prim_period_id,omitempty"`
	PrimPeriodName      string          `json:"prim_period_name,omitempty"`
	PrimRate            decimal.Decimal `json:"prim_rate"`
	BasePrimPrice       decimal.Decimal `json:"base_prim_price"`
	PrimAmount          decimal.Decimal `json:"prim_amount"`
	PrimStatus          string          `json:"prim_status"`
	PrimPaidAt          *time.Time      `json:"prim_paid_at,omitempty"`
	Status              string          `json:"status"`
	CancelledAt         *time.Time      `json:"cancelled_at,omitempty"`
	CancelledBy         *uuid.UUID      `json:"cancelled_by,omitempty"`
	CancelReason        string          `json:"cancel_reason,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Source              string          `json:"source"`
	ImportBatchID       *uuid.UUID      `json:"import_batch_id,omitempty"`
	Transfers           []TransferDTO   `json:"transfers"`
	CreatedBy           *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// names resolves user and period display names for DTOs
type names struct {
	users   map[uuid.UUID]string
	periods map[uuid.UUID]string
}

// ToSaleDTO converts a domain sale; n may be nil
func ToSaleDTO(s *sales.Sale, n *names) SaleDTO {
	dto := SaleDTO{
		ID:                  s.ID,
		ContractNo:          s.ContractNo,
		CustomerName:        s.CustomerName,
		CustomerPhone:       s.CustomerPhone,
		BlockNo:             s.BlockNo,
		ApartmentNo:         s.ApartmentNo,
		PeriodNo:            s.PeriodNo,
		SaleType:            string(s.SaleType),
		SaleDate:            s.SaleDate,
		KaporaDate:          s.KaporaDate,
		ContractDate:        s.ContractDate,
		ConvertedAt:         s.ConvertedAt,
		ListPrice:           s.ListPrice,
		DiscountRate:        s.DiscountRate,
		DiscountedListPrice: s.DiscountedListPrice,
		ActivitySalePrice:   s.ActivitySalePrice,
		PaymentMethod:       s.PaymentMethod,
		SalespersonID:       s.SalespersonID,
		PrimPeriodID:        s.PrimPeriodID,
		PrimRate:            s.PrimRate,
		BasePrimPrice:       s.BasePrimPrice,
		PrimAmount:          s.PrimAmount,
		PrimStatus:          string(s.PrimStatus),
		PrimPaidAt:          s.PrimPaidAt,
		Status:              string(s.Status),
		CancelledAt:         s.CancelledAt,
		CancelledBy:         s.CancelledBy,
		CancelReason:        s.CancelReason,
		Notes:               s.Notes,
		Source:              string(s.Source),
		ImportBatchID:       s.ImportBatchID,
		Transfers:           make([]TransferDTO, len(s.Transfers)),
		CreatedBy:           s.CreatedBy,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	for i, t := range s.Transfers {
		dto.Transfers[i] = TransferDTO{
			FromSalespersonID: t.FromSalespersonID,
			ToSalespersonID:   t.ToSalespersonID,
			Reason:            t.Reason,
			TransferredBy:     t.TransferredBy,
			TransferredAt:     t.TransferredAt,
		}
	}
	if n != nil {
		dto.SalespersonName = n.users[s.SalespersonID]
		if s.PrimPeriodID != nil {
			dto.PrimPeriodName = n.periods[*s.PrimPeriodID]
		}
		for i := range dto.Transfers {
			dto.Transfers[i].FromSalespersonName = n.users[dto.Transfers[i].FromSalespersonID]
			dto.Transfers[i].ToSalespersonName = n.users[dto.Transfers[i].ToSalespersonID]
		}
	}
	return dto
}

// ListInput filters the sales list
type ListInput struct {
	Search        string
	SalespersonID *uuid.UUID
	PrimPeriodID  *uuid.UUID
	SaleType      string
	Status        string
	PrimStatus    string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// SaleInput carries the editable fields for create and update
type SaleInput struct {
	ContractNo        string
	CustomerName      string
	CustomerPhone     string
	BlockNo           string
	ApartmentNo       string
	PeriodNo          string
	SaleType          string
	SaleDate          *time.Time
	KaporaDate        *time.Time
	ContractDate      *time.Time
	ListPrice         decimal.Decimal
	DiscountRate      decimal.Decimal
	ActivitySalePrice decimal.Decimal
	PaymentMethod     string
	// SalespersonID defaults to the caller on create
	SalespersonID *uuid.UUID
	Notes         string
}

func (in SaleInput) details(salespersonID uuid.UUID) sales.Details {
	return sales.Details{
		ContractNo:        in.ContractNo,
		CustomerName:      in.CustomerName,
		CustomerPhone:     in.CustomerPhone,
		BlockNo:           in.BlockNo,
		ApartmentNo:       in.ApartmentNo,
		PeriodNo:          in.PeriodNo,
		SaleType:          sales.SaleType(in.SaleType),
		SaleDate:          in.SaleDate,
		KaporaDate:        in.KaporaDate,
		ContractDate:      in.ContractDate,
		ListPrice:         in.ListPrice,
		DiscountRate:      in.DiscountRate,
		ActivitySalePrice: in.ActivitySalePrice,
		PaymentMethod:     in.PaymentMethod,
		SalespersonID:     salespersonID,
		Notes:             in.Notes,
	}
}

// ConvertInput turns a kapora into a sale
type ConvertInput struct {
	SaleDate          time.Time
	ContractDate      *time.Time
	ActivitySalePrice *decimal.Decimal
}

// TransferInput moves a sale to another salesperson
type TransferInput struct {
	SalespersonID uuid.UUID
	Reason        string
}

// ExportFile is a rendered export ready to be sent to the client
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}
