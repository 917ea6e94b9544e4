package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/shared"
)

// AggregateTypeSale is the aggregate type recorded on sale events
const AggregateTypeSale = "Sale"

// Sale event types
const (
	EventTypeSaleCreated           = "SaleCreated"
	EventTypeSaleUpdated           = "SaleUpdated"
	EventTypeSaleDeleted           = "SaleDeleted"
	EventTypeSaleCancelled         = "SaleCancelled"
	EventTypeSaleRestored          = "SaleRestored"
	EventTypeSalePrimStatusChanged = "SalePrimStatusChanged"
	EventTypeSaleKaporaConverted   = "SaleKaporaConverted"
	EventTypeSaleTransferred       = "SaleTransferred"
)

var saleEventDescriptions = map[string]string{
	EventTypeSaleCreated:           "Satış eklendi",
	EventTypeSaleUpdated:           "Satış güncellendi",
	EventTypeSaleDeleted:           "Satış silindi",
	EventTypeSaleCancelled:         "Satış iptal edildi",
	EventTypeSaleRestored:          "Satış geri alındı",
	EventTypeSalePrimStatusChanged: "Prim durumu değiştirildi",
	EventTypeSaleKaporaConverted:   "Kapora satışa dönüştürüldü",
	EventTypeSaleTransferred:       "Satış temsilciye aktarıldı",
}

// SaleEvent carries the identifying fields of a sale after a change
type SaleEvent struct {
	shared.BaseDomainEvent
	ContractNo    string          `json:"contract_no"`
	CustomerName  string          `json:"customer_name"`
	SaleType      SaleType        `json:"sale_type"`
	Status        Status          `json:"status"`
	PrimStatus    PrimStatus      `json:"prim_status"`
	PrimAmount    decimal.Decimal `json:"prim_amount"`
	SalespersonID string          `json:"salesperson_id"`
}

// NewSaleEvent creates a sale event of the given type
func NewSaleEvent(s *Sale, eventType string) *SaleEvent {
	desc := fmt.Sprintf("%s: %s (%s)", saleEventDescriptions[eventType], s.ContractNo, s.CustomerName)
	return &SaleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSale, s.ID, desc),
		ContractNo:      s.ContractNo,
		CustomerName:    s.CustomerName,
		SaleType:        s.SaleType,
		Status:          s.Status,
		PrimStatus:      s.PrimStatus,
		PrimAmount:      s.PrimAmount,
		SalespersonID:   s.SalespersonID.String(),
	}
}
