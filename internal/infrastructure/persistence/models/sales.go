package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/sales"
)

// SaleModel is the persistence model for sales.Sale
type SaleModel struct {
	AggregateModel
	ContractNo          string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerName        string         `gorm:"type:varchar(200);not null;index"`
	CustomerPhone       string         `gorm:"type:varchar(50)"`
	BlockNo             string         `gorm:"type:varchar(50)"`
	ApartmentNo         string         `gorm:"type:varchar(50)"`
	PeriodNo            string         `gorm:"type:varchar(50)"`
	SaleType            sales.SaleType `gorm:"type:varchar(20);not null;index"`
	SaleDate            *time.Time     `gorm:"index"`
	KaporaDate          *time.Time     `gorm:"index"`
	ContractDate        *time.Time
	ConvertedAt         *time.Time
	ListPrice           decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountRate        decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountedListPrice decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ActivitySalePrice   decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod       string           `gorm:"type:varchar(100);index"`
	SalespersonID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	PrimPeriodID        *uuid.UUID       `gorm:"type:uuid;index"`
	PrimRate            decimal.Decimal  `gorm:"type:decimal(7,4);not null;default:0"`
	BasePrimPrice       decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	PrimAmount          decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	PrimStatus          sales.PrimStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	PrimPaidAt          *time.Time
	Status              sales.Status `gorm:"type:varchar(20);not null;default:'active';index"`
	CancelledAt         *time.Time
	CancelledBy         *uuid.UUID   `gorm:"type:uuid"`
	CancelReason        string       `gorm:"type:text"`
	Notes               string       `gorm:"type:text"`
	Source              sales.Source `gorm:"type:varchar(20);not null;default:'manual';index"`
	ImportBatchID       *uuid.UUID   `gorm:"type:uuid;index"`
	Transfers           string       `gorm:"type:text;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the model to a domain sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		ContractNo:          m.ContractNo,
		CustomerName:        m.CustomerName,
		CustomerPhone:       m.CustomerPhone,
		BlockNo:             m.BlockNo,
		ApartmentNo:         m.ApartmentNo,
		PeriodNo:            m.PeriodNo,
		SaleType:            m.SaleType,
		SaleDate:            m.SaleDate,
		KaporaDate:          m.KaporaDate,
		ContractDate:        m.ContractDate,
		ConvertedAt:         m.ConvertedAt,
		ListPrice:           m.ListPrice,
		DiscountRate:        m.DiscountRate,
		DiscountedListPrice: m.DiscountedListPrice,
		ActivitySalePrice:   m.ActivitySalePrice,
		PaymentMethod:       m.PaymentMethod,
		SalespersonID:       m.SalespersonID,
		PrimPeriodID:        m.PrimPeriodID,
		PrimRate:            m.PrimRate,
		BasePrimPrice:       m.BasePrimPrice,
		PrimAmount:          m.PrimAmount,
		PrimStatus:          m.PrimStatus,
		PrimPaidAt:          m.PrimPaidAt,
		Status:              m.Status,
		CancelledAt:         m.CancelledAt,
		CancelledBy:         m.CancelledBy,
		CancelReason:        m.CancelReason,
		Notes:               m.Notes,
		Source:              m.Source,
		ImportBatchID:       m.ImportBatchID,
		Transfers:           make([]sales.Transfer, 0),
	}
	unmarshalJSON(m.Transfers, &s.Transfers)
	return s
}

// FromDomain populates the model from a domain sale
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ContractNo = s.ContractNo
	m.CustomerName = s.CustomerName
	m.CustomerPhone = s.CustomerPhone
	m.BlockNo = s.BlockNo
	m.ApartmentNo = s.ApartmentNo
	m.PeriodNo = s.PeriodNo
	m.SaleType = s.SaleType
	m.SaleDate = s.SaleDate
	m.KaporaDate = s.KaporaDate
	m.ContractDate = s.ContractDate
	m.ConvertedAt = s.ConvertedAt
	m.ListPrice = s.ListPrice
	m.DiscountRate = s.DiscountRate
	m.DiscountedListPrice = s.DiscountedListPrice
	m.ActivitySalePrice = s.ActivitySalePrice
	m.PaymentMethod = s.PaymentMethod
	m.SalespersonID = s.SalespersonID
	m.PrimPeriodID = s.PrimPeriodID
	m.PrimRate = s.PrimRate
	m.BasePrimPrice = s.BasePrimPrice
	m.PrimAmount = s.PrimAmount
	m.PrimStatus = s.PrimStatus
	m.PrimPaidAt = s.PrimPaidAt
	m.Status = s.Status
	m.CancelledAt = s.CancelledAt
	m.CancelledBy = s.CancelledBy
	m.CancelReason = s.CancelReason
	m.Notes = s.Notes
	m.Source = s.Source
	m.ImportBatchID = s.ImportBatchID
	m.Transfers = marshalJSON(s.Transfers, "[]")
}

// SaleModelFromDomain creates a model from a domain sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
