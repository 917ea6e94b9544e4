package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/communication"
)

// CommunicationRecordModel is one (user, date) row of contact counts
type CommunicationRecordModel struct {
	AggregateModel
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_comm_records_user_date"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:idx_comm_records_user_date;index"`
	WhatsApp      int       `gorm:"column:whatsapp;not null;default:0"`
	IncomingCalls int       `gorm:"not null;default:0"`
	OutgoingCalls int       `gorm:"not null;default:0"`
	Meetings      int       `gorm:"not null;default:0"`
	Visits        int       `gorm:"not null;default:0"`
	Total         int       `gorm:"not null;default:0"`
	EnteredAt     time.Time `gorm:"not null"`
	EnteredBy     uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (CommunicationRecordModel) TableName() string {
	return "communication_records"
}

// ToDomain converts the model to a domain record
func (m *CommunicationRecordModel) ToDomain() *communication.Record {
	return &communication.Record{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Date:              communication.DateOnly(m.Date),
		Counts: communication.Counts{
			WhatsApp:      m.WhatsApp,
			IncomingCalls: m.IncomingCalls,
			OutgoingCalls: m.OutgoingCalls,
			Meetings:      m.Meetings,
			Visits:        m.Visits,
		},
		EnteredAt: m.EnteredAt,
		EnteredBy: m.EnteredBy,
	}
}

// FromDomain populates the model from a domain record
func (m *CommunicationRecordModel) FromDomain(r *communication.Record) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.UserID = r.UserID
	m.Date = r.Date
	m.WhatsApp = r.Counts.WhatsApp
	m.IncomingCalls = r.Counts.IncomingCalls
	m.OutgoingCalls = r.Counts.OutgoingCalls
	m.Meetings = r.Counts.Meetings
	m.Visits = r.Counts.Visits
	m.Total = r.Counts.Total()
	m.EnteredAt = r.EnteredAt
	m.EnteredBy = r.EnteredBy
}

// CommunicationYearModel holds quota settings of a year
type CommunicationYearModel struct {
	AggregateModel
	Year                 int    `gorm:"not null;uniqueIndex"`
	IsActive             bool   `gorm:"not null;default:true"`
	DailyMinimum         int    `gorm:"not null;default:0"`
	MonthlyTargets       string `gorm:"type:text;not null;default:'{}'"`
	PenaltyPointsPerMiss int    `gorm:"not null;default:1"`
	MaxPenaltyPoints     int    `gorm:"not null;default:0"`
	Description          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CommunicationYearModel) TableName() string {
	return "communication_years"
}

// ToDomain converts the model to a domain year
func (m *CommunicationYearModel) ToDomain() *communication.Year {
	y := &communication.Year{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		Year:                 m.Year,
		IsActive:             m.IsActive,
		DailyMinimum:         m.DailyMinimum,
		MonthlyTargets:       make(map[int]int),
		PenaltyPointsPerMiss: m.PenaltyPointsPerMiss,
		MaxPenaltyPoints:     m.MaxPenaltyPoints,
		Description:          m.Description,
	}
	unmarshalJSON(m.MonthlyTargets, &y.MonthlyTargets)
	return y
}

// FromDomain populates the model from a domain year
func (m *CommunicationYearModel) FromDomain(y *communication.Year) {
	m.FromDomainAggregateRoot(y.BaseAggregateRoot)
	m.Year = y.Year
	m.IsActive = y.IsActive
	m.DailyMinimum = y.DailyMinimum
	m.MonthlyTargets = marshalJSON(y.MonthlyTargets, "{}")
	m.PenaltyPointsPerMiss = y.PenaltyPointsPerMiss
	m.MaxPenaltyPoints = y.MaxPenaltyPoints
	m.Description = y.Description
}

// PenaltyRecordModel is one penalty entry
type PenaltyRecordModel struct {
	AggregateModel
	UserID      uuid.UUID                 `gorm:"type:uuid;not null;index:idx_penalties_user_date"`
	Date        time.Time                 `gorm:"type:date;not null;index:idx_penalties_user_date"`
	Points      int                       `gorm:"not null"`
	Reason      string                    `gorm:"type:text;not null"`
	Type        communication.PenaltyType `gorm:"type:varchar(20);not null;index"`
	IsCancelled bool                      `gorm:"not null;default:false"`
	CancelledBy *uuid.UUID                `gorm:"type:uuid"`
	CancelledAt *time.Time
}

// TableName returns the table name for GORM
func (PenaltyRecordModel) TableName() string {
	return "penalty_records"
}

// ToDomain converts the model to a domain penalty
func (m *PenaltyRecordModel) ToDomain() *communication.Penalty {
	return &communication.Penalty{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Date:              communication.DateOnly(m.Date),
		Points:            m.Points,
		Reason:            m.Reason,
		Type:              m.Type,
		IsCancelled:       m.IsCancelled,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the model from a domain penalty
func (m *PenaltyRecordModel) FromDomain(p *communication.Penalty) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.UserID = p.UserID
	m.Date = p.Date
	m.Points = p.Points
	m.Reason = p.Reason
	m.Type = p.Type
	m.IsCancelled = p.IsCancelled
	m.CancelledBy = p.CancelledBy
	m.CancelledAt = p.CancelledAt
}
