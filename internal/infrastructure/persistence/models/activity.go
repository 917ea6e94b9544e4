package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/activity"
)

// ActivityLogModel is the persistence model for activity.Log
type ActivityLogModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index"`
	Username    string          `gorm:"type:varchar(100)"`
	Action      activity.Action `gorm:"type:varchar(30);not null;index"`
	EntityType  string          `gorm:"type:varchar(50);index"`
	EntityID    *uuid.UUID      `gorm:"type:uuid"`
	Description string          `gorm:"type:text"`
	IPAddress   string          `gorm:"type:varchar(45)"`
	Metadata    string          `gorm:"type:text;not null;default:'{}'"`
	CreatedAt   time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the model to a domain log
func (m *ActivityLogModel) ToDomain() *activity.Log {
	l := &activity.Log{
		ID:          m.ID,
		UserID:      m.UserID,
		Username:    m.Username,
		Action:      m.Action,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Description: m.Description,
		IPAddress:   m.IPAddress,
		CreatedAt:   m.CreatedAt,
	}
	unmarshalJSON(m.Metadata, &l.Metadata)
	return l
}

// FromDomain populates the model from a domain log
func (m *ActivityLogModel) FromDomain(l *activity.Log) {
	m.ID = l.ID
	m.UserID = l.UserID
	m.Username = l.Username
	m.Action = l.Action
	m.EntityType = l.EntityType
	m.EntityID = l.EntityID
	m.Description = l.Description
	m.IPAddress = l.IPAddress
	m.Metadata = l.MetadataJSON()
	m.CreatedAt = l.CreatedAt
}
