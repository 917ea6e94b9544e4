package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/announcement"
)

// AnnouncementModel is the persistence model for announcement.Announcement
type AnnouncementModel struct {
	AggregateModel
	Title     string                `gorm:"type:varchar(200);not null"`
	Content   string                `gorm:"type:text;not null"`
	Priority  announcement.Priority `gorm:"type:varchar(20);not null;default:'normal'"`
	IsActive  bool                  `gorm:"not null;default:true;index"`
	ExpiresAt *time.Time            `gorm:"index"`
}

// TableName returns the table name for GORM
func (AnnouncementModel) TableName() string {
	return "announcements"
}

// ToDomain converts the model to a domain announcement
func (m *AnnouncementModel) ToDomain() *announcement.Announcement {
	return &announcement.Announcement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Title:             m.Title,
		Content:           m.Content,
		Priority:          m.Priority,
		IsActive:          m.IsActive,
		ExpiresAt:         m.ExpiresAt,
	}
}

// FromDomain populates the model from a domain announcement
func (m *AnnouncementModel) FromDomain(a *announcement.Announcement) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Title = a.Title
	m.Content = a.Content
	m.Priority = a.Priority
	m.IsActive = a.IsActive
	m.ExpiresAt = a.ExpiresAt
}

// AnnouncementReadModel is a read receipt
type AnnouncementReadModel struct {
	AnnouncementID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	ReadAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AnnouncementReadModel) TableName() string {
	return "announcement_reads"
}
