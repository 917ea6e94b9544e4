package announcement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

const AggregateType = "Announcement"

// Event types
const (
	EventTypeCreated       = "AnnouncementCreated"
	EventTypeUpdated       = "AnnouncementUpdated"
	EventTypeDeleted       = "AnnouncementDeleted"
	EventTypeStatusChanged = "AnnouncementStatusChanged"
)

// Priority orders announcements on the dashboard
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank is used for sorting, higher first
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	}
	return 0
}

// Announcement is a message broadcast to every user
type Announcement struct {
	shared.BaseAggregateRoot
	Title     string
	Content   string
	Priority  Priority
	IsActive  bool
	ExpiresAt *time.Time
}

// NewAnnouncement creates an active announcement
func NewAnnouncement(title, content string, priority Priority, expiresAt *time.Time, createdBy uuid.UUID) (*Announcement, error) {
	a := &Announcement{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		IsActive:          true,
	}
	if err := a.apply(title, content, priority, expiresAt); err != nil {
		return nil, err
	}
	a.AddDomainEvent(newEvent(a, EventTypeCreated, "Duyuru oluşturuldu: "+a.Title))
	return a, nil
}

// Update replaces the editable fields
func (a *Announcement) Update(title, content string, priority Priority, expiresAt *time.Time) error {
	if err := a.apply(title, content, priority, expiresAt); err != nil {
		return err
	}
	a.IncrementVersion()
	a.AddDomainEvent(newEvent(a, EventTypeUpdated, "Duyuru güncellendi: "+a.Title))
	return nil
}

func (a *Announcement) apply(title, content string, priority Priority, expiresAt *time.Time) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Duyuru başlığı boş olamaz")
	}
	if len([]rune(title)) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Duyuru başlığı 200 karakteri geçemez")
	}
	if content == "" {
		return shared.NewDomainError("INVALID_CONTENT", "Duyuru içeriği boş olamaz")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", fmt.Sprintf("Geçersiz öncelik: %s", priority))
	}
	a.Title = title
	a.Content = content
	a.Priority = priority
	a.ExpiresAt = expiresAt
	return nil
}

// ToggleActive flips the active flag
func (a *Announcement) ToggleActive() {
	a.IsActive = !a.IsActive
	a.IncrementVersion()
	state := "pasif"
	if a.IsActive {
		state = "aktif"
	}
	a.AddDomainEvent(newEvent(a, EventTypeStatusChanged, fmt.Sprintf("Duyuru %s yapıldı: %s", state, a.Title)))
}

// MarkDeleted records the deletion event
func (a *Announcement) MarkDeleted() {
	a.AddDomainEvent(newEvent(a, EventTypeDeleted, "Duyuru silindi: "+a.Title))
}

// IsExpired reports whether the announcement expired at now
func (a *Announcement) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// IsVisible reports whether regular users should see it
func (a *Announcement) IsVisible(now time.Time) bool {
	return a.IsActive && !a.IsExpired(now)
}

// Event is published on announcement changes
type Event struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

func newEvent(a *Announcement, eventType, description string) *Event {
	return &Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateType, a.ID, description),
		Title:           a.Title,
	}
}

// Receipt records that a user read an announcement
type Receipt struct {
	AnnouncementID uuid.UUID
	UserID         uuid.UUID
	ReadAt         time.Time
}

// View is an announcement seen by one user
type View struct {
	*Announcement
	IsRead bool
	ReadAt *time.Time
}
