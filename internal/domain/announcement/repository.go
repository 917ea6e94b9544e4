package announcement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists announcements and their read receipts
type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Announcement, error)
	FindAll(ctx context.Context, filter Filter) ([]*Announcement, int64, error)
	// FindVisibleFor returns active, non-expired announcements with the read state of userID
	FindVisibleFor(ctx context.Context, userID uuid.UUID, now time.Time, onlyUnread bool) ([]View, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// MarkRead stores a receipt; existing receipts are left untouched
	MarkRead(ctx context.Context, announcementID, userID uuid.UUID, at time.Time) error
	// MarkAllRead stores receipts for every visible unread announcement and returns how many were added
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// Filter narrows the admin listing
type Filter struct {
	IncludeInactive bool
	Priority        *Priority
	Page            int
	PageSize        int
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
