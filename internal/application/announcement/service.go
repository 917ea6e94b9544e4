// Package announcement contains the announcement board use cases.
package announcement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/announcement"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
)

// AnnouncementDTO is the API representation of an announcement
type AnnouncementDTO struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Priority      string     `json:"priority"`
	IsActive      bool       `json:"is_active"`
	IsExpired     bool       `json:"is_expired"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsRead        *bool      `json:"is_read,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedByName string     `json:"created_by_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToAnnouncementDTO converts a domain announcement
func ToAnnouncementDTO(a *announcement.Announcement, now time.Time) AnnouncementDTO {
	return AnnouncementDTO{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Priority:  string(a.Priority),
		IsActive:  a.IsActive,
		IsExpired: a.IsExpired(now),
		ExpiresAt: a.ExpiresAt,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// Input creates or updates an announcement
type Input struct {
	Title     string
	Content   string
	Priority  string
	ExpiresAt *time.Time
}

// ListAllInput filters the admin list
type ListAllInput struct {
	IncludeInactive bool
	Priority        string
	Page            int
	PageSize        int
}

// Service handles announcements and read receipts
type Service struct {
	repo      announcement.Repository
	users     identity.UserRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new announcement service
func NewService(repo announcement.Repository, users identity.UserRepository, publisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ListVisible returns the active, unexpired announcements with the caller's read state, most urgent first
func (s *Service) ListVisible(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]AnnouncementDTO, error) {
	now := s.now()
	views, err := s.repo.FindVisibleFor(ctx, userID, now, onlyUnread)
	if err != nil {
		return nil, err
	}
	items := make([]*announcement.Announcement, len(views))
	for i, v := range views {
		items[i] = v.Announcement
	}
	names, err := s.authorNames(ctx, items)
	if err != nil {
		return nil, err
	}

	out := make([]AnnouncementDTO, len(views))
	for i, v := range views {
		dto := ToAnnouncementDTO(v.Announcement, now)
		isRead := v.IsRead
		dto.IsRead = &isRead
		dto.ReadAt = v.ReadAt
		if v.CreatedBy != nil {
			dto.CreatedByName = names[*v.CreatedBy]
		}
		out[i] = dto
	}
	return out, nil
}

// ListAll returns every announcement for administration
func (s *Service) ListAll(ctx context.Context, input ListAllInput) (*shared.Paginated[AnnouncementDTO], error) {
	filter := announcement.Filter{
		IncludeInactive: input.IncludeInactive,
		Page:            max(input.Page, 1),
		PageSize:        input.PageSize,
	}
	if input.Priority != "" {
		p := announcement.Priority(input.Priority)
		if !p.IsValid() {
			return nil, shared.NewDomainError("INVALID_PRIORITY", "Geçersiz öncelik: "+input.Priority)
		}
		filter.Priority = &p
	}

	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	names, err := s.authorNames(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dtos := make([]AnnouncementDTO, len(items))
	for i, a := range items {
		dtos[i] = ToAnnouncementDTO(a, now)
		if a.CreatedBy != nil {
			dtos[i].CreatedByName = names[*a.CreatedBy]
		}
	}
	page := shared.NewPaginated(dtos, total, filter.Page, filter.Limit())
	return &page, nil
}

// UnreadCount returns how many visible announcements the user has not read
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID, s.now())
}

// Create publishes a new announcement
func (s *Service) Create(ctx context.Context, input Input, by uuid.UUID) (*AnnouncementDTO, error) {
	if err := s.checkExpiry(input.ExpiresAt); err != nil {
		return nil, err
	}
	a, err := announcement.NewAnnouncement(input.Title, input.Content, announcement.Priority(input.Priority), input.ExpiresAt, by)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a)

	dto := ToAnnouncementDTO(a, s.now())
	return &dto, nil
}

// Update replaces the content of an announcement
func (s *Service) Update(ctx context.Context, id uuid.UUID, input Input) (*AnnouncementDTO, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkExpiry(input.ExpiresAt); err != nil {
		return nil, err
	}
	if err := a.Update(input.Title, input.Content, announcement.Priority(input.Priority), input.ExpiresAt); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a)

	dto := ToAnnouncementDTO(a, s.now())
	return &dto, nil
}

// Toggle flips the active flag
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (*AnnouncementDTO, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	a.ToggleActive()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a)

	dto := ToAnnouncementDTO(a, s.now())
	return &dto, nil
}

// Delete removes an announcement together with its receipts
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	a.MarkDeleted()
	s.publish(ctx, a)
	return nil
}

// MarkRead records that the user read the announcement. Reading twice is a no-op.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !a.IsVisible(s.now()) {
		return shared.NewDomainError("ANNOUNCEMENT_NOT_VISIBLE", "Duyuru aktif değil")
	}
	return s.repo.MarkRead(ctx, id, userID, s.now())
}

// MarkAllRead marks every visible announcement read and returns how many changed
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

func (s *Service) checkExpiry(expiresAt *time.Time) error {
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return shared.NewDomainError("INVALID_EXPIRES_AT", "Bitiş zamanı ileri bir tarih olmalı")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*announcement.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ANNOUNCEMENT_NOT_FOUND", "Duyuru bulunamadı")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) publish(ctx context.Context, a *announcement.Announcement) {
	if err := shared.PublishEvents(ctx, s.publisher, a); err != nil {
		s.logger.Warn("Failed to publish announcement events", zap.String("announcement_id", a.ID.String()), zap.Error(err))
	}
}

func (s *Service) authorNames(ctx context.Context, items []*announcement.Announcement) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	ids := make([]uuid.UUID, 0, len(items))
	for _, a := range items {
		if a.CreatedBy != nil {
			ids = append(ids, *a.CreatedBy)
		}
	}
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}
	return names, nil
}
