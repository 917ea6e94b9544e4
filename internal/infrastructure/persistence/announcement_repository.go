package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salescrm/backend/internal/domain/announcement"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormAnnouncementRepository implements announcement.Repository using GORM
type GormAnnouncementRepository struct {
	db *gorm.DB
}

// NewGormAnnouncementRepository creates a new GormAnnouncementRepository
func NewGormAnnouncementRepository(db *gorm.DB) *GormAnnouncementRepository {
	return &GormAnnouncementRepository{db: db}
}

// Create inserts an announcement
func (r *GormAnnouncementRepository) Create(ctx context.Context, a *announcement.Announcement) error {
	m := &models.AnnouncementModel{}
	m.FromDomain(a)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Update updates an announcement
func (r *GormAnnouncementRepository) Update(ctx context.Context, a *announcement.Announcement) error {
	m := &models.AnnouncementModel{}
	m.FromDomain(a)
	return updateAll(ctx, r.db, m)
}

// Delete removes an announcement and its read receipts
func (r *GormAnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", id).Delete(&models.AnnouncementReadModel{}).Error; err != nil {
			return err
		}
		return affectedOrNotFound(tx.Delete(&models.AnnouncementModel{}, "id = ?", id))
	})
}

// FindByID finds an announcement by ID
func (r *GormAnnouncementRepository) FindByID(ctx context.Context, id uuid.UUID) (*announcement.Announcement, error) {
	var m models.AnnouncementModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists announcements for management, newest first
func (r *GormAnnouncementRepository) FindAll(ctx context.Context, filter announcement.Filter) ([]*announcement.Announcement, int64, error) {
	var annModels []*models.AnnouncementModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AnnouncementModel{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id ASC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&annModels).Error; err != nil {
		return nil, 0, err
	}

	result := make([]*announcement.Announcement, len(annModels))
	for i, m := range annModels {
		result[i] = m.ToDomain()
	}
	return result, total, nil
}

// FindVisibleFor returns active, non-expired announcements with the read state of userID.
// Higher priority comes first, then newer.
func (r *GormAnnouncementRepository) FindVisibleFor(ctx context.Context, userID uuid.UUID, now time.Time, onlyUnread bool) ([]announcement.View, error) {
	var annModels []*models.AnnouncementModel
	query := r.visible(ctx, now)
	if onlyUnread {
		query = query.Where("id NOT IN (?)", r.readIDs(userID))
	}
	if err := query.Order("created_at DESC").Find(&annModels).Error; err != nil {
		return nil, err
	}

	var receipts []models.AnnouncementReadModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&receipts).Error; err != nil {
		return nil, err
	}
	readAt := make(map[uuid.UUID]time.Time, len(receipts))
	for _, rc := range receipts {
		readAt[rc.AnnouncementID] = rc.ReadAt
	}

	views := make([]announcement.View, 0, len(annModels))
	for _, m := range annModels {
		v := announcement.View{Announcement: m.ToDomain()}
		if at, ok := readAt[m.ID]; ok {
			v.IsRead = true
			v.ReadAt = &at
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Priority.Rank() > views[j].Priority.Rank()
	})
	return views, nil
}

// CountUnread counts visible announcements userID has not read
func (r *GormAnnouncementRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.visible(ctx, now).Where("id NOT IN (?)", r.readIDs(userID)).Count(&count).Error
	return count, err
}

// MarkRead stores a receipt; existing receipts are left untouched
func (r *GormAnnouncementRepository) MarkRead(ctx context.Context, announcementID, userID uuid.UUID, at time.Time) error {
	receipt := &models.AnnouncementReadModel{AnnouncementID: announcementID, UserID: userID, ReadAt: at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(receipt).Error
}

// MarkAllRead stores receipts for every visible unread announcement and returns how many were added
func (r *GormAnnouncementRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var ids []uuid.UUID
	if err := r.visible(ctx, now).Where("id NOT IN (?)", r.readIDs(userID)).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	receipts := make([]models.AnnouncementReadModel, len(ids))
	for i, id := range ids {
		receipts[i] = models.AnnouncementReadModel{AnnouncementID: id, UserID: userID, ReadAt: now}
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&receipts)
	return result.RowsAffected, result.Error
}

func (r *GormAnnouncementRepository) visible(ctx context.Context, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AnnouncementModel{}).
		Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, now)
}

func (r *GormAnnouncementRepository) readIDs(userID uuid.UUID) *gorm.DB {
	return r.db.Model(&models.AnnouncementReadModel{}).Select("announcement_id").Where("user_id = ?", userID)
}
