package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salescrm/backend/internal/domain/communication"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormCommunicationRecordRepository implements communication.RecordRepository using GORM
type GormCommunicationRecordRepository struct {
	db *gorm.DB
}

// NewGormCommunicationRecordRepository creates a new GormCommunicationRecordRepository
func NewGormCommunicationRecordRepository(db *gorm.DB) *GormCommunicationRecordRepository {
	return &GormCommunicationRecordRepository{db: db}
}

// Save inserts the record or overwrites the counts of the existing (user, date) row
func (r *GormCommunicationRecordRepository) Save(ctx context.Context, record *communication.Record) error {
	m := &models.CommunicationRecordModel{}
	m.FromDomain(record)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"whatsapp", "incoming_calls", "outgoing_calls", "meetings", "visits",
			"total", "entered_at", "entered_by", "updated_at", "version",
		}),
	}).Create(m).Error
}

// FindByUserAndDate finds the record of a user for one day
func (r *GormCommunicationRecordRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*communication.Record, error) {
	var m models.CommunicationRecordModel
	if err := r.db.WithContext(ctx).
		First(&m, "user_id = ? AND date = ?", userID, communication.DateOnly(date)).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns records newest first with the total count
func (r *GormCommunicationRecordRepository) FindAll(ctx context.Context, filter communication.RecordFilter) ([]*communication.Record, int64, error) {
	var recordModels []*models.CommunicationRecordModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CommunicationRecordModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", communication.DateOnly(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", communication.DateOnly(*filter.DateTo))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("date DESC, user_id ASC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}
	return toRecords(recordModels), total, nil
}

// FindByDate returns all records of date keyed by user
func (r *GormCommunicationRecordRepository) FindByDate(ctx context.Context, date time.Time) (map[uuid.UUID]*communication.Record, error) {
	var recordModels []*models.CommunicationRecordModel
	if err := r.db.WithContext(ctx).Where("date = ?", communication.DateOnly(date)).Find(&recordModels).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]*communication.Record, len(recordModels))
	for _, m := range recordModels {
		result[m.UserID] = m.ToDomain()
	}
	return result, nil
}

// FindInRange returns records between from and to inclusive, oldest first
func (r *GormCommunicationRecordRepository) FindInRange(ctx context.Context, from, to time.Time, userID *uuid.UUID) ([]*communication.Record, error) {
	var recordModels []*models.CommunicationRecordModel
	query := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", communication.DateOnly(from), communication.DateOnly(to))
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Order("date ASC, user_id ASC").Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toRecords(recordModels), nil
}

func toRecords(recordModels []*models.CommunicationRecordModel) []*communication.Record {
	records := make([]*communication.Record, len(recordModels))
	for i, m := range recordModels {
		records[i] = m.ToDomain()
	}
	return records
}

// GormCommunicationYearRepository implements communication.YearRepository using GORM
type GormCommunicationYearRepository struct {
	db *gorm.DB
}

// NewGormCommunicationYearRepository creates a new GormCommunicationYearRepository
func NewGormCommunicationYearRepository(db *gorm.DB) *GormCommunicationYearRepository {
	return &GormCommunicationYearRepository{db: db}
}

// Save creates or updates the settings of a year
func (r *GormCommunicationYearRepository) Save(ctx context.Context, year *communication.Year) error {
	m := &models.CommunicationYearModel{}
	m.FromDomain(year)
	return translateError(r.db.WithContext(ctx).Save(m).Error)
}

// FindByYear finds the settings of a year
func (r *GormCommunicationYearRepository) FindByYear(ctx context.Context, year int) (*communication.Year, error) {
	var m models.CommunicationYearModel
	if err := r.db.WithContext(ctx).First(&m, "year = ?", year).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns all years, newest first
func (r *GormCommunicationYearRepository) FindAll(ctx context.Context) ([]*communication.Year, error) {
	var yearModels []*models.CommunicationYearModel
	if err := r.db.WithContext(ctx).Order("year DESC").Find(&yearModels).Error; err != nil {
		return nil, err
	}
	years := make([]*communication.Year, len(yearModels))
	for i, m := range yearModels {
		years[i] = m.ToDomain()
	}
	return years, nil
}

// GormPenaltyRepository implements communication.PenaltyRepository using GORM
type GormPenaltyRepository struct {
	db *gorm.DB
}

// NewGormPenaltyRepository creates a new GormPenaltyRepository
func NewGormPenaltyRepository(db *gorm.DB) *GormPenaltyRepository {
	return &GormPenaltyRepository{db: db}
}

// Create inserts a penalty
func (r *GormPenaltyRepository) Create(ctx context.Context, penalty *communication.Penalty) error {
	m := &models.PenaltyRecordModel{}
	m.FromDomain(penalty)
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// Update updates a penalty
func (r *GormPenaltyRepository) Update(ctx context.Context, penalty *communication.Penalty) error {
	m := &models.PenaltyRecordModel{}
	m.FromDomain(penalty)
	return updateAll(ctx, r.db, m)
}

// FindByID finds a penalty by ID
func (r *GormPenaltyRepository) FindByID(ctx context.Context, id uuid.UUID) (*communication.Penalty, error) {
	var m models.PenaltyRecordModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns penalties newest first with the total count
func (r *GormPenaltyRepository) FindAll(ctx context.Context, filter communication.PenaltyFilter) ([]*communication.Penalty, int64, error) {
	var penaltyModels []*models.PenaltyRecordModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PenaltyRecordModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if !filter.IncludeCancelled {
		query = query.Where("is_cancelled = ?", false)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", communication.DateOnly(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", communication.DateOnly(*filter.DateTo))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("date DESC, created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&penaltyModels).Error; err != nil {
		return nil, 0, err
	}

	penalties := make([]*communication.Penalty, len(penaltyModels))
	for i, m := range penaltyModels {
		penalties[i] = m.ToDomain()
	}
	return penalties, total, nil
}

// ExistsAuto reports whether an automatic penalty was ever issued for (user, date).
// Cancelled ones count, so a cancelled penalty is not issued again.
func (r *GormPenaltyRepository) ExistsAuto(ctx context.Context, userID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PenaltyRecordModel{}).
		Where("user_id = ? AND date = ? AND type = ?",
			userID, communication.DateOnly(date), communication.PenaltyTypeAuto).
		Count(&count).Error
	return count > 0, err
}

// ActivePointsByUser sums uncancelled points per user, optionally since a date
func (r *GormPenaltyRepository) ActivePointsByUser(ctx context.Context, since *time.Time) (map[uuid.UUID]communication.PenaltySummary, error) {
	var rows []struct {
		UserID       uuid.UUID
		ActivePoints int
		PenaltyCount int
	}
	query := r.db.WithContext(ctx).Model(&models.PenaltyRecordModel{}).
		Select("user_id, SUM(points) AS active_points, COUNT(*) AS penalty_count").
		Where("is_cancelled = ?", false)
	if since != nil {
		query = query.Where("date >= ?", communication.DateOnly(*since))
	}
	if err := query.Group("user_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]communication.PenaltySummary, len(rows))
	for _, row := range rows {
		result[row.UserID] = communication.PenaltySummary{
			UserID:       row.UserID,
			ActivePoints: row.ActivePoints,
			PenaltyCount: row.PenaltyCount,
		}
	}
	return result, nil
}
