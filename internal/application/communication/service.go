// Package communication contains the daily contact records, quota settings and
// penalty use cases.
package communication

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/communication"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
)

// Service handles communication records, years and penalties
type Service struct {
	records   communication.RecordRepository
	years     communication.YearRepository
	penalties communication.PenaltyRepository
	users     identity.UserRepository
	settings  settings.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new communication service
func NewService(
	records communication.RecordRepository,
	years communication.YearRepository,
	penalties communication.PenaltyRepository,
	users identity.UserRepository,
	settingRepo settings.Repository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		records:   records,
		years:     years,
		penalties: penalties,
		users:     users,
		settings:  settingRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SaveDaily inserts or replaces the record of a user for one day
func (s *Service) SaveDaily(ctx context.Context, viewer Viewer, input SaveDailyInput) (*RecordDTO, error) {
	userID := viewer.UserID
	if input.UserID != nil && *input.UserID != uuid.Nil {
		userID = *input.UserID
	}
	if userID != viewer.UserID && !viewer.ReadAll {
		return nil, shared.NewDomainError("FORBIDDEN", "Yalnızca kendi iletişim kayıtlarınızı girebilirsiniz")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	record, err := s.records.FindByUserAndDate(ctx, userID, communication.DateOnly(date))
	switch {
	case err == nil:
		err = record.SetCounts(input.Counts, viewer.UserID)
	case errors.Is(err, shared.ErrNotFound):
		record, err = communication.NewRecord(userID, date, input.Counts, viewer.UserID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save communication record", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "İletişim kaydı kaydedilemedi")
	}
	if err := shared.PublishEvents(ctx, s.publisher, record); err != nil {
		s.logger.Warn("Failed to publish communication events", zap.Error(err))
	}

	dto := ToRecordDTO(record, user.DisplayName())
	return &dto, nil
}

// GetDaily returns the record of a user for a day; a missing record is returned with zero counts
func (s *Service) GetDaily(ctx context.Context, viewer Viewer, userID *uuid.UUID, date time.Time) (*RecordDTO, error) {
	target := viewer.UserID
	if userID != nil && *userID != uuid.Nil {
		target = *userID
	}
	if target != viewer.UserID && !viewer.ReadAll {
		return nil, shared.NewDomainError("FORBIDDEN", "Yalnızca kendi iletişim kayıtlarınızı görebilirsiniz")
	}
	if date.IsZero() {
		date = s.now()
	}
	date = communication.DateOnly(date)

	record, err := s.records.FindByUserAndDate(ctx, target, date)
	if errors.Is(err, shared.ErrNotFound) {
		return &RecordDTO{UserID: target, Date: date.Format(dateLayout)}, nil
	}
	if err != nil {
		return nil, err
	}
	dto := ToRecordDTO(record, "")
	return &dto, nil
}

// ListRecords returns a page of records
func (s *Service) ListRecords(ctx context.Context, viewer Viewer, input ListRecordsInput) (*shared.Paginated[RecordDTO], error) {
	filter := communication.RecordFilter{
		UserID:   input.UserID,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Page:     max(input.Page, 1),
		PageSize: input.PageSize,
	}
	if !viewer.ReadAll {
		own := viewer.UserID
		filter.UserID = &own
	}

	records, total, err := s.records.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(records))
	for i, r := range records {
		ids[i] = r.UserID
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]RecordDTO, len(records))
	for i, r := range records {
		items[i] = ToRecordDTO(r, names[r.UserID])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Report totals the records of [start, end] per user. The daily average divides by the
// work days (Monday to Saturday) of the range. Each row also lists, per month touched
// by the range, the user's total next to that month's target.
func (s *Service) Report(ctx context.Context, viewer Viewer, start, end time.Time, userID *uuid.UUID) (*Report, error) {
	start, end = communication.DateOnly(start), communication.DateOnly(end)
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Bitiş tarihi başlangıç tarihinden önce olamaz")
	}
	if end.Sub(start) > 366*24*time.Hour {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Rapor aralığı bir yılı geçemez")
	}
	if !viewer.ReadAll {
		own := viewer.UserID
		userID = &own
	}

	records, err := s.records.FindInRange(ctx, start, end, userID)
	if err != nil {
		return nil, err
	}

	months := monthsOf(start, end)
	targets, err := s.monthTargets(ctx, months)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]*ReportRow)
	for _, r := range records {
		row, ok := byUser[r.UserID]
		if !ok {
			row = &ReportRow{UserID: r.UserID, Months: make([]MonthProgress, len(months))}
			for i, m := range months {
				row.Months[i] = MonthProgress{Month: m.Format(monthLayout), Target: targets[i]}
			}
			byUser[r.UserID] = row
		}
		row.Counts = row.Counts.Add(r.Counts)
		row.DaysEntered++
		for i, m := range months {
			if r.Date.Year() == m.Year() && r.Date.Month() == m.Month() {
				row.Months[i].Actual += r.Counts.Total()
				break
			}
		}
	}

	ids := make([]uuid.UUID, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Start:    start.Format(dateLayout),
		End:      end.Format(dateLayout),
		WorkDays: workDays(start, end),
		Rows:     make([]ReportRow, 0, len(byUser)),
	}
	for _, row := range byUser {
		row.UserName = names[row.UserID]
		row.Total = row.Counts.Total()
		if report.WorkDays > 0 {
			row.DailyAverage = roundTo2(float64(row.Total) / float64(report.WorkDays))
		}
		report.Total += row.Total
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Total != report.Rows[j].Total {
			return report.Rows[i].Total > report.Rows[j].Total
		}
		return report.Rows[i].UserName < report.Rows[j].UserName
	})
	return report, nil
}

const monthLayout = "2006-01"

// monthsOf returns the first day of every month between start and end
func monthsOf(start, end time.Time) []time.Time {
	var months []time.Time
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// monthTargets looks up the target of each month; years without settings give 0
func (s *Service) monthTargets(ctx context.Context, months []time.Time) ([]int, error) {
	years := make(map[int]*communication.Year)
	targets := make([]int, len(months))
	for i, m := range months {
		y, seen := years[m.Year()]
		if !seen {
			found, err := s.years.FindByYear(ctx, m.Year())
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			y = found
			years[m.Year()] = y
		}
		if y != nil {
			targets[i] = y.TargetFor(int(m.Month()))
		}
	}
	return targets, nil
}

func workDays(start, end time.Time) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			n++
		}
	}
	return n
}

func roundTo2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// ListYears returns the quota settings of every configured year
func (s *Service) ListYears(ctx context.Context) ([]YearDTO, error) {
	years, err := s.years.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]YearDTO, len(years))
	for i, y := range years {
		out[i] = ToYearDTO(y)
	}
	return out, nil
}

// CreateYear configures the quota of a new year
func (s *Service) CreateYear(ctx context.Context, input YearInput, by uuid.UUID) (*YearDTO, error) {
	if _, err := s.years.FindByYear(ctx, input.Year); err == nil {
		return nil, shared.NewDomainError("YEAR_EXISTS", fmt.Sprintf("%d yılı için iletişim ayarları zaten var", input.Year))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	year, err := communication.NewYear(input.Year, s.yearSettings(ctx, input, nil), by)
	if err != nil {
		return nil, err
	}
	return s.saveYear(ctx, year)
}

// UpdateYear replaces the quota settings of a year
func (s *Service) UpdateYear(ctx context.Context, yearNo int, input YearInput) (*YearDTO, error) {
	year, err := s.years.FindByYear(ctx, yearNo)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("YEAR_NOT_FOUND", fmt.Sprintf("%d yılı için iletişim ayarı yok", yearNo))
		}
		return nil, err
	}
	if err := year.Update(s.yearSettings(ctx, input, year)); err != nil {
		return nil, err
	}
	return s.saveYear(ctx, year)
}

func (s *Service) saveYear(ctx context.Context, year *communication.Year) (*YearDTO, error) {
	if err := s.years.Save(ctx, year); err != nil {
		return nil, err
	}
	if err := shared.PublishEvents(ctx, s.publisher, year); err != nil {
		s.logger.Warn("Failed to publish communication year events", zap.Error(err))
	}
	dto := ToYearDTO(year)
	return &dto, nil
}

// yearSettings fills unset numbers from the current year, then from system settings
func (s *Service) yearSettings(ctx context.Context, input YearInput, current *communication.Year) communication.YearSettings {
	ys := communication.YearSettings{
		IsActive:       input.IsActive,
		MonthlyTargets: input.MonthlyTargets,
		Description:    input.Description,
	}
	switch {
	case input.DailyMinimum != nil:
		ys.DailyMinimum = *input.DailyMinimum
	case current != nil:
		ys.DailyMinimum = current.DailyMinimum
	default:
		ys.DailyMinimum = s.intSetting(ctx, settings.KeyDailyMinimum, 10)
	}
	switch {
	case input.MaxPenaltyPoints != nil:
		ys.MaxPenaltyPoints = *input.MaxPenaltyPoints
	case current != nil:
		ys.MaxPenaltyPoints = current.MaxPenaltyPoints
	default:
		ys.MaxPenaltyPoints = s.intSetting(ctx, settings.KeyPenaltyMaxPoints, 20)
	}
	switch {
	case input.PenaltyPointsPerMiss != nil:
		ys.PenaltyPointsPerMiss = *input.PenaltyPointsPerMiss
	case current != nil:
		ys.PenaltyPointsPerMiss = current.PenaltyPointsPerMiss
	default:
		ys.PenaltyPointsPerMiss = 1
	}
	if ys.MonthlyTargets == nil && current != nil {
		ys.MonthlyTargets = current.MonthlyTargets
	}
	return ys
}

func (s *Service) intSetting(ctx context.Context, key string, def int) int {
	setting, err := s.settings.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to read setting", zap.String("key", key), zap.Error(err))
		}
		if d := settings.DefaultFor(key); d != nil {
			return d.Int(def)
		}
		return def
	}
	return setting.Int(def)
}

// AddPenalty records a manual penalty
func (s *Service) AddPenalty(ctx context.Context, input AddPenaltyInput, by uuid.UUID) (*PenaltyDTO, error) {
	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	penalty, err := communication.NewPenalty(input.UserID, input.Date, input.Points, input.Reason, communication.PenaltyTypeManual, by)
	if err != nil {
		return nil, err
	}
	if err := s.penalties.Create(ctx, penalty); err != nil {
		return nil, err
	}
	if err := shared.PublishEvents(ctx, s.publisher, penalty); err != nil {
		s.logger.Warn("Failed to publish penalty events", zap.Error(err))
	}
	dto := ToPenaltyDTO(penalty, user.DisplayName())
	return &dto, nil
}

// CancelPenalty voids a penalty
func (s *Service) CancelPenalty(ctx context.Context, id, by uuid.UUID) (*PenaltyDTO, error) {
	penalty, err := s.penalties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PENALTY_NOT_FOUND", "Ceza bulunamadı")
		}
		return nil, err
	}
	if err := penalty.Cancel(by); err != nil {
		return nil, err
	}
	if err := s.penalties.Update(ctx, penalty); err != nil {
		return nil, err
	}
	if err := shared.PublishEvents(ctx, s.publisher, penalty); err != nil {
		s.logger.Warn("Failed to publish penalty events", zap.Error(err))
	}
	dto := ToPenaltyDTO(penalty, "")
	return &dto, nil
}

// ListPenalties returns a page of penalties
func (s *Service) ListPenalties(ctx context.Context, viewer Viewer, input ListPenaltiesInput) (*shared.Paginated[PenaltyDTO], error) {
	filter := communication.PenaltyFilter{
		UserID:           input.UserID,
		IncludeCancelled: input.IncludeCancelled,
		DateFrom:         input.DateFrom,
		DateTo:           input.DateTo,
		Page:             max(input.Page, 1),
		PageSize:         input.PageSize,
	}
	if input.Type != "" {
		t := communication.PenaltyType(input.Type)
		if t != communication.PenaltyTypeAuto && t != communication.PenaltyTypeManual {
			return nil, shared.NewDomainError("INVALID_PENALTY_TYPE", "Ceza türü auto veya manual olmalı")
		}
		filter.Type = &t
	}
	if !viewer.ReadAll {
		own := viewer.UserID
		filter.UserID = &own
	}

	penalties, total, err := s.penalties.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(penalties))
	for i, p := range penalties {
		ids[i] = p.UserID
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]PenaltyDTO, len(penalties))
	for i, p := range penalties {
		items[i] = ToPenaltyDTO(p, names[p.UserID])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// PenaltySummary returns the active points of every user with penalties in year.
// The limit comes from the year settings, or the penalty.max_points setting when the year is not configured.
func (s *Service) PenaltySummary(ctx context.Context, viewer Viewer, yearNo int) ([]PenaltySummaryDTO, error) {
	if yearNo == 0 {
		yearNo = s.now().Year()
	}
	maxPoints := s.intSetting(ctx, settings.KeyPenaltyMaxPoints, 20)
	year, err := s.years.FindByYear(ctx, yearNo)
	switch {
	case err == nil:
		if year.MaxPenaltyPoints > 0 {
			maxPoints = year.MaxPenaltyPoints
		}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	since := time.Date(yearNo, time.January, 1, 0, 0, 0, 0, time.UTC)
	totals, err := s.penalties.ActivePointsByUser(ctx, &since)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		if viewer.ReadAll || id == viewer.UserID {
			ids = append(ids, id)
		}
	}
	names, err := s.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]PenaltySummaryDTO, 0, len(ids))
	for _, id := range ids {
		t := totals[id]
		out = append(out, PenaltySummaryDTO{
			UserID:        id,
			UserName:      names[id],
			ActivePoints:  t.ActivePoints,
			PenaltyCount:  t.PenaltyCount,
			MaxPoints:     maxPoints,
			LimitExceeded: maxPoints > 0 && t.ActivePoints >= maxPoints,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActivePoints != out[j].ActivePoints {
			return out[i].ActivePoints > out[j].ActivePoints
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}

// CheckQuota gives an automatic penalty to every active salesperson whose record of date
// is missing or below the daily minimum. A user gets at most one automatic penalty per date.
func (s *Service) CheckQuota(ctx context.Context, date time.Time, by uuid.UUID) (*QuotaCheckResult, error) {
	date = communication.DateOnly(date)
	result := &QuotaCheckResult{Date: date.Format(dateLayout), Penalties: make([]PenaltyDTO, 0)}

	if !date.Before(communication.DateOnly(s.now())) {
		return nil, shared.NewDomainError("INVALID_DATE", "Kota yalnızca geçmiş günler için kontrol edilebilir")
	}
	year, err := s.years.FindByYear(ctx, date.Year())
	if errors.Is(err, shared.ErrNotFound) {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("No communication settings for %d", date.Year())
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.DailyMinimum = year.DailyMinimum
	if !year.QuotaApplies(date) {
		result.Skipped = true
		result.SkipReason = "Quota does not apply on this date"
		return result, nil
	}

	salespeople, err := s.users.FindSalespeople(ctx, false)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	points := max(year.PenaltyPointsPerMiss, 1)

	for _, user := range salespeople {
		if !user.IsActive() || communication.DateOnly(user.CreatedAt).After(date) {
			continue
		}
		result.Checked++

		total := 0
		if r, ok := records[user.ID]; ok {
			total = r.Counts.Total()
		}
		if total >= year.DailyMinimum {
			continue
		}

		exists, err := s.penalties.ExistsAuto(ctx, user.ID, date)
		if err != nil {
			return nil, err
		}
		if exists {
			result.AlreadyPenalized++
			continue
		}

		reason := fmt.Sprintf("Günlük iletişim kotası karşılanmadı: %d/%d (%s)", total, year.DailyMinimum, date.Format("02.01.2006"))
		penalty, err := communication.NewPenalty(user.ID, date, points, reason, communication.PenaltyTypeAuto, by)
		if err != nil {
			return nil, err
		}
		if err := s.penalties.Create(ctx, penalty); err != nil {
			return nil, fmt.Errorf("create auto penalty for %s: %w", user.Username, err)
		}
		if err := shared.PublishEvents(ctx, s.publisher, penalty); err != nil {
			s.logger.Warn("Failed to publish penalty events", zap.Error(err))
		}
		result.Penalties = append(result.Penalties, ToPenaltyDTO(penalty, user.DisplayName()))
	}

	s.logger.Info("Communication quota checked",
		zap.String("date", result.Date),
		zap.Int("checked", result.Checked),
		zap.Int("penalized", len(result.Penalties)),
		zap.Int("already_penalized", result.AlreadyPenalized))
	return result, nil
}

func (s *Service) findUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "Kullanıcı bulunamadı")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) userNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
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
