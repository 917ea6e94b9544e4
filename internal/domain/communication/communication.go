// Package communication tracks salespeople's daily customer contacts, the yearly
// quota settings and the penalty points given when the quota is missed.
package communication

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

// Aggregate types
const (
	AggregateTypeRecord  = "CommunicationRecord"
	AggregateTypeYear    = "CommunicationYear"
	AggregateTypePenalty = "PenaltyRecord"
)

// Event types
const (
	EventTypeRecordSaved      = "CommunicationRecordSaved"
	EventTypeYearSaved        = "CommunicationYearSaved"
	EventTypePenaltyAdded     = "PenaltyAdded"
	EventTypePenaltyCancelled = "PenaltyCancelled"
)

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Counts are the contact counters of one day
type Counts struct {
	WhatsApp      int `json:"whatsapp"`
	IncomingCalls int `json:"incoming_calls"`
	OutgoingCalls int `json:"outgoing_calls"`
	Meetings      int `json:"meetings"`
	Visits        int `json:"visits"`
}

// Total sums all counters
func (c Counts) Total() int {
	return c.WhatsApp + c.IncomingCalls + c.OutgoingCalls + c.Meetings + c.Visits
}

// Validate rejects negative or implausible counters
func (c Counts) Validate() error {
	for _, v := range []int{c.WhatsApp, c.IncomingCalls, c.OutgoingCalls, c.Meetings, c.Visits} {
		if v < 0 {
			return shared.NewDomainError("INVALID_COUNT", "İletişim sayıları negatif olamaz")
		}
		if v > 10000 {
			return shared.NewDomainError("INVALID_COUNT", "İletişim sayısı çok büyük")
		}
	}
	return nil
}

// Add returns the element-wise sum
func (c Counts) Add(o Counts) Counts {
	return Counts{
		WhatsApp:      c.WhatsApp + o.WhatsApp,
		IncomingCalls: c.IncomingCalls + o.IncomingCalls,
		OutgoingCalls: c.OutgoingCalls + o.OutgoingCalls,
		Meetings:      c.Meetings + o.Meetings,
		Visits:        c.Visits + o.Visits,
	}
}

// Record is the daily communication entry of one salesperson
type Record struct {
	shared.BaseAggregateRoot
	UserID    uuid.UUID
	Date      time.Time
	Counts    Counts
	EnteredAt time.Time
	EnteredBy uuid.UUID
}

// NewRecord creates the entry of userID for date
func NewRecord(userID uuid.UUID, date time.Time, counts Counts, enteredBy uuid.UUID) (*Record, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Kullanıcı zorunludur")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Tarih zorunludur")
	}
	if DateOnly(date).After(DateOnly(time.Now())) {
		return nil, shared.NewDomainError("INVALID_DATE", "İleri bir tarih için iletişim kaydı girilemez")
	}
	if err := counts.Validate(); err != nil {
		return nil, err
	}

	r := &Record{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(enteredBy),
		UserID:            userID,
		Date:              DateOnly(date),
		Counts:            counts,
		EnteredAt:         time.Now(),
		EnteredBy:         enteredBy,
	}
	r.addSavedEvent()
	return r, nil
}

// SetCounts replaces the counters
func (r *Record) SetCounts(counts Counts, enteredBy uuid.UUID) error {
	if err := counts.Validate(); err != nil {
		return err
	}
	r.Counts = counts
	r.EnteredAt = time.Now()
	r.EnteredBy = enteredBy
	r.IncrementVersion()
	r.addSavedEvent()
	return nil
}

func (r *Record) addSavedEvent() {
	r.AddDomainEvent(&RecordSavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordSaved, AggregateTypeRecord, r.ID,
			fmt.Sprintf("İletişim kaydı girildi: %s (toplam %d)", r.Date.Format("02.01.2006"), r.Counts.Total())),
		UserID: r.UserID.String(),
		Total:  r.Counts.Total(),
	})
}

// RecordSavedEvent is published when a daily record is stored
type RecordSavedEvent struct {
	shared.BaseDomainEvent
	UserID string `json:"user_id"`
	Total  int    `json:"total"`
}

// Year holds the quota settings of a calendar year
type Year struct {
	shared.BaseAggregateRoot
	Year                 int
	IsActive             bool
	DailyMinimum         int
	MonthlyTargets       map[int]int
	PenaltyPointsPerMiss int
	MaxPenaltyPoints     int
	Description          string
}

// YearSettings are the editable fields of a Year
type YearSettings struct {
	IsActive             bool
	DailyMinimum         int
	MonthlyTargets       map[int]int
	PenaltyPointsPerMiss int
	MaxPenaltyPoints     int
	Description          string
}

// NewYear creates quota settings for year
func NewYear(year int, settings YearSettings, createdBy uuid.UUID) (*Year, error) {
	if year < 2000 || year > 2100 {
		return nil, shared.NewDomainError("INVALID_YEAR", "Yıl 2000 ile 2100 arasında olmalı")
	}
	y := &Year{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		Year:              year,
	}
	if err := y.apply(settings); err != nil {
		return nil, err
	}
	return y, nil
}

// Update replaces the settings
func (y *Year) Update(settings YearSettings) error {
	if err := y.apply(settings); err != nil {
		return err
	}
	y.IncrementVersion()
	return nil
}

func (y *Year) apply(s YearSettings) error {
	if s.DailyMinimum < 0 {
		return shared.NewDomainError("INVALID_DAILY_MINIMUM", "Günlük minimum negatif olamaz")
	}
	if s.PenaltyPointsPerMiss < 0 {
		return shared.NewDomainError("INVALID_PENALTY_POINTS", "Ceza puanı negatif olamaz")
	}
	if s.MaxPenaltyPoints < 0 {
		return shared.NewDomainError("INVALID_PENALTY_POINTS", "Azami ceza puanı negatif olamaz")
	}
	targets := make(map[int]int, len(s.MonthlyTargets))
	for month, target := range s.MonthlyTargets {
		if month < 1 || month > 12 {
			return shared.NewDomainError("INVALID_MONTH", fmt.Sprintf("Hedeflerde geçersiz ay: %d", month))
		}
		if target < 0 {
			return shared.NewDomainError("INVALID_TARGET", "Aylık hedef negatif olamaz")
		}
		targets[month] = target
	}

	y.IsActive = s.IsActive
	y.DailyMinimum = s.DailyMinimum
	y.MonthlyTargets = targets
	y.PenaltyPointsPerMiss = s.PenaltyPointsPerMiss
	y.MaxPenaltyPoints = s.MaxPenaltyPoints
	y.Description = strings.TrimSpace(s.Description)
	y.AddDomainEvent(&YearSavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeYearSaved, AggregateTypeYear, y.ID,
			fmt.Sprintf("İletişim yılı ayarları kaydedildi: %d", y.Year)),
		Year: y.Year,
	})
	return nil
}

// TargetFor returns the monthly target, 0 when unset
func (y *Year) TargetFor(month int) int {
	return y.MonthlyTargets[month]
}

// QuotaApplies reports whether the daily quota is enforced on date
func (y *Year) QuotaApplies(date time.Time) bool {
	if !y.IsActive || y.DailyMinimum <= 0 {
		return false
	}
	if date.Year() != y.Year {
		return false
	}
	return date.Weekday() != time.Sunday
}

// YearSavedEvent is published when quota settings change
type YearSavedEvent struct {
	shared.BaseDomainEvent
	Year int `json:"year"`
}

// PenaltyType distinguishes automatic quota penalties from manual ones
type PenaltyType string

const (
	PenaltyTypeAuto   PenaltyType = "auto"
	PenaltyTypeManual PenaltyType = "manual"
)

// Penalty is a penalty-point entry of a user
type Penalty struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID
	Date        time.Time
	Points      int
	Reason      string
	Type        PenaltyType
	IsCancelled bool
	CancelledBy *uuid.UUID
	CancelledAt *time.Time
}

// NewPenalty creates a penalty entry
func NewPenalty(userID uuid.UUID, date time.Time, points int, reason string, penaltyType PenaltyType, createdBy uuid.UUID) (*Penalty, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Kullanıcı zorunludur")
	}
	if points <= 0 || points > 1000 {
		return nil, shared.NewDomainError("INVALID_PENALTY_POINTS", "Ceza puanı 1 ile 1000 arasında olmalı")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_PENALTY_REASON", "Ceza nedeni zorunludur")
	}
	if penaltyType != PenaltyTypeAuto && penaltyType != PenaltyTypeManual {
		return nil, shared.NewDomainError("INVALID_PENALTY_TYPE", "Ceza türü auto veya manual olmalı")
	}
	if date.IsZero() {
		date = time.Now()
	}

	p := &Penalty{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		UserID:            userID,
		Date:              DateOnly(date),
		Points:            points,
		Reason:            reason,
		Type:              penaltyType,
	}
	p.AddDomainEvent(&PenaltyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePenaltyAdded, AggregateTypePenalty, p.ID,
			fmt.Sprintf("%d ceza puanı eklendi: %s", p.Points, p.Reason)),
		UserID: userID.String(),
		Points: points,
	})
	return p, nil
}

// Cancel voids the penalty
func (p *Penalty) Cancel(by uuid.UUID) error {
	if p.IsCancelled {
		return shared.NewDomainError("PENALTY_ALREADY_CANCELLED", "Ceza zaten iptal edilmiş")
	}
	now := time.Now()
	p.IsCancelled = true
	p.CancelledBy = &by
	p.CancelledAt = &now
	p.IncrementVersion()
	p.AddDomainEvent(&PenaltyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePenaltyCancelled, AggregateTypePenalty, p.ID,
			fmt.Sprintf("%d ceza puanı iptal edildi", p.Points)),
		UserID: p.UserID.String(),
		Points: p.Points,
	})
	return nil
}

// PenaltyEvent is published when penalty points are added or cancelled
type PenaltyEvent struct {
	shared.BaseDomainEvent
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

// PenaltySummary is the active point total of a user
type PenaltySummary struct {
	UserID        uuid.UUID `json:"user_id"`
	ActivePoints  int       `json:"active_points"`
	PenaltyCount  int       `json:"penalty_count"`
	LimitExceeded bool      `json:"limit_exceeded"`
}
