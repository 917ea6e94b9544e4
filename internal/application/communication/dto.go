package communication

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/communication"
)

// Viewer limits record access. Without ReadAll a user only sees and edits their own records.
type Viewer struct {
	UserID  uuid.UUID
	ReadAll bool
}

// RecordDTO is the API representation of a daily record
type RecordDTO struct {
	communication.Counts

	ID        uuid.UUID  `json:"id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	UserName  string     `json:"user_name,omitempty"`
	Date      string     `json:"date"`
	Total     int        `json:"total"`
	Exists    bool       `json:"exists"`
	EnteredAt *time.Time `json:"entered_at,omitempty"`
	EnteredBy *uuid.UUID `json:"entered_by,omitempty"`
}

const dateLayout = "2006-01-02"

// ToRecordDTO converts a domain record
func ToRecordDTO(r *communication.Record, userName string) RecordDTO {
	enteredAt := r.EnteredAt
	enteredBy := r.EnteredBy
	return RecordDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  userName,
		Date:      r.Date.Format(dateLayout),
		Counts:    r.Counts,
		Total:     r.Counts.Total(),
		Exists:    true,
		EnteredAt: &enteredAt,
		EnteredBy: &enteredBy,
	}
}

// SaveDailyInput upserts the record of a user for a day
type SaveDailyInput struct {
	// UserID defaults to the caller
	UserID *uuid.UUID
	Date   time.Time
	Counts communication.Counts
}

// ListRecordsInput filters the record list
type ListRecordsInput struct {
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// ReportRow is the per-user total of a date range
type ReportRow struct {
	communication.Counts

	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	Total        int       `json:"total"`
	DaysEntered  int       `json:"days_entered"`
	DailyAverage float64   `json:"daily_average"`

	Months []MonthProgress `json:"months"`
}

// MonthProgress compares a user's total in one month of the range with the
// monthly target of that year. Target is 0 when no target is configured.
type MonthProgress struct {
	Month  string `json:"month"`
	Target int    `json:"target"`
	Actual int    `json:"actual"`
}

// Report aggregates records of a date range
type Report struct {
	Start    string      `json:"start"`
	End      string      `json:"end"`
	WorkDays int         `json:"work_days"`
	Rows     []ReportRow `json:"rows"`
	Total    int         `json:"total"`
}

// YearDTO is the API representation of quota settings
type YearDTO struct {
	ID                   uuid.UUID   `json:"id"`
	Year                 int         `json:"year"`
	IsActive             bool        `json:"is_active"`
	DailyMinimum         int         `json:"daily_minimum"`
	MonthlyTargets       map[int]int `json:"monthly_targets"`
	PenaltyPointsPerMiss int         `json:"penalty_points_per_miss"`
	MaxPenaltyPoints     int         `json:"max_penalty_points"`
	Description          string      `json:"description,omitempty"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// ToYearDTO converts domain quota settings
func ToYearDTO(y *communication.Year) YearDTO {
	return YearDTO{
		ID:                   y.ID,
		Year:                 y.Year,
		IsActive:             y.IsActive,
		DailyMinimum:         y.DailyMinimum,
		MonthlyTargets:       y.MonthlyTargets,
		PenaltyPointsPerMiss: y.PenaltyPointsPerMiss,
		MaxPenaltyPoints:     y.MaxPenaltyPoints,
		Description:          y.Description,
		UpdatedAt:            y.UpdatedAt,
	}
}

// YearInput creates or updates quota settings. Nil numbers take the system setting defaults.
type YearInput struct {
	Year                 int
	IsActive             bool
	DailyMinimum         *int
	MonthlyTargets       map[int]int
	PenaltyPointsPerMiss *int
	MaxPenaltyPoints     *int
	Description          string
}

// PenaltyDTO is the API representation of a penalty
type PenaltyDTO struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	UserName    string     `json:"user_name,omitempty"`
	Date        string     `json:"date"`
	Points      int        `json:"points"`
	Reason      string     `json:"reason"`
	Type        string     `json:"type"`
	IsCancelled bool       `json:"is_cancelled"`
	CancelledBy *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToPenaltyDTO converts a domain penalty
func ToPenaltyDTO(p *communication.Penalty, userName string) PenaltyDTO {
	return PenaltyDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		UserName:    userName,
		Date:        p.Date.Format(dateLayout),
		Points:      p.Points,
		Reason:      p.Reason,
		Type:        string(p.Type),
		IsCancelled: p.IsCancelled,
		CancelledBy: p.CancelledBy,
		CancelledAt: p.CancelledAt,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
	}
}

// AddPenaltyInput creates a manual penalty
type AddPenaltyInput struct {
	UserID uuid.UUID
	Date   time.Time
	Points int
	Reason string
}

// ListPenaltiesInput filters the penalty list
type ListPenaltiesInput struct {
	UserID           *uuid.UUID
	Type             string
	IncludeCancelled bool
	DateFrom         *time.Time
	DateTo           *time.Time
	Page             int
	PageSize         int
}

// PenaltySummaryDTO is the active point total of a user
type PenaltySummaryDTO struct {
	UserID        uuid.UUID `json:"user_id"`
	UserName      string    `json:"user_name"`
	ActivePoints  int       `json:"active_points"`
	PenaltyCount  int       `json:"penalty_count"`
	MaxPoints     int       `json:"max_points"`
	LimitExceeded bool      `json:"limit_exceeded"`
}

// QuotaCheckResult reports one quota run
type QuotaCheckResult struct {
	Date             string       `json:"date"`
	Skipped          bool         `json:"skipped"`
	SkipReason       string       `json:"skip_reason,omitempty"`
	DailyMinimum     int          `json:"daily_minimum"`
	Checked          int          `json:"checked"`
	AlreadyPenalized int          `json:"already_penalized"`
	Penalties        []PenaltyDTO `json:"penalties"`
}
