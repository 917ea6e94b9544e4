package communication

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounts(t *testing.T) {
	c := Counts{WhatsApp: 3, IncomingCalls: 2, OutgoingCalls: 4, Meetings: 1}
	assert.Equal(t, 10, c.Total())
	assert.NoError(t, c.Validate())
	assert.Equal(t, 20, c.Add(c).Total())

	assert.Error(t, Counts{Visits: -1}.Validate())
}

func TestNewRecord(t *testing.T) {
	user := uuid.New()
	date := time.Date(2025, 4, 7, 15, 30, 0, 0, time.UTC)

	r, err := NewRecord(user, date, Counts{WhatsApp: 5}, user)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Len(t, r.GetDomainEvents(), 1)

	_, err = NewRecord(user, time.Now().AddDate(0, 0, 2), Counts{}, user)
	assert.Error(t, err)

	_, err = NewRecord(uuid.Nil, date, Counts{}, user)
	assert.Error(t, err)

	require.NoError(t, r.SetCounts(Counts{OutgoingCalls: 9}, user))
	assert.Equal(t, 9, r.Counts.Total())
}

func TestYear(t *testing.T) {
	y, err := NewYear(2025, YearSettings{
		IsActive:             true,
		DailyMinimum:         10,
		MonthlyTargets:       map[int]int{1: 250, 2: 230},
		PenaltyPointsPerMiss: 1,
		MaxPenaltyPoints:     20,
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 250, y.TargetFor(1))
	assert.Equal(t, 0, y.TargetFor(5))

	monday := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC)
	assert.True(t, y.QuotaApplies(monday))
	assert.False(t, y.QuotaApplies(sunday))
	assert.False(t, y.QuotaApplies(monday.AddDate(1, 0, 0)))

	require.NoError(t, y.Update(YearSettings{IsActive: false, DailyMinimum: 10}))
	assert.False(t, y.QuotaApplies(monday))

	_, err = NewYear(1990, YearSettings{}, uuid.New())
	assert.Error(t, err)
	_, err = NewYear(2025, YearSettings{MonthlyTargets: map[int]int{13: 1}}, uuid.New())
	assert.Error(t, err)
}

func TestPenalty(t *testing.T) {
	user := uuid.New()
	p, err := NewPenalty(user, time.Time{}, 2, "Eksik iletişim", PenaltyTypeManual, uuid.New())
	require.NoError(t, err)
	assert.False(t, p.Date.IsZero())
	assert.False(t, p.IsCancelled)

	by := uuid.New()
	require.NoError(t, p.Cancel(by))
	assert.True(t, p.IsCancelled)
	assert.Equal(t, &by, p.CancelledBy)
	assert.Error(t, p.Cancel(by))

	_, err = NewPenalty(user, time.Now(), 0, "x", PenaltyTypeManual, by)
	assert.Error(t, err)
	_, err = NewPenalty(user, time.Now(), 1, " ", PenaltyTypeManual, by)
	assert.Error(t, err)
	_, err = NewPenalty(user, time.Now(), 1, "x", "other", by)
	assert.Error(t, err)
}
