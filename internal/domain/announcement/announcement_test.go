package announcement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnnouncement(t *testing.T) {
	a, err := NewAnnouncement("  Toplantı ", "Cuma 10:00", "", nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Toplantı", a.Title)
	assert.Equal(t, PriorityNormal, a.Priority)
	assert.True(t, a.IsActive)
	assert.Len(t, a.GetDomainEvents(), 1)

	_, err = NewAnnouncement("", "x", PriorityLow, nil, uuid.New())
	assert.Error(t, err)
	_, err = NewAnnouncement("x", "", PriorityLow, nil, uuid.New())
	assert.Error(t, err)
	_, err = NewAnnouncement("x", "y", "critical", nil, uuid.New())
	assert.Error(t, err)
}

func TestAnnouncement_Visibility(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	a, err := NewAnnouncement("Başlık", "İçerik", PriorityUrgent, &past, uuid.New())
	require.NoError(t, err)
	assert.True(t, a.IsExpired(now))
	assert.False(t, a.IsVisible(now))

	require.NoError(t, a.Update("Başlık", "İçerik", PriorityHigh, nil))
	assert.True(t, a.IsVisible(now))

	a.ToggleActive()
	assert.False(t, a.IsVisible(now))
	a.ToggleActive()
	assert.True(t, a.IsVisible(now))
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	assert.Greater(t, PriorityNormal.Rank(), PriorityLow.Rank())
}
