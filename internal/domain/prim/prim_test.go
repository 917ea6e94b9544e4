package prim

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRate(t *testing.T) {
	r, err := NewRate(decimal.RequireFromString("1.5"), "2025 oranı", time.Time{}, uuid.New())
	require.NoError(t, err)
	assert.True(t, r.IsActive)
	assert.False(t, r.EffectiveFrom.IsZero())
	assert.NotNil(t, r.CreatedBy)
	assert.Len(t, r.GetDomainEvents(), 1)

	_, err = NewRate(decimal.Zero, "", time.Now(), uuid.New())
	assert.Error(t, err)
	_, err = NewRate(decimal.NewFromInt(101), "", time.Now(), uuid.New())
	assert.Error(t, err)

	r.Deactivate()
	assert.False(t, r.IsActive)
}

func TestCalculatePrim(t *testing.T) {
	tests := []struct {
		base, rate, want string
	}{
		{"1000000", "1", "10000"},
		{"2450000", "1.5", "36750"},
		{"333333.33", "1", "3333.33"},
		{"0", "1", "0"},
	}
	for _, tt := range tests {
		got := CalculatePrim(decimal.RequireFromString(tt.base), decimal.RequireFromString(tt.rate))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "base=%s rate=%s got=%s", tt.base, tt.rate, got)
	}

	assert.True(t, CalculatePrim(decimal.NewFromInt(-5), decimal.NewFromInt(1)).IsZero())
}

func TestNewPeriod(t *testing.T) {
	p, err := NewPeriod(2, 2025, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Şubat 2025", p.Name)
	assert.True(t, p.IsActive)
	assert.Equal(t, 2, p.Month)
	assert.Equal(t, 2025, p.Year)

	p.ToggleActive()
	assert.False(t, p.IsActive)

	_, err = NewPeriod(13, 2025, uuid.New())
	assert.Error(t, err)
	_, err = NewPeriod(1, 1999, uuid.New())
	assert.Error(t, err)
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Ocak", MonthName(1))
	assert.Equal(t, "Aralık", MonthName(12))
	assert.Equal(t, "", MonthName(0))
}
