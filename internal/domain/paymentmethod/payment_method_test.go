package paymentmethod

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentMethod(t *testing.T) {
	pm, err := NewPaymentMethod(" Peşin ", "", 1, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Peşin", pm.Name)
	assert.True(t, pm.IsActive)
	assert.False(t, pm.IsDefault)

	_, err = NewPaymentMethod("  ", "", 0, uuid.New())
	assert.Error(t, err)
	_, err = NewPaymentMethod("Kredi", "", -1, uuid.New())
	assert.Error(t, err)
}

func TestPaymentMethod_DefaultRules(t *testing.T) {
	pm, err := NewPaymentMethod("Kredi", "Banka kredisi", 2, uuid.New())
	require.NoError(t, err)

	require.NoError(t, pm.MakeDefault())
	assert.True(t, pm.IsDefault)
	assert.Error(t, pm.ToggleActive())
	assert.Error(t, pm.CanDelete(0))

	pm.ClearDefault()
	assert.NoError(t, pm.CanDelete(0))
	assert.Error(t, pm.CanDelete(3))

	require.NoError(t, pm.ToggleActive())
	assert.False(t, pm.IsActive)
	assert.Error(t, pm.MakeDefault())
}
