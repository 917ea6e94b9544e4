package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/persistence"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewService(persistence.NewGormSettingRepository(db.DB), zap.NewNop())
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_EnsureDefaultsIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	by := uuid.New()

	require.NoError(t, svc.EnsureDefaults(ctx))
	_, err := svc.Set(ctx, settings.KeyDailyMinimum, SetInput{Value: "12"}, by)
	require.NoError(t, err)
	require.NoError(t, svc.EnsureDefaults(ctx))

	assert.Equal(t, 12, svc.Int(ctx, settings.KeyDailyMinimum, 0))
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(settings.Defaults()))
}

func TestService_TypedAccessorsFallBackToDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, 20, svc.Int(ctx, settings.KeyPenaltyMaxPoints, 0))
	assert.True(t, svc.Bool(ctx, settings.KeyAllowDuplicateCustomer, false))
	assert.Equal(t, 7, svc.Int(ctx, "custom.unknown", 7))
}

func TestService_SetValidatesType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	by := uuid.New()
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Set(ctx, settings.KeyImportMaxRows, SetInput{Value: "çok"}, by)
	assert.Equal(t, "INVALID_SETTING_VALUE", codeOf(err))

	_, err = svc.Set(ctx, settings.KeyImportMaxRows, SetInput{Value: "10", ValueType: "bool"}, by)
	assert.Equal(t, "SETTING_TYPE_MISMATCH", codeOf(err))

	dto, err := svc.Set(ctx, settings.KeyAllowDuplicateCustomer, SetInput{Value: "FALSE"}, by)
	require.NoError(t, err)
	assert.Equal(t, "false", dto.Value)
	assert.Equal(t, false, dto.TypedValue)
	assert.Equal(t, &by, dto.UpdatedBy)
}

func TestService_CustomSettingLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	by := uuid.New()

	created, err := svc.Set(ctx, "Dashboard.Welcome_Text", SetInput{Value: "Hoş geldiniz", Description: "Karşılama"}, by)
	require.NoError(t, err)
	assert.Equal(t, "dashboard.welcome_text", created.Key)
	assert.Equal(t, "dashboard", created.Category)
	assert.False(t, created.IsBuiltin)

	deleted, err := svc.Delete(ctx, created.Key)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	_, err = svc.Get(ctx, created.Key)
	assert.Equal(t, "SETTING_NOT_FOUND", codeOf(err))
}

func TestService_DeleteBuiltinResets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaults(ctx))

	_, err := svc.Set(ctx, settings.KeyPenaltyMaxPoints, SetInput{Value: "50"}, uuid.New())
	require.NoError(t, err)

	reset, err := svc.Delete(ctx, settings.KeyPenaltyMaxPoints)
	require.NoError(t, err)
	require.NotNil(t, reset)
	assert.Equal(t, "20", reset.Value)
	assert.Equal(t, 20, svc.Int(ctx, settings.KeyPenaltyMaxPoints, 0))
}
