package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/infrastructure/auth"
	"github.com/salescrm/backend/internal/infrastructure/config"
)

func newTestJWTService(maxRefresh int) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "salescrm-test",
		MaxRefreshCount:        maxRefresh,
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService(5)
	userID := uuid.New()
	roleID := uuid.New()

	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:      userID,
		Username:    "ayse",
		FullName:    "Ayşe Yılmaz",
		RoleIDs:     []uuid.UUID{roleID},
		Permissions: []string{"sales:read", "sales:create"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ayse", claims.Username)
	assert.True(t, claims.HasPermission("sales:read"))
	assert.True(t, claims.HasAnyPermission("users:read", "sales:create"))
	assert.False(t, claims.HasAllPermissions("sales:read", "users:read"))
	ids, err := claims.GetRoleUUIDs()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{roleID}, ids)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidTokenType)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refresh.Permissions)
}

func TestJWTService_RejectsTampered(t *testing.T) {
	svc := newTestJWTService(5)
	other := auth.NewJWTService(config.JWTConfig{
		Secret:                 "another-secret-key-that-is-32-chars-long",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "salescrm-test",
	})
	pair, err := other.GenerateTokenPair(auth.GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.GenerateTokenPair(auth.GenerateTokenInput{})
	assert.ErrorIs(t, err, auth.ErrMissingUserID)
}

func TestJWTService_Expired(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-at-least-32-chars",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "salescrm-test",
	})
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTService_RotateTokenPair(t *testing.T) {
	svc := newTestJWTService(1)
	userID := uuid.New()
	input := auth.GenerateTokenInput{UserID: userID, Username: "ayse"}

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	rotated, err := svc.RotateTokenPair(refresh, input)
	require.NoError(t, err)
	refresh2, err := svc.ValidateRefreshToken(rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refresh2.RefreshCount)

	_, err = svc.RotateTokenPair(refresh2, input)
	assert.ErrorIs(t, err, auth.ErrMaxRefreshExceeded)

	_, err = svc.RotateTokenPair(refresh, auth.GenerateTokenInput{UserID: uuid.New()})
	assert.ErrorIs(t, err, auth.ErrInvalidClaims)

	access := &auth.Claims{TokenType: auth.TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{}}
	_, err = svc.RotateTokenPair(access, input)
	assert.ErrorIs(t, err, auth.ErrInvalidTokenType)
}
