package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/auth"
	"github.com/salescrm/backend/internal/infrastructure/config"
)

const testPassword = "Password123"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-at-least-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

type authFixture struct {
	service   *AuthService
	users     *MockUserRepository
	roles     *MockRoleRepository
	blacklist *auth.InMemoryTokenBlacklist
	publisher *recordingPublisher
	user      *identity.User
	role      *identity.Role
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	user, err := identity.NewUser("ayse", "Ayşe Yılmaz", testPassword)
	require.NoError(t, err)
	require.NoError(t, user.SetEmail("ayse@example.com"))
	role, err := identity.NewRole("SALES", "Satış", []string{identity.PermSalesRead, identity.PermSalesCreate})
	require.NoError(t, err)
	require.NoError(t, user.SetRoles([]uuid.UUID{role.ID}))
	user.ClearDomainEvents()

	f := &authFixture{
		users:     new(MockUserRepository),
		roles:     new(MockRoleRepository),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		publisher: &recordingPublisher{},
		user:      user,
		role:      role,
	}
	f.service = NewAuthService(f.users, f.roles, newTestJWTService(), f.blacklist, f.publisher, nil,
		DefaultAuthServiceConfig(), zap.NewNop())
	return f
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success by username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)
		f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
		f.users.On("Update", mock.Anything, f.user).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword, IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, []string{identity.PermSalesCreate, identity.PermSalesRead}, result.Permissions)
		assert.Equal(t, "Ayşe Yılmaz", result.User.FullName)
		require.Len(t, result.User.Roles, 1)
		assert.Equal(t, "SALES", result.User.Roles[0].Code)
		assert.Equal(t, "10.0.0.1", f.user.LastLoginIP)
		assert.Contains(t, f.publisher.types, identity.EventTypeUserLoggedIn)
	})

	t.Run("falls back to email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "ayse@example.com").Return(nil, shared.ErrNotFound)
		f.users.On("FindByEmail", ctx, "ayse@example.com").Return(f.user, nil)
		f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
		f.users.On("Update", mock.Anything, f.user).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Username: "ayse@example.com", Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, result.User.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "nobody").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(ctx, LoginInput{Username: "nobody", Password: testPassword})
		assert.Equal(t, "INVALID_CREDENTIALS", codeOf(err))
	})

	t.Run("disabled role grants nothing", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.role.ToggleActive())
		f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)
		f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
		f.users.On("Update", mock.Anything, f.user).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword})
		require.NoError(t, err)
		assert.Empty(t, result.Permissions)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.user.Deactivate())
		f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)

		_, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword})
		assert.Equal(t, "ACCOUNT_INACTIVE", codeOf(err))
	})

	t.Run("locks after five failures", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)
		f.users.On("Update", ctx, f.user).Return(nil)

		for i := 0; i < 4; i++ {
			_, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: "wrong-password1"})
			assert.Equal(t, "INVALID_CREDENTIALS", codeOf(err))
		}
		_, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: "wrong-password1"})
		assert.Equal(t, "ACCOUNT_LOCKED", codeOf(err))
		assert.True(t, f.user.IsLocked())

		_, err = f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword})
		assert.Equal(t, "ACCOUNT_LOCKED", codeOf(err))
		assert.Empty(t, f.publisher.types)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)
	f.users.On("FindByID", ctx, f.user.ID).Return(f.user, nil)
	f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
	f.users.On("Update", mock.Anything, f.user).Return(nil)

	login, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword})
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// rotated tokens cannot be reused
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", codeOf(err))

	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: "garbage"})
	assert.Equal(t, "TOKEN_INVALID", codeOf(err))

	// an access token is not a refresh token
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.AccessToken})
	assert.Equal(t, "TOKEN_INVALID", codeOf(err))
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.On("FindByUsername", ctx, "ayse").Return(f.user, nil)
	f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
	f.users.On("Update", mock.Anything, f.user).Return(nil)

	login, err := f.service.Login(ctx, LoginInput{Username: "ayse", Password: testPassword})
	require.NoError(t, err)

	claims, err := newTestJWTService().ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, LogoutInput{
		UserID:       f.user.ID,
		TokenJTI:     claims.ID,
		TokenTTL:     claims.GetRemainingTTL(),
		RefreshToken: login.RefreshToken,
	}))

	blacklisted, err := f.blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, blacklisted)
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", codeOf(err))
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.users.On("FindByID", ctx, f.user.ID).Return(f.user, nil)
	f.roles.On("FindByIDs", ctx, f.user.RoleIDs).Return([]*identity.Role{f.role}, nil)
	f.users.On("Update", ctx, f.user).Return(nil)

	_, err := f.service.ChangePassword(ctx, ChangePasswordInput{
		UserID:      f.user.ID,
		OldPassword: "wrong-password1",
		NewPassword: "NewPassword456",
	})
	require.Error(t, err)

	tokens, err := f.service.ChangePassword(ctx, ChangePasswordInput{
		UserID:      f.user.ID,
		OldPassword: testPassword,
		NewPassword: "NewPassword456",
	})
	require.NoError(t, err)
	assert.True(t, f.user.VerifyPassword("NewPassword456"))

	// the pair issued with the change stays valid
	claims, err := newTestJWTService().ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	stale, err := f.blacklist.IsUserTokenInvalidated(ctx, f.user.ID.String(), claims.GetIssuedAtTime())
	require.NoError(t, err)
	assert.False(t, stale)

	invalidated, err := f.blacklist.IsUserTokenInvalidated(ctx, f.user.ID.String(), time.Now().Add(-2*time.Second))
	require.NoError(t, err)
	assert.True(t, invalidated)
}

func codeOf(err error) string {
	if de, ok := err.(*shared.DomainError); ok {
		return de.Code
	}
	return ""
}
