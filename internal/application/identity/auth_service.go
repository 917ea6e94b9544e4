// Package identity holds the authentication, user and role use cases.
package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/activity"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	roleRepo   identity.RoleRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	publisher  shared.EventPublisher
	recorder   activity.Recorder
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	publisher shared.EventPublisher,
	recorder activity.Recorder,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		publisher:  publisher,
		recorder:   recorder,
		config:     config,
		logger:     logger,
	}
}

// Login authenticates a user by username or email and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	login := strings.TrimSpace(input.Username)
	s.logger.Info("Login attempt", zap.String("username", login))

	user, err := s.findLoginUser(ctx, login)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("username", login))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Kullanıcı adı veya şifre hatalı")
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("username", login))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Hesap kilitli. Daha sonra tekrar deneyin veya yöneticiye başvurun")
		}
		s.logger.Warn("Login attempt for inactive account", zap.String("username", login))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Hesap aktif değil")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		// the lock event is not published; the actor is anonymous here
		user.ClearDomainEvents()

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", login),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Çok fazla hatalı giriş denemesi. Hesap kilitlendi")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("username", login),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Kullanıcı adı veya şifre hatalı")
	}

	roles, permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		s.logger.Error("Failed to collect user permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Kullanıcı yetkileri yüklenemedi")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(s.tokenInput(user, permissions))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Oturum anahtarları oluşturulamadı")
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	ctx = shared.WithActor(ctx, shared.Actor{UserID: user.ID, Username: user.Username, IP: input.IP})
	user.AddDomainEvent(identity.NewUserLoggedInEvent(user))
	if err := shared.PublishEvents(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish login event", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()))

	return &LoginResult{
		TokenResult: toTokenResult(tokenPair),
		User:        ToUserDTO(user, roles),
		Permissions: permissions,
	}, nil
}

func (s *AuthService) findLoginUser(ctx context.Context, login string) (*identity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, login)
	if err == nil || !strings.Contains(login, "@") {
		return user, err
	}
	return s.userRepo.FindByEmail(ctx, strings.ToLower(login))
}

// RefreshToken rotates a valid refresh token. Permissions are reloaded from the user's roles.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := refreshClaims.GetUserUUID()
	if err != nil {
		s.logger.Error("Invalid user ID in refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Oturum anahtarında geçersiz kullanıcı kimliği")
	}

	if revoked, err := s.isRevoked(ctx, refreshClaims); err != nil {
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Yenileme anahtarı doğrulanamadı")
	} else if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Yenileme anahtarı iptal edilmiş")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("USER_NOT_FOUND", "Kullanıcı bulunamadı")
	}
	if !user.CanLogin() {
		s.logger.Warn("Token refresh for inactive user", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Hesap artık aktif değil")
	}

	_, permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		s.logger.Error("Failed to collect permissions during refresh", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Kullanıcı yetkileri yüklenemedi")
	}

	tokenPair, err := s.jwtService.RotateTokenPair(refreshClaims, s.tokenInput(user, permissions))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	// a refresh token is single use
	if err := s.blacklist.AddToBlacklist(ctx, refreshClaims.ID, refreshClaims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed successfully", zap.String("user_id", userID.String()))
	result := toTokenResult(tokenPair)
	return &result, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))

	if input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to blacklist access token", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Çıkış yapılamadı")
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Warn("Failed to blacklist refresh token", zap.Error(err))
			}
		}
	}

	s.recorder.Record(ctx, activity.NewLog(activity.ActionLogout, identity.AggregateTypeUser, &input.UserID, "Oturum kapatıldı"))
	return nil
}

// GetCurrentUser returns the user with role names and effective permissions
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "Kullanıcı bulunamadı")
	}

	roles, permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		s.logger.Error("Failed to collect permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Kullanıcı yetkileri yüklenemedi")
	}

	return &CurrentUserResult{
		User:        ToUserDTO(user, roles),
		Permissions: permissions,
	}, nil
}

// ChangePassword changes the caller's password, revokes every earlier token of the
// user and returns a fresh token pair for the current session
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (*TokenResult, error) {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "Kullanıcı bulunamadı")
	}

	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Şifre güncellenemedi")
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to invalidate user tokens", zap.Error(err))
	}
	if err := shared.PublishEvents(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish password change event", zap.Error(err))
	}

	_, permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Kullanıcı yetkileri yüklenemedi")
	}
	tokenPair, err := s.jwtService.GenerateTokenPair(s.tokenInput(user, permissions))
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Oturum anahtarları oluşturulamadı")
	}

	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	result := toTokenResult(tokenPair)
	return &result, nil
}

func (s *AuthService) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if claims.ID != "" {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil || blacklisted {
			return blacklisted, err
		}
	}
	return s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
}

func (s *AuthService) tokenInput(user *identity.User, permissions []string) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		UserID:      user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		RoleIDs:     user.RoleIDs,
		Permissions: permissions,
	}
}

// collectUserPermissions returns the user's roles by id and the union of the
// permissions of the active ones
func (s *AuthService) collectUserPermissions(ctx context.Context, roleIDs []uuid.UUID) (map[uuid.UUID]*identity.Role, []string, error) {
	byID := make(map[uuid.UUID]*identity.Role, len(roleIDs))
	if len(roleIDs) == 0 {
		return byID, []string{}, nil
	}

	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		return nil, nil, err
	}

	permSet := make(map[string]struct{})
	for _, role := range roles {
		byID[role.ID] = role
		if !role.IsActive {
			continue
		}
		for _, perm := range role.Permissions {
			permSet[perm] = struct{}{}
		}
	}

	permissions := make([]string, 0, len(permSet))
	for perm := range permSet {
		permissions = append(permissions, perm)
	}
	sort.Strings(permissions)
	return byID, permissions, nil
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Yenileme anahtarının süresi dolmuş")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Oturum yenileme sınırı aşıldı. Lütfen tekrar giriş yapın")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Geçersiz yenileme anahtarı")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Oturum yenilenemedi")
	}
}
