package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/infrastructure/auth"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger receives one warning per refused request; nil disables it
	Logger *zap.Logger
}

// permissionMatch reports whether claims satisfy the required codes
type permissionMatch func(claims *auth.Claims, required []string) bool

func matchAny(claims *auth.Claims, required []string) bool {
	return claims.HasAnyPermission(required...)
}

func matchAll(claims *auth.Claims, required []string) bool {
	return claims.HasAllPermissions(required...)
}

// RequirePermission lets the request through only when the token carries permission.
// Route groups use it with the role toggles from identity.Perm*.
func RequirePermission(permission string) gin.HandlerFunc {
	return requirePermissions(PermissionConfig{}, matchAny, permission)
}

// RequireAnyPermission accepts a token carrying at least one of permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return requirePermissions(PermissionConfig{}, matchAny, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with logging of refusals
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return requirePermissions(cfg, matchAny, permissions...)
}

// RequireAllPermissions accepts a token carrying every one of permissions
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return requirePermissions(PermissionConfig{}, matchAll, permissions...)
}

func requirePermissions(cfg PermissionConfig, match permissionMatch, required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			refuse(c, cfg, required, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Oturum açmanız gerekiyor")
			return
		}
		if !match(claims, required) {
			refuse(c, cfg, required, http.StatusForbidden, dto.ErrCodeForbidden, "Bu işlem için yetkiniz yok")
			return
		}
		c.Next()
	}
}

func refuse(c *gin.Context, cfg PermissionConfig, required []string, status int, code, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("request refused by permission check",
			zap.Int("status", status),
			zap.String("user_id", GetJWTUserID(c)),
			zap.Strings("required", required),
			zap.String("route", c.FullPath()),
		)
	}
	abortWithError(c, status, code, message)
}
