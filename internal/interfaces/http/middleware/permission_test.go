package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRequirePermission(t *testing.T) {
	svc := newTestJWTService()
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/sales/export", RequirePermission("sales:export"), ok)
	r.GET("/api/activities", RequireAnyPermission("activities:read", "activities:manage"), ok)
	r.DELETE("/api/activities/cleanup", RequireAllPermissions("activities:read", "activities:manage"), ok)

	reader, _ := newTestToken(t, svc, "activities:read")
	exporter, _ := newTestToken(t, svc, "sales:export")
	admin, _ := newTestToken(t, svc, "activities:read", "activities:manage")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"single permission held", http.MethodGet, "/api/sales/export", exporter, http.StatusOK},
		{"single permission missing", http.MethodGet, "/api/sales/export", reader, http.StatusForbidden},
		{"any of two", http.MethodGet, "/api/activities", reader, http.StatusOK},
		{"any of none", http.MethodGet, "/api/activities", exporter, http.StatusForbidden},
		{"all held", http.MethodDelete, "/api/activities/cleanup", admin, http.StatusOK},
		{"all partially held", http.MethodDelete, "/api/activities/cleanup", reader, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				code, message := decodeError(t, rec)
				assert.Equal(t, "FORBIDDEN", code)
				assert.NotEmpty(t, message)
			}
		})
	}
}

func TestRequirePermission_WithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireAnyPermissionWithConfig(PermissionConfig{Logger: zaptest.NewLogger(t)}, "sales:read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/x", "").Code)
}
