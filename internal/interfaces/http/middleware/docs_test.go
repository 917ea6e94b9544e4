package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDocsProtection(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	tests := []struct {
		name       string
		cfg        DocsConfig
		remoteAddr string
		want       int
	}{
		{"disabled", DocsConfig{}, "10.0.0.1:1234", http.StatusNotFound},
		{"open", DocsConfig{Enabled: true}, "10.0.0.1:1234", http.StatusOK},
		{"ip allowed", DocsConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.1:1234", http.StatusOK},
		{"cidr allowed", DocsConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.2.3.4:1234", http.StatusOK},
		{"ip rejected", DocsConfig{Enabled: true, AllowedIPs: []string{"192.168.1.0/24"}}, "10.0.0.1:1234", http.StatusForbidden},
		{"auth required", DocsConfig{Enabled: true, RequireAuth: true}, "10.0.0.1:1234", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/swagger/*any", DocsProtection(tt.cfg, deny), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
