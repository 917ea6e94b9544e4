package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api", r.basePath)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithBasePath("/v2"))
	assert.Equal(t, "/v2", r.basePath)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tagged := func(c *gin.Context) {
		c.Header("X-Base", "1")
		c.Next()
	}
	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	NewRouter(engine, WithMiddleware(tagged)).Register(group).Setup()

	rec := serve(engine, http.MethodGet, "/api/test/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Base"))

	rec = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Base"), "base middleware must not reach engine routes")
}

func TestDomainGroup(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }

	group := NewDomainGroup("sales", "/sales")
	assert.Equal(t, "sales", group.Name())
	assert.Equal(t, "/sales", group.Prefix())

	group.GET("", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", deny, ok)
	guarded := group.Group("admin", "/admin").Use(deny)
	guarded.GET("/stats", ok)

	engine := gin.New()
	NewRouter(engine).Register(group).Setup()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/sales", http.StatusOK},
		{http.MethodPost, "/api/sales", http.StatusOK},
		{http.MethodPut, "/api/sales/1", http.StatusOK},
		{http.MethodPatch, "/api/sales/1", http.StatusOK},
		{http.MethodDelete, "/api/sales/1", http.StatusForbidden},
		{http.MethodGet, "/api/sales/admin/stats", http.StatusForbidden},
		{http.MethodGet, "/api/other", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(engine, tt.method, tt.path).Code)
		})
	}
}

func testHandlers() Handlers {
	return Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Users:         handler.NewUserHandler(nil),
		Roles:         handler.NewRoleHandler(nil),
		Sales:         handler.NewSaleHandler(nil, nil),
		Prims:         handler.NewPrimHandler(nil, nil),
		Comms:         handler.NewCommunicationHandler(nil, nil),
		Announcements: handler.NewAnnouncementHandler(nil, nil),
		Activities:    handler.NewActivityHandler(nil, nil),
		Payments:      handler.NewPaymentMethodHandler(nil),
		Settings:      handler.NewSettingHandler(nil),
		Import:        handler.NewSalesImportHandler(nil, nil),
		Backups:       handler.NewBackupHandler(nil),
	}
}

func TestGroups(t *testing.T) {
	engine := gin.New()
	var limited int
	loginLimit := func(c *gin.Context) {
		limited++
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	require.NotPanics(t, func() {
		NewRouter(engine).Register(Groups(testHandlers(), loginLimit)...).Setup()
	})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/login",
		"POST /api/auth/refresh",
		"GET /api/auth/me",
		"GET /api/users/salespeople",
		"PATCH /api/roles/:id/permissions",
		"GET /api/sales/export",
		"PUT /api/sales/:id/prim-status",
		"GET /api/prims/earnings",
		"POST /api/communications/check-quota",
		"GET /api/announcements/unread-count",
		"DELETE /api/activities/cleanup",
		"PATCH /api/payment-methods/:id/default",
		"PUT /api/system-settings/:key",
		"POST /api/sales-import/upload",
		"POST /api/migration/run",
		"POST /api/backups/:id/restore",
	} {
		assert.True(t, registered[want], want)
	}

	t.Run("login is rate limited", func(t *testing.T) {
		assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/auth/login").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/auth/refresh").Code)
		assert.Equal(t, 2, limited)
	})

	t.Run("permission guarded routes reject anonymous callers", func(t *testing.T) {
		for _, path := range []string{"/api/sales", "/api/backups", "/api/system-settings", "/api/migration/status"} {
			assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, path).Code, path)
		}
	})
}
