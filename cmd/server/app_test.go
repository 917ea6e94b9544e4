package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/salescrm/backend/internal/infrastructure/auth"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/persistence"
	"github.com/salescrm/backend/internal/infrastructure/storage"
)

const (
	adminPassword = "Admin1234"
	salesPassword = "Satis1234"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "salescrm", Env: "test", Port: "0", Timezone: "Europe/Istanbul"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		JWT: config.JWTConfig{
			Secret:                 "test-access-secret-0123456789abcdef",
			RefreshSecret:          "test-refresh-secret-0123456789abcdef",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "salescrm-test",
			MaxRefreshCount:        5,
		},
		HTTP: config.HTTPConfig{
			MaxBodySize:           1 << 20,
			AuthRateLimitEnabled:  true,
			AuthRateLimitRequests: 100,
			AuthRateLimitWindow:   time.Minute,
		},
		Import: config.ImportConfig{MaxFileSize: 1 << 20, MaxRows: 100, PreviewRows: 5},
		Seed:   config.SeedConfig{AdminUsername: "admin", AdminPassword: adminPassword, AdminFullName: "Sistem Yöneticisi"},
	}
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, testConfig())
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	db, err := persistence.NewDatabase(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate())

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	app, err := buildApplication(context.Background(), cfg, dependencies{
		DB:        db,
		Store:     store,
		Blacklist: auth.NewInMemoryTokenBlacklist(),
	}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.start(ctx))
	t.Cleanup(func() {
		cancel()
		app.stop(context.Background(), log)
	})
	return &testServer{t: t, engine: app.engine}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		AccessToken string   `json:"access_token"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.AccessToken)
	return data.AccessToken
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := srv.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestSwaggerDocs(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		srv := newTestServer(t)
		rec, _ := srv.do(http.MethodGet, "/swagger/doc.json", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("lists the api routes when enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Swagger.Enabled = true
		srv := newTestServerWithConfig(t, cfg)

		rec, _ := srv.do(http.MethodGet, "/swagger/doc.json", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/api/sales/{id}/prim-status")
	})

	t.Run("require auth rejects anonymous callers", func(t *testing.T) {
		cfg := testConfig()
		cfg.Swagger.Enabled = true
		cfg.Swagger.RequireAuth = true
		srv := newTestServerWithConfig(t, cfg)

		rec, _ := srv.do(http.MethodGet, "/swagger/doc.json", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		rec, env := srv.do(http.MethodGet, "/api/sales", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, env := srv.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "admin",
			"password": "Wrong1234",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := srv.login("admin", adminPassword)
		rec, _ := srv.do(http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = srv.do(http.MethodPost, "/api/auth/logout", token, map[string]string{})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec, _ = srv.do(http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec, env := srv.do(http.MethodGet, "/api/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, env.Message)
	})
}

func TestSalesFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin", adminPassword)

	// the seeded salesperson role
	rec, env := srv.do(http.MethodGet, "/api/roles", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var roles []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &roles))
	var salesRoleID string
	for _, r := range roles {
		if r.Code == "SALESPERSON" {
			salesRoleID = r.ID
		}
	}
	require.NotEmpty(t, salesRoleID)

	rec, env = srv.do(http.MethodPost, "/api/users", admin, map[string]any{
		"username":       "ayse",
		"password":       salesPassword,
		"full_name":      "Ayşe Yılmaz",
		"email":          "ayse@example.com",
		"phone":          "0532 123 45 67",
		"is_salesperson": true,
		"role_ids":       []string{salesRoleID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))

	sale := map[string]any{
		"contract_no":         "A-101",
		"customer_name":       "Mehmet Demir",
		"block_no":            "A",
		"apartment_no":        "12",
		"sale_type":           "satis",
		"sale_date":           "2025-03-10",
		"list_price":          "1200000",
		"activity_sale_price": "1000000",
		"salesperson_id":      user.ID,
	}
	rec, env = srv.do(http.MethodPost, "/api/sales", admin, sale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID         string `json:"id"`
		PrimAmount string `json:"prim_amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "10000", created.PrimAmount)

	t.Run("duplicate contract is rejected", func(t *testing.T) {
		rec, env := srv.do(http.MethodPost, "/api/sales", admin, sale)
		assert.GreaterOrEqual(t, rec.Code, 400)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("admin lists every sale", func(t *testing.T) {
		rec, env := srv.do(http.MethodGet, "/api/sales", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
	})

	salesToken := srv.login("ayse", salesPassword)

	t.Run("salesperson sees own sale", func(t *testing.T) {
		rec, _ := srv.do(http.MethodGet, "/api/sales/"+created.ID, salesToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("salesperson cannot manage backups", func(t *testing.T) {
		rec, env := srv.do(http.MethodGet, "/api/backups", salesToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("salesperson cannot delete sales", func(t *testing.T) {
		rec, _ := srv.do(http.MethodDelete, "/api/sales/"+created.ID, salesToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid body is a validation error", func(t *testing.T) {
		rec, env := srv.do(http.MethodPost, "/api/sales", admin, map[string]any{"contract_no": "A#1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, env.Message)
	})
}
