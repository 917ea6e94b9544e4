package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*gin.Context)
		want  string
	}{
		{"from context", func(c *gin.Context) { c.Set(middleware.RequestIDKey, "ctx-id") }, "ctx-id"},
		{"from header", func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "hdr-id") }, "hdr-id"},
		{"context wins", func(c *gin.Context) {
			c.Set(middleware.RequestIDKey, "ctx-id")
			c.Request.Header.Set(middleware.RequestIDHeader, "hdr-id")
		}, "ctx-id"},
		{"unset", func(*gin.Context) {}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext("/")
			tt.setup(c)
			assert.Equal(t, tt.want, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found suffix", shared.NewDomainError("SALE_NOT_FOUND", "Satış bulunamadı"), http.StatusNotFound, "SALE_NOT_FOUND"},
		{"invalid prefix", shared.NewDomainError("INVALID_PRICE", "bad price"), http.StatusBadRequest, "INVALID_PRICE"},
		{"exists suffix", shared.NewDomainError("CONTRACT_EXISTS", "taken"), http.StatusConflict, "CONTRACT_EXISTS"},
		{"forbidden", shared.NewDomainError("FORBIDDEN", "no"), http.StatusForbidden, "FORBIDDEN"},
		{"business rule", shared.NewDomainError("SALE_ALREADY_CANCELLED", "already"), http.StatusUnprocessableEntity, "SALE_ALREADY_CANCELLED"},
		{"wrapped", fmt.Errorf("load: %w", shared.NewDomainError("USER_NOT_FOUND", "missing")), http.StatusNotFound, "USER_NOT_FOUND"},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext("/")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.NotEmpty(t, resp.Message)
		})
	}

	t.Run("internal details are not leaked", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext("/")
		h.HandleError(c, errors.New("pq: relation sales does not exist"))
		assert.NotContains(t, w.Body.String(), "relation")
	})

	t.Run("nil writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext("/")
		h.HandleError(c, nil)
		assert.Zero(t, w.Body.Len())
	})
}

func TestPaginated(t *testing.T) {
	c, w := newTestContext("/")
	Paginated(c, &shared.Paginated[string]{Total: 0, Page: 1, PageSize: 20})

	assert.Equal(t, http.StatusOK, w.Code)
	var raw struct {
		Data json.RawMessage `json:"data"`
		Meta dto.Meta        `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw.Data))
	assert.Equal(t, 20, raw.Meta.PageSize)
}

func TestBaseHandler_ParseDate(t *testing.T) {
	istanbul, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	h := newBaseHandler(istanbul)

	d, err := h.parseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, istanbul, d.Location())
	assert.Equal(t, 10, d.Day())

	d, err = h.parseDate("2025-03-10T08:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 8, d.UTC().Hour())

	_, err = h.parseDate("10.03.2025")
	assert.Error(t, err)

	assert.Equal(t, time.Local, (&BaseHandler{}).location())
}

func TestEndOfDay(t *testing.T) {
	assert.Nil(t, endOfDay(nil))

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := endOfDay(&day)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 999999999, time.UTC), *end)

	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, noon, *endOfDay(&noon))
}

func TestBaseHandler_FieldParsers(t *testing.T) {
	h := &BaseHandler{}

	t.Run("optional bool", func(t *testing.T) {
		c, _ := newTestContext("/")
		v, ok := h.optionalBool(c, "active", "")
		assert.True(t, ok)
		assert.Nil(t, v)

		v, ok = h.optionalBool(c, "active", "1")
		require.True(t, ok)
		assert.True(t, *v)

		c, w := newTestContext("/")
		_, ok = h.optionalBool(c, "active", "maybe")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("required date", func(t *testing.T) {
		c, w := newTestContext("/")
		_, ok := h.requiredDate(c, "start_date", " ")
		assert.False(t, ok)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "start_date", resp.Error.Details[0].Field)
	})

	t.Run("path uuid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext("/")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		got, ok := h.pathUUID(c, "id")
		assert.True(t, ok)
		assert.Equal(t, id, got)

		c, w := newTestContext("/")
		c.Params = gin.Params{{Key: "id", Value: "42"}}
		_, ok = h.pathUUID(c, "id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("optional uuid", func(t *testing.T) {
		c, _ := newTestContext("/")
		got, ok := h.optionalUUID(c, "salesperson_id", "")
		assert.True(t, ok)
		assert.Nil(t, got)
	})
}

func TestBaseHandler_CurrentUserID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("/")

	_, ok := h.currentUserID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestSendFile(t *testing.T) {
	c, w := newTestContext("/")
	sendFile(c, "satislar.xlsx", "application/octet-stream", []byte("PK"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="satislar.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", w.Body.String())
}
