package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/logger"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
)

const dateLayout = "2006-01-02"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// loc interprets calendar dates sent without a zone; nil means time.Local
	loc *time.Location
}

func newBaseHandler(loc *time.Location) BaseHandler {
	return BaseHandler{loc: loc}
}

func (h *BaseHandler) location() *time.Location {
	if h.loc == nil {
		return time.Local
	}
	return h.loc
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Paginated sends a page of items with pagination meta
func Paginated[T any](c *gin.Context, page *shared.Paginated[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(items, page.Total, page.Page, page.PageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Message sends a success response carrying only a message
func (h *BaseHandler) Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(message))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Oturum açmanız gerekiyor")
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Geçersiz istek", getRequestID(c), details))
}

// HandleError converts domain errors to their HTTP status. Anything else is
// logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if domainErr, ok := shared.AsDomainError(err); ok {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Beklenmeyen bir hata oluştu")
}

// bindJSON binds the body and answers validation failures itself
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return false
	}
	return true
}

// bindQuery binds query parameters and answers validation failures itself
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return false
	}
	return true
}

func (h *BaseHandler) invalidField(c *gin.Context, field, message string) {
	h.ValidationError(c, []dto.ValidationDetail{{Field: field, Message: field + ": " + message}})
}

// pathUUID parses a uuid path parameter
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.invalidField(c, name, "geçerli bir kimlik olmalı")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an optional uuid; empty yields nil
func (h *BaseHandler) optionalUUID(c *gin.Context, field, value string) (*uuid.UUID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		h.invalidField(c, field, "geçerli bir kimlik olmalı")
		return nil, false
	}
	return &id, true
}

// parseDate accepts RFC 3339 timestamps and plain 2006-01-02 dates, the latter in the configured zone
func (h *BaseHandler) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, value, h.location())
}

// optionalDate parses an optional date; empty yields nil
func (h *BaseHandler) optionalDate(c *gin.Context, field, value string) (*time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, true
	}
	t, err := h.parseDate(value)
	if err != nil {
		h.invalidField(c, field, "YYYY-AA-GG biçiminde olmalı")
		return nil, false
	}
	return &t, true
}

// requiredDate parses a mandatory date
func (h *BaseHandler) requiredDate(c *gin.Context, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		h.invalidField(c, field, "zorunlu alan")
		return time.Time{}, false
	}
	t, ok := h.optionalDate(c, field, value)
	if !ok {
		return time.Time{}, false
	}
	return *t, true
}

// endOfDay widens a plain date upper bound to cover the whole day
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

// optionalBool parses true/false/1/0; empty yields nil
func (h *BaseHandler) optionalBool(c *gin.Context, field, value string) (*bool, bool) {
	if value == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		h.invalidField(c, field, "true veya false olmalı")
		return nil, false
	}
	return &b, true
}

// currentUserID returns the authenticated user's id, answering 401 when absent
func (h *BaseHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetJWTUserUUID(c)
	if id == uuid.Nil {
		h.Unauthorized(c)
		return uuid.Nil, false
	}
	return id, true
}

// sendFile writes a binary attachment
func sendFile(c *gin.Context, fileName, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, contentType, data)
}
