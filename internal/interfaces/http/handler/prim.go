package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/application/prim"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
)

// SetRateRequest activates a new prim rate
type SetRateRequest struct {
	Rate          decimal.Decimal `json:"rate"`
	Description   string          `json:"description" binding:"max=500"`
	EffectiveFrom string          `json:"effective_from"`
}

// CreatePeriodRequest opens a Dönem
type CreatePeriodRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
}

// PrimHandler handles prim rate, period and earnings requests
type PrimHandler struct {
	BaseHandler
	primService *prim.Service
}

// NewPrimHandler creates a new prim handler
func NewPrimHandler(primService *prim.Service, loc *time.Location) *PrimHandler {
	return &PrimHandler{BaseHandler: newBaseHandler(loc), primService: primService}
}

// GetCurrentRate handles GET /api/prims/rate
func (h *PrimHandler) GetCurrentRate(c *gin.Context) {
	rate, err := h.primService.GetCurrentRate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// ListRates handles GET /api/prims/rates
func (h *PrimHandler) ListRates(c *gin.Context) {
	rates, err := h.primService.ListRates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// SetRate handles POST /api/prims/rate
func (h *PrimHandler) SetRate(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req SetRateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	effectiveFrom, ok := h.optionalDate(c, "effective_from", req.EffectiveFrom)
	if !ok {
		return
	}
	rate, err := h.primService.SetRate(c.Request.Context(), prim.SetRateInput{
		Rate:          req.Rate,
		Description:   req.Description,
		EffectiveFrom: effectiveFrom,
		CreatedBy:     userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}

// ListPeriods handles GET /api/prims/periods
func (h *PrimHandler) ListPeriods(c *gin.Context) {
	periods, err := h.primService.ListPeriods(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, periods)
}

// CreatePeriod handles POST /api/prims/periods
func (h *PrimHandler) CreatePeriod(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req CreatePeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	period, err := h.primService.CreatePeriod(c.Request.Context(), prim.CreatePeriodInput{
		Month:     req.Month,
		Year:      req.Year,
		CreatedBy: userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, period)
}

// TogglePeriod handles PATCH /api/prims/periods/:id/toggle
func (h *PrimHandler) TogglePeriod(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	period, err := h.primService.TogglePeriod(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, period)
}

// Earnings handles GET /api/prims/earnings. Callers without sales:read_all
// only get their own totals.
func (h *PrimHandler) Earnings(c *gin.Context) {
	periodID, ok := h.optionalUUID(c, "period_id", c.Query("period_id"))
	if !ok {
		return
	}
	salespersonID, ok := h.optionalUUID(c, "salesperson_id", c.Query("salesperson_id"))
	if !ok {
		return
	}
	if !middleware.HasPermission(c, identity.PermSalesReadAll) {
		self := middleware.GetJWTUserUUID(c)
		salespersonID = &self
	}

	result, err := h.primService.Earnings(c.Request.Context(), prim.EarningsInput{
		PeriodID:      periodID,
		SalespersonID: salespersonID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
