package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/paymentmethod"
)

// PaymentMethodRequest creates or updates a payment method
type PaymentMethodRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	SortOrder   int    `json:"sort_order" binding:"min=0"`
}

// PaymentMethodHandler handles payment method HTTP requests
type PaymentMethodHandler struct {
	BaseHandler
	paymentMethodService *paymentmethod.Service
}

// NewPaymentMethodHandler creates a new payment method handler
func NewPaymentMethodHandler(paymentMethodService *paymentmethod.Service) *PaymentMethodHandler {
	return &PaymentMethodHandler{paymentMethodService: paymentMethodService}
}

// List handles GET /api/payment-methods
func (h *PaymentMethodHandler) List(c *gin.Context) {
	items, err := h.paymentMethodService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get handles GET /api/payment-methods/:id
func (h *PaymentMethodHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.paymentMethodService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Create handles POST /api/payment-methods
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.paymentMethodService.Create(c.Request.Context(), paymentmethod.Input{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Update handles PUT /api/payment-methods/:id
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.paymentMethodService.Update(c.Request.Context(), id, paymentmethod.Input{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Toggle handles PATCH /api/payment-methods/:id/toggle
func (h *PaymentMethodHandler) Toggle(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.paymentMethodService.Toggle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// SetDefault handles PATCH /api/payment-methods/:id/default
func (h *PaymentMethodHandler) SetDefault(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.paymentMethodService.SetDefault(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /api/payment-methods/:id
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.paymentMethodService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Ödeme yöntemi silindi")
}
