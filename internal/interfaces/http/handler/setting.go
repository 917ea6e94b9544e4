package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/settings"
)

// SetSettingRequest writes a setting value
type SetSettingRequest struct {
	Value       string `json:"value"`
	ValueType   string `json:"value_type" binding:"omitempty,oneof=string number bool json"`
	Category    string `json:"category" binding:"max=50"`
	Description string `json:"description" binding:"max=500"`
}

// SettingHandler handles system settings HTTP requests
type SettingHandler struct {
	BaseHandler
	settingService *settings.Service
}

// NewSettingHandler creates a new settings handler
func NewSettingHandler(settingService *settings.Service) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// List handles GET /api/system-settings
func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.settingService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get handles GET /api/system-settings/:key
func (h *SettingHandler) Get(c *gin.Context) {
	item, err := h.settingService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Set handles PUT /api/system-settings/:key
func (h *SettingHandler) Set(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req SetSettingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.settingService.Set(c.Request.Context(), c.Param("key"), settings.SetInput{
		Value:       req.Value,
		ValueType:   req.ValueType,
		Category:    req.Category,
		Description: req.Description,
	}, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /api/system-settings/:key. Built-in keys fall back
// to their default and the reset setting is returned.
func (h *SettingHandler) Delete(c *gin.Context) {
	item, err := h.settingService.Delete(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if item == nil {
		h.Message(c, "Ayar silindi")
		return
	}
	h.Success(c, item)
}
