package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/announcement"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// AnnouncementRequest creates or updates an announcement
type AnnouncementRequest struct {
	Title     string `json:"title" binding:"required,max=200"`
	Content   string `json:"content" binding:"required,max=5000"`
	Priority  string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	ExpiresAt string `json:"expires_at"`
}

// ListAnnouncementsQuery filters the admin list
type ListAnnouncementsQuery struct {
	dto.ListRequest
	IncludeInactive *bool  `form:"include_inactive"`
	Priority        string `form:"priority" binding:"omitempty,oneof=low normal high urgent"`
}

// AnnouncementHandler handles announcement HTTP requests
type AnnouncementHandler struct {
	BaseHandler
	announcementService *announcement.Service
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(announcementService *announcement.Service, loc *time.Location) *AnnouncementHandler {
	return &AnnouncementHandler{BaseHandler: newBaseHandler(loc), announcementService: announcementService}
}

// ListVisible handles GET /api/announcements
func (h *AnnouncementHandler) ListVisible(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	items, err := h.announcementService.ListVisible(c.Request.Context(), userID, c.Query("unread") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListAll handles GET /api/announcements/all
func (h *AnnouncementHandler) ListAll(c *gin.Context) {
	var q ListAnnouncementsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	includeInactive := true
	if q.IncludeInactive != nil {
		includeInactive = *q.IncludeInactive
	}
	page, err := h.announcementService.ListAll(c.Request.Context(), announcement.ListAllInput{
		IncludeInactive: includeInactive,
		Priority:        q.Priority,
		Page:            q.Page,
		PageSize:        q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// UnreadCount handles GET /api/announcements/unread-count
func (h *AnnouncementHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	count, err := h.announcementService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"count": count})
}

func (h *AnnouncementHandler) input(c *gin.Context) (announcement.Input, bool) {
	var req AnnouncementRequest
	if !h.bindJSON(c, &req) {
		return announcement.Input{}, false
	}
	expiresAt, ok := h.optionalDate(c, "expires_at", req.ExpiresAt)
	if !ok {
		return announcement.Input{}, false
	}
	return announcement.Input{
		Title:     req.Title,
		Content:   req.Content,
		Priority:  req.Priority,
		ExpiresAt: endOfDay(expiresAt),
	}, true
}

// Create handles POST /api/announcements
func (h *AnnouncementHandler) Create(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	input, ok := h.input(c)
	if !ok {
		return
	}
	item, err := h.announcementService.Create(c.Request.Context(), input, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Update handles PUT /api/announcements/:id
func (h *AnnouncementHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	input, ok := h.input(c)
	if !ok {
		return
	}
	item, err := h.announcementService.Update(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Toggle handles PATCH /api/announcements/:id/toggle
func (h *AnnouncementHandler) Toggle(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.announcementService.Toggle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /api/announcements/:id
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.announcementService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Duyuru silindi")
}

// MarkRead handles POST /api/announcements/:id/read
func (h *AnnouncementHandler) MarkRead(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.announcementService.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Okundu olarak işaretlendi")
}

// MarkAllRead handles POST /api/announcements/read-all
func (h *AnnouncementHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	marked, err := h.announcementService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marked": marked})
}
