package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/activity"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

const minCleanupDays = 30

// ListActivitiesQuery filters the activity log
type ListActivitiesQuery struct {
	dto.ListRequest
	UserID     string `form:"user_id"`
	Action     string `form:"action" binding:"max=50"`
	EntityType string `form:"entity_type" binding:"max=50"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}

// ActivityHandler serves the activity log
type ActivityHandler struct {
	BaseHandler
	activityService *activity.Service
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *activity.Service, loc *time.Location) *ActivityHandler {
	return &ActivityHandler{BaseHandler: newBaseHandler(loc), activityService: activityService}
}

// List handles GET /api/activities
func (h *ActivityHandler) List(c *gin.Context) {
	var q ListActivitiesQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	userID, ok := h.optionalUUID(c, "user_id", q.UserID)
	if !ok {
		return
	}
	from, ok := h.optionalDate(c, "start_date", q.StartDate)
	if !ok {
		return
	}
	to, ok := h.optionalDate(c, "end_date", q.EndDate)
	if !ok {
		return
	}
	page, err := h.activityService.List(c.Request.Context(), activity.ListInput{
		UserID:     userID,
		Action:     q.Action,
		EntityType: q.EntityType,
		DateFrom:   from,
		DateTo:     endOfDay(to),
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Recent handles GET /api/activities/recent
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			h.invalidField(c, "limit", "1 ile 100 arasında olmalı")
			return
		}
		limit = n
	}
	items, err := h.activityService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Cleanup handles DELETE /api/activities/cleanup
func (h *ActivityHandler) Cleanup(c *gin.Context) {
	days := 90
	if raw := c.Query("older_than_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.invalidField(c, "older_than_days", "sayı olmalı")
			return
		}
		days = n
	}
	if days < minCleanupDays {
		h.invalidField(c, "older_than_days", "en az 30 olmalı")
		return
	}
	result, err := h.activityService.Cleanup(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
