package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/communication"
	domain "github.com/salescrm/backend/internal/domain/communication"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
)

// SaveDailyRequest upserts one day of communication counts
type SaveDailyRequest struct {
	UserID        string `json:"user_id"`
	Date          string `json:"date" binding:"required"`
	WhatsApp      int    `json:"whatsapp" binding:"min=0"`
	IncomingCalls int    `json:"incoming_calls" binding:"min=0"`
	OutgoingCalls int    `json:"outgoing_calls" binding:"min=0"`
	Meetings      int    `json:"meetings" binding:"min=0"`
	Visits        int    `json:"visits" binding:"min=0"`
}

// ListRecordsQuery filters communication records
type ListRecordsQuery struct {
	dto.ListRequest
	UserID    string `form:"user_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// YearRequest configures a communication year
type YearRequest struct {
	Year                 int            `json:"year" binding:"omitempty,min=2000,max=2100"`
	IsActive             bool           `json:"is_active"`
	DailyMinimum         *int           `json:"daily_minimum" binding:"omitempty,min=0"`
	MonthlyTargets       map[string]int `json:"monthly_targets"`
	PenaltyPointsPerMiss *int           `json:"penalty_points_per_miss" binding:"omitempty,min=0"`
	MaxPenaltyPoints     *int           `json:"max_penalty_points" binding:"omitempty,min=1"`
	Description          string         `json:"description" binding:"max=500"`
}

// AddPenaltyRequest records a manual penalty
type AddPenaltyRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Date   string `json:"date" binding:"required"`
	Points int    `json:"points" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListPenaltiesQuery filters penalties
type ListPenaltiesQuery struct {
	dto.ListRequest
	UserID           string `form:"user_id"`
	Type             string `form:"type" binding:"omitempty,oneof=auto manual"`
	IncludeCancelled bool   `form:"include_cancelled"`
	StartDate        string `form:"start_date"`
	EndDate          string `form:"end_date"`
}

// CheckQuotaRequest runs the quota check for one date
type CheckQuotaRequest struct {
	Date string `json:"date" binding:"required"`
}

// CommunicationHandler handles communication records, years and penalties
type CommunicationHandler struct {
	BaseHandler
	commService *communication.Service
}

// NewCommunicationHandler creates a new communication handler
func NewCommunicationHandler(commService *communication.Service, loc *time.Location) *CommunicationHandler {
	return &CommunicationHandler{BaseHandler: newBaseHandler(loc), commService: commService}
}

func commViewer(c *gin.Context) communication.Viewer {
	return communication.Viewer{
		UserID:  middleware.GetJWTUserUUID(c),
		ReadAll: middleware.HasPermission(c, identity.PermCommReadAll),
	}
}

// SaveDaily handles POST /api/communications/daily
func (h *CommunicationHandler) SaveDaily(c *gin.Context) {
	var req SaveDailyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.optionalUUID(c, "user_id", req.UserID)
	if !ok {
		return
	}
	date, ok := h.requiredDate(c, "date", req.Date)
	if !ok {
		return
	}
	record, err := h.commService.SaveDaily(c.Request.Context(), commViewer(c), communication.SaveDailyInput{
		UserID: userID,
		Date:   date,
		Counts: domain.Counts{
			WhatsApp:      req.WhatsApp,
			IncomingCalls: req.IncomingCalls,
			OutgoingCalls: req.OutgoingCalls,
			Meetings:      req.Meetings,
			Visits:        req.Visits,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// GetDaily handles GET /api/communications/daily. The date defaults to today.
func (h *CommunicationHandler) GetDaily(c *gin.Context) {
	userID, ok := h.optionalUUID(c, "user_id", c.Query("user_id"))
	if !ok {
		return
	}
	date := time.Now().In(h.location())
	if raw := c.Query("date"); raw != "" {
		if date, ok = h.requiredDate(c, "date", raw); !ok {
			return
		}
	}
	record, err := h.commService.GetDaily(c.Request.Context(), commViewer(c), userID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ListRecords handles GET /api/communications/records
func (h *CommunicationHandler) ListRecords(c *gin.Context) {
	var q ListRecordsQuery
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
	page, err := h.commService.ListRecords(c.Request.Context(), commViewer(c), communication.ListRecordsInput{
		UserID:   userID,
		DateFrom: from,
		DateTo:   to,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Report handles GET /api/communications/report
func (h *CommunicationHandler) Report(c *gin.Context) {
	start, ok := h.requiredDate(c, "start", c.Query("start"))
	if !ok {
		return
	}
	end, ok := h.requiredDate(c, "end", c.Query("end"))
	if !ok {
		return
	}
	userID, ok := h.optionalUUID(c, "user_id", c.Query("user_id"))
	if !ok {
		return
	}
	report, err := h.commService.Report(c.Request.Context(), commViewer(c), start, end, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ListYears handles GET /api/communications/years
func (h *CommunicationHandler) ListYears(c *gin.Context) {
	years, err := h.commService.ListYears(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, years)
}

func (h *CommunicationHandler) yearInput(c *gin.Context, req YearRequest) (communication.YearInput, bool) {
	targets := make(map[int]int, len(req.MonthlyTargets))
	for key, target := range req.MonthlyTargets {
		month, err := strconv.Atoi(key)
		if err != nil || month < 1 || month > 12 || target < 0 {
			h.invalidField(c, "monthly_targets", "ay 1-12 arası, hedef 0 veya daha büyük olmalı")
			return communication.YearInput{}, false
		}
		targets[month] = target
	}
	return communication.YearInput{
		Year:                 req.Year,
		IsActive:             req.IsActive,
		DailyMinimum:         req.DailyMinimum,
		MonthlyTargets:       targets,
		PenaltyPointsPerMiss: req.PenaltyPointsPerMiss,
		MaxPenaltyPoints:     req.MaxPenaltyPoints,
		Description:          req.Description,
	}, true
}

// CreateYear handles POST /api/communications/years
func (h *CommunicationHandler) CreateYear(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req YearRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Year == 0 {
		h.invalidField(c, "year", "zorunlu alan")
		return
	}
	input, ok := h.yearInput(c, req)
	if !ok {
		return
	}
	year, err := h.commService.CreateYear(c.Request.Context(), input, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, year)
}

// UpdateYear handles PUT /api/communications/years/:year
func (h *CommunicationHandler) UpdateYear(c *gin.Context) {
	yearNo, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.invalidField(c, "year", "geçerli bir yıl olmalı")
		return
	}
	var req YearRequest
	if !h.bindJSON(c, &req) {
		return
	}
	input, ok := h.yearInput(c, req)
	if !ok {
		return
	}
	year, err := h.commService.UpdateYear(c.Request.Context(), yearNo, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, year)
}

// AddPenalty handles POST /api/communications/penalties
func (h *CommunicationHandler) AddPenalty(c *gin.Context) {
	by, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req AddPenaltyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.optionalUUID(c, "user_id", req.UserID)
	if !ok {
		return
	}
	date, ok := h.requiredDate(c, "date", req.Date)
	if !ok {
		return
	}
	penalty, err := h.commService.AddPenalty(c.Request.Context(), communication.AddPenaltyInput{
		UserID: *userID,
		Date:   date,
		Points: req.Points,
		Reason: req.Reason,
	}, by)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, penalty)
}

// CancelPenalty handles PUT /api/communications/penalties/:id/cancel
func (h *CommunicationHandler) CancelPenalty(c *gin.Context) {
	by, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	penalty, err := h.commService.CancelPenalty(c.Request.Context(), id, by)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, penalty)
}

// ListPenalties handles GET /api/communications/penalties
func (h *CommunicationHandler) ListPenalties(c *gin.Context) {
	var q ListPenaltiesQuery
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
	page, err := h.commService.ListPenalties(c.Request.Context(), commViewer(c), communication.ListPenaltiesInput{
		UserID:           userID,
		Type:             q.Type,
		IncludeCancelled: q.IncludeCancelled,
		DateFrom:         from,
		DateTo:           to,
		Page:             q.Page,
		PageSize:         q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// PenaltySummary handles GET /api/communications/penalties/summary. The year defaults to the current one.
func (h *CommunicationHandler) PenaltySummary(c *gin.Context) {
	yearNo := time.Now().In(h.location()).Year()
	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.invalidField(c, "year", "geçerli bir yıl olmalı")
			return
		}
		yearNo = n
	}
	summary, err := h.commService.PenaltySummary(c.Request.Context(), commViewer(c), yearNo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// CheckQuota handles POST /api/communications/check-quota
func (h *CommunicationHandler) CheckQuota(c *gin.Context) {
	by, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req CheckQuotaRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, ok := h.requiredDate(c, "date", req.Date)
	if !ok {
		return
	}
	result, err := h.commService.CheckQuota(c.Request.Context(), date, by)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
