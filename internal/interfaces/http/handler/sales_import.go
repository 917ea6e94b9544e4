package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/bulk"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// ImportHistoryQuery filters import batches
type ImportHistoryQuery struct {
	dto.ListRequest
	Kind   string `form:"kind" binding:"omitempty,oneof=import migration"`
	Status string `form:"status" binding:"omitempty,oneof=pending processing completed failed rolled_back"`
}

// RollbackRequest removes imported sales created inside a window
type RollbackRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	BatchID   string `json:"batch_id"`
	DryRun    *bool  `json:"dry_run"`
}

// MigrationRunRequest runs historical data migration steps
type MigrationRunRequest struct {
	Steps     []string `json:"steps" binding:"required,min=1,dive,oneof=assign_periods recalculate_prims normalize_contracts"`
	DryRun    *bool    `json:"dry_run"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// SalesImportHandler handles sales import, rollback and data migration
type SalesImportHandler struct {
	BaseHandler
	bulkService *bulk.Service
}

// NewSalesImportHandler creates a new sales import handler
func NewSalesImportHandler(bulkService *bulk.Service, loc *time.Location) *SalesImportHandler {
	return &SalesImportHandler{BaseHandler: newBaseHandler(loc), bulkService: bulkService}
}

// Template handles GET /api/sales-import/template
func (h *SalesImportHandler) Template(c *gin.Context) {
	file, err := h.bulkService.Template(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, file.FileName, file.ContentType, file.Data)
}

// uploadInput reads the multipart file; dry_run defaults to true
func (h *SalesImportHandler) uploadInput(c *gin.Context) (bulk.UploadInput, func(), bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.invalidField(c, "file", "dosya yüklenmedi")
		return bulk.UploadInput{}, nil, false
	}
	dryRun := true
	if raw := c.PostForm("dry_run"); raw != "" {
		if dryRun, err = strconv.ParseBool(raw); err != nil {
			h.invalidField(c, "dry_run", "true veya false olmalı")
			return bulk.UploadInput{}, nil, false
		}
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return bulk.UploadInput{}, nil, false
	}
	return bulk.UploadInput{
		FileName:     header.Filename,
		Size:         header.Size,
		Body:         file,
		DryRun:       dryRun,
		ConflictMode: c.PostForm("conflict_mode"),
	}, func() { _ = file.Close() }, true
}

// Upload handles POST /api/sales-import/upload
func (h *SalesImportHandler) Upload(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	input, closeFile, ok := h.uploadInput(c)
	if !ok {
		return
	}
	defer closeFile()

	report, err := h.bulkService.Upload(c.Request.Context(), input, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// UploadHistorical handles POST /api/migration/historical
func (h *SalesImportHandler) UploadHistorical(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	input, closeFile, ok := h.uploadInput(c)
	if !ok {
		return
	}
	defer closeFile()

	report, err := h.bulkService.UploadHistorical(c.Request.Context(), input, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// History handles GET /api/sales-import/history
func (h *SalesImportHandler) History(c *gin.Context) {
	var q ImportHistoryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	page, err := h.bulkService.History(c.Request.Context(), bulk.HistoryInput{
		Kind:     q.Kind,
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Rollback handles POST /api/sales-import/rollback; dry_run defaults to true
func (h *SalesImportHandler) Rollback(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req RollbackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	start, ok := h.requiredDate(c, "start_time", req.StartTime)
	if !ok {
		return
	}
	end, ok := h.requiredDate(c, "end_time", req.EndTime)
	if !ok {
		return
	}
	batchID, ok := h.optionalUUID(c, "batch_id", req.BatchID)
	if !ok {
		return
	}
	report, err := h.bulkService.Rollback(c.Request.Context(), bulk.RollbackInput{
		StartTime: start,
		EndTime:   *endOfDay(&end),
		BatchID:   batchID,
		DryRun:    req.DryRun == nil || *req.DryRun,
	}, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// MigrationStatus handles GET /api/migration/status
func (h *SalesImportHandler) MigrationStatus(c *gin.Context) {
	status, err := h.bulkService.MigrationStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// RunMigration handles POST /api/migration/run; dry_run defaults to true
func (h *SalesImportHandler) RunMigration(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req MigrationRunRequest
	if !h.bindJSON(c, &req) {
		return
	}
	from, ok := h.optionalDate(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	to, ok := h.optionalDate(c, "end_date", req.EndDate)
	if !ok {
		return
	}
	report, err := h.bulkService.RunMigration(c.Request.Context(), bulk.RunInput{
		Steps:     req.Steps,
		DryRun:    req.DryRun == nil || *req.DryRun,
		StartDate: from,
		EndDate:   endOfDay(to),
	}, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
