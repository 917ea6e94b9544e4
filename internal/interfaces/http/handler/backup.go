package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/infrastructure/logger"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// ListBackupsQuery filters backups
type ListBackupsQuery struct {
	dto.ListRequest
	Type string `form:"type" binding:"omitempty,oneof=manual pre_import pre_rollback pre_migration pre_restore scheduled"`
}

// CreateBackupRequest takes a manual backup
type CreateBackupRequest struct {
	Name   string   `json:"name" binding:"max=200"`
	Tables []string `json:"tables"`
}

// RestoreBackupRequest restores all or some tables of a backup
type RestoreBackupRequest struct {
	Tables []string `json:"tables"`
}

// BackupHandler handles backup HTTP requests
type BackupHandler struct {
	BaseHandler
	backupService *appbackup.Service
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backupService *appbackup.Service) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// List handles GET /api/backups
func (h *BackupHandler) List(c *gin.Context) {
	var q ListBackupsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	filter := backup.Filter{Page: q.Page, PageSize: q.PageSize}
	if q.Type != "" {
		t := backup.Type(q.Type)
		filter.Type = &t
	}
	page, err := h.backupService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get handles GET /api/backups/:id
func (h *BackupHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.backupService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Create handles POST /api/backups
func (h *BackupHandler) Create(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req CreateBackupRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.backupService.Create(c.Request.Context(), appbackup.CreateInput{
		Name:   req.Name,
		Type:   backup.TypeManual,
		Tables: req.Tables,
	}, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Download handles GET /api/backups/:id/download
func (h *BackupHandler) Download(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	file, err := h.backupService.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Header("Content-Type", "application/gzip")
	if file.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file.Body); err != nil {
		logger.GetGinLogger(c).Warn("Backup download interrupted", zap.String("backup_id", id.String()), zap.Error(err))
	}
}

// Restore handles POST /api/backups/:id/restore
func (h *BackupHandler) Restore(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RestoreBackupRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	result, err := h.backupService.Restore(c.Request.Context(), id, req.Tables, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete handles DELETE /api/backups/:id
func (h *BackupHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.backupService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Yedek silindi")
}
