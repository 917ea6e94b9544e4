package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/application/identity"
)

// CreateRoleRequest creates a role
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,min=2,max=50"`
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest updates a role; omitted permissions keep the current set
type UpdateRoleRequest struct {
	Name        string    `json:"name" binding:"required,max=100"`
	Description string    `json:"description" binding:"max=500"`
	Permissions *[]string `json:"permissions"`
}

// TogglePermissionRequest grants or revokes one permission
type TogglePermissionRequest struct {
	Permission string `json:"permission" binding:"required"`
	Enabled    *bool  `json:"enabled" binding:"required"`
}

// RoleHandler handles role management HTTP requests
type RoleHandler struct {
	BaseHandler
	roleService *identity.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *identity.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// Permissions handles GET /api/roles/permissions
func (h *RoleHandler) Permissions(c *gin.Context) {
	h.Success(c, h.roleService.Permissions())
}

// List handles GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context(), c.Query("include_inactive") != "false")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, roles)
}

// Get handles GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// Create handles POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), identity.CreateRoleInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, role)
}

// Update handles PUT /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), id, identity.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// ToggleActive handles PATCH /api/roles/:id/toggle
func (h *RoleHandler) ToggleActive(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.ToggleActive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// TogglePermission handles PATCH /api/roles/:id/permissions
func (h *RoleHandler) TogglePermission(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req TogglePermissionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.TogglePermission(c.Request.Context(), id, req.Permission, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// Delete handles DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Rol silindi")
}
