package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/application/identity"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// ListUsersQuery filters the user list
type ListUsersQuery struct {
	dto.ListRequest
	Keyword       string `form:"keyword" binding:"max=100"`
	Status        string `form:"status" binding:"omitempty,oneof=active inactive locked"`
	RoleID        string `form:"role_id"`
	IsSalesperson string `form:"is_salesperson"`
}

// CreateUserRequest creates a user
type CreateUserRequest struct {
	Username      string      `json:"username" binding:"required,min=3,max=50"`
	Password      string      `json:"password" binding:"required,min=8,max=128"`
	FullName      string      `json:"full_name" binding:"required,max=100"`
	Email         string      `json:"email" binding:"required,email,max=200"`
	Phone         string      `json:"phone" binding:"omitempty,tr_phone"`
	IsSalesperson bool        `json:"is_salesperson"`
	RoleIDs       []uuid.UUID `json:"role_ids"`
}

// UpdateUserRequest updates profile fields; omitted fields stay unchanged
type UpdateUserRequest struct {
	FullName      *string `json:"full_name" binding:"omitempty,min=1,max=100"`
	Email         *string `json:"email" binding:"omitempty,email,max=200"`
	Phone         *string `json:"phone" binding:"omitempty,max=20"`
	IsSalesperson *bool   `json:"is_salesperson"`
}

// SetRolesRequest replaces a user's roles
type SetRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required"`
}

// SetStatusRequest activates or deactivates a user
type SetStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ResetPasswordRequest sets a new password for a user
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserHandler handles user management HTTP requests
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	roleID, ok := h.optionalUUID(c, "role_id", q.RoleID)
	if !ok {
		return
	}
	isSalesperson, ok := h.optionalBool(c, "is_salesperson", q.IsSalesperson)
	if !ok {
		return
	}

	page, err := h.userService.List(c.Request.Context(), identity.ListUsersInput{
		Keyword:       q.Keyword,
		Status:        q.Status,
		RoleID:        roleID,
		IsSalesperson: isSalesperson,
		Page:          q.Page,
		PageSize:      q.PageSize,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Salespeople handles GET /api/users/salespeople
func (h *UserHandler) Salespeople(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	people, err := h.userService.Salespeople(c.Request.Context(), includeInactive)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, people)
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), identity.CreateUserInput{
		Username:      req.Username,
		Password:      req.Password,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		IsSalesperson: req.IsSalesperson,
		RoleIDs:       req.RoleIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), id, identity.UpdateUserInput{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		IsSalesperson: req.IsSalesperson,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// SetRoles handles PUT /api/users/:id/roles
func (h *UserHandler) SetRoles(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SetRolesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.SetRoles(c.Request.Context(), id, req.RoleIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// SetStatus handles PATCH /api/users/:id/status
func (h *UserHandler) SetStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SetStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.SetStatus(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ResetPassword handles POST /api/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Şifre sıfırlandı")
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Kullanıcı silindi")
}
