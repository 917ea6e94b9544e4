package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/identity"
)

// LoginInput contains the input for user login
type LoginInput struct {
	// Username may also be the email address
	Username string
	Password string
	IP       string
}

// TokenResult is an issued access and refresh token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User        UserDTO  `json:"user"`
	Permissions []string `json:"permissions"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID uuid.UUID
	// TokenJTI is the id of the access token being revoked
	TokenJTI string
	// TokenTTL is the remaining lifetime of the access token
	TokenTTL time.Duration
	// RefreshToken is revoked as well when given
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// CurrentUserResult contains the current user's information
type CurrentUserResult struct {
	User        UserDTO  `json:"user"`
	Permissions []string `json:"permissions"`
}

// RoleRef is the short form of a role attached to a user
type RoleRef struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// UserDTO is the API view of a user
type UserDTO struct {
	ID            uuid.UUID   `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name"`
	Phone         string      `json:"phone"`
	IsSalesperson bool        `json:"is_salesperson"`
	Status        string      `json:"status"`
	IsActive      bool        `json:"is_active"`
	RoleIDs       []uuid.UUID `json:"role_ids"`
	Roles         []RoleRef   `json:"roles"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ToUserDTO converts a domain user; roles resolves role ids to their names
func ToUserDTO(u *identity.User, roles map[uuid.UUID]*identity.Role) UserDTO {
	dto := UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		IsSalesperson: u.IsSalesperson,
		Status:        string(u.Status),
		IsActive:      u.IsActive(),
		RoleIDs:       u.RoleIDs,
		Roles:         make([]RoleRef, 0, len(u.RoleIDs)),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if dto.RoleIDs == nil {
		dto.RoleIDs = []uuid.UUID{}
	}
	for _, id := range u.RoleIDs {
		if r, ok := roles[id]; ok {
			dto.Roles = append(dto.Roles, RoleRef{ID: r.ID, Code: r.Code, Name: r.Name})
		}
	}
	return dto
}

// SalespersonDTO is the short form used by sales forms and filters
type SalespersonDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	IsActive bool      `json:"is_active"`
}

// ListUsersInput filters the user list
type ListUsersInput struct {
	Keyword       string
	Status        string
	RoleID        *uuid.UUID
	IsSalesperson *bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// CreateUserInput creates a user
type CreateUserInput struct {
	Username      string
	Password      string
	FullName      string
	Email         string
	Phone         string
	IsSalesperson bool
	RoleIDs       []uuid.UUID
}

// UpdateUserInput updates profile fields; nil fields are left unchanged
type UpdateUserInput struct {
	FullName      *string
	Email         *string
	Phone         *string
	IsSalesperson *bool
}

// RoleDTO is the API view of a role
type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToRoleDTO converts a domain role
func ToRoleDTO(r *identity.Role) RoleDTO {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleDTO{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		IsActive:    r.IsActive,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// CreateRoleInput creates a role
type CreateRoleInput struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

// UpdateRoleInput updates a role; nil permissions keep the current set
type UpdateRoleInput struct {
	Name        string
	Description string
	Permissions *[]string
}
