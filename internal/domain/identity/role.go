package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/salescrm/backend/internal/domain/shared"
)

// AdminRoleCode is the code of the built-in administrator role
const AdminRoleCode = "ADMIN"

// SalespersonRoleCode is the code of the built-in salesperson role
const SalespersonRoleCode = "SALESPERSON"

var roleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Role groups permission toggles. Users get the union of their active roles' permissions.
type Role struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Description string
	IsSystem    bool
	IsActive    bool
	Permissions []string
}

// NewRole creates an active role with the given permissions
func NewRole(code, name string, permissions []string) (*Role, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !roleCodePattern.MatchString(code) || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_ROLE_CODE", "Rol kodu harfle başlamalı ve yalnızca harf, rakam ve alt çizgi içermeli")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_ROLE_NAME", "Rol adı 1 ile 100 karakter arasında olmalı")
	}

	normalized, err := NormalizePermissions(permissions)
	if err != nil {
		return nil, err
	}

	role := &Role{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		IsActive:          true,
		Permissions:       normalized,
	}
	role.AddDomainEvent(NewRoleChangedEvent(role, EventTypeRoleCreated))

	return role, nil
}

// NewSystemRole creates a role that cannot be deleted or disabled
func NewSystemRole(code, name string, permissions []string) (*Role, error) {
	role, err := NewRole(code, name, permissions)
	if err != nil {
		return nil, err
	}
	role.IsSystem = true
	return role, nil
}

// Update changes the name and description
func (r *Role) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Rol adı 1 ile 100 karakter arasında olmalı")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_ROLE_DESCRIPTION", "Açıklama 500 karakteri geçemez")
	}

	r.Name = name
	r.Description = strings.TrimSpace(description)
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleChangedEvent(r, EventTypeRoleUpdated))
	return nil
}

// SetPermissions replaces the permission set
func (r *Role) SetPermissions(permissions []string) error {
	normalized, err := NormalizePermissions(permissions)
	if err != nil {
		return err
	}
	if r.Code == AdminRoleCode && len(normalized) != len(permissionCatalog) {
		return shared.NewDomainError("ADMIN_PERMISSIONS_LOCKED", "Yönetici rolü tüm yetkileri korumalı")
	}

	r.Permissions = normalized
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleChangedEvent(r, EventTypeRolePermissionsChanged))
	return nil
}

// TogglePermission grants or revokes a single permission
func (r *Role) TogglePermission(code string, enabled bool) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if !IsKnownPermission(code) {
		return shared.NewDomainError("INVALID_PERMISSION", "Bilinmeyen yetki: "+code)
	}
	if r.Code == AdminRoleCode && !enabled {
		return shared.NewDomainError("ADMIN_PERMISSIONS_LOCKED", "Yönetici rolü tüm yetkileri korumalı")
	}

	if enabled == r.HasPermission(code) {
		return nil
	}

	if enabled {
		r.Permissions = append(r.Permissions, code)
		sort.Strings(r.Permissions)
	} else {
		kept := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			if p != code {
				kept = append(kept, p)
			}
		}
		r.Permissions = kept
	}

	r.IncrementVersion()
	r.AddDomainEvent(NewRoleChangedEvent(r, EventTypeRolePermissionsChanged))
	return nil
}

// ToggleActive flips the active flag
func (r *Role) ToggleActive() error {
	if r.IsSystem && r.IsActive {
		return shared.NewDomainError("CANNOT_DISABLE_SYSTEM_ROLE", "Sistem rolleri pasif yapılamaz")
	}
	r.IsActive = !r.IsActive
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleChangedEvent(r, EventTypeRoleStatusChanged))
	return nil
}

// CanDelete reports whether the role may be removed
func (r *Role) CanDelete() error {
	if r.IsSystem {
		return shared.NewDomainError("CANNOT_DELETE_SYSTEM_ROLE", "Sistem rolleri silinemez")
	}
	return nil
}

// HasPermission checks whether the role grants code
func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p == code {
			return true
		}
	}
	return false
}
