package identity

import (
	"fmt"

	"github.com/salescrm/backend/internal/domain/shared"
)

// AggregateTypeRole is the aggregate type recorded on role events
const AggregateTypeRole = "Role"

// Role domain event types
const (
	EventTypeRoleCreated            = "RoleCreated"
	EventTypeRoleUpdated            = "RoleUpdated"
	EventTypeRoleDeleted            = "RoleDeleted"
	EventTypeRoleStatusChanged      = "RoleStatusChanged"
	EventTypeRolePermissionsChanged = "RolePermissionsChanged"
)

// RoleChangedEvent carries a snapshot of the role after a change
type RoleChangedEvent struct {
	shared.BaseDomainEvent
	Code        string   `json:"code"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

// NewRoleChangedEvent creates a role event of the given type
func NewRoleChangedEvent(role *Role, eventType string) *RoleChangedEvent {
	var desc string
	switch eventType {
	case EventTypeRoleCreated:
		desc = fmt.Sprintf("Rol oluşturuldu: %s", role.Name)
	case EventTypeRoleDeleted:
		desc = fmt.Sprintf("Rol silindi: %s", role.Name)
	case EventTypeRoleStatusChanged:
		desc = fmt.Sprintf("Rol aktiflik durumu değişti: %s (%t)", role.Name, role.IsActive)
	case EventTypeRolePermissionsChanged:
		desc = fmt.Sprintf("Rol yetkileri güncellendi: %s", role.Name)
	default:
		desc = fmt.Sprintf("Rol güncellendi: %s", role.Name)
	}

	perms := append([]string(nil), role.Permissions...)
	return &RoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRole, role.ID, desc),
		Code:            role.Code,
		IsActive:        role.IsActive,
		Permissions:     perms,
	}
}
