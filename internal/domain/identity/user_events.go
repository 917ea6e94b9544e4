package identity

import (
	"fmt"

	"github.com/salescrm/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type recorded on user events
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserUpdated         = "UserUpdated"
	EventTypeUserDeleted         = "UserDeleted"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserRolesChanged    = "UserRolesChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeUserLoggedIn        = "UserLoggedIn"
)

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, user.ID,
			fmt.Sprintf("Kullanıcı oluşturuldu: %s", user.Username)),
		Username: user.Username,
	}
}

// UserUpdatedEvent is published when profile fields change
type UserUpdatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserUpdatedEvent creates a new UserUpdatedEvent
func NewUserUpdatedEvent(user *User) *UserUpdatedEvent {
	return &UserUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserUpdated, AggregateTypeUser, user.ID,
			fmt.Sprintf("Kullanıcı güncellendi: %s", user.Username)),
		Username: user.Username,
	}
}

// UserDeletedEvent is published when a user is removed
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserDeletedEvent creates a new UserDeletedEvent
func NewUserDeletedEvent(user *User) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, user.ID,
			fmt.Sprintf("Kullanıcı silindi: %s", user.Username)),
		Username: user.Username,
	}
}

// UserPasswordChangedEvent is published when a user's password is changed
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID,
			fmt.Sprintf("Şifre değiştirildi: %s", user.Username)),
		Username: user.Username,
	}
}

// UserRolesChangedEvent is published when the role set of a user changes
type UserRolesChangedEvent struct {
	shared.BaseDomainEvent
	Username string   `json:"username"`
	RoleIDs  []string `json:"role_ids"`
}

// NewUserRolesChangedEvent creates a new UserRolesChangedEvent
func NewUserRolesChangedEvent(user *User) *UserRolesChangedEvent {
	ids := make([]string, len(user.RoleIDs))
	for i, id := range user.RoleIDs {
		ids[i] = id.String()
	}
	return &UserRolesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRolesChanged, AggregateTypeUser, user.ID,
			fmt.Sprintf("Kullanıcı rolleri güncellendi: %s", user.Username)),
		Username: user.Username,
		RoleIDs:  ids,
	}
}

// UserStatusChangedEvent is published when a user's status changes
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	Username  string     `json:"username"`
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
}

// NewUserStatusChangedEvent creates a new UserStatusChangedEvent
func NewUserStatusChangedEvent(user *User, oldStatus UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, user.ID,
			fmt.Sprintf("Kullanıcı durumu %s -> %s: %s", oldStatus, user.Status, user.Username)),
		Username:  user.Username,
		OldStatus: oldStatus,
		NewStatus: user.Status,
	}
}

// UserLoggedInEvent is published after a successful login
type UserLoggedInEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	IP       string `json:"ip"`
}

// NewUserLoggedInEvent creates a new UserLoggedInEvent
func NewUserLoggedInEvent(user *User) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLoggedIn, AggregateTypeUser, user.ID,
			fmt.Sprintf("Giriş yapıldı: %s", user.Username)),
		Username: user.Username,
		IP:       user.LastLoginIP,
	}
}
