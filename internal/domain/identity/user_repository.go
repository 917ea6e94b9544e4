package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

// UserRepository stores users together with their role links
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByUsername matches the username case-insensitively
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)
	// FindSalespeople returns salespeople, optionally including inactive ones
	FindSalespeople(ctx context.Context, includeInactive bool) ([]*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRoleID(ctx context.Context, roleID uuid.UUID) (int64, error)
	// SaveUserRoles replaces the persisted role links of the user
	SaveUserRoles(ctx context.Context, user *User) error
	LoadUserRoles(ctx context.Context, user *User) error
	Count(ctx context.Context) (int64, error)
}

// UserFilter narrows the user list. Search matches username, email or full name.
type UserFilter struct {
	shared.Filter
	Status        *UserStatus
	RoleID        *uuid.UUID
	IsSalesperson *bool
}
