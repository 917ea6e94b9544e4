package identity

import (
	"context"

	"github.com/google/uuid"
)

// RoleRepository stores roles and their permission toggles.
// FindAll skips inactive roles unless asked otherwise.
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)
	FindByCode(ctx context.Context, code string) (*Role, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Role, error)
	FindAll(ctx context.Context, includeInactive bool) ([]*Role, error)
	// ExistsByCode is case sensitive; role codes are stored as typed
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
