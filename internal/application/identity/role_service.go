package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
)

// RoleService handles roles and their permission toggles
type RoleService struct {
	roleRepo  identity.RoleRepository
	userRepo  identity.UserRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo identity.RoleRepository,
	userRepo identity.UserRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo:  roleRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Permissions returns the fixed permission catalogue
func (s *RoleService) Permissions() []identity.PermissionInfo {
	return identity.PermissionCatalog()
}

// List returns every role with its user count
func (s *RoleService) List(ctx context.Context, includeInactive bool) ([]RoleDTO, error) {
	roles, err := s.roleRepo.FindAll(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]RoleDTO, len(roles))
	for i, r := range roles {
		dto, err := s.toDTO(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = *dto
	}
	return out, nil
}

// Get returns one role
func (s *RoleService) Get(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, role)
}

// Create creates a role. Unknown permission codes are rejected.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*RoleDTO, error) {
	role, err := identity.NewRole(input.Code, input.Name, input.Permissions)
	if err != nil {
		return nil, err
	}
	if len(input.Description) > 500 {
		return nil, shared.NewDomainError("INVALID_ROLE_DESCRIPTION", "Açıklama 500 karakteri geçemez")
	}
	role.Description = strings.TrimSpace(input.Description)

	exists, err := s.roleRepo.ExistsByCode(ctx, role.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ROLE_CODE_EXISTS", "Rol kodu zaten var")
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ROLE_CODE_EXISTS", "Rol kodu zaten var")
		}
		s.logger.Error("Failed to create role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Rol oluşturulamadı")
	}
	s.publish(ctx, role)

	s.logger.Info("Role created", zap.String("role_id", role.ID.String()), zap.String("code", role.Code))
	return s.toDTO(ctx, role)
}

// Update changes name, description and optionally the whole permission set
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, input UpdateRoleInput) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if input.Permissions != nil {
		if err := role.SetPermissions(*input.Permissions); err != nil {
			return nil, err
		}
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.publish(ctx, role)
	return s.toDTO(ctx, role)
}

// ToggleActive enables or disables a role. System roles cannot be disabled.
func (s *RoleService) ToggleActive(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.ToggleActive(); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.publish(ctx, role)
	return s.toDTO(ctx, role)
}

// TogglePermission grants or revokes one permission
func (s *RoleService) TogglePermission(ctx context.Context, id uuid.UUID, permission string, enabled bool) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.TogglePermission(permission, enabled); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.publish(ctx, role)
	return s.toDTO(ctx, role)
}

// Delete removes a role that is neither a system role nor assigned to users
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := role.CanDelete(); err != nil {
		return err
	}
	count, err := s.userRepo.CountByRoleID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("ROLE_IN_USE", "Kullanıcılara atanmış rol silinemez")
	}
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}
	role.AddDomainEvent(identity.NewRoleChangedEvent(role, identity.EventTypeRoleDeleted))
	s.publish(ctx, role)
	s.logger.Info("Role deleted", zap.String("role_id", id.String()))
	return nil
}

// EnsureSystemRoles creates the administrator and salesperson roles when missing.
// The administrator role is topped up with permissions added since it was created.
func (s *RoleService) EnsureSystemRoles(ctx context.Context) (*identity.Role, error) {
	admin, err := s.roleRepo.FindByCode(ctx, identity.AdminRoleCode)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		admin, err = identity.NewSystemRole(identity.AdminRoleCode, "Yönetici", identity.AllPermissionCodes())
		if err != nil {
			return nil, err
		}
		if err := s.roleRepo.Create(ctx, admin); err != nil {
			return nil, err
		}
		s.logger.Info("Administrator role created")
	case err != nil:
		return nil, err
	case len(admin.Permissions) != len(identity.AllPermissionCodes()):
		if err := admin.SetPermissions(identity.AllPermissionCodes()); err != nil {
			return nil, err
		}
		if err := s.roleRepo.Update(ctx, admin); err != nil {
			return nil, err
		}
	}
	admin.ClearDomainEvents()

	exists, err := s.roleRepo.ExistsByCode(ctx, identity.SalespersonRoleCode)
	if err != nil {
		return nil, err
	}
	if !exists {
		role, err := identity.NewSystemRole(identity.SalespersonRoleCode, "Satış Temsilcisi", []string{
			identity.PermSalesRead,
			identity.PermSalesCreate,
			identity.PermSalesUpdate,
			identity.PermPrimsRead,
			identity.PermCommRead,
		})
		if err != nil {
			return nil, err
		}
		if err := s.roleRepo.Create(ctx, role); err != nil {
			return nil, err
		}
		s.logger.Info("Salesperson role created")
	}
	return admin, nil
}

func (s *RoleService) publish(ctx context.Context, role *identity.Role) {
	if err := shared.PublishEvents(ctx, s.publisher, role); err != nil {
		s.logger.Warn("Failed to publish role events", zap.Error(err))
	}
}

func (s *RoleService) toDTO(ctx context.Context, role *identity.Role) (*RoleDTO, error) {
	dto := ToRoleDTO(role)
	count, err := s.userRepo.CountByRoleID(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	dto.UserCount = count
	return &dto, nil
}
