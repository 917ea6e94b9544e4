package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormRoleRepository implements RoleRepository using GORM.
// Permissions live in role_permissions and are always loaded with the role.
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// Create creates a new role with its permissions
func (r *GormRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.RoleModelFromDomain(role)).Error; err != nil {
			return err
		}
		return replacePermissions(tx, role.ID, role.Permissions)
	}))
}

// Update updates a role and replaces its permissions
func (r *GormRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateAll(ctx, tx, models.RoleModelFromDomain(role)); err != nil {
			return err
		}
		return replacePermissions(tx, role.ID, role.Permissions)
	})
}

// Delete deletes a role, its permissions and its user links
func (r *GormRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermissionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		return affectedOrNotFound(tx.Delete(&models.RoleModel{}, "id = ?", id))
	})
}

// FindByID finds a role by ID
func (r *GormRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode finds a role by code
func (r *GormRoleRepository) FindByCode(ctx context.Context, code string) (*identity.Role, error) {
	return r.findOne(ctx, "code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *GormRoleRepository) findOne(ctx context.Context, query string, args ...any) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	roles, err := r.withPermissions(ctx, []*models.RoleModel{&model})
	if err != nil {
		return nil, err
	}
	return roles[0], nil
}

// FindByIDs returns the roles with the given IDs
func (r *GormRoleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Role, error) {
	if len(ids) == 0 {
		return []*identity.Role{}, nil
	}
	var roleModels []*models.RoleModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&roleModels).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, roleModels)
}

// FindAll returns system roles first, then the rest by name
func (r *GormRoleRepository) FindAll(ctx context.Context, includeInactive bool) ([]*identity.Role, error) {
	var roleModels []*models.RoleModel
	query := r.db.WithContext(ctx)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("is_system DESC, name ASC").Find(&roleModels).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, roleModels)
}

// ExistsByCode checks if a role code exists
func (r *GormRoleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoleModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRoleRepository) withPermissions(ctx context.Context, roleModels []*models.RoleModel) ([]*identity.Role, error) {
	roles := make([]*identity.Role, len(roleModels))
	if len(roleModels) == 0 {
		return roles, nil
	}
	ids := make([]uuid.UUID, len(roleModels))
	for i, m := range roleModels {
		ids[i] = m.ID
	}

	var perms []models.RolePermissionModel
	if err := r.db.WithContext(ctx).Where("role_id IN ?", ids).Order("code ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	byRole := make(map[uuid.UUID][]string, len(roleModels))
	for _, p := range perms {
		byRole[p.RoleID] = append(byRole[p.RoleID], p.Code)
	}

	for i, m := range roleModels {
		roles[i] = m.ToDomain()
		if codes, ok := byRole[m.ID]; ok {
			roles[i].Permissions = codes
		}
	}
	return roles, nil
}

func replacePermissions(tx *gorm.DB, roleID uuid.UUID, codes []string) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermissionModel{}).Error; err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.RolePermissionModel, len(codes))
	for i, code := range codes {
		rows[i] = models.RolePermissionModel{RoleID: roleID, Code: code, CreatedAt: now}
	}
	return tx.Create(&rows).Error
}
