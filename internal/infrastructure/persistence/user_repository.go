package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user together with its role links
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return err
		}
		return replaceUserRoles(tx, user.ID, user.RoleIDs)
	}))
}

// Update updates an existing user and its role links
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateAll(ctx, tx, models.UserModelFromDomain(user)); err != nil {
			return err
		}
		return replaceUserRoles(tx, user.ID, user.RoleIDs)
	})
}

// Delete deletes a user by ID
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		return affectedOrNotFound(tx.Delete(&models.UserModel{}, "id = ?", id))
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername finds a user by username, ignoring case
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.findOne(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, args ...any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	user := model.ToDomain()
	if err := r.LoadUserRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByIDs returns the users with the given IDs
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var userModels []*models.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&userModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainWithRoles(ctx, userModels)
}

// FindAll returns users matching the filter with the total count
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	var userModels []*models.UserModel
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.UserModel{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := orderClause(filter.OrderBy, UserSortFields, "created_at", filter.OrderDir)
	if err := query.Order(order).Offset(filter.Offset()).Limit(filter.PageSize).Find(&userModels).Error; err != nil {
		return nil, 0, err
	}

	users, err := r.toDomainWithRoles(ctx, userModels)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// FindSalespeople returns salespeople ordered by full name
func (r *GormUserRepository) FindSalespeople(ctx context.Context, includeInactive bool) ([]*identity.User, error) {
	var userModels []*models.UserModel
	query := r.db.WithContext(ctx).Where("is_salesperson = ?", true)
	if !includeInactive {
		query = query.Where("status = ?", identity.UserStatusActive)
	}
	if err := query.Order("full_name ASC").Find(&userModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainWithRoles(ctx, userModels)
}

// ExistsByUsername checks if a username is taken, ignoring case
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if an email is taken, ignoring case
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// CountByRoleID counts users assigned to a role
func (r *GormUserRepository) CountByRoleID(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRoleModel{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// SaveUserRoles replaces the persisted role links of the user
func (r *GormUserRepository) SaveUserRoles(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceUserRoles(tx, user.ID, user.RoleIDs)
	})
}

// LoadUserRoles loads role IDs into the user
func (r *GormUserRepository) LoadUserRoles(ctx context.Context, user *identity.User) error {
	var roleIDs []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.UserRoleModel{}).
		Where("user_id = ?", user.ID).
		Order("created_at ASC").
		Pluck("role_id", &roleIDs).Error; err != nil {
		return err
	}
	if roleIDs == nil {
		roleIDs = make([]uuid.UUID, 0)
	}
	user.RoleIDs = roleIDs
	return nil
}

// Count returns the number of users
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) applyFilter(query *gorm.DB, filter identity.UserFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(username) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(full_name) LIKE ?)",
			pattern, pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsSalesperson != nil {
		query = query.Where("is_salesperson = ?", *filter.IsSalesperson)
	}
	if filter.RoleID != nil {
		query = query.Where("id IN (?)", r.db.Model(&models.UserRoleModel{}).Select("user_id").Where("role_id = ?", *filter.RoleID))
	}
	return query
}

func (r *GormUserRepository) toDomainWithRoles(ctx context.Context, userModels []*models.UserModel) ([]*identity.User, error) {
	users := make([]*identity.User, len(userModels))
	if len(userModels) == 0 {
		return users, nil
	}
	ids := make([]uuid.UUID, len(userModels))
	for i, m := range userModels {
		ids[i] = m.ID
	}

	var links []models.UserRoleModel
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Order("created_at ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID][]uuid.UUID, len(userModels))
	for _, l := range links {
		byUser[l.UserID] = append(byUser[l.UserID], l.RoleID)
	}

	for i, m := range userModels {
		users[i] = m.ToDomain()
		if roleIDs, ok := byUser[m.ID]; ok {
			users[i].RoleIDs = roleIDs
		}
	}
	return users, nil
}

func replaceUserRoles(tx *gorm.DB, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRoleModel{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	links := make([]models.UserRoleModel, len(roleIDs))
	for i, roleID := range roleIDs {
		links[i] = models.UserRoleModel{UserID: userID, RoleID: roleID, CreatedAt: now.Add(time.Duration(i) * time.Microsecond)}
	}
	return tx.Create(&links).Error
}
