package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/auth"
)

// UserService handles user administration
type UserService struct {
	userRepo  identity.UserRepository
	roleRepo  identity.RoleRepository
	saleRepo  sales.SaleRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	saleRepo sales.SaleRepository,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		saleRepo:  saleRepo,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns a filtered page of users
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*shared.Paginated[UserDTO], error) {
	filter := identity.UserFilter{
		Filter:        shared.DefaultFilter(),
		RoleID:        input.RoleID,
		IsSalesperson: input.IsSalesperson,
	}
	filter.Search = strings.TrimSpace(input.Keyword)
	filter.Page, filter.PageSize = input.Page, input.PageSize
	if input.SortBy != "" {
		filter.OrderBy, filter.OrderDir = input.SortBy, input.SortOrder
	}
	filter.Normalize()
	if input.Status != "" {
		status := identity.UserStatus(input.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Geçersiz kullanıcı durumu: "+input.Status)
		}
		filter.Status = &status
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleMap(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]UserDTO, len(users))
	for i, u := range users {
		items[i] = ToUserDTO(u, roles)
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Salespeople returns salespeople sorted by name
func (s *UserService) Salespeople(ctx context.Context, includeInactive bool) ([]SalespersonDTO, error) {
	users, err := s.userRepo.FindSalespeople(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]SalespersonDTO, len(users))
	for i, u := range users {
		out[i] = SalespersonDTO{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.DisplayName(),
			IsActive: u.IsActive(),
		}
	}
	return out, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, user)
}

// Create creates a user. A salesperson without explicit roles gets the salesperson role.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Kullanıcı adı zaten kayıtlı")
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "E-posta zaten kayıtlı")
		}
	}

	user, err := identity.NewUser(input.Username, input.FullName, input.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if err := user.SetPhone(input.Phone); err != nil {
		return nil, err
	}
	user.SetSalesperson(input.IsSalesperson)
	if actor, ok := shared.ActorFromContext(ctx); ok {
		user.SetCreatedBy(actor.UserID)
	}

	roleIDs := input.RoleIDs
	if len(roleIDs) == 0 && input.IsSalesperson {
		if role, err := s.roleRepo.FindByCode(ctx, identity.SalespersonRoleCode); err == nil {
			roleIDs = []uuid.UUID{role.ID}
		}
	}
	if err := s.validateRoleIDs(ctx, roleIDs); err != nil {
		return nil, err
	}
	if err := user.SetRoles(roleIDs); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("USERNAME_EXISTS", "Kullanıcı adı veya e-posta zaten kayıtlı")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Kullanıcı oluşturulamadı")
	}

	s.publish(ctx, user)
	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	return s.toDTO(ctx, user)
}

// Update changes profile fields
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		if err := user.SetFullName(*input.FullName); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("EMAIL_EXISTS", "E-posta zaten kayıtlı")
			}
		}
		if err := user.SetEmail(email); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		if err := user.SetPhone(*input.Phone); err != nil {
			return nil, err
		}
	}
	if input.IsSalesperson != nil {
		user.SetSalesperson(*input.IsSalesperson)
	}
	user.IncrementVersion()
	user.AddDomainEvent(identity.NewUserUpdatedEvent(user))

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "E-posta zaten kayıtlı")
		}
		return nil, err
	}
	s.publish(ctx, user)
	return s.toDTO(ctx, user)
}

// SetRoles replaces the roles of a user. The change applies from the user's next token refresh.
func (s *UserService) SetRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRoleIDs(ctx, roleIDs); err != nil {
		return nil, err
	}
	if err := user.SetRoles(roleIDs); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveUserRoles(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	return s.toDTO(ctx, user)
}

// SetStatus activates or deactivates a user. Users cannot deactivate themselves;
// deactivation revokes the user's tokens.
func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	if actor, ok := shared.ActorFromContext(ctx); ok && actor.UserID == id && !active {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "Kendi hesabınızı pasif yapamazsınız")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		err = user.Activate()
	} else {
		err = user.Deactivate()
	}
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if !active {
		s.revokeTokens(ctx, user.ID)
	}
	s.publish(ctx, user)
	return s.toDTO(ctx, user)
}

// ResetPassword lets an administrator set a new password; earlier tokens are revoked
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.revokeTokens(ctx, user.ID)
	s.publish(ctx, user)
	s.logger.Info("User password reset", zap.String("user_id", id.String()))
	return nil
}

// Delete removes a user. Users owning sales must be deactivated instead.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if actor, ok := shared.ActorFromContext(ctx); ok && actor.UserID == id {
		return shared.NewDomainError("CANNOT_DELETE_SELF", "Kendi hesabınızı silemezsiniz")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.saleRepo.CountBySalesperson(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("USER_HAS_SALES", "Kullanıcının satış kayıtları var, silmek yerine pasif yapın")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeTokens(ctx, id)
	user.AddDomainEvent(identity.NewUserDeletedEvent(user))
	s.publish(ctx, user)
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *UserService) validateRoleIDs(ctx context.Context, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	unique := make(map[uuid.UUID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		unique[id] = struct{}{}
	}
	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		return err
	}
	if len(roles) != len(unique) {
		return shared.NewDomainError("INVALID_ROLE_ID", "Bir veya daha fazla rol bulunamadı")
	}
	return nil
}

func (s *UserService) revokeTokens(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.tokenTTL); err != nil {
		s.logger.Warn("Failed to revoke user tokens", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishEvents(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}

func (s *UserService) roleMap(ctx context.Context) (map[uuid.UUID]*identity.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*identity.Role, len(roles))
	for _, r := range roles {
		out[r.ID] = r
	}
	return out, nil
}

func (s *UserService) toDTO(ctx context.Context, user *identity.User) (*UserDTO, error) {
	roles, err := s.roleMap(ctx)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user, roles)
	return &dto, nil
}

// EnsureAdmin creates the bootstrap administrator when no user exists yet
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, fullName string, adminRoleID uuid.UUID) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := identity.NewUser(username, fullName, password)
	if err != nil {
		return err
	}
	if err := user.SetRoles([]uuid.UUID{adminRoleID}); err != nil {
		return err
	}
	user.ClearDomainEvents()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Bootstrap administrator created", zap.String("username", user.Username))
	return nil
}
