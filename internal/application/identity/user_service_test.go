package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/auth"
)

func newUserService(users *MockUserRepository, roles *MockRoleRepository, saleCount int64) (*UserService, *auth.InMemoryTokenBlacklist) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := NewUserService(users, roles, &stubSaleRepository{count: saleCount}, blacklist, 0, nil, zap.NewNop())
	return svc, blacklist
}

func TestUserService_CreateSalespersonGetsDefaultRole(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	roles := new(MockRoleRepository)
	svc, _ := newUserService(users, roles, 0)

	salesRole, err := identity.NewSystemRole(identity.SalespersonRoleCode, "Satış Temsilcisi", []string{identity.PermSalesRead})
	require.NoError(t, err)

	users.On("ExistsByUsername", ctx, "mehmet").Return(false, nil)
	users.On("ExistsByEmail", ctx, "mehmet@example.com").Return(false, nil)
	roles.On("FindByCode", ctx, identity.SalespersonRoleCode).Return(salesRole, nil)
	roles.On("FindByIDs", ctx, []uuid.UUID{salesRole.ID}).Return([]*identity.Role{salesRole}, nil)
	roles.On("FindAll", ctx, true).Return([]*identity.Role{salesRole}, nil)
	users.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	dto, err := svc.Create(ctx, CreateUserInput{
		Username:      "mehmet",
		Password:      "Password123",
		FullName:      "Mehmet Demir",
		Email:         "mehmet@example.com",
		IsSalesperson: true,
	})
	require.NoError(t, err)
	assert.True(t, dto.IsSalesperson)
	assert.Equal(t, []uuid.UUID{salesRole.ID}, dto.RoleIDs)
	require.Len(t, dto.Roles, 1)
	assert.Equal(t, "Satış Temsilcisi", dto.Roles[0].Name)
}

func TestUserService_CreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc, _ := newUserService(users, new(MockRoleRepository), 0)

	users.On("ExistsByUsername", ctx, "mehmet").Return(true, nil)
	_, err := svc.Create(ctx, CreateUserInput{Username: "mehmet", Password: "Password123", FullName: "Mehmet"})
	assert.Equal(t, "USERNAME_EXISTS", codeOf(err))
}

func TestUserService_CreateRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	roles := new(MockRoleRepository)
	svc, _ := newUserService(users, roles, 0)

	missing := uuid.New()
	users.On("ExistsByUsername", ctx, "mehmet").Return(false, nil)
	roles.On("FindByIDs", ctx, []uuid.UUID{missing}).Return([]*identity.Role{}, nil)

	_, err := svc.Create(ctx, CreateUserInput{
		Username: "mehmet",
		Password: "Password123",
		FullName: "Mehmet",
		RoleIDs:  []uuid.UUID{missing},
	})
	assert.Equal(t, "INVALID_ROLE_ID", codeOf(err))
}

func TestUserService_SetStatus(t *testing.T) {
	users := new(MockUserRepository)
	roles := new(MockRoleRepository)
	svc, blacklist := newUserService(users, roles, 0)

	user, err := identity.NewUser("ali", "Ali Kaya", "Password123")
	require.NoError(t, err)
	ctx := shared.WithActor(context.Background(), shared.Actor{UserID: user.ID, Username: "ali"})

	_, err = svc.SetStatus(ctx, user.ID, false)
	assert.Equal(t, "CANNOT_DEACTIVATE_SELF", codeOf(err))

	adminCtx := shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Username: "admin"})
	users.On("FindByID", adminCtx, user.ID).Return(user, nil)
	users.On("Update", adminCtx, user).Return(nil)
	roles.On("FindAll", adminCtx, true).Return([]*identity.Role{}, nil)

	dto, err := svc.SetStatus(adminCtx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)
	assert.Equal(t, string(identity.UserStatusInactive), dto.Status)

	invalidated, err := blacklist.IsUserTokenInvalidated(adminCtx, user.ID.String(), time.Now().Add(-2*time.Second))
	require.NoError(t, err)
	assert.True(t, invalidated)
}

func TestUserService_DeleteRefusedWithSales(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newUserService(users, new(MockRoleRepository), 3)

	user, err := identity.NewUser("ali", "Ali Kaya", "Password123")
	require.NoError(t, err)
	ctx := context.Background()
	users.On("FindByID", ctx, user.ID).Return(user, nil)

	err = svc.Delete(ctx, user.ID)
	assert.Equal(t, "USER_HAS_SALES", codeOf(err))
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc, _ := newUserService(users, new(MockRoleRepository), 0)
	roleID := uuid.New()

	users.On("Count", ctx).Return(int64(0), nil).Once()
	users.On("Create", ctx, mock.MatchedBy(func(u *identity.User) bool {
		return u.Username == "admin" && u.HasRole(roleID)
	})).Return(nil).Once()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "Admin12345", "Sistem Yöneticisi", roleID))

	users.On("Count", ctx).Return(int64(1), nil).Once()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "Admin12345", "Sistem Yöneticisi", roleID))
	users.AssertNumberOfCalls(t, "Create", 1)
}
