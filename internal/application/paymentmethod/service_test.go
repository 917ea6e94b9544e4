package paymentmethod

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentmethod.PaymentMethod), args.Error(1)
}

func (m *MockRepository) FindByName(ctx context.Context, name string) (*paymentmethod.PaymentMethod, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentmethod.PaymentMethod), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, onlyActive bool) ([]*paymentmethod.PaymentMethod, error) {
	args := m.Called(ctx, onlyActive)
	return args.Get(0).([]*paymentmethod.PaymentMethod), args.Error(1)
}

func (m *MockRepository) FindDefault(ctx context.Context) (*paymentmethod.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentmethod.PaymentMethod), args.Error(1)
}

func (m *MockRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// stubSales answers CountByPaymentMethod only
type stubSales struct {
	sales.SaleRepository
	used map[string]int64
}

func (s *stubSales) CountByPaymentMethod(_ context.Context, name string) (int64, error) {
	return s.used[name], nil
}

func newMethod(t *testing.T, name string) *paymentmethod.PaymentMethod {
	t.Helper()
	pm, err := paymentmethod.NewPaymentMethod(name, "", 1, uuid.New())
	require.NoError(t, err)
	pm.ClearDomainEvents()
	return pm
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_Create_FirstBecomesDefault(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
	ctx := context.Background()

	repo.On("ExistsByName", ctx, "Peşin", (*uuid.UUID)(nil)).Return(false, nil)
	repo.On("FindDefault", ctx).Return(nil, shared.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*paymentmethod.PaymentMethod")).Return(nil)

	dto, err := svc.Create(ctx, Input{Name: " Peşin "}, uuid.New())
	require.NoError(t, err)
	assert.True(t, dto.IsDefault)
	assert.True(t, dto.IsActive)
	repo.AssertExpectations(t)
}

func TestService_Create_DuplicateName(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
	ctx := context.Background()

	repo.On("ExistsByName", ctx, "Kredi", (*uuid.UUID)(nil)).Return(true, nil)

	_, err := svc.Create(ctx, Input{Name: "Kredi"}, uuid.New())
	assert.Equal(t, "PAYMENT_METHOD_EXISTS", codeOf(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Update_RenameInUseRefused(t *testing.T) {
	repo := new(MockRepository)
	pm := newMethod(t, "Kredi")
	svc := NewService(repo, &stubSales{used: map[string]int64{"Kredi": 3}}, nil, zap.NewNop())
	ctx := context.Background()

	repo.On("FindByID", ctx, pm.ID).Return(pm, nil)
	repo.On("ExistsByName", ctx, "Banka Kredisi", &pm.ID).Return(false, nil)

	_, err := svc.Update(ctx, pm.ID, Input{Name: "Banka Kredisi"})
	assert.Equal(t, "PAYMENT_METHOD_IN_USE", codeOf(err))

	repo.On("Update", ctx, pm).Return(nil)
	dto, err := svc.Update(ctx, pm.ID, Input{Name: "Kredi", Description: "Konut kredisi", SortOrder: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, dto.SortOrder)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("in use", func(t *testing.T) {
		repo := new(MockRepository)
		pm := newMethod(t, "Taksit")
		svc := NewService(repo, &stubSales{used: map[string]int64{"Taksit": 1}}, nil, zap.NewNop())
		repo.On("FindByID", ctx, pm.ID).Return(pm, nil)

		assert.Equal(t, "PAYMENT_METHOD_IN_USE", codeOf(svc.Delete(ctx, pm.ID)))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("default", func(t *testing.T) {
		repo := new(MockRepository)
		pm := newMethod(t, "Peşin")
		require.NoError(t, pm.MakeDefault())
		svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
		repo.On("FindByID", ctx, pm.ID).Return(pm, nil)

		assert.Equal(t, "DEFAULT_PAYMENT_METHOD", codeOf(svc.Delete(ctx, pm.ID)))
	})

	t.Run("unused", func(t *testing.T) {
		repo := new(MockRepository)
		pm := newMethod(t, "Takas")
		svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
		repo.On("FindByID", ctx, pm.ID).Return(pm, nil)
		repo.On("Delete", ctx, pm.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, pm.ID))
		repo.AssertExpectations(t)
	})
}

func TestService_SetDefaultAndToggle(t *testing.T) {
	repo := new(MockRepository)
	pm := newMethod(t, "Kredi")
	svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
	ctx := context.Background()

	repo.On("FindByID", ctx, pm.ID).Return(pm, nil)
	repo.On("SetDefault", ctx, pm.ID).Return(nil)

	dto, err := svc.SetDefault(ctx, pm.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsDefault)

	_, err = svc.Toggle(ctx, pm.ID)
	assert.Equal(t, "DEFAULT_PAYMENT_METHOD", codeOf(err))
}

func TestService_EnsureDefaults_SkipsWhenPresent(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, &stubSales{}, nil, zap.NewNop())
	ctx := context.Background()

	repo.On("FindAll", ctx, false).Return([]*paymentmethod.PaymentMethod{newMethod(t, "Peşin")}, nil)

	require.NoError(t, svc.EnsureDefaults(ctx, uuid.New()))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
