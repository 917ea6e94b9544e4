//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/migration"
)

// newPostgresDatabase starts a throwaway postgres, applies the SQL
// migrations and connects through NewDatabase.
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("salescrm_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       "postgres",
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "postgres",
		DBName:       "salescrm_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	migrator, err := migration.New(sqlDB, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db
}

func TestPostgres_MigrationsMatchModels(t *testing.T) {
	db := newPostgresDatabase(t)
	ctx := context.Background()

	roles := NewGormRoleRepository(db.DB)
	users := NewGormUserRepository(db.DB)
	saleRepo := NewGormSaleRepository(db.DB)

	role, err := identity.NewSystemRole(identity.SalespersonRoleCode, "Satış Temsilcisi",
		[]string{identity.PermSalesRead, identity.PermSalesCreate})
	require.NoError(t, err)
	require.NoError(t, roles.Create(ctx, role))

	user, err := identity.NewUser("ayse", "Ayşe Yılmaz", "Password123")
	require.NoError(t, err)
	require.NoError(t, user.SetRoles([]uuid.UUID{role.ID}))
	require.NoError(t, users.Create(ctx, user))

	loaded, err := users.FindByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{role.ID}, loaded.RoleIDs)

	sale := newTestSale(t, "PG-1", user.ID, sales.SourceManual)
	require.NoError(t, saleRepo.Create(ctx, sale))

	found, err := saleRepo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, sale.ListPrice.Equal(found.ListPrice))
	assert.True(t, sale.PrimAmount.Equal(found.PrimAmount))

	err = saleRepo.Create(ctx, newTestSale(t, "PG-1", user.ID, sales.SourceManual))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}
