package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/logger"
)

func TestCorruptJSONColumn_IsLogged(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	db, err := NewDatabase(
		&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		WithLogger(logger.NewGormLogger(zap.New(core), gormlogger.Error)),
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	repo := NewGormSaleRepository(db.DB)
	sale := newTestSale(t, "J-1", uuid.New(), sales.SourceManual)
	require.NoError(t, repo.Create(ctx, sale))
	require.NoError(t, db.DB.Exec("UPDATE sales SET transfers = ? WHERE id = ?", "[{broken", sale.ID).Error)

	found, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Transfers)

	entries := observed.FilterMessageSnippet("corrupt json in sales.transfers").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, sale.ID.String())
}
