package bulk

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
)

const (
	defaultMaxFileSize = 10 << 20
	defaultPreviewRows = 20
	sampleLimit        = 20
)

// Options tunes file limits
type Options struct {
	MaxFileSize int64
	PreviewRows int
	// Location interprets dates without a zone
	Location *time.Location
}

// Repositories are the non-transactional reads used for validation and history
type Repositories struct {
	Sales          sales.SaleRepository
	Users          identity.UserRepository
	PaymentMethods paymentmethod.Repository
	Batches        bulk.ImportBatchRepository
	Rates          prim.RateRepository
	Settings       settings.Repository
}

// Service runs sales imports, rollbacks and migrations
type Service struct {
	repos     Repositories
	scope     TransactionScope
	backups   BackupTaker
	reader    SheetReader
	writer    SheetWriter
	publisher shared.EventPublisher
	logger    *zap.Logger
	opts      Options
	now       func() time.Time
}

// NewService creates a new bulk service
func NewService(
	repos Repositories,
	scope TransactionScope,
	backups BackupTaker,
	reader SheetReader,
	writer SheetWriter,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts Options,
) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = defaultPreviewRows
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		repos:     repos,
		scope:     scope,
		backups:   backups,
		reader:    reader,
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// maxRows reads import.max_rows, falling back to the built-in default
func (s *Service) maxRows(ctx context.Context) int {
	setting, err := s.repos.Settings.FindByKey(ctx, settings.KeyImportMaxRows)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to read setting", zap.String("key", settings.KeyImportMaxRows), zap.Error(err))
		}
		setting = settings.DefaultFor(settings.KeyImportMaxRows)
	}
	return setting.Int(5000)
}

// currentRate returns the active prim rate for previews
func (s *Service) currentRate(ctx context.Context) decimal.Decimal {
	active, err := s.repos.Rates.FindActive(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to load prim rate", zap.Error(err))
		}
		return prim.DefaultRate
	}
	return active.Rate
}

func (s *Service) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if err := shared.PublishEvents(ctx, s.publisher, aggregates...); err != nil {
		s.logger.Warn("Failed to publish bulk events", zap.Error(err))
	}
}

// errDryRun rolls back a transaction that only computed a report
var errDryRun = errors.New("dry run")
