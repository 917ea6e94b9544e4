package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// Rollback deletes import-sourced sales created inside the window, optionally
// limited to one batch, after taking a backup. A batch is marked rolled back
// once none of its sales remain; batches losing only part of their sales are
// reported as partial and stay completed.
func (s *Service) Rollback(ctx context.Context, input RollbackInput, by uuid.UUID) (*RollbackReport, error) {
	if input.StartTime.IsZero() || input.EndTime.IsZero() || !input.StartTime.Before(input.EndTime) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Başlangıç zamanı bitiş zamanından önce olmalıdır")
	}
	if input.BatchID != nil {
		if err := s.checkRollbackBatch(ctx, *input.BatchID); err != nil {
			return nil, err
		}
	}

	matched, err := s.repos.Sales.FindImported(ctx, sales.ImportedFilter{
		From:    input.StartTime,
		To:      input.EndTime,
		BatchID: input.BatchID,
		Source:  sales.SourceImport,
	})
	if err != nil {
		return nil, fmt.Errorf("find imported sales: %w", err)
	}

	report := &RollbackReport{
		DryRun:    input.DryRun,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		SaleCount: len(matched),
		BatchIDs:  batchIDsOf(matched),
		Sample:    make([]RollbackSale, 0, min(len(matched), sampleLimit)),
	}
	for _, sale := range matched {
		if len(report.Sample) == sampleLimit {
			break
		}
		report.Sample = append(report.Sample, RollbackSale{
			ID:            sale.ID,
			ContractNo:    sale.ContractNo,
			CustomerName:  sale.CustomerName,
			ImportBatchID: sale.ImportBatchID,
			CreatedAt:     sale.CreatedAt,
		})
	}
	if input.DryRun {
		return report, nil
	}
	if len(matched) == 0 {
		return nil, shared.NewDomainError("NOTHING_TO_ROLLBACK", "Seçilen aralıkta içe aktarılmış satış yok")
	}

	snapshot, err := s.backups.Create(ctx, appbackup.CreateInput{
		Name:   fmt.Sprintf("Geri alma öncesi: %s - %s", input.StartTime.Format("02.01.2006 15:04"), input.EndTime.Format("02.01.2006 15:04")),
		Type:   backup.TypePreRollback,
		Tables: []string{backup.TableSales},
	}, by)
	if err != nil {
		return nil, fmt.Errorf("backup before rollback: %w", err)
	}
	report.BackupID = &snapshot.ID

	var rolledBack []*bulk.ImportBatch
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		deleted, err := repos.Sales().DeleteByIDs(ctx, uuidsOf(matched))
		if err != nil {
			return fmt.Errorf("delete imported sales: %w", err)
		}
		report.Deleted = int(deleted)

		for _, id := range report.BatchIDs {
			remaining, err := repos.Sales().CountByImportBatch(ctx, id)
			if err != nil {
				return fmt.Errorf("count sales of batch %s: %w", id, err)
			}
			if remaining > 0 {
				report.PartialBatchIDs = append(report.PartialBatchIDs, id)
				continue
			}
			b, err := repos.Batches().FindByID(ctx, id)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if b.Status != bulk.ImportStatusCompleted {
				continue
			}
			if err := b.MarkRolledBack(by); err != nil {
				return err
			}
			if err := repos.Batches().Save(ctx, b); err != nil {
				return err
			}
			rolledBack = append(rolledBack, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	aggregates := make([]shared.AggregateRoot, len(rolledBack))
	for i, b := range rolledBack {
		aggregates[i] = b
		report.RolledBackBatchIDs = append(report.RolledBackBatchIDs, b.ID)
	}
	s.publish(ctx, aggregates...)
	s.logger.Info("Sales import rolled back",
		zap.Int("deleted", report.Deleted),
		zap.Int("batches_rolled_back", len(rolledBack)),
		zap.Int("batches_partial", len(report.PartialBatchIDs)),
		zap.String("backup_id", snapshot.ID.String()))
	return report, nil
}

// checkRollbackBatch verifies a batch named in the request can be rolled back
func (s *Service) checkRollbackBatch(ctx context.Context, id uuid.UUID) error {
	b, err := s.repos.Batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("IMPORT_BATCH_NOT_FOUND", "İçe aktarma kaydı bulunamadı")
		}
		return err
	}
	switch b.Status {
	case bulk.ImportStatusCompleted:
		return nil
	case bulk.ImportStatusRolledBack:
		return shared.NewDomainError("ALREADY_ROLLED_BACK", "Bu içe aktarma zaten geri alınmış")
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("%s durumundaki içe aktarma geri alınamaz", b.Status))
	}
}

// batchIDsOf lists the distinct import batches of sales in first-seen order
func batchIDsOf(list []*sales.Sale) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, sale := range list {
		if sale.ImportBatchID == nil || seen[*sale.ImportBatchID] {
			continue
		}
		seen[*sale.ImportBatchID] = true
		ids = append(ids, *sale.ImportBatchID)
	}
	return ids
}
