package bulk

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	primapp "github.com/salescrm/backend/internal/application/prim"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// MigrationStatus counts the sales the migration steps would change
func (s *Service) MigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	all, err := s.repos.Sales.FindAllUnpaged(ctx, sales.Filter{})
	if err != nil {
		return nil, err
	}
	withoutPeriod, err := s.repos.Sales.CountWithoutPeriod(ctx)
	if err != nil {
		return nil, err
	}
	orphaned, err := s.repos.Sales.CountOrphaned(ctx)
	if err != nil {
		return nil, err
	}
	rate := s.currentRate(ctx)

	status := &MigrationStatus{
		TotalSales:         len(all),
		WithoutPeriod:      withoutPeriod,
		WithoutSalesperson: orphaned,
	}
	for _, sale := range all {
		if needsRecalculation(sale, rateOf(sale, rate)) {
			status.PrimMismatch++
		}
		if sales.CanonicalContractNo(sale.ContractNo) != sale.ContractNo {
			status.ContractsToNormalize++
		}
	}
	return status, nil
}

// RunMigration applies the selected steps to the sales in the date range.
// A dry run computes the same report inside a transaction that is rolled back.
func (s *Service) RunMigration(ctx context.Context, input RunInput, by uuid.UUID) (*MigrationReport, error) {
	steps, err := normalizeSteps(input.Steps)
	if err != nil {
		return nil, err
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Bitiş tarihi başlangıç tarihinden önce olamaz")
	}

	report := &MigrationReport{DryRun: input.DryRun}
	if !input.DryRun {
		snapshot, err := s.backups.Create(ctx, appbackup.CreateInput{
			Name:   "Veri taşıma öncesi",
			Type:   backup.TypePreMigration,
			Tables: []string{backup.TableSales, backup.TablePrimPeriods},
		}, by)
		if err != nil {
			return nil, fmt.Errorf("backup before migration: %w", err)
		}
		report.BackupID = &snapshot.ID
	}

	var calc *primapp.Calculator
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		report.Steps = report.Steps[:0]
		calc = primapp.NewCalculator(repos.Rates(), repos.Periods(), by)
		filter := sales.Filter{DateFrom: input.StartDate, DateTo: input.EndDate, SortBy: "created_at", SortOrder: "asc"}
		all, err := repos.Sales().FindAllUnpaged(ctx, filter)
		if err != nil {
			return err
		}

		changed := make(map[uuid.UUID]*sales.Sale)
		for _, step := range steps {
			var r *StepReport
			switch step {
			case StepNormalizeContracts:
				r, err = s.normalizeContracts(ctx, repos, all, changed)
			case StepAssignPeriods:
				r, err = assignPeriods(ctx, calc, all, changed)
			case StepRecalculatePrims:
				r, err = recalculatePrims(ctx, calc, all, changed)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", step, err)
			}
			report.Steps = append(report.Steps, *r)
		}

		for _, sale := range changed {
			if err := repos.Sales().Update(ctx, sale); err != nil {
				return fmt.Errorf("update sale %s: %w", sale.ContractNo, err)
			}
		}
		if input.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		s.logger.Error("Migration failed", zap.Strings("steps", steps), zap.Error(err))
		return nil, err
	}

	if !input.DryRun {
		s.publish(ctx, calc.Aggregates()...)
		s.logger.Info("Migration applied", zap.Strings("steps", steps), zap.Any("backup_id", report.BackupID))
	}
	return report, nil
}

func normalizeSteps(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, shared.NewDomainError("INVALID_STEPS", "En az bir adım seçilmelidir")
	}
	for _, step := range requested {
		if !slices.Contains(stepOrder, step) {
			return nil, shared.NewDomainError("INVALID_STEPS", "Bilinmeyen adım: "+step)
		}
	}
	steps := make([]string, 0, len(stepOrder))
	for _, step := range stepOrder {
		if slices.Contains(requested, step) {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

// normalizeContracts rewrites contract numbers to their canonical spelling,
// skipping sales whose canonical number is already taken
func (s *Service) normalizeContracts(ctx context.Context, repos TransactionalRepositories, all []*sales.Sale, changed map[uuid.UUID]*sales.Sale) (*StepReport, error) {
	r := &StepReport{Step: StepNormalizeContracts, Examined: len(all), Samples: make([]Change, 0)}
	taken := make(map[string]uuid.UUID, len(all))
	for _, sale := range all {
		taken[sale.ContractNo] = sale.ID
	}

	for _, sale := range all {
		target := sales.CanonicalContractNo(sale.ContractNo)
		if target == sale.ContractNo {
			continue
		}
		if owner, ok := taken[target]; ok && owner != sale.ID {
			r.Skipped++
			continue
		}
		exists, err := repos.Sales().ExistsByContractNo(ctx, target, &sale.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			r.Skipped++
			continue
		}

		before := sale.ContractNo
		sale.NormalizeContractNo()
		delete(taken, before)
		taken[target] = sale.ID
		changed[sale.ID] = sale
		r.record(sale, "contract_no", before, target)
	}
	return r, nil
}

// assignPeriods sets the dönem of sales that have none
func assignPeriods(ctx context.Context, calc *primapp.Calculator, all []*sales.Sale, changed map[uuid.UUID]*sales.Sale) (*StepReport, error) {
	r := &StepReport{Step: StepAssignPeriods, Samples: make([]Change, 0)}
	for _, sale := range all {
		if sale.PrimPeriodID != nil {
			continue
		}
		r.Examined++
		date := sale.PrimDate()
		period, err := calc.Period(ctx, int(date.Month()), date.Year())
		if err != nil {
			return nil, err
		}
		sale.AssignPeriod(period.ID)
		changed[sale.ID] = sale
		r.record(sale, "prim_period", "", period.Name)
	}
	return r, nil
}

// recalculatePrims fixes unpaid prims that differ from the stored rate's result.
// Paid and cancelled sales are left alone.
func recalculatePrims(ctx context.Context, calc *primapp.Calculator, all []*sales.Sale, changed map[uuid.UUID]*sales.Sale) (*StepReport, error) {
	r := &StepReport{Step: StepRecalculatePrims, Samples: make([]Change, 0)}
	current, err := calc.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	for _, sale := range all {
		if sale.Status != sales.StatusActive || sale.PrimStatus == sales.PrimStatusPaid {
			continue
		}
		r.Examined++
		rate := rateOf(sale, current)
		if !needsRecalculation(sale, rate) {
			continue
		}
		before := sale.PrimAmount.StringFixed(2)
		if err := calc.ApplyAt(ctx, sale, rate); err != nil {
			return nil, err
		}
		changed[sale.ID] = sale
		r.record(sale, "prim_amount", before, sale.PrimAmount.StringFixed(2))
	}
	return r, nil
}

func (r *StepReport) record(sale *sales.Sale, field, before, after string) {
	r.Changed++
	if len(r.Samples) < sampleLimit {
		r.Samples = append(r.Samples, Change{
			SaleID: sale.ID, ContractNo: sale.ContractNo, Field: field, Before: before, After: after,
		})
	}
}

// rateOf is the rate a sale was calculated with, current when it never earned prim
func rateOf(sale *sales.Sale, current decimal.Decimal) decimal.Decimal {
	if sale.PrimRate.IsPositive() {
		return sale.PrimRate
	}
	return current
}

func needsRecalculation(sale *sales.Sale, rate decimal.Decimal) bool {
	if sale.Status != sales.StatusActive || sale.PrimStatus == sales.PrimStatusPaid {
		return false
	}
	base, amount := sale.ExpectedPrim(rate)
	return !amount.Equal(sale.PrimAmount) || !base.Equal(sale.BasePrimPrice)
}
