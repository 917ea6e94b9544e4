package prim

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// Service manages prim rates, periods and the earnings report
type Service struct {
	rates     prim.RateRepository
	periods   prim.PeriodRepository
	sales     sales.SaleRepository
	users     identity.UserRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new prim service
func NewService(
	rates prim.RateRepository,
	periods prim.PeriodRepository,
	saleRepo sales.SaleRepository,
	users identity.UserRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		rates:     rates,
		periods:   periods,
		sales:     saleRepo,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// NewCalculator returns a calculator over the service's repositories
func (s *Service) NewCalculator(actor uuid.UUID) *Calculator {
	return NewCalculator(s.rates, s.periods, actor)
}

// GetCurrentRate returns the active rate. Without any configured rate the default is returned.
func (s *Service) GetCurrentRate(ctx context.Context) (*RateDTO, error) {
	rate, err := s.rates.FindActive(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return &RateDTO{Rate: prim.DefaultRate, IsActive: true, IsDefault: true}, nil
	}
	if err != nil {
		return nil, err
	}
	dto := ToRateDTO(rate)
	return &dto, nil
}

// ListRates returns the rate history, newest first
func (s *Service) ListRates(ctx context.Context) ([]RateDTO, error) {
	rates, err := s.rates.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RateDTO, len(rates))
	for i, r := range rates {
		out[i] = ToRateDTO(r)
	}
	return out, nil
}

// SetRate stores a new active rate; the previous one is deactivated.
// Existing sales keep the prim they were calculated with.
func (s *Service) SetRate(ctx context.Context, input SetRateInput) (*RateDTO, error) {
	effectiveFrom := time.Now()
	if input.EffectiveFrom != nil {
		effectiveFrom = *input.EffectiveFrom
	}
	rate, err := prim.NewRate(input.Rate, input.Description, effectiveFrom, input.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.rates.Activate(ctx, rate); err != nil {
		s.logger.Error("Failed to activate prim rate", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Prim oranı kaydedilemedi")
	}
	if err := shared.PublishEvents(ctx, s.publisher, rate); err != nil {
		s.logger.Warn("Failed to publish prim rate events", zap.Error(err))
	}

	s.logger.Info("Prim rate changed",
		zap.String("rate", rate.Rate.String()),
		zap.String("rate_id", rate.ID.String()))

	dto := ToRateDTO(rate)
	return &dto, nil
}

// ListPeriods returns the dönem list, newest first
func (s *Service) ListPeriods(ctx context.Context, onlyActive bool) ([]PeriodDTO, error) {
	periods, err := s.periods.FindAll(ctx, onlyActive)
	if err != nil {
		return nil, err
	}
	out := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		out[i] = ToPeriodDTO(p)
	}
	return out, nil
}

// CreatePeriod creates the dönem of a month; each month exists once
func (s *Service) CreatePeriod(ctx context.Context, input CreatePeriodInput) (*PeriodDTO, error) {
	period, err := prim.NewPeriod(input.Month, input.Year, input.CreatedBy)
	if err != nil {
		return nil, err
	}

	if _, err := s.periods.FindByMonth(ctx, input.Month, input.Year); err == nil {
		return nil, shared.NewDomainError("PERIOD_EXISTS", "Bu ay için prim dönemi zaten var: "+period.Name)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if err := s.periods.Create(ctx, period); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("PERIOD_EXISTS", "Bu ay için prim dönemi zaten var: "+period.Name)
		}
		return nil, err
	}
	if err := shared.PublishEvents(ctx, s.publisher, period); err != nil {
		s.logger.Warn("Failed to publish prim period events", zap.Error(err))
	}

	dto := ToPeriodDTO(period)
	return &dto, nil
}

// TogglePeriod flips the active flag of a dönem
func (s *Service) TogglePeriod(ctx context.Context, id uuid.UUID) (*PeriodDTO, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	period.ToggleActive()
	if err := s.periods.Update(ctx, period); err != nil {
		return nil, err
	}
	if err := shared.PublishEvents(ctx, s.publisher, period); err != nil {
		s.logger.Warn("Failed to publish prim period events", zap.Error(err))
	}

	dto := ToPeriodDTO(period)
	return &dto, nil
}

// Earnings summarises prim per salesperson, optionally for one period and one salesperson
func (s *Service) Earnings(ctx context.Context, input EarningsInput) (*EarningsResult, error) {
	result := &EarningsResult{
		Items:      make([]EarningDTO, 0),
		TotalPrim:  decimal.Zero,
		PaidPrim:   decimal.Zero,
		UnpaidPrim: decimal.Zero,
	}
	if input.PeriodID != nil {
		period, err := s.periods.FindByID(ctx, *input.PeriodID)
		if err != nil {
			return nil, err
		}
		dto := ToPeriodDTO(period)
		result.Period = &dto
	}

	rows, err := s.sales.Earnings(ctx, sales.EarningsFilter{
		PrimPeriodID:  input.PeriodID,
		SalespersonID: input.SalespersonID,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.SalespersonID
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.DisplayName()
		}
	}

	for _, row := range rows {
		result.Items = append(result.Items, EarningDTO{
			SalespersonID:   row.SalespersonID,
			SalespersonName: names[row.SalespersonID],
			SaleCount:       row.SaleCount,
			KaporaCount:     row.KaporaCount,
			TotalPrim:       row.TotalPrim,
			PaidPrim:        row.PaidPrim,
			UnpaidPrim:      row.UnpaidPrim,
		})
		result.TotalPrim = result.TotalPrim.Add(row.TotalPrim)
		result.PaidPrim = result.PaidPrim.Add(row.PaidPrim)
		result.UnpaidPrim = result.UnpaidPrim.Add(row.UnpaidPrim)
	}
	return result, nil
}
