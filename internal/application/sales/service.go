// Package sales contains the sale and kapora use cases.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	primapp "github.com/salescrm/backend/internal/application/prim"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/paymentmethod"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
)

// SheetWriter renders a single-sheet workbook
type SheetWriter interface {
	WriteSheet(sheet string, headers []string, rows [][]any) ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service handles sales and kapora records
type Service struct {
	sales          sales.SaleRepository
	users          identity.UserRepository
	paymentMethods paymentmethod.Repository
	settings       settings.Repository
	rates          prim.RateRepository
	periods        prim.PeriodRepository
	writer         SheetWriter
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new sales service
func NewService(
	saleRepo sales.SaleRepository,
	users identity.UserRepository,
	paymentMethods paymentmethod.Repository,
	settingRepo settings.Repository,
	rates prim.RateRepository,
	periods prim.PeriodRepository,
	writer SheetWriter,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		sales:          saleRepo,
		users:          users,
		paymentMethods: paymentMethods,
		settings:       settingRepo,
		rates:          rates,
		periods:        periods,
		writer:         writer,
		publisher:      publisher,
		logger:         logger,
	}
}

// List returns a page of sales visible to the viewer
func (s *Service) List(ctx context.Context, viewer Viewer, input ListInput) (*shared.Paginated[SaleDTO], error) {
	filter, err := s.buildFilter(viewer, input)
	if err != nil {
		return nil, err
	}
	items, total, err := s.sales.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	n, err := s.resolveNames(ctx, items)
	if err != nil {
		return nil, err
	}

	dtos := make([]SaleDTO, len(items))
	for i, item := range items {
		dtos[i] = ToSaleDTO(item, n)
	}
	page := shared.NewPaginated(dtos, total, max(filter.Page, 1), filter.Limit())
	return &page, nil
}

func (s *Service) buildFilter(viewer Viewer, input ListInput) (sales.Filter, error) {
	filter := sales.NewFilter()
	filter.Search = strings.TrimSpace(input.Search)
	filter.SalespersonID = input.SalespersonID
	filter.PrimPeriodID = input.PrimPeriodID
	filter.DateFrom = input.DateFrom
	filter.DateTo = input.DateTo
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if input.SortBy != "" {
		filter.SortBy = input.SortBy
		filter.SortOrder = input.SortOrder
	}

	if input.SaleType != "" {
		t := sales.SaleType(input.SaleType)
		if !t.IsValid() {
			return filter, shared.NewDomainError("INVALID_SALE_TYPE", "Geçersiz satış türü: "+input.SaleType)
		}
		filter.SaleType = &t
	}
	if input.Status != "" {
		st := sales.Status(input.Status)
		if st != sales.StatusActive && st != sales.StatusCancelled {
			return filter, shared.NewDomainError("INVALID_STATUS", "Geçersiz satış durumu: "+input.Status)
		}
		filter.Status = &st
	}
	if input.PrimStatus != "" {
		ps := sales.PrimStatus(input.PrimStatus)
		if !ps.IsValid() {
			return filter, shared.NewDomainError("INVALID_PRIM_STATUS", "Geçersiz prim durumu: "+input.PrimStatus)
		}
		filter.PrimStatus = &ps
	}

	if !viewer.ReadAll {
		own := viewer.UserID
		filter.SalespersonID = &own
	}
	return filter, nil
}

// Get returns one sale
func (s *Service) Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, sale)
}

// Create adds a sale or kapora. The salesperson defaults to the caller.
func (s *Service) Create(ctx context.Context, viewer Viewer, input SaleInput) (*SaleDTO, error) {
	salespersonID := viewer.UserID
	if input.SalespersonID != nil && *input.SalespersonID != uuid.Nil {
		salespersonID = *input.SalespersonID
	}
	if salespersonID != viewer.UserID && !viewer.ReadAll {
		return nil, shared.NewDomainError("FORBIDDEN", "Yalnızca kendiniz için satış oluşturabilirsiniz")
	}
	if err := s.checkSalesperson(ctx, salespersonID); err != nil {
		return nil, err
	}

	details := input.details(salespersonID)
	method, err := s.resolvePaymentMethod(ctx, details.PaymentMethod)
	if err != nil {
		return nil, err
	}
	details.PaymentMethod = method

	sale, err := sales.NewSale(details, sales.SourceManual, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, sale, nil); err != nil {
		return nil, err
	}

	calc := primapp.NewCalculator(s.rates, s.periods, viewer.UserID)
	if err := calc.Apply(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, contractExists(sale.ContractNo)
		}
		s.logger.Error("Failed to create sale", zap.String("contract_no", sale.ContractNo), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Satış kaydedilemedi")
	}
	s.publish(ctx, sale, calc)

	s.logger.Info("Sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("contract_no", sale.ContractNo),
		zap.String("prim_amount", sale.PrimAmount.String()))
	return s.toDTO(ctx, sale)
}

// Update replaces the editable fields and recalculates the prim.
// The rate stored on the sale is kept; sales without one get the current rate.
func (s *Service) Update(ctx context.Context, viewer Viewer, id uuid.UUID, input SaleInput) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	salespersonID := sale.SalespersonID
	if input.SalespersonID != nil && *input.SalespersonID != uuid.Nil && *input.SalespersonID != salespersonID {
		if !viewer.ReadAll {
			return nil, shared.NewDomainError("FORBIDDEN", "Satışı başka bir satış temsilcisine atayamazsınız")
		}
		if err := s.checkSalesperson(ctx, *input.SalespersonID); err != nil {
			return nil, err
		}
		salespersonID = *input.SalespersonID
	}

	details := input.details(salespersonID)
	if !strings.EqualFold(strings.TrimSpace(details.PaymentMethod), sale.PaymentMethod) {
		method, err := s.resolvePaymentMethod(ctx, details.PaymentMethod)
		if err != nil {
			return nil, err
		}
		details.PaymentMethod = method
	} else {
		details.PaymentMethod = sale.PaymentMethod
	}

	if err := sale.Update(details); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, sale, &sale.ID); err != nil {
		return nil, err
	}

	calc := primapp.NewCalculator(s.rates, s.periods, viewer.UserID)
	if sale.PrimRate.IsPositive() {
		err = calc.ApplyAt(ctx, sale, sale.PrimRate)
	} else {
		err = calc.Apply(ctx, sale)
	}
	if err != nil {
		return nil, err
	}
	return s.save(ctx, sale, calc)
}

// Cancel marks a sale cancelled
func (s *Service) Cancel(ctx context.Context, viewer Viewer, id uuid.UUID, reason string) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := sale.Cancel(reason, viewer.UserID); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, nil)
}

// Restore reactivates a cancelled sale
func (s *Service) Restore(ctx context.Context, viewer Viewer, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := sale.Restore(); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, nil)
}

// SetPrimStatus marks the prim paid or unpaid
func (s *Service) SetPrimStatus(ctx context.Context, viewer Viewer, id uuid.UUID, status string) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := sale.SetPrimStatus(sales.PrimStatus(status)); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, nil)
}

// Convert turns a kapora into a normal sale and calculates its prim at the current rate
func (s *Service) Convert(ctx context.Context, viewer Viewer, id uuid.UUID, input ConvertInput) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := sale.ConvertKapora(input.SaleDate, input.ContractDate, input.ActivitySalePrice); err != nil {
		return nil, err
	}

	calc := primapp.NewCalculator(s.rates, s.periods, viewer.UserID)
	if err := calc.Apply(ctx, sale); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, calc)
}

// Transfer moves the sale to another active salesperson
func (s *Service) Transfer(ctx context.Context, viewer Viewer, id uuid.UUID, input TransferInput) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkSalesperson(ctx, input.SalespersonID); err != nil {
		return nil, err
	}
	if err := sale.TransferTo(input.SalespersonID, input.Reason, viewer.UserID); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, nil)
}

// SetNotes replaces the notes of a sale
func (s *Service) SetNotes(ctx context.Context, viewer Viewer, id uuid.UUID, notes string) (*SaleDTO, error) {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := sale.SetNotes(notes); err != nil {
		return nil, err
	}
	return s.save(ctx, sale, nil)
}

// Delete removes a sale permanently
func (s *Service) Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error {
	sale, err := s.load(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.sales.Delete(ctx, sale.ID); err != nil {
		return err
	}
	sale.AddDomainEvent(sales.NewSaleEvent(sale, sales.EventTypeSaleDeleted))
	s.publish(ctx, sale, nil)

	s.logger.Info("Sale deleted",
		zap.String("sale_id", sale.ID.String()),
		zap.String("contract_no", sale.ContractNo))
	return nil
}

var exportHeaders = []string{
	"Sözleşme No", "Müşteri", "Telefon", "Blok", "Daire", "Dönem No", "Tür",
	"Satış Tarihi", "Kapora Tarihi", "Sözleşme Tarihi", "Liste Fiyatı", "İndirim %",
	"İndirimli Liste Fiyatı", "Aktivite Satış Fiyatı", "Ödeme Yöntemi", "Temsilci",
	"Prim Dönemi", "Prim Oranı", "Prim Tutarı", "Prim Durumu", "Durum", "Notlar",
}

// Export renders the filtered sales list, ignoring pagination, as an xlsx workbook
func (s *Service) Export(ctx context.Context, viewer Viewer, input ListInput) (*ExportFile, error) {
	filter, err := s.buildFilter(viewer, input)
	if err != nil {
		return nil, err
	}
	items, err := s.sales.FindAllUnpaged(ctx, filter)
	if err != nil {
		return nil, err
	}
	n, err := s.resolveNames(ctx, items)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(items))
	for i, item := range items {
		d := ToSaleDTO(item, n)
		rows[i] = []any{
			d.ContractNo, d.CustomerName, d.CustomerPhone, d.BlockNo, d.ApartmentNo, d.PeriodNo, d.SaleType,
			formatDate(d.SaleDate), formatDate(d.KaporaDate), formatDate(d.ContractDate),
			d.ListPrice.InexactFloat64(), d.DiscountRate.InexactFloat64(),
			d.DiscountedListPrice.InexactFloat64(), d.ActivitySalePrice.InexactFloat64(),
			d.PaymentMethod, d.SalespersonName, d.PrimPeriodName,
			d.PrimRate.InexactFloat64(), d.PrimAmount.InexactFloat64(),
			d.PrimStatus, d.Status, d.Notes,
		}
	}

	data, err := s.writer.WriteSheet("Satışlar", exportHeaders, rows)
	if err != nil {
		return nil, fmt.Errorf("render sales export: %w", err)
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("satislar_%s.xlsx", time.Now().Format("20060102_150405")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}

func (s *Service) load(ctx context.Context, viewer Viewer, id uuid.UUID) (*sales.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SALE_NOT_FOUND", "Satış bulunamadı")
		}
		return nil, err
	}
	if !viewer.CanSee(sale) {
		return nil, shared.NewDomainError("FORBIDDEN", "Yalnızca kendi satışlarınıza erişebilirsiniz")
	}
	return sale, nil
}

func (s *Service) save(ctx context.Context, sale *sales.Sale, calc *primapp.Calculator) (*SaleDTO, error) {
	if err := s.sales.Update(ctx, sale); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, contractExists(sale.ContractNo)
		}
		s.logger.Error("Failed to update sale", zap.String("sale_id", sale.ID.String()), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, sale, calc)
	return s.toDTO(ctx, sale)
}

func (s *Service) publish(ctx context.Context, sale *sales.Sale, calc *primapp.Calculator) {
	aggregates := []shared.AggregateRoot{sale}
	if calc != nil {
		aggregates = append(aggregates, calc.Aggregates()...)
	}
	if err := shared.PublishEvents(ctx, s.publisher, aggregates...); err != nil {
		s.logger.Warn("Failed to publish sale events", zap.String("sale_id", sale.ID.String()), zap.Error(err))
	}
}

func (s *Service) checkSalesperson(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("SALESPERSON_NOT_FOUND", "Satış temsilcisi bulunamadı")
		}
		return err
	}
	if !user.IsActive() {
		return shared.NewDomainError("SALESPERSON_INACTIVE", "Satış temsilcisi aktif değil: "+user.DisplayName())
	}
	return nil
}

// resolvePaymentMethod returns the stored name of an active method; empty selects the default
func (s *Service) resolvePaymentMethod(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		def, err := s.paymentMethods.FindDefault(ctx)
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return def.Name, nil
	}

	pm, err := s.paymentMethods.FindByName(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Bilinmeyen ödeme yöntemi: "+name)
	}
	if err != nil {
		return "", err
	}
	if !pm.IsActive {
		return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Ödeme yöntemi aktif değil: "+pm.Name)
	}
	return pm.Name, nil
}

func (s *Service) checkUnique(ctx context.Context, sale *sales.Sale, excludeID *uuid.UUID) error {
	exists, err := s.sales.ExistsByContractNo(ctx, sale.ContractNo, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return contractExists(sale.ContractNo)
	}

	if s.allowDuplicateCustomer(ctx) {
		return nil
	}
	exists, err = s.sales.ExistsActiveByCustomer(ctx, sale.CustomerName, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("DUPLICATE_CUSTOMER", "Bu müşteri için zaten aktif bir satış var: "+sale.CustomerName)
	}
	return nil
}

func (s *Service) allowDuplicateCustomer(ctx context.Context) bool {
	setting, err := s.settings.FindByKey(ctx, settings.KeyAllowDuplicateCustomer)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to read setting", zap.String("key", settings.KeyAllowDuplicateCustomer), zap.Error(err))
		}
		setting = settings.DefaultFor(settings.KeyAllowDuplicateCustomer)
	}
	return setting.Bool(true)
}

func contractExists(contractNo string) error {
	return shared.NewDomainError("CONTRACT_NO_EXISTS", "Sözleşme numarası zaten var: "+contractNo)
}

func (s *Service) toDTO(ctx context.Context, sale *sales.Sale) (*SaleDTO, error) {
	n, err := s.resolveNames(ctx, []*sales.Sale{sale})
	if err != nil {
		return nil, err
	}
	dto := ToSaleDTO(sale, n)
	return &dto, nil
}

// resolveNames loads the salesperson and period names referenced by items
func (s *Service) resolveNames(ctx context.Context, items []*sales.Sale) (*names, error) {
	n := &names{
		users:   make(map[uuid.UUID]string),
		periods: make(map[uuid.UUID]string),
	}
	if len(items) == 0 {
		return n, nil
	}

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(items))
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	needPeriods := false
	for _, item := range items {
		add(item.SalespersonID)
		for _, t := range item.Transfers {
			add(t.FromSalespersonID)
			add(t.ToSalespersonID)
		}
		needPeriods = needPeriods || item.PrimPeriodID != nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		n.users[u.ID] = u.DisplayName()
	}

	if needPeriods {
		periods, err := s.periods.FindAll(ctx, false)
		if err != nil {
			return nil, err
		}
		for _, p := range periods {
			n.periods[p.ID] = p.Name
		}
	}
	return n, nil
}
