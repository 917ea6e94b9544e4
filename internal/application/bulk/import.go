package bulk

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	primapp "github.com/salescrm/backend/internal/application/prim"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var supportedExtensions = map[string]struct{}{".xlsx": {}, ".xls": {}, ".csv": {}}

// importMode separates regular imports from historical migration uploads
type importMode struct {
	kind            bulk.BatchKind
	source          sales.Source
	backupType      backup.Type
	includeInactive bool
}

var (
	regularImport = importMode{
		kind:       bulk.BatchKindImport,
		source:     sales.SourceImport,
		backupType: backup.TypePreImport,
	}
	historicalImport = importMode{
		kind:            bulk.BatchKindMigration,
		source:          sales.SourceMigration,
		backupType:      backup.TypePreMigration,
		includeInactive: true,
	}
)

// analysis is a validated file ready to be committed
type analysis struct {
	report   *ImportReport
	rows     []*parsedRow
	existing map[string]*sales.Sale
	errs     rowErrors
}

// Template renders the import template with one sample row
func (s *Service) Template(_ context.Context) (*ExportFile, error) {
	headers := make([]string, len(templateColumns))
	sample := make([]any, len(templateColumns))
	for i, c := range templateColumns {
		headers[i] = c.header
		sample[i] = c.sample
	}
	data, err := s.writer.WriteSheet("Satışlar", headers, [][]any{sample})
	if err != nil {
		return nil, fmt.Errorf("render import template: %w", err)
	}
	return &ExportFile{
		FileName:    "satis_ice_aktarma_sablonu.xlsx",
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// Upload validates a sales file and, unless it is a dry run, imports it
func (s *Service) Upload(ctx context.Context, input UploadInput, by uuid.UUID) (*ImportReport, error) {
	return s.upload(ctx, input, by, regularImport)
}

// UploadHistorical imports legacy sales with source=migration. Inactive
// salespeople are accepted and a backup is always taken before writing.
func (s *Service) UploadHistorical(ctx context.Context, input UploadInput, by uuid.UUID) (*ImportReport, error) {
	return s.upload(ctx, input, by, historicalImport)
}

func (s *Service) upload(ctx context.Context, input UploadInput, by uuid.UUID, mode importMode) (*ImportReport, error) {
	conflictMode, err := bulk.ParseConflictMode(input.ConflictMode)
	if err != nil {
		return nil, err
	}
	sheet, err := s.readFile(input)
	if err != nil {
		return nil, err
	}
	a, err := s.analyze(ctx, sheet, conflictMode, mode)
	if err != nil {
		return nil, err
	}
	a.report.DryRun = input.DryRun
	a.report.FileName = input.FileName
	if input.DryRun {
		return a.report, nil
	}

	if conflictMode == bulk.ConflictModeFail && (len(a.errs) > 0 || a.conflicts() > 0) {
		return nil, shared.NewDomainError("IMPORT_CONFLICT",
			fmt.Sprintf("İçe aktarma durduruldu: %d hatalı satır, %d mevcut sözleşme", a.report.ErrorRows, a.conflicts()))
	}
	if a.report.ToCreate+a.report.ToUpdate == 0 {
		return nil, shared.NewDomainError("NOTHING_TO_IMPORT", "Dosyada içe aktarılacak geçerli satır yok")
	}
	if err := s.commit(ctx, a, input, conflictMode, mode, by); err != nil {
		return nil, err
	}
	return a.report, nil
}

// conflicts counts rows whose contract number already exists
func (a *analysis) conflicts() int {
	n := 0
	for _, d := range a.report.Duplicates {
		if !d.InFile {
			n++
		}
	}
	return n
}

func (s *Service) readFile(input UploadInput) (*Sheet, error) {
	ext := strings.ToLower(filepath.Ext(input.FileName))
	if _, ok := supportedExtensions[ext]; !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "Yalnızca .xlsx, .xls ve .csv dosyaları desteklenir")
	}
	if input.Size > s.opts.MaxFileSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("Dosya boyutu %d MB sınırını aşıyor", s.opts.MaxFileSize>>20))
	}
	sheet, err := s.reader.Read(input.FileName, input.Body)
	if err != nil {
		s.logger.Info("Unreadable import file", zap.String("file", input.FileName), zap.Error(err))
		return nil, shared.NewDomainError("INVALID_FILE", "Dosya okunamadı: "+err.Error())
	}
	return sheet, nil
}

// analyze parses every row, resolves names and classifies contract conflicts
func (s *Service) analyze(ctx context.Context, sheet *Sheet, conflictMode bulk.ConflictMode, mode importMode) (*analysis, error) {
	cols, unknown := mapColumns(sheet.Headers)
	if missing := cols.missing(); len(missing) > 0 {
		return nil, shared.NewDomainError("MISSING_COLUMNS", "Eksik sütunlar: "+strings.Join(missing, ", "))
	}
	if len(sheet.Rows) == 0 {
		return nil, shared.NewDomainError("EMPTY_FILE", "Dosyada veri satırı yok")
	}
	if limit := s.maxRows(ctx); len(sheet.Rows) > limit {
		return nil, shared.NewDomainError("TOO_MANY_ROWS",
			fmt.Sprintf("Dosya en fazla %d satır içerebilir, %d satır bulundu", limit, len(sheet.Rows)))
	}

	users, err := s.repos.Users.FindSalespeople(ctx, mode.includeInactive)
	if err != nil {
		return nil, fmt.Errorf("load salespeople: %w", err)
	}
	methods, err := s.repos.PaymentMethods.FindAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("load payment methods: %w", err)
	}
	l := newLookups(users, methods, s.opts.Location)

	a := &analysis{
		report: &ImportReport{
			ConflictMode:   string(conflictMode),
			TotalRows:      len(sheet.Rows),
			Errors:         make([]bulk.ErrorDetail, 0),
			Duplicates:     make([]Duplicate, 0),
			UnknownColumns: unknown,
			Preview:        make([]PreviewRow, 0),
		},
		existing: make(map[string]*sales.Sale),
	}

	firstRow := make(map[string]int)
	for _, row := range sheet.Rows {
		parsed, errs := l.parseRow(cols, row)
		if len(errs) > 0 {
			a.errs = append(a.errs, errs...)
			continue
		}
		key := parsed.Details.ContractNo
		if first, dup := firstRow[key]; dup {
			a.errs.add(row.Number, ColContractNo, "DUPLICATE_IN_FILE",
				fmt.Sprintf("Sözleşme no dosyada tekrar ediyor (ilk satır %d)", first), key)
			a.report.Duplicates = append(a.report.Duplicates, Duplicate{
				Row: row.Number, ContractNo: key, InFile: true, FirstRow: first, Action: ActionSkip,
			})
			continue
		}
		firstRow[key] = row.Number
		a.rows = append(a.rows, parsed)
	}

	if err := s.matchExisting(ctx, a); err != nil {
		return nil, err
	}
	s.classify(ctx, a, conflictMode)
	return a, nil
}

func (s *Service) matchExisting(ctx context.Context, a *analysis) error {
	if len(a.rows) == 0 {
		return nil
	}
	contractNos := make([]string, len(a.rows))
	for i, r := range a.rows {
		contractNos[i] = r.Details.ContractNo
	}
	found, err := s.repos.Sales.FindByContractNos(ctx, contractNos)
	if err != nil {
		return fmt.Errorf("load existing sales: %w", err)
	}
	for _, sale := range found {
		a.existing[sale.ContractNo] = sale
	}
	return nil
}

// classify decides the action of each valid row and fills the counters and preview
func (s *Service) classify(ctx context.Context, a *analysis, conflictMode bulk.ConflictMode) {
	rate := s.currentRate(ctx)
	r := a.report
	for _, row := range a.rows {
		action := ActionCreate
		if existing, ok := a.existing[row.Details.ContractNo]; ok {
			switch conflictMode {
			case bulk.ConflictModeUpdate:
				action = ActionUpdate
				r.ToUpdate++
			case bulk.ConflictModeFail:
				action = ActionFail
			default:
				action = ActionSkip
				r.ToSkip++
			}
			id := existing.ID
			r.Duplicates = append(r.Duplicates, Duplicate{
				Row: row.Number, ContractNo: row.Details.ContractNo, ExistingSaleID: &id, Action: action,
			})
		} else {
			r.ToCreate++
		}
		if len(r.Preview) < s.opts.PreviewRows {
			r.Preview = append(r.Preview, previewOf(row, action, rate))
		}
	}
	r.ValidRows = len(a.rows)
	r.Errors = append(r.Errors, a.errs...)
	r.ErrorRows = countErrorRows(a.errs)
}

func previewOf(row *parsedRow, action string, rate decimal.Decimal) PreviewRow {
	d := row.Details
	amount := decimal.Zero
	if d.SaleType == sales.SaleTypeNormal {
		base := sales.BasePrimPrice(sales.DiscountedPrice(d.ListPrice, d.DiscountRate), d.ActivitySalePrice)
		amount = prim.CalculatePrim(base, rate)
	}
	return PreviewRow{
		Row:               row.Number,
		Action:            action,
		ContractNo:        d.ContractNo,
		CustomerName:      d.CustomerName,
		SaleType:          string(d.SaleType),
		SaleDate:          formatCell(d.SaleDate),
		KaporaDate:        formatCell(d.KaporaDate),
		ListPrice:         d.ListPrice,
		DiscountRate:      d.DiscountRate,
		ActivitySalePrice: d.ActivitySalePrice,
		PaymentMethod:     d.PaymentMethod,
		Salesperson:       row.SalespersonName,
		PrimAmount:        amount,
	}
}

// commit takes the backup and writes all rows in one transaction
func (s *Service) commit(ctx context.Context, a *analysis, input UploadInput, conflictMode bulk.ConflictMode, mode importMode, by uuid.UUID) error {
	snapshot, err := s.backups.Create(ctx, appbackup.CreateInput{
		Name:   fmt.Sprintf("İçe aktarma öncesi: %s", input.FileName),
		Type:   mode.backupType,
		Tables: []string{backup.TableSales},
	}, by)
	if err != nil {
		return fmt.Errorf("backup before import: %w", err)
	}

	batch, err := bulk.NewImportBatch(mode.kind, input.FileName, input.Size, conflictMode, by)
	if err != nil {
		return err
	}
	if err := batch.StartProcessing(a.report.TotalRows, &snapshot.ID); err != nil {
		return err
	}

	var calc *primapp.Calculator
	errs := append(rowErrors(nil), a.errs...)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		calc = primapp.NewCalculator(repos.Rates(), repos.Periods(), by)
		created := make([]*sales.Sale, 0, a.report.ToCreate)
		updated, skipped := 0, 0

		for _, row := range a.rows {
			if existing, ok := a.existing[row.Details.ContractNo]; ok {
				if conflictMode != bulk.ConflictModeUpdate {
					skipped++
					continue
				}
				if err := s.updateExisting(ctx, repos, calc, existing, row); err != nil {
					if de, ok := shared.AsDomainError(err); ok {
						errs.add(row.Number, "", de.Code, de.Message, row.Details.ContractNo)
						continue
					}
					return err
				}
				updated++
				continue
			}

			sale, err := sales.NewSale(row.Details, mode.source, by)
			if err != nil {
				if de, ok := shared.AsDomainError(err); ok {
					errs.add(row.Number, "", de.Code, de.Message, row.Details.ContractNo)
					continue
				}
				return err
			}
			sale.MarkImported(batch.ID)
			if err := calc.Apply(ctx, sale); err != nil {
				return err
			}
			created = append(created, sale)
		}

		if err := repos.Sales().CreateBatch(ctx, created); err != nil {
			return fmt.Errorf("insert sales: %w", err)
		}
		if err := batch.Complete(uuidsOf(created), updated, skipped, errs); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		s.recordFailure(ctx, batch, err)
		return err
	}

	s.publish(ctx, append([]shared.AggregateRoot{batch}, calc.Aggregates()...)...)
	s.logger.Info("Sales import committed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("kind", string(batch.Kind)),
		zap.Int("created", batch.CreatedRows),
		zap.Int("updated", batch.UpdatedRows),
		zap.Int("skipped", batch.SkippedRows))

	r := a.report
	r.BatchID = &batch.ID
	r.BackupID = &snapshot.ID
	r.Created = batch.CreatedRows
	r.Updated = batch.UpdatedRows
	r.Skipped = batch.SkippedRows
	r.Errors = batch.ErrorDetails
	r.ErrorRows = batch.ErrorRows
	return nil
}

func (s *Service) updateExisting(ctx context.Context, repos TransactionalRepositories, calc *primapp.Calculator, existing *sales.Sale, row *parsedRow) error {
	if err := existing.Update(row.Details); err != nil {
		return err
	}
	var err error
	if existing.PrimRate.IsPositive() {
		err = calc.ApplyAt(ctx, existing, existing.PrimRate)
	} else {
		err = calc.Apply(ctx, existing)
	}
	if err != nil {
		return err
	}
	if err := repos.Sales().Update(ctx, existing); err != nil {
		return fmt.Errorf("update sale %s: %w", existing.ContractNo, err)
	}
	return nil
}

// recordFailure stores the failed batch outside the rolled back transaction
func (s *Service) recordFailure(ctx context.Context, batch *bulk.ImportBatch, cause error) {
	s.logger.Error("Sales import failed", zap.String("batch_id", batch.ID.String()), zap.Error(cause))
	if err := batch.Fail([]bulk.ErrorDetail{{Code: "IMPORT_FAILED", Message: cause.Error()}}); err != nil {
		return
	}
	if err := s.repos.Batches.Save(ctx, batch); err != nil {
		s.logger.Warn("Failed to record failed import batch", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
}

// History lists import and migration batches, newest first
func (s *Service) History(ctx context.Context, input HistoryInput) (*shared.Paginated[BatchDTO], error) {
	filter := bulk.BatchFilter{Page: input.Page, PageSize: input.PageSize}
	if input.Kind != "" {
		kind := bulk.BatchKind(input.Kind)
		if !kind.IsValid() {
			return nil, shared.NewDomainError("INVALID_BATCH_KIND", "Geçersiz aktarma türü: "+input.Kind)
		}
		filter.Kind = &kind
	}
	if input.Status != "" {
		status := bulk.ImportStatus(input.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Geçersiz aktarma durumu: "+input.Status)
		}
		filter.Status = &status
	}
	items, total, err := s.repos.Batches.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]BatchDTO, len(items))
	for i, b := range items {
		dtos[i] = ToBatchDTO(b)
	}
	page := shared.NewPaginated(dtos, total, filter.Page, filter.Limit())
	return &page, nil
}

func countErrorRows(errs rowErrors) int {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return len(rows)
}
