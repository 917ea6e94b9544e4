package bulk

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/domain/bulk"
)

// UploadInput is an uploaded sales file
type UploadInput struct {
	FileName     string
	Size         int64
	Body         io.Reader
	DryRun       bool
	ConflictMode string
}

// Duplicate is a row whose contract number is already taken
type Duplicate struct {
	Row            int        `json:"row"`
	ContractNo     string     `json:"contract_no"`
	InFile         bool       `json:"in_file"`
	FirstRow       int        `json:"first_row,omitempty"`
	ExistingSaleID *uuid.UUID `json:"existing_sale_id,omitempty"`
	Action         string     `json:"action"`
}

// PreviewRow is a parsed row as it would be stored
type PreviewRow struct {
	Row               int             `json:"row"`
	Action            string          `json:"action"`
	ContractNo        string          `json:"contract_no"`
	CustomerName      string          `json:"customer_name"`
	SaleType          string          `json:"sale_type"`
	SaleDate          string          `json:"sale_date,omitempty"`
	KaporaDate        string          `json:"kapora_date,omitempty"`
	ListPrice         decimal.Decimal `json:"list_price"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	ActivitySalePrice decimal.Decimal `json:"activity_sale_price"`
	PaymentMethod     string          `json:"payment_method"`
	Salesperson       string          `json:"salesperson"`
	PrimAmount        decimal.Decimal `json:"prim_amount"`
}

// Row actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionSkip   = "skip"
	ActionFail   = "fail"
)

// ImportReport is the outcome of a dry-run or committed upload
type ImportReport struct {
	DryRun         bool               `json:"dry_run"`
	FileName       string             `json:"file_name"`
	ConflictMode   string             `json:"conflict_mode"`
	TotalRows      int                `json:"total_rows"`
	ValidRows      int                `json:"valid_rows"`
	ErrorRows      int                `json:"error_rows"`
	ToCreate       int                `json:"to_create"`
	ToUpdate       int                `json:"to_update"`
	ToSkip         int                `json:"to_skip"`
	Created        int                `json:"created"`
	Updated        int                `json:"updated"`
	Skipped        int                `json:"skipped"`
	Errors         []bulk.ErrorDetail `json:"errors"`
	Duplicates     []Duplicate        `json:"duplicates"`
	UnknownColumns []string           `json:"unknown_columns,omitempty"`
	Preview        []PreviewRow       `json:"preview"`
	BatchID        *uuid.UUID         `json:"batch_id,omitempty"`
	BackupID       *uuid.UUID         `json:"backup_id,omitempty"`
}

// BatchDTO is the API representation of an import batch
type BatchDTO struct {
	ID           uuid.UUID          `json:"id"`
	Kind         string             `json:"kind"`
	FileName     string             `json:"file_name"`
	FileSize     int64              `json:"file_size"`
	TotalRows    int                `json:"total_rows"`
	CreatedRows  int                `json:"created_rows"`
	UpdatedRows  int                `json:"updated_rows"`
	SkippedRows  int                `json:"skipped_rows"`
	ErrorRows    int                `json:"error_rows"`
	ConflictMode string             `json:"conflict_mode"`
	Status       string             `json:"status"`
	ErrorDetails []bulk.ErrorDetail `json:"error_details"`
	BackupID     *uuid.UUID         `json:"backup_id,omitempty"`
	ImportedBy   *uuid.UUID         `json:"imported_by,omitempty"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	RolledBackAt *time.Time         `json:"rolled_back_at,omitempty"`
	RolledBackBy *uuid.UUID         `json:"rolled_back_by,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToBatchDTO converts a domain batch
func ToBatchDTO(b *bulk.ImportBatch) BatchDTO {
	return BatchDTO{
		ID:           b.ID,
		Kind:         string(b.Kind),
		FileName:     b.FileName,
		FileSize:     b.FileSize,
		TotalRows:    b.TotalRows,
		CreatedRows:  b.CreatedRows,
		UpdatedRows:  b.UpdatedRows,
		SkippedRows:  b.SkippedRows,
		ErrorRows:    b.ErrorRows,
		ConflictMode: string(b.ConflictMode),
		Status:       string(b.Status),
		ErrorDetails: b.ErrorDetails,
		BackupID:     b.BackupID,
		ImportedBy:   b.ImportedBy,
		StartedAt:    b.StartedAt,
		CompletedAt:  b.CompletedAt,
		RolledBackAt: b.RolledBackAt,
		RolledBackBy: b.RolledBackBy,
		CreatedAt:    b.CreatedAt,
	}
}

// HistoryInput filters the batch history
type HistoryInput struct {
	Kind     string
	Status   string
	Page     int
	PageSize int
}

// RollbackInput removes import-sourced sales created inside a window
type RollbackInput struct {
	StartTime time.Time
	EndTime   time.Time
	BatchID   *uuid.UUID
	DryRun    bool
}

// RollbackSale is one sale matched by a rollback
type RollbackSale struct {
	ID            uuid.UUID  `json:"id"`
	ContractNo    string     `json:"contract_no"`
	CustomerName  string     `json:"customer_name"`
	ImportBatchID *uuid.UUID `json:"import_batch_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RollbackReport is the outcome of a rollback
type RollbackReport struct {
	DryRun    bool           `json:"dry_run"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	SaleCount int            `json:"sale_count"`
	Deleted   int            `json:"deleted"`
	BatchIDs  []uuid.UUID    `json:"batch_ids"`
	Sample    []RollbackSale `json:"sample"`
	BackupID  *uuid.UUID     `json:"backup_id,omitempty"`

	RolledBackBatchIDs []uuid.UUID `json:"rolled_back_batch_ids,omitempty"`
	PartialBatchIDs    []uuid.UUID `json:"partial_batch_ids,omitempty"`
}

// Migration steps
const (
	StepNormalizeContracts = "normalize_contracts"
	StepAssignPeriods      = "assign_periods"
	StepRecalculatePrims   = "recalculate_prims"
)

// stepOrder is the order steps run in, whatever order they were requested in
var stepOrder = []string{StepNormalizeContracts, StepAssignPeriods, StepRecalculatePrims}

// MigrationStatus counts the sales each step would touch
type MigrationStatus struct {
	TotalSales           int   `json:"total_sales"`
	WithoutPeriod        int64 `json:"without_period"`
	PrimMismatch         int   `json:"prim_mismatch"`
	WithoutSalesperson   int64 `json:"without_salesperson"`
	ContractsToNormalize int   `json:"contracts_to_normalize"`
}

// RunInput selects migration steps
type RunInput struct {
	Steps     []string
	DryRun    bool
	StartDate *time.Time
	EndDate   *time.Time
}

// Change is one field rewritten by a migration step
type Change struct {
	SaleID     uuid.UUID `json:"sale_id"`
	ContractNo string    `json:"contract_no"`
	Field      string    `json:"field"`
	Before     string    `json:"before"`
	After      string    `json:"after"`
}

// StepReport is the outcome of one migration step
type StepReport struct {
	Step     string   `json:"step"`
	Examined int      `json:"examined"`
	Changed  int      `json:"changed"`
	Skipped  int      `json:"skipped"`
	Samples  []Change `json:"samples"`
}

// MigrationReport is the outcome of a migration run
type MigrationReport struct {
	DryRun   bool         `json:"dry_run"`
	Steps    []StepReport `json:"steps"`
	BackupID *uuid.UUID   `json:"backup_id,omitempty"`
}

// ExportFile is a rendered workbook
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}
