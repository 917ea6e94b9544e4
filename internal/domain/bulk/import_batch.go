package bulk

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

const AggregateType = "ImportBatch"

// Event types
const (
	EventTypeImportCompleted  = "SalesImportCompleted"
	EventTypeImportRolledBack = "SalesImportRolledBack"
)

// BatchKind tells what produced the batch
type BatchKind string

const (
	BatchKindImport    BatchKind = "import"
	BatchKindMigration BatchKind = "migration"
)

// IsValid checks if the kind is valid
func (k BatchKind) IsValid() bool {
	return k == BatchKindImport || k == BatchKindMigration
}

// ImportStatus represents the status of an import batch
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
	ImportStatusRolledBack ImportStatus = "rolled_back"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted,
		ImportStatusFailed, ImportStatusRolledBack:
		return true
	}
	return false
}

// IsTerminal returns true if no further processing happens
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed || s == ImportStatusRolledBack
}

// ConflictMode defines how rows whose contract number already exists are handled
type ConflictMode string

const (
	ConflictModeSkip   ConflictMode = "skip"
	ConflictModeUpdate ConflictMode = "update"
	ConflictModeFail   ConflictMode = "fail"
)

// IsValid checks if the conflict mode is valid
func (c ConflictMode) IsValid() bool {
	switch c {
	case ConflictModeSkip, ConflictModeUpdate, ConflictModeFail:
		return true
	}
	return false
}

// ParseConflictMode parses user input, defaulting to skip
func ParseConflictMode(s string) (ConflictMode, error) {
	if strings.TrimSpace(s) == "" {
		return ConflictModeSkip, nil
	}
	m := ConflictMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.NewDomainError("INVALID_CONFLICT_MODE", fmt.Sprintf("Geçersiz çakışma modu: %s", s))
	}
	return m, nil
}

// ErrorDetail represents an error on a specific row
type ErrorDetail struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ImportBatch is the record of one committed sales import or historical migration
type ImportBatch struct {
	shared.BaseAggregateRoot
	Kind           BatchKind
	FileName       string
	FileSize       int64
	TotalRows      int
	CreatedRows    int
	UpdatedRows    int
	SkippedRows    int
	ErrorRows      int
	ConflictMode   ConflictMode
	Status         ImportStatus
	ErrorDetails   []ErrorDetail
	CreatedSaleIDs []uuid.UUID
	BackupID       *uuid.UUID
	ImportedBy     *uuid.UUID
	StartedAt      *time.Time
	CompletedAt    *time.Time
	RolledBackAt   *time.Time
	RolledBackBy   *uuid.UUID
}

// NewImportBatch creates a pending batch
func NewImportBatch(kind BatchKind, fileName string, fileSize int64, conflictMode ConflictMode, importedBy uuid.UUID) (*ImportBatch, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_BATCH_KIND", fmt.Sprintf("Geçersiz aktarma türü: %s", kind))
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "Dosya adı boş olamaz")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "Dosya boyutu negatif olamaz")
	}
	if !conflictMode.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONFLICT_MODE", fmt.Sprintf("Geçersiz çakışma modu: %s", conflictMode))
	}

	return &ImportBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(importedBy),
		Kind:              kind,
		FileName:          strings.TrimSpace(fileName),
		FileSize:          fileSize,
		ConflictMode:      conflictMode,
		Status:            ImportStatusPending,
		ErrorDetails:      make([]ErrorDetail, 0),
		CreatedSaleIDs:    make([]uuid.UUID, 0),
		ImportedBy:        &importedBy,
	}, nil
}

// StartProcessing marks the batch as started; backupID is the snapshot taken beforehand
func (b *ImportBatch) StartProcessing(totalRows int, backupID *uuid.UUID) error {
	if b.Status != ImportStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Bu durumdan işleme başlanamaz: %s", b.Status))
	}
	if totalRows < 0 {
		return shared.NewDomainError("INVALID_TOTAL_ROWS", "Toplam satır sayısı negatif olamaz")
	}

	now := time.Now()
	b.Status = ImportStatusProcessing
	b.TotalRows = totalRows
	b.BackupID = backupID
	b.StartedAt = &now
	b.IncrementVersion()
	return nil
}

// Complete records the outcome of a processed batch
func (b *ImportBatch) Complete(createdIDs []uuid.UUID, updatedRows, skippedRows int, errs []ErrorDetail) error {
	if b.Status != ImportStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Bu durumdan tamamlanamaz: %s", b.Status))
	}

	status := ImportStatusCompleted
	if len(errs) > 0 && len(createdIDs) == 0 && updatedRows == 0 {
		status = ImportStatusFailed
	}

	now := time.Now()
	b.Status = status
	b.CreatedSaleIDs = append(make([]uuid.UUID, 0, len(createdIDs)), createdIDs...)
	b.CreatedRows = len(createdIDs)
	b.UpdatedRows = updatedRows
	b.SkippedRows = skippedRows
	b.ErrorRows = countRows(errs)
	b.ErrorDetails = errs
	b.CompletedAt = &now
	b.IncrementVersion()

	b.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportCompleted, AggregateType, b.ID,
			fmt.Sprintf("Satış içe aktarıldı: %s (%d yeni, %d güncel, %d atlandı)", b.FileName, b.CreatedRows, b.UpdatedRows, b.SkippedRows)),
		FileName: b.FileName,
		Created:  b.CreatedRows,
	})
	return nil
}

// Fail marks the batch as failed
func (b *ImportBatch) Fail(errs []ErrorDetail) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Son durumdaki aktarma başarısız işaretlenemez: %s", b.Status))
	}
	now := time.Now()
	b.Status = ImportStatusFailed
	b.ErrorDetails = errs
	b.ErrorRows = countRows(errs)
	b.CompletedAt = &now
	b.IncrementVersion()
	return nil
}

// MarkRolledBack records that the batch's sales were removed
func (b *ImportBatch) MarkRolledBack(by uuid.UUID) error {
	if b.Status == ImportStatusRolledBack {
		return shared.NewDomainError("ALREADY_ROLLED_BACK", "İçe aktarma zaten geri alınmış")
	}
	if b.Status != ImportStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Bu durumdan geri alınamaz: %s", b.Status))
	}
	now := time.Now()
	b.Status = ImportStatusRolledBack
	b.RolledBackAt = &now
	b.RolledBackBy = &by
	b.IncrementVersion()

	b.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportRolledBack, AggregateType, b.ID,
			fmt.Sprintf("İçe aktarma geri alındı: %s", b.FileName)),
		FileName: b.FileName,
		Created:  b.CreatedRows,
	})
	return nil
}

// InWindow reports whether the batch started inside [from, to]
func (b *ImportBatch) InWindow(from, to time.Time) bool {
	if b.StartedAt == nil {
		return false
	}
	return !b.StartedAt.Before(from) && !b.StartedAt.After(to)
}

// HasErrors returns true if there are any errors
func (b *ImportBatch) HasErrors() bool {
	return len(b.ErrorDetails) > 0
}

// ErrorDetailsJSON returns the error details as a JSON string
func (b *ImportBatch) ErrorDetailsJSON() (string, error) {
	if len(b.ErrorDetails) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(b.ErrorDetails)
	if err != nil {
		return "", fmt.Errorf("failed to marshal error details: %w", err)
	}
	return string(data), nil
}

// SetErrorDetailsFromJSON parses error details from a JSON string
func (b *ImportBatch) SetErrorDetailsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" {
		b.ErrorDetails = make([]ErrorDetail, 0)
		return nil
	}
	var details []ErrorDetail
	if err := json.Unmarshal([]byte(jsonStr), &details); err != nil {
		return fmt.Errorf("failed to unmarshal error details: %w", err)
	}
	b.ErrorDetails = details
	return nil
}

// Duration returns how long processing took
func (b *ImportBatch) Duration() time.Duration {
	if b.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if b.CompletedAt != nil {
		end = *b.CompletedAt
	}
	return end.Sub(*b.StartedAt)
}

func countRows(errs []ErrorDetail) int {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return len(rows)
}

// Event is published when a batch completes or is rolled back
type Event struct {
	shared.BaseDomainEvent
	FileName string `json:"file_name"`
	Created  int    `json:"created"`
}
