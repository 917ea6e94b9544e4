package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/bulk"
)

// ImportBatchModel is the persistence model for bulk.ImportBatch
type ImportBatchModel struct {
	AggregateModel
	Kind           bulk.BatchKind    `gorm:"type:varchar(20);not null;index"`
	FileName       string            `gorm:"type:varchar(255);not null"`
	FileSize       int64             `gorm:"not null;default:0"`
	TotalRows      int               `gorm:"not null;default:0"`
	CreatedRows    int               `gorm:"not null;default:0"`
	UpdatedRows    int               `gorm:"not null;default:0"`
	SkippedRows    int               `gorm:"not null;default:0"`
	ErrorRows      int               `gorm:"not null;default:0"`
	ConflictMode   bulk.ConflictMode `gorm:"type:varchar(20);not null"`
	Status         bulk.ImportStatus `gorm:"type:varchar(20);not null;index"`
	ErrorDetails   string            `gorm:"type:text;not null;default:'[]'"`
	CreatedSaleIDs string            `gorm:"type:text;not null;default:'[]'"`
	BackupID       *uuid.UUID        `gorm:"type:uuid"`
	ImportedBy     *uuid.UUID        `gorm:"type:uuid;index"`
	StartedAt      *time.Time        `gorm:"index"`
	CompletedAt    *time.Time
	RolledBackAt   *time.Time
	RolledBackBy   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ImportBatchModel) TableName() string {
	return "import_batches"
}

// ToDomain converts the model to a domain batch
func (m *ImportBatchModel) ToDomain() *bulk.ImportBatch {
	b := &bulk.ImportBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		FileName:          m.FileName,
		FileSize:          m.FileSize,
		TotalRows:         m.TotalRows,
		CreatedRows:       m.CreatedRows,
		UpdatedRows:       m.UpdatedRows,
		SkippedRows:       m.SkippedRows,
		ErrorRows:         m.ErrorRows,
		ConflictMode:      m.ConflictMode,
		Status:            m.Status,
		CreatedSaleIDs:    make([]uuid.UUID, 0),
		BackupID:          m.BackupID,
		ImportedBy:        m.ImportedBy,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		RolledBackAt:      m.RolledBackAt,
		RolledBackBy:      m.RolledBackBy,
	}
	_ = b.SetErrorDetailsFromJSON(m.ErrorDetails)
	unmarshalJSON(m.CreatedSaleIDs, &b.CreatedSaleIDs)
	return b
}

// FromDomain populates the model from a domain batch
func (m *ImportBatchModel) FromDomain(b *bulk.ImportBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Kind = b.Kind
	m.FileName = b.FileName
	m.FileSize = b.FileSize
	m.TotalRows = b.TotalRows
	m.CreatedRows = b.CreatedRows
	m.UpdatedRows = b.UpdatedRows
	m.SkippedRows = b.SkippedRows
	m.ErrorRows = b.ErrorRows
	m.ConflictMode = b.ConflictMode
	m.Status = b.Status
	m.ErrorDetails, _ = b.ErrorDetailsJSON()
	m.CreatedSaleIDs = marshalJSON(b.CreatedSaleIDs, "[]")
	m.BackupID = b.BackupID
	m.ImportedBy = b.ImportedBy
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
	m.RolledBackAt = b.RolledBackAt
	m.RolledBackBy = b.RolledBackBy
}

// BackupModel is the persistence model for backup.Backup
type BackupModel struct {
	AggregateModel
	Name         string      `gorm:"type:varchar(200);not null"`
	Type         backup.Type `gorm:"type:varchar(20);not null;index"`
	Tables       string      `gorm:"type:text;not null;default:'[]'"`
	RecordCounts string      `gorm:"type:text;not null;default:'{}'"`
	SizeBytes    int64       `gorm:"not null;default:0"`
	StorageKey   string      `gorm:"type:varchar(500);not null"`
	Checksum     string      `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (BackupModel) TableName() string {
	return "backups"
}

// ToDomain converts the model to a domain backup
func (m *BackupModel) ToDomain() *backup.Backup {
	b := &backup.Backup{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Type:              m.Type,
		Tables:            make([]string, 0),
		RecordCounts:      make(map[string]int),
		SizeBytes:         m.SizeBytes,
		StorageKey:        m.StorageKey,
		Checksum:          m.Checksum,
	}
	unmarshalJSON(m.Tables, &b.Tables)
	unmarshalJSON(m.RecordCounts, &b.RecordCounts)
	return b
}

// FromDomain populates the model from a domain backup
func (m *BackupModel) FromDomain(b *backup.Backup) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Type = b.Type
	m.Tables = marshalJSON(b.Tables, "[]")
	m.RecordCounts = marshalJSON(b.RecordCounts, "{}")
	m.SizeBytes = b.SizeBytes
	m.StorageKey = b.StorageKey
	m.Checksum = b.Checksum
}

// All returns every model in dependency order, used by AutoMigrate and tests
func All() []any {
	return []any{
		&RoleModel{},
		&RolePermissionModel{},
		&UserModel{},
		&UserRoleModel{},
		&PrimRateModel{},
		&PrimPeriodModel{},
		&PaymentMethodModel{},
		&SystemSettingModel{},
		&SaleModel{},
		&CommunicationRecordModel{},
		&CommunicationYearModel{},
		&PenaltyRecordModel{},
		&AnnouncementModel{},
		&AnnouncementReadModel{},
		&ActivityLogModel{},
		&ImportBatchModel{},
		&BackupModel{},
	}
}
