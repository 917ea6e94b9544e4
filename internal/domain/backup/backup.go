// Package backup describes database snapshots and where they are stored.
package backup

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

const AggregateType = "Backup"

// Event types
const (
	EventTypeCreated  = "BackupCreated"
	EventTypeRestored = "BackupRestored"
	EventTypeDeleted  = "BackupDeleted"
)

// Type tells why a backup was taken
type Type string

const (
	TypeManual       Type = "manual"
	TypePreImport    Type = "pre_import"
	TypePreRollback  Type = "pre_rollback"
	TypePreMigration Type = "pre_migration"
	TypePreRestore   Type = "pre_restore"
	TypeScheduled    Type = "scheduled"
)

// IsValid checks the type
func (t Type) IsValid() bool {
	switch t {
	case TypeManual, TypePreImport, TypePreRollback, TypePreMigration, TypePreRestore, TypeScheduled:
		return true
	}
	return false
}

// Snapshot table names
const (
	TableSales          = "sales"
	TableUsers          = "users"
	TableRoles          = "roles"
	TablePrimRates      = "prim_rates"
	TablePrimPeriods    = "prim_periods"
	TablePaymentMethods = "payment_methods"
	TableSystemSettings = "system_settings"
)

// AllTables lists every table a snapshot may include, in restore order
func AllTables() []string {
	return []string{
		TableRoles,
		TableUsers,
		TablePrimRates,
		TablePrimPeriods,
		TablePaymentMethods,
		TableSystemSettings,
		TableSales,
	}
}

// NormalizeTables validates and orders a table selection; empty means all
func NormalizeTables(tables []string) ([]string, error) {
	if len(tables) == 0 {
		return AllTables(), nil
	}
	order := make(map[string]int)
	for i, t := range AllTables() {
		order[t] = i
	}
	seen := make(map[string]struct{}, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, ok := order[t]; !ok {
			return nil, shared.NewDomainError("INVALID_TABLE", fmt.Sprintf("Bilinmeyen yedek tablosu: %s", t))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out, nil
}

// Backup is the metadata of one stored snapshot
type Backup struct {
	shared.BaseAggregateRoot
	Name         string
	Type         Type
	Tables       []string
	RecordCounts map[string]int
	SizeBytes    int64
	StorageKey   string
	Checksum     string
}

// NewBackup creates backup metadata; the storage key is derived from the id
func NewBackup(name string, backupType Type, tables []string, createdBy uuid.UUID) (*Backup, error) {
	if !backupType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BACKUP_TYPE", fmt.Sprintf("Geçersiz yedek türü: %s", backupType))
	}
	normalized, err := NormalizeTables(tables)
	if err != nil {
		return nil, err
	}
	b := &Backup{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		Type:              backupType,
		Tables:            normalized,
		RecordCounts:      make(map[string]int),
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s-%s", backupType, b.CreatedAt.Format("20060102-150405"))
	}
	if len([]rune(name)) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Yedek adı 200 karakteri geçemez")
	}
	b.Name = name
	b.StorageKey = fmt.Sprintf("backups/%s/%s.json.gz", b.CreatedAt.Format("2006/01"), b.ID)
	return b, nil
}

// Stored records the written snapshot's size, checksum and counts
func (b *Backup) Stored(size int64, checksum string, counts map[string]int) {
	b.SizeBytes = size
	b.Checksum = checksum
	b.RecordCounts = counts
	b.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateType, b.ID,
			fmt.Sprintf("Yedek alındı: %s (%s)", b.Name, b.Type)),
		Name: b.Name,
		Type: string(b.Type),
	})
}

// Restored records a restore from this backup
func (b *Backup) Restored(tables []string) {
	b.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRestored, AggregateType, b.ID,
			fmt.Sprintf("Yedekten geri yüklendi: %s (%s)", b.Name, strings.Join(tables, ", "))),
		Name: b.Name,
		Type: string(b.Type),
	})
}

// MarkDeleted records the deletion
func (b *Backup) MarkDeleted() {
	b.AddDomainEvent(&Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeleted, AggregateType, b.ID, "Yedek silindi: "+b.Name),
		Name:            b.Name,
		Type:            string(b.Type),
	})
}

// Includes reports whether the snapshot holds table
func (b *Backup) Includes(table string) bool {
	for _, t := range b.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// TotalRecords sums the record counts
func (b *Backup) TotalRecords() int {
	total := 0
	for _, c := range b.RecordCounts {
		total += c
	}
	return total
}

// Event is published on backup changes
type Event struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	Type string `json:"type"`
}

// Filter narrows backup listings
type Filter struct {
	Type     *Type
	Page     int
	PageSize int
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// Repository persists backup metadata
type Repository interface {
	Create(ctx context.Context, b *Backup) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Backup, error)
	FindAll(ctx context.Context, filter Filter) ([]*Backup, int64, error)
	// FindByTypeOlderThanNewest returns backups of type beyond the newest keep entries
	FindByTypeOlderThanNewest(ctx context.Context, backupType Type, keep int) ([]*Backup, error)
}

// Store holds snapshot payloads
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
