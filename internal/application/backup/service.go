// Package backup takes, restores and prunes database snapshots.
package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/shared"
)

const snapshotVersion = 1

// Snapshotter reads and replaces the contents of whole tables.
// Data is keyed by physical table name; counts are keyed by snapshot table.
type Snapshotter interface {
	Dump(ctx context.Context, tables []string) (map[string]json.RawMessage, map[string]int, error)
	// Replace deletes the rows of tables and inserts data inside one transaction
	Replace(ctx context.Context, tables []string, data map[string]json.RawMessage) (map[string]int, error)
}

// document is the JSON payload stored for a backup
type document struct {
	Version   int                        `json:"version"`
	BackupID  uuid.UUID                  `json:"backup_id"`
	Type      backup.Type                `json:"type"`
	CreatedAt time.Time                  `json:"created_at"`
	Tables    []string                   `json:"tables"`
	Data      map[string]json.RawMessage `json:"data"`
}

// BackupDTO is the API representation of a backup
type BackupDTO struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Tables       []string       `json:"tables"`
	RecordCounts map[string]int `json:"record_counts"`
	TotalRecords int            `json:"total_records"`
	SizeBytes    int64          `json:"size_bytes"`
	Checksum     string         `json:"checksum"`
	CreatedBy    *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ToBackupDTO converts domain backup metadata
func ToBackupDTO(b *backup.Backup) BackupDTO {
	return BackupDTO{
		ID:           b.ID,
		Name:         b.Name,
		Type:         string(b.Type),
		Tables:       b.Tables,
		RecordCounts: b.RecordCounts,
		TotalRecords: b.TotalRecords(),
		SizeBytes:    b.SizeBytes,
		Checksum:     b.Checksum,
		CreatedBy:    b.CreatedBy,
		CreatedAt:    b.CreatedAt,
	}
}

// CreateInput takes a snapshot
type CreateInput struct {
	Name   string
	Type   backup.Type
	Tables []string
}

// RestoreResult reports a restore
type RestoreResult struct {
	Backup         BackupDTO      `json:"backup"`
	SafetyBackupID uuid.UUID      `json:"safety_backup_id"`
	Tables         []string       `json:"tables"`
	Restored       map[string]int `json:"restored"`
}

// Download is an open backup payload
type Download struct {
	FileName string
	Size     int64
	Body     io.ReadCloser
}

// Service manages backups
type Service struct {
	repo        backup.Repository
	store       backup.Store
	snapshotter Snapshotter
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewService creates a new backup service
func NewService(
	repo backup.Repository,
	store backup.Store,
	snapshotter Snapshotter,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		snapshotter: snapshotter,
		publisher:   publisher,
		logger:      logger,
	}
}

// List returns a page of backups, newest first
func (s *Service) List(ctx context.Context, filter backup.Filter) (*shared.Paginated[BackupDTO], error) {
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]BackupDTO, len(items))
	for i, b := range items {
		dtos[i] = ToBackupDTO(b)
	}
	page := shared.NewPaginated(dtos, total, filter.Page, filter.Limit())
	return &page, nil
}

// Get returns one backup
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BackupDTO, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToBackupDTO(b)
	return &dto, nil
}

// Create dumps the selected tables and stores them as a compressed JSON document
func (s *Service) Create(ctx context.Context, input CreateInput, by uuid.UUID) (*BackupDTO, error) {
	if input.Type == "" {
		input.Type = backup.TypeManual
	}
	b, err := backup.NewBackup(input.Name, input.Type, input.Tables, by)
	if err != nil {
		return nil, err
	}

	data, counts, err := s.snapshotter.Dump(ctx, b.Tables)
	if err != nil {
		return nil, fmt.Errorf("dump tables: %w", err)
	}
	payload, err := encode(document{
		Version:   snapshotVersion,
		BackupID:  b.ID,
		Type:      b.Type,
		CreatedAt: b.CreatedAt,
		Tables:    b.Tables,
		Data:      data,
	})
	if err != nil {
		return nil, err
	}

	size := int64(len(payload))
	if err := s.store.Put(ctx, b.StorageKey, bytes.NewReader(payload), size); err != nil {
		return nil, fmt.Errorf("store backup: %w", err)
	}
	b.Stored(size, checksum(payload), counts)
	if err := s.repo.Create(ctx, b); err != nil {
		if delErr := s.store.Delete(ctx, b.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned backup payload",
				zap.String("key", b.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	s.publish(ctx, b)

	s.logger.Info("Backup created",
		zap.String("backup_id", b.ID.String()),
		zap.String("type", string(b.Type)),
		zap.Int("records", b.TotalRecords()),
		zap.Int64("size", size))

	dto := ToBackupDTO(b)
	return &dto, nil
}

// Download opens the stored payload of a backup
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*Download, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := s.store.Get(ctx, b.StorageKey)
	if err != nil {
		return nil, s.storeError(err)
	}
	return &Download{
		FileName: fmt.Sprintf("yedek_%s_%s.json.gz", b.Type, b.CreatedAt.Format("20060102_150405")),
		Size:     b.SizeBytes,
		Body:     body,
	}, nil
}

// Restore replaces the selected tables with the backup contents. A pre_restore
// backup of the same tables is taken first.
func (s *Service) Restore(ctx context.Context, id uuid.UUID, tables []string, by uuid.UUID) (*RestoreResult, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		tables = b.Tables
	}
	tables, err = backup.NormalizeTables(tables)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if !b.Includes(t) {
			return nil, shared.NewDomainError("BACKUP_TABLE_MISSING",
				fmt.Sprintf("Yedekte tablo bulunmuyor: %s", t))
		}
	}

	doc, err := s.read(ctx, b)
	if err != nil {
		return nil, err
	}

	safety, err := s.Create(ctx, CreateInput{
		Name:   fmt.Sprintf("Geri yükleme öncesi (%s)", b.Name),
		Type:   backup.TypePreRestore,
		Tables: tables,
	}, by)
	if err != nil {
		return nil, fmt.Errorf("pre-restore backup: %w", err)
	}

	restored, err := s.snapshotter.Replace(ctx, tables, doc.Data)
	if err != nil {
		return nil, fmt.Errorf("restore tables: %w", err)
	}
	b.Restored(tables)
	s.publish(ctx, b)

	s.logger.Info("Backup restored",
		zap.String("backup_id", b.ID.String()),
		zap.Strings("tables", tables),
		zap.String("safety_backup_id", safety.ID.String()))

	return &RestoreResult{
		Backup:         ToBackupDTO(b),
		SafetyBackupID: safety.ID,
		Tables:         tables,
		Restored:       restored,
	}, nil
}

// Delete removes a backup and its payload
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, b)
}

// ApplyRetention keeps the newest keep backups of type and deletes the rest
func (s *Service) ApplyRetention(ctx context.Context, backupType backup.Type, keep int) (int, error) {
	if keep < 1 {
		return 0, shared.NewDomainError("INVALID_RETENTION", "En az bir yedek saklanmalı")
	}
	stale, err := s.repo.FindByTypeOlderThanNewest(ctx, backupType, keep)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, b := range stale {
		if err := s.remove(ctx, b); err != nil {
			s.logger.Warn("Failed to delete expired backup",
				zap.String("backup_id", b.ID.String()), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (s *Service) remove(ctx context.Context, b *backup.Backup) error {
	if err := s.store.Delete(ctx, b.StorageKey); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("delete backup payload: %w", err)
	}
	if err := s.repo.Delete(ctx, b.ID); err != nil {
		return err
	}
	b.MarkDeleted()
	s.publish(ctx, b)
	return nil
}

// read fetches, verifies and decodes a payload
func (s *Service) read(ctx context.Context, b *backup.Backup) (*document, error) {
	body, err := s.store.Get(ctx, b.StorageKey)
	if err != nil {
		return nil, s.storeError(err)
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read backup payload: %w", err)
	}
	if b.Checksum != "" && checksum(payload) != b.Checksum {
		return nil, shared.NewDomainError("BACKUP_CHECKSUM_MISMATCH", "Yedek dosyası bozuk: sağlama toplamı eşleşmiyor")
	}
	return decode(payload)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*backup.Backup, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BACKUP_NOT_FOUND", "Yedek bulunamadı")
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) storeError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError("BACKUP_FILE_MISSING", "Yedek dosyası depolamada bulunamadı")
	}
	return fmt.Errorf("open backup payload: %w", err)
}

func (s *Service) publish(ctx context.Context, b *backup.Backup) {
	if err := shared.PublishEvents(ctx, s.publisher, b); err != nil {
		s.logger.Warn("Failed to publish backup events",
			zap.String("backup_id", b.ID.String()), zap.Error(err))
	}
}

func encode(doc document) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress backup: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(payload []byte) (*document, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_BACKUP_FILE", "Yedek dosyası gzip arşivi değil")
	}
	defer zr.Close()

	var doc document
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, shared.NewDomainError("INVALID_BACKUP_FILE", "Yedek dosyası çözümlenemedi")
	}
	if doc.Version != snapshotVersion {
		return nil, shared.NewDomainError("INVALID_BACKUP_FILE",
			fmt.Sprintf("Desteklenmeyen yedek sürümü: %d", doc.Version))
	}
	return &doc, nil
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
