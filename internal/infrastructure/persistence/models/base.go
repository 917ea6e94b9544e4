package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/shared"
)

// BaseModel provides id and timestamp columns; it maps to shared.BaseEntity
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the optimistic-lock version and creator
type AggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainAggregateRoot populates the columns from a domain aggregate root
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.CreatedBy = a.CreatedBy
}

// ToDomainAggregateRoot rebuilds the domain aggregate root
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version:   m.Version,
		CreatedBy: m.CreatedBy,
	}
}

// marshalJSON renders v for a text column; nil renders as fallback
func marshalJSON(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return fallback
	}
	return string(b)
}

// unmarshalJSON decodes a text column, leaving dst untouched on empty input or error.
// Decode errors are logged by the AfterFind hooks through reportCorruptJSON.
func unmarshalJSON(raw string, dst any) {
	if raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), dst)
}

// jsonColumn pairs a text column with a value of the type it should decode into
type jsonColumn struct {
	name string
	raw  string
	into any
}

// reportCorruptJSON logs every column of row id that does not decode, through
// the statement's logger. Called from AfterFind hooks; the row is still returned.
func reportCorruptJSON(tx *gorm.DB, id uuid.UUID, columns ...jsonColumn) {
	for _, col := range columns {
		if col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw), col.into); err != nil {
			tx.Logger.Error(tx.Statement.Context, "corrupt json in %s.%s for %s: %v",
				tx.Statement.Table, col.name, id, err)
		}
	}
}
