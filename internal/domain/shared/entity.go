package shared

import (
	"time"

	"github.com/google/uuid"
)

// Now is the clock used when stamping entities. Tests replace it to pin
// created/updated times.
var Now = time.Now

// Entity is anything stored under a UUID with audit timestamps
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity carries the id and timestamp columns shared by every table
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	at := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

func (e *BaseEntity) GetID() uuid.UUID        { return e.ID }
func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }
func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// Touch records a modification
func (e *BaseEntity) Touch() { e.UpdatedAt = Now() }
