package bulk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BatchFilter defines the filters for querying import batches
type BatchFilter struct {
	Kind        *BatchKind
	Status      *ImportStatus
	ImportedBy  *uuid.UUID
	StartedFrom *time.Time
	StartedTo   *time.Time
	Page        int
	PageSize    int
}

// Offset returns the offset for pagination
func (f BatchFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f BatchFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// ImportBatchRepository defines the persistence of import batches
type ImportBatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ImportBatch, error)
	FindAll(ctx context.Context, filter BatchFilter) ([]*ImportBatch, int64, error)
	// Save creates or updates a batch
	Save(ctx context.Context, batch *ImportBatch) error
}
