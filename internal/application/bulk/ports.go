// Package bulk contains the sales import, import rollback and historical
// migration use cases. Every mutating operation takes a backup first and
// applies its changes inside one transaction.
package bulk

import (
	"context"
	"io"

	"github.com/google/uuid"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/prim"
	"github.com/salescrm/backend/internal/domain/sales"
)

// TransactionScope runs fn inside one database transaction.
// Returning an error from fn rolls the transaction back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are repositories bound to the running transaction
type TransactionalRepositories interface {
	Sales() sales.SaleRepository
	Batches() bulk.ImportBatchRepository
	Rates() prim.RateRepository
	Periods() prim.PeriodRepository
}

// Sheet is the first worksheet of an uploaded file
type Sheet struct {
	Headers []string
	Rows    []SheetRow
}

// SheetRow is a data row; Number is the 1-based row number in the file
type SheetRow struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed cell at index, empty when out of range
func (r SheetRow) Cell(index int) string {
	if index < 0 || index >= len(r.Cells) {
		return ""
	}
	return r.Cells[index]
}

// SheetReader parses .xlsx, .xls and .csv files
type SheetReader interface {
	Read(fileName string, r io.Reader) (*Sheet, error)
}

// SheetWriter renders a single-sheet workbook
type SheetWriter interface {
	WriteSheet(sheet string, headers []string, rows [][]any) ([]byte, error)
}

// BackupTaker takes the safety snapshot before a bulk change
type BackupTaker interface {
	Create(ctx context.Context, input appbackup.CreateInput, by uuid.UUID) (*appbackup.BackupDTO, error)
}
