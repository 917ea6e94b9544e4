package bulk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status ImportStatus
		want   bool
	}{
		{"pending", ImportStatusPending, false},
		{"processing", ImportStatusProcessing, false},
		{"completed", ImportStatusCompleted, true},
		{"failed", ImportStatusFailed, true},
		{"rolled back", ImportStatusRolledBack, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestParseConflictMode(t *testing.T) {
	m, err := ParseConflictMode("")
	require.NoError(t, err)
	assert.Equal(t, ConflictModeSkip, m)

	m, err = ParseConflictMode(" Update ")
	require.NoError(t, err)
	assert.Equal(t, ConflictModeUpdate, m)

	_, err = ParseConflictMode("merge")
	assert.Error(t, err)
}

func TestNewImportBatch(t *testing.T) {
	user := uuid.New()

	tests := []struct {
		name    string
		kind    BatchKind
		file    string
		size    int64
		mode    ConflictMode
		wantErr bool
	}{
		{"valid", BatchKindImport, "satislar.xlsx", 1024, ConflictModeSkip, false},
		{"migration", BatchKindMigration, "eski.xls", 0, ConflictModeUpdate, false},
		{"bad kind", BatchKind("other"), "a.xlsx", 1, ConflictModeSkip, true},
		{"empty file", BatchKindImport, " ", 1, ConflictModeSkip, true},
		{"negative size", BatchKindImport, "a.xlsx", -1, ConflictModeSkip, true},
		{"bad mode", BatchKindImport, "a.xlsx", 1, ConflictMode("merge"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewImportBatch(tt.kind, tt.file, tt.size, tt.mode, user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ImportStatusPending, b.Status)
			assert.Equal(t, &user, b.ImportedBy)
			assert.Empty(t, b.CreatedSaleIDs)
		})
	}
}

func TestImportBatch_Lifecycle(t *testing.T) {
	user := uuid.New()
	b, err := NewImportBatch(BatchKindImport, "satislar.xlsx", 2048, ConflictModeSkip, user)
	require.NoError(t, err)

	err = b.Complete(nil, 0, 0, nil)
	assert.Error(t, err, "cannot complete before processing")

	backupID := uuid.New()
	require.NoError(t, b.StartProcessing(3, &backupID))
	assert.Equal(t, ImportStatusProcessing, b.Status)
	assert.Equal(t, &backupID, b.BackupID)
	assert.Error(t, b.StartProcessing(3, nil))

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	errs := []ErrorDetail{
		{Row: 4, Column: "Sözleşme No", Code: "REQUIRED", Message: "zorunlu"},
		{Row: 4, Column: "Müşteri", Code: "REQUIRED", Message: "zorunlu"},
	}
	require.NoError(t, b.Complete(ids, 0, 0, errs))
	assert.Equal(t, ImportStatusCompleted, b.Status)
	assert.Equal(t, 2, b.CreatedRows)
	assert.Equal(t, 1, b.ErrorRows)
	assert.True(t, b.HasErrors())
	assert.Len(t, b.GetDomainEvents(), 1)

	assert.True(t, b.InWindow(b.StartedAt.Add(-time.Minute), b.StartedAt.Add(time.Minute)))
	assert.False(t, b.InWindow(b.StartedAt.Add(time.Minute), b.StartedAt.Add(time.Hour)))

	require.NoError(t, b.MarkRolledBack(user))
	assert.Equal(t, ImportStatusRolledBack, b.Status)
	assert.NotNil(t, b.RolledBackAt)
	assert.Error(t, b.MarkRolledBack(user))
}

func TestImportBatch_CompleteAllErrorsFails(t *testing.T) {
	b, err := NewImportBatch(BatchKindImport, "a.csv", 10, ConflictModeFail, uuid.New())
	require.NoError(t, err)
	require.NoError(t, b.StartProcessing(1, nil))
	require.NoError(t, b.Complete(nil, 0, 0, []ErrorDetail{{Row: 2, Code: "X", Message: "x"}}))
	assert.Equal(t, ImportStatusFailed, b.Status)
	assert.Error(t, b.MarkRolledBack(uuid.New()))
}

func TestImportBatch_ErrorDetailsJSON(t *testing.T) {
	b, err := NewImportBatch(BatchKindImport, "a.csv", 10, ConflictModeSkip, uuid.New())
	require.NoError(t, err)

	s, err := b.ErrorDetailsJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	require.NoError(t, b.SetErrorDetailsFromJSON(`[{"row":2,"code":"X","message":"bad"}]`))
	require.Len(t, b.ErrorDetails, 1)
	assert.Equal(t, 2, b.ErrorDetails[0].Row)
	assert.Error(t, b.SetErrorDetailsFromJSON("{"))
}
