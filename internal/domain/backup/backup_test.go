package backup

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTables(t *testing.T) {
	all, err := NormalizeTables(nil)
	require.NoError(t, err)
	assert.Equal(t, AllTables(), all)

	got, err := NormalizeTables([]string{"Sales", "users", "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{TableUsers, TableSales}, got)

	_, err = NormalizeTables([]string{"orders"})
	assert.Error(t, err)
}

func TestNewBackup(t *testing.T) {
	b, err := NewBackup("", TypePreImport, []string{TableSales}, uuid.New())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.Name, "pre_import-"))
	assert.True(t, strings.HasSuffix(b.StorageKey, b.ID.String()+".json.gz"))
	assert.True(t, b.Includes(TableSales))
	assert.False(t, b.Includes(TableUsers))

	b.Stored(512, "abc", map[string]int{TableSales: 7})
	assert.Equal(t, 7, b.TotalRecords())
	assert.Len(t, b.GetDomainEvents(), 1)

	_, err = NewBackup("x", Type("weekly"), nil, uuid.New())
	assert.Error(t, err)
}
