package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sales index", "add_sales_index"},
		{"Add-Sales-Index", "add_sales_index"},
		{"ADD__SALES__INDEX", "add_sales_index"},
		{"   spaces   ", "spaces"},
		{"prim dönem", "prim_dnem"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreate_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "add penalty index", "Speeds up the penalty summary")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_penalty_index.up.sql"), first.UpPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Speeds up the penalty summary")
	_, err = os.Stat(first.DownPath)
	require.NoError(t, err)

	second, err := Create(dir, "drop legacy column", "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	_, err = Create(dir, "!!!", "")
	assert.Error(t, err)
}

func TestCreate_MakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	_, err := Create(dir, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_comm.up.sql":        {Data: []byte("--")},
		"000001_init.up.sql":        {Data: []byte("--")},
		"000001_init.down.sql":      {Data: []byte("--")},
		"000003_only_down.down.sql": {Data: []byte("--")},
		"README.md":                 {Data: []byte("x")},
		"notes.up.sql":              {Data: []byte("x")},
		"000009_dir.up.sql/x":       {Data: []byte("x")},
	}

	entries, err := List(fsys)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Version: 1, Name: "init", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "comm"}, entries[1])
	assert.Equal(t, 3, entries[2].Version)
}

func TestList_MissingDirectory(t *testing.T) {
	entries, err := List(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_EmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Version, "versions must be contiguous")
		assert.True(t, e.HasDown, "migration %d has no down file", e.Version)
	}
}
