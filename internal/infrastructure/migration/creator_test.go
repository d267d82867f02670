package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sales table", "add_sales_table"},
		{"Add-Sales-Table", "add_sales_table"},
		{"add__sales__table", "add_sales_table"},
		{"Add Index 2", "add_index_2"},
		{"   spaces   ", "spaces"},
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

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init_schema.up.sql"), []byte("--"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init_schema.down.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "add product slug", "Adds a slug column")
	require.NoError(t, err)

	assert.Equal(t, uint(2), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_product_slug.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000002_add_product_slug.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add product slug")
	assert.Contains(t, string(up), "Adds a slug column")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_EmptyDirStartsAtOne(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), mf.Version)
	assert.FileExists(t, mf.UpPath)
}

func TestCreateMigration_RejectsUnusableName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_later.up.sql",
		"000002_second.up.sql",
		"000002_second.down.sql",
		"000001_first.up.sql",
		"README.md",
		"notaversion_x.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Version: 1, Name: "000001_first"},
		{Version: 2, Name: "000002_second"},
		{Version: 10, Name: "000010_later"},
	}, entries)
}

func TestListMigrations_MissingDir(t *testing.T) {
	entries, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMigrations_CheckedInSchema(t *testing.T) {
	entries, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, uint(1), entries[0].Version)
}
