package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_indexes.sql", "001_initial.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_initial.sql", filepath.Base(files[0]))
	assert.Equal(t, "002_indexes.sql", filepath.Base(files[1]))
}

func TestMigrationFilesEmptyDir(t *testing.T) {
	_, err := MigrationFiles(t.TempDir())
	assert.ErrorContains(t, err, "no migrations found")
}

func TestShippedSchema(t *testing.T) {
	files, err := MigrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	sql, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS goals")
	assert.Contains(t, string(sql), "REFERENCES goals(id) ON DELETE CASCADE")
}
