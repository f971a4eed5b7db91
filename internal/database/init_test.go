package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	paths, err := Migrations(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, paths)
}

func TestMigrationsShipped(t *testing.T) {
	paths, err := Migrations("../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
}
