package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDSN(t *testing.T) {
	dsn := DSN(Config{Path: "data/engine.db"})

	assert.Contains(t, dsn, "file:data/engine.db?")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_foreign_keys=on")
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, "second", migrations[1].Name)
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_widgets.sql": {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
	}

	migrator := NewMigrator(db, logger)
	require.NoError(t, migrator.Run(fsys))
	require.NoError(t, migrator.Run(fsys))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}
