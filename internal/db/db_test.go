package db

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSqliteDB_Memory_SingleConnection(t *testing.T) {
	database, err := NewSqliteDB()
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT);")
	require.NoError(t, err)

	// the table must be visible through the pool, which only works on one connection
	_, err = database.Exec("INSERT INTO t (v) VALUES ('a');")
	require.NoError(t, err)

	var count int
	require.NoError(t, database.Get(&count, "SELECT COUNT(*) FROM t"))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
}

func TestNewSqliteDB_File_CreatesParent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "index.db")

	database, err := NewSqliteDB(WithPath(dbPath), WithMaxOpenConns(1))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY);")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Dir(dbPath))
	assert.FileExists(t, dbPath)
}

func TestNewSqliteDB_File_PragmasOnEveryConnection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	database, err := NewSqliteDB(WithPath(dbPath), WithPragmas("PRAGMA temp_store=MEMORY;"))
	require.NoError(t, err)
	defer database.Close()

	// hold two connections at once so the second is a fresh one from the pool
	first, err := database.Connx(t.Context())
	require.NoError(t, err)
	defer first.Close()
	second, err := database.Connx(t.Context())
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sqlx.Conn{first, second} {
		var timeout, fk int
		require.NoError(t, conn.GetContext(t.Context(), &timeout, "PRAGMA busy_timeout"))
		require.NoError(t, conn.GetContext(t.Context(), &fk, "PRAGMA foreign_keys"))
		assert.Equal(t, busyTimeoutMs, timeout)
		assert.Equal(t, 1, fk)
	}
}

func TestNewSqliteDB_CustomPragmas(t *testing.T) {
	database, err := NewSqliteDB(WithPragmas("PRAGMA foreign_keys=ON;"))
	require.NoError(t, err)
	defer database.Close()

	var enabled int
	require.NoError(t, database.Get(&enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)
}

func TestNewSqliteDB_BadPragmas(t *testing.T) {
	_, err := NewSqliteDB(WithPragmas("NOT A PRAGMA;"))
	assert.Error(t, err)
}
