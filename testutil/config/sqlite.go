package config

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // database driver
)

const sqliteMemoryDSN = "file::memory:?_pragma=foreign_keys(1)"

// SQLiteMemoryDB opens an in-memory SQLite database and closes it when the
// test ends. The single connection keeps the memory database alive for the
// whole test.
func SQLiteMemoryDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", sqliteMemoryDSN)
	require.NoError(t, err, "error opening in-memory database in test setup")

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// SQLiteMemorySQLX opens an in-memory SQLite database wrapped in sqlx.
func SQLiteMemorySQLX(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", sqliteMemoryDSN)
	require.NoError(t, err, "error opening in-memory database in test setup")

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}
