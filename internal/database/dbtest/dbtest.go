// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review/internal/database"
)

// Open returns an in-memory sqlite database with every migration applied.
// It is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return db
}

// InsertUser adds a bare user row (no profile) and returns its id.
func InsertUser(t testing.TB, db *sql.DB, username string) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, username+"@example.com", "x")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// FirstCategory returns the id of the first seeded category.
func FirstCategory(t testing.TB, db *sql.DB) uint64 {
	t.Helper()
	var id uint64
	require.NoError(t, db.QueryRow(`SELECT id FROM categories ORDER BY id LIMIT 1`).Scan(&id))
	return id
}

// Count returns SELECT COUNT(*) FROM table [WHERE where].
func Count(t testing.TB, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	require.NoError(t, db.QueryRow(q, args...).Scan(&n))
	return n
}
