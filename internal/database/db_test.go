package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review/internal/config"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, SQLite))
	return db
}

func countCategory(t *testing.T, db *sql.DB, name string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&n))
	return n
}

func TestMigrate_SQLiteSeedsCategories(t *testing.T) {
	db := openMigrated(t)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n))
	assert.Equal(t, 6, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openMigrated(t)
	require.NoError(t, Migrate(context.Background(), db, SQLite))
}

func TestMigrate_UnknownDriver(t *testing.T) {
	err := Migrate(context.Background(), nil, "oracle")
	require.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES ('Western')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countCategory(t, db, "Western"))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES ('Noir')`)
		require.NoError(t, err)
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countCategory(t, db, "Noir"))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	defer func() {
		require.NotNil(t, recover(), "expected panic to propagate")
		assert.Equal(t, 0, countCategory(t, db, "Musical"))
	}()

	_ = WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES ('Musical')`)
		require.NoError(t, err)
		panic("kaput")
	})
}

func TestSQLite_ForeignKeysEnforced(t *testing.T) {
	db := openMigrated(t)

	_, err := db.Exec(`INSERT INTO reviews (movie_id, user_id, rating, comment) VALUES (999, 999, 1, 'x')`)
	require.Error(t, err)
}

func TestFold_SQLiteMatchesGo(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, FoldFunc, LowerFunc(db))

	for _, s := range []string{"Élite Squad", "ÖDIPUSSI", "Dune", "ŁÓDŹ"} {
		var got string
		require.NoError(t, db.QueryRow(`SELECT `+FoldFunc+`(?)`, s).Scan(&got))
		assert.Equal(t, Fold(s), got, s)
	}
	assert.Equal(t, "élite squad", Fold("Élite Squad"))

	var null sql.NullString
	require.NoError(t, db.QueryRow(`SELECT ` + FoldFunc + `(NULL)`).Scan(&null))
	assert.False(t, null.Valid)
}
