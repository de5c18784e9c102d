package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// gooseDialects maps our driver names to goose dialect names.
var gooseDialects = map[string]string{
	MySQL:  "mysql",
	SQLite: "sqlite3",
}

// Migrate applies every pending migration for the given driver. Each
// dialect keeps its own directory because the DDL differs (AUTO_INCREMENT,
// engine options, column types).
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return fmt.Errorf("migration error: unsupported driver %q", driver)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations/"+driver); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
