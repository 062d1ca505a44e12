package postgres

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationTableName tracks applied migrations in the database.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts goose's logging to slog.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	slog.Info("migration: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	slog.Error("migration failed: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// MigrateUp applies all pending schema migrations from the embedded
// migration files.
func MigrateUp(db *sql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName(migrationTableName)
	goose.SetBaseFS(sub)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
