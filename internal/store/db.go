package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database access layer. It is implemented by both
// *sql.DB and *sql.Tx, so store implementations can run against a plain
// connection or inside a transaction without knowing which.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
