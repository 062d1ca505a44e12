package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lociapp/loci-api/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction. The
// transaction is committed if the function returns nil and rolled back
// otherwise.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes fn within a database transaction. This is the
// single-writer discipline for entities: mutations read with GetForUpdate
// inside the transaction, so two concurrent updates to the same row cannot
// interleave their read-modify-write.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	// Roll back on panic, then re-raise.
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}

	return nil
}
