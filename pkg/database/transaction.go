package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// WithinTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics. Rollback
// failures are logged, not returned; fn's error is what the caller sees.
func WithinTx(ctx context.Context, db DB, logger ectologger.Logger, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to begin transaction")
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback() //nolint:errcheck
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logger.WithContext(ctx).WithError(rbErr).Warn("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}
