package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/retry"
)

const maxSerializationAttempts = 5

// ExecuteRetryable runs fn until it stops failing with a serialization
// failure, up to a fixed number of attempts or until ctx is done.
func ExecuteRetryable(ctx context.Context, fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.Predicate(IsSerializationFailure),
		retry.Limit(maxSerializationAttempts),
		retry.Context(ctx),
	)
	return err
}

// ExecuteInTx runs fn in a new transaction at isolation and commits it if fn
// succeeds. The whole transaction is retried on serialization failures.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted
	}

	return ExecuteRetryable(ctx, func() error {
		tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
		if err != nil {
			return err
		}

		if err := fn(tx); err != nil {
			// Rollback also returns the connection to the pool.
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return errors.Wrap(rollbackErr, "failed to rollback transaction")
			}
			return err
		}

		return tx.Commit()
	})
}
