package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const UniqueViolation = "23505"

// WithTx runs fn inside a transaction opened with opts (nil for defaults).
// It commits if fn returns nil, otherwise it rolls back.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(fmt.Errorf("fn: %w", err), fmt.Errorf("rollback: %w", rbErr))
		}

		return fmt.Errorf("fn: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err carries a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}
