package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// isPgDuplicateError checks if error is a unique constraint violation
func isPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// isPgNoRowsError checks if error is a "no rows" error
func isPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isPgConnectionError reports failures to reach the server at all.
func isPgConnectionError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.Timeout(err)
}

func mapError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case isPgNoRowsError(err):
		return item.NewNotFoundError(id)
	case isPgDuplicateError(err):
		return item.NewDuplicateKeyError(id, err)
	case isPgConnectionError(err):
		return item.NewUnavailableError("postgres unavailable", err)
	default:
		return err
	}
}
