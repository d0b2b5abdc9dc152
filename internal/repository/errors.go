package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rsolheim/unitbooking/internal/domain"
)

// pgError translates driver failures into the domain taxonomy. Deadline
// and cancellation become ErrUnavailable (transient, retryable with
// backoff); serialization failures and deadlocks mean this caller lost a
// race and surface as ErrConflict; everything else passes through.
func pgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ErrUnavailable
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.ErrConflict
		case "57014", "55P03": // query_canceled, lock_not_available
			return domain.ErrUnavailable
		}
	}
	return err
}
