package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/internal/domain"
)

type UnitRepository interface {
	List(ctx context.Context) ([]domain.Unit, error)
	FreeUnits(ctx context.Context, checkin, checkout string) ([]domain.Unit, error)
}

type PGUnitRepository struct {
	db *pgxpool.Pool
}

func NewUnitRepository(db *pgxpool.Pool) UnitRepository {
	return &PGUnitRepository{db: db}
}

func (r *PGUnitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	rows, err := r.db.Query(ctx, `SELECT id, unit_code FROM units ORDER BY unit_code ASC`)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	units := make([]domain.Unit, 0)
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.UnitCode); err != nil {
			return nil, pgError(err)
		}
		units = append(units, u)
	}
	return units, pgError(rows.Err())
}

// FreeUnits returns every unit with no overlapping active booking and no
// overlapping pending request line for the half-open range, ordered by
// unit code. Pending lines count as soft reservations so two requesters
// are never both told a window is available.
func (r *PGUnitRepository) FreeUnits(ctx context.Context, checkin, checkout string) ([]domain.Unit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.unit_code
		FROM units u
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.unit_id = u.id
			  AND b.status <> 'cancelled'
			  AND b.checkin_date < $2::date
			  AND b.checkout_date > $1::date
		)
		AND NOT EXISTS (
			SELECT 1 FROM booking_request_lines rl
			WHERE rl.unit_id = u.id
			  AND rl.status = 'pending'
			  AND rl.checkin_date < $2::date
			  AND rl.checkout_date > $1::date
		)
		ORDER BY u.unit_code ASC`, checkin, checkout)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	units := make([]domain.Unit, 0)
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.UnitCode); err != nil {
			return nil, pgError(err)
		}
		units = append(units, u)
	}
	return units, pgError(rows.Err())
}

var _ UnitRepository = (*PGUnitRepository)(nil)
