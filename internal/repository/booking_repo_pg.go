package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/internal/domain"
)

type CancelResult struct {
	Booking          domain.Booking
	AlreadyCancelled bool
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Update(ctx context.Context, b *domain.Booking) error
	Cancel(ctx context.Context, id int64) (*CancelResult, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	RangeFree(ctx context.Context, unitID int64, checkin, checkout string) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, unit_id, COALESCE(tenant_name, ''), COALESCE(company, ''), COALESCE(tenant_email, ''), COALESCE(tenant_phone, ''), checkin_date::text, checkout_date::text, status`

// overlapExists reports whether any non-cancelled booking on the unit
// overlaps [checkin, checkout), excluding excludeID when > 0. Half-open
// semantics: back-to-back checkout/checkin on the same day is no overlap.
func overlapExists(ctx context.Context, q querier, unitID int64, checkin, checkout string, excludeID int64) (bool, error) {
	var one int
	err := q.QueryRow(ctx, `
		SELECT 1 FROM bookings
		WHERE unit_id = $1
		  AND id <> $4
		  AND status <> 'cancelled'
		  AND checkin_date < $3::date
		  AND checkout_date > $2::date
		LIMIT 1`, unitID, checkin, checkout, excludeID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create inserts a booked row after a conflict check executed in the
// same transaction. The advisory lock keyed by unit id serializes every
// check-then-insert on that unit, so a losing racer sees the winner's
// row and gets ErrConflict instead of corrupting the no-overlap
// invariant.
func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pgError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, b.UnitID); err != nil {
		return pgError(err)
	}

	conflict, err := overlapExists(ctx, tx, b.UnitID, b.CheckinDate, b.CheckoutDate, 0)
	if err != nil {
		return pgError(err)
	}
	if conflict {
		return domain.ErrConflict
	}

	b.Status = domain.BookingStatusBooked
	if err := tx.QueryRow(ctx, `
		INSERT INTO bookings (unit_id, tenant_name, company, tenant_email, tenant_phone, checkin_date, checkout_date, status)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8)
		RETURNING id`,
		b.UnitID, b.TenantName, b.Company, b.TenantEmail, b.TenantPhone, b.CheckinDate, b.CheckoutDate, b.Status).
		Scan(&b.ID); err != nil {
		return pgError(err)
	}

	return pgError(tx.Commit(ctx))
}

// Update rewrites the tenant fields and range of an active booking. The
// conflict check excludes the booking itself so an unchanged range is
// never its own conflict. Cancelled bookings are not editable.
func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pgError(err)
	}
	defer tx.Rollback(ctx)

	var unitID int64
	if err := tx.QueryRow(ctx, `SELECT unit_id FROM bookings WHERE id = $1 AND status <> 'cancelled'`, b.ID).Scan(&unitID); err != nil {
		return pgError(err)
	}
	b.UnitID = unitID

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, unitID); err != nil {
		return pgError(err)
	}

	conflict, err := overlapExists(ctx, tx, unitID, b.CheckinDate, b.CheckoutDate, b.ID)
	if err != nil {
		return pgError(err)
	}
	if conflict {
		return domain.ErrConflict
	}

	if _, err := tx.Exec(ctx, `
		UPDATE bookings
		SET tenant_name = $1, company = $2, tenant_email = $3, tenant_phone = $4,
		    checkin_date = $5::date, checkout_date = $6::date
		WHERE id = $7`,
		b.TenantName, b.Company, b.TenantEmail, b.TenantPhone, b.CheckinDate, b.CheckoutDate, b.ID); err != nil {
		return pgError(err)
	}

	b.Status = domain.BookingStatusBooked
	return pgError(tx.Commit(ctx))
}

// Cancel flips a booking to cancelled. Cancelling twice is a benign
// retry: the second call succeeds and reports AlreadyCancelled without
// touching the row. History is retained; rows are never deleted.
func (r *PGBookingRepository) Cancel(ctx context.Context, id int64) (*CancelResult, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, pgError(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UnitID, &b.TenantName, &b.Company, &b.TenantEmail, &b.TenantPhone, &b.CheckinDate, &b.CheckoutDate, &b.Status); err != nil {
		return nil, pgError(err)
	}

	if b.Status == domain.BookingStatusCancelled {
		return &CancelResult{Booking: b, AlreadyCancelled: true}, pgError(tx.Commit(ctx))
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status = 'cancelled' WHERE id = $1`, id); err != nil {
		return nil, pgError(err)
	}
	b.Status = domain.BookingStatusCancelled

	return &CancelResult{Booking: b}, pgError(tx.Commit(ctx))
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UnitID, &b.TenantName, &b.Company, &b.TenantEmail, &b.TenantPhone, &b.CheckinDate, &b.CheckoutDate, &b.Status); err != nil {
		return nil, pgError(err)
	}
	return &b, nil
}

// RangeFree is the advisory pre-check against confirmed bookings only.
// The authoritative check runs inside Create/Update/Approve transactions.
func (r *PGBookingRepository) RangeFree(ctx context.Context, unitID int64, checkin, checkout string) (bool, error) {
	conflict, err := overlapExists(ctx, r.db, unitID, checkin, checkout, 0)
	if err != nil {
		return false, pgError(err)
	}
	return !conflict, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
