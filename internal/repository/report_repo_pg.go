package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/internal/domain"
)

// BookingWithUnit pairs a booking with its unit code for the read views.
type BookingWithUnit struct {
	Booking  domain.Booking
	UnitCode string
}

type ReportRepository interface {
	ActiveBookings(ctx context.Context) ([]BookingWithUnit, error)
	CheckoutsBetween(ctx context.Context, start, end string) ([]BookingWithUnit, error)
	OverlappingRange(ctx context.Context, start, end string) ([]BookingWithUnit, error)
}

type PGReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepository {
	return &PGReportRepository{db: db}
}

const bookingWithUnitColumns = `
	b.id, b.unit_id, COALESCE(b.tenant_name, ''), COALESCE(b.company, ''),
	COALESCE(b.tenant_email, ''), COALESCE(b.tenant_phone, ''),
	b.checkin_date::text, b.checkout_date::text, b.status, u.unit_code`

func (r *PGReportRepository) queryBookingsWithUnits(ctx context.Context, sql string, args ...any) ([]BookingWithUnit, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	out := make([]BookingWithUnit, 0)
	for rows.Next() {
		var v BookingWithUnit
		b := &v.Booking
		if err := rows.Scan(&b.ID, &b.UnitID, &b.TenantName, &b.Company, &b.TenantEmail, &b.TenantPhone,
			&b.CheckinDate, &b.CheckoutDate, &b.Status, &v.UnitCode); err != nil {
			return nil, pgError(err)
		}
		out = append(out, v)
	}
	return out, pgError(rows.Err())
}

// ActiveBookings returns every non-cancelled booking joined with its
// unit, ordered by unit code then checkin. The overview projections are
// composed from this in the report service.
func (r *PGReportRepository) ActiveBookings(ctx context.Context) ([]BookingWithUnit, error) {
	return r.queryBookingsWithUnits(ctx, `
		SELECT `+bookingWithUnitColumns+`
		FROM bookings b
		JOIN units u ON u.id = b.unit_id
		WHERE b.status <> 'cancelled'
		ORDER BY u.unit_code ASC, b.checkin_date ASC`)
}

// CheckoutsBetween lists active bookings whose checkout falls in
// (start, end], ordered for the cleaning schedule.
func (r *PGReportRepository) CheckoutsBetween(ctx context.Context, start, end string) ([]BookingWithUnit, error) {
	return r.queryBookingsWithUnits(ctx, `
		SELECT `+bookingWithUnitColumns+`
		FROM bookings b
		JOIN units u ON u.id = b.unit_id
		WHERE b.status <> 'cancelled'
		  AND b.checkout_date > $1::date
		  AND b.checkout_date <= $2::date
		ORDER BY b.checkout_date ASC, u.unit_code ASC`, start, end)
}

// OverlappingRange lists active bookings overlapping [start, end),
// ordered by checkin then unit code.
func (r *PGReportRepository) OverlappingRange(ctx context.Context, start, end string) ([]BookingWithUnit, error) {
	return r.queryBookingsWithUnits(ctx, `
		SELECT `+bookingWithUnitColumns+`
		FROM bookings b
		JOIN units u ON u.id = b.unit_id
		WHERE b.status <> 'cancelled'
		  AND b.checkin_date < $2::date
		  AND b.checkout_date > $1::date
		ORDER BY b.checkin_date ASC, u.unit_code ASC`, start, end)
}

var _ ReportRepository = (*PGReportRepository)(nil)
