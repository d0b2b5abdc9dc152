package repository

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/internal/domain"
)

// RequestLineView is the admin listing projection: a line joined with
// its request envelope and unit code.
type RequestLineView struct {
	Line             domain.BookingRequestLine
	UnitCode         string
	RequestedByEmail string
	RequesterEmail   string
	RequesterPhone   string
}

type RequestRepository interface {
	Submit(ctx context.Context, req *domain.BookingRequest, lines []domain.BookingRequestLine) error
	GetLine(ctx context.Context, lineID int64) (*RequestLineView, error)
	Reject(ctx context.Context, lineID int64, decidedBy string) (*domain.BookingRequestLine, error)
	Approve(ctx context.Context, lineID int64, decidedBy string, tenantEmail, tenantPhone string) (*domain.BookingRequestLine, *domain.Booking, error)
	ListRecent(ctx context.Context, since time.Time) ([]RequestLineView, error)
}

type PGRequestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) RequestRepository {
	return &PGRequestRepository{db: db}
}

func pendingOverlapExists(ctx context.Context, q querier, unitID int64, checkin, checkout string) (bool, error) {
	var one int
	err := q.QueryRow(ctx, `
		SELECT 1 FROM booking_request_lines
		WHERE unit_id = $1
		  AND status = 'pending'
		  AND checkin_date < $3::date
		  AND checkout_date > $2::date
		LIMIT 1`, unitID, checkin, checkout).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Submit persists one envelope plus all its lines, or nothing. Every
// line is checked against active bookings and pending lines inside the
// transaction; the advisory locks (taken in sorted order to keep lock
// acquisition deadlock-free) keep concurrent submissions for the same
// units serial.
func (r *PGRequestRepository) Submit(ctx context.Context, req *domain.BookingRequest, lines []domain.BookingRequestLine) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return pgError(err)
	}
	defer tx.Rollback(ctx)

	for _, unitID := range distinctUnitIDs(lines) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, unitID); err != nil {
			return pgError(err)
		}
	}

	for _, ln := range lines {
		conflict, err := overlapExists(ctx, tx, ln.UnitID, ln.CheckinDate, ln.CheckoutDate, 0)
		if err != nil {
			return pgError(err)
		}
		if conflict {
			return domain.ErrConflict
		}
		pending, err := pendingOverlapExists(ctx, tx, ln.UnitID, ln.CheckinDate, ln.CheckoutDate)
		if err != nil {
			return pgError(err)
		}
		if pending {
			return domain.ErrConflict
		}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO booking_requests (requested_by_user_id, requested_by_email, requester_email, requester_phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		req.RequestedByUserID, req.RequestedByEmail, req.RequesterEmail, req.RequesterPhone).
		Scan(&req.ID, &req.CreatedAt); err != nil {
		return pgError(err)
	}

	for i := range lines {
		lines[i].RequestID = req.ID
		lines[i].Status = domain.LineStatusPending
		if err := tx.QueryRow(ctx, `
			INSERT INTO booking_request_lines (request_id, unit_id, tenant_name, company, comment, checkin_date, checkout_date, status)
			VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, 'pending')
			RETURNING id, created_at`,
			req.ID, lines[i].UnitID, lines[i].TenantName, lines[i].Company, lines[i].Comment, lines[i].CheckinDate, lines[i].CheckoutDate).
			Scan(&lines[i].ID, &lines[i].CreatedAt); err != nil {
			return pgError(err)
		}
	}

	return pgError(tx.Commit(ctx))
}

const lineViewColumns = `
	rl.id, rl.request_id, rl.unit_id, rl.tenant_name, rl.company, rl.comment,
	rl.checkin_date::text, rl.checkout_date::text, rl.status,
	rl.approved_booking_id, rl.decided_at, rl.decided_by_user_id, rl.created_at,
	u.unit_code, COALESCE(r.requested_by_email, ''), COALESCE(r.requester_email, ''), COALESCE(r.requester_phone, '')`

func scanLineView(row pgx.Row) (*RequestLineView, error) {
	var v RequestLineView
	ln := &v.Line
	var tenantName, company, comment, decidedBy *string
	if err := row.Scan(
		&ln.ID, &ln.RequestID, &ln.UnitID, &tenantName, &company, &comment,
		&ln.CheckinDate, &ln.CheckoutDate, &ln.Status,
		&ln.ApprovedBookingID, &ln.DecidedAt, &decidedBy, &ln.CreatedAt,
		&v.UnitCode, &v.RequestedByEmail, &v.RequesterEmail, &v.RequesterPhone,
	); err != nil {
		return nil, err
	}
	ln.TenantName = deref(tenantName)
	ln.Company = deref(company)
	ln.Comment = deref(comment)
	ln.DecidedByUserID = deref(decidedBy)
	return &v, nil
}

func (r *PGRequestRepository) GetLine(ctx context.Context, lineID int64) (*RequestLineView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+lineViewColumns+`
		FROM booking_request_lines rl
		JOIN booking_requests r ON r.id = rl.request_id
		JOIN units u ON u.id = rl.unit_id
		WHERE rl.id = $1`, lineID)
	v, err := scanLineView(row)
	if err != nil {
		return nil, pgError(err)
	}
	return v, nil
}

// Reject is a terminal transition with no side effect. The row lock and
// the pending guard together make a second decision fail with
// ErrAlreadyDecided instead of overwriting the first.
func (r *PGRequestRepository) Reject(ctx context.Context, lineID int64, decidedBy string) (*domain.BookingRequestLine, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, pgError(err)
	}
	defer tx.Rollback(ctx)

	ln, err := lockPendingLine(ctx, tx, lineID)
	if err != nil {
		return nil, err
	}

	var decidedAt time.Time
	if err := tx.QueryRow(ctx, `
		UPDATE booking_request_lines
		SET status = 'rejected', decided_at = now(), decided_by_user_id = $2
		WHERE id = $1
		RETURNING decided_at`, lineID, decidedBy).Scan(&decidedAt); err != nil {
		return nil, pgError(err)
	}

	ln.Status = domain.LineStatusRejected
	ln.DecidedAt = &decidedAt
	ln.DecidedByUserID = decidedBy
	return ln, pgError(tx.Commit(ctx))
}

// Approve converts a pending line into a confirmed booking and flips the
// line, as one atomic unit: the line is never approved without its
// booking, nor the reverse. Availability is re-checked against confirmed
// bookings only — the line's own pending reservation is the sole pending
// occupant of its window, but a booking may have landed since
// submission. On conflict the line stays pending for manual re-triage.
func (r *PGRequestRepository) Approve(ctx context.Context, lineID int64, decidedBy string, tenantEmail, tenantPhone string) (*domain.BookingRequestLine, *domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, pgError(err)
	}
	defer tx.Rollback(ctx)

	ln, err := lockPendingLine(ctx, tx, lineID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ln.UnitID); err != nil {
		return nil, nil, pgError(err)
	}

	conflict, err := overlapExists(ctx, tx, ln.UnitID, ln.CheckinDate, ln.CheckoutDate, 0)
	if err != nil {
		return nil, nil, pgError(err)
	}
	if conflict {
		return nil, nil, domain.ErrConflict
	}

	booking := &domain.Booking{
		UnitID:       ln.UnitID,
		TenantName:   ln.TenantName,
		Company:      ln.Company,
		TenantEmail:  tenantEmail,
		TenantPhone:  tenantPhone,
		CheckinDate:  ln.CheckinDate,
		CheckoutDate: ln.CheckoutDate,
		Status:       domain.BookingStatusBooked,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO bookings (unit_id, tenant_name, company, tenant_email, tenant_phone, checkin_date, checkout_date, status)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, 'booked')
		RETURNING id`,
		booking.UnitID, booking.TenantName, booking.Company, booking.TenantEmail, booking.TenantPhone, booking.CheckinDate, booking.CheckoutDate).
		Scan(&booking.ID); err != nil {
		return nil, nil, pgError(err)
	}

	var decidedAt time.Time
	if err := tx.QueryRow(ctx, `
		UPDATE booking_request_lines
		SET status = 'approved', approved_booking_id = $2, decided_at = now(), decided_by_user_id = $3
		WHERE id = $1
		RETURNING decided_at`, lineID, booking.ID, decidedBy).Scan(&decidedAt); err != nil {
		return nil, nil, pgError(err)
	}

	ln.Status = domain.LineStatusApproved
	ln.ApprovedBookingID = &booking.ID
	ln.DecidedAt = &decidedAt
	ln.DecidedByUserID = decidedBy
	return ln, booking, pgError(tx.Commit(ctx))
}

// ListRecent returns lines created since the cutoff, pending first, then
// newest first.
func (r *PGRequestRepository) ListRecent(ctx context.Context, since time.Time) ([]RequestLineView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+lineViewColumns+`
		FROM booking_request_lines rl
		JOIN booking_requests r ON r.id = rl.request_id
		JOIN units u ON u.id = rl.unit_id
		WHERE rl.created_at >= $1
		ORDER BY CASE WHEN rl.status = 'pending' THEN 0 ELSE 1 END, rl.created_at DESC`, since)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	views := make([]RequestLineView, 0)
	for rows.Next() {
		v, err := scanLineView(rows)
		if err != nil {
			return nil, pgError(err)
		}
		views = append(views, *v)
	}
	return views, pgError(rows.Err())
}

// lockPendingLine loads a line under FOR UPDATE and enforces the state
// machine guard: missing line is ErrNotFound, non-pending is
// ErrAlreadyDecided.
func lockPendingLine(ctx context.Context, tx pgx.Tx, lineID int64) (*domain.BookingRequestLine, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, request_id, unit_id, COALESCE(tenant_name, ''), COALESCE(company, ''), COALESCE(comment, ''),
		       checkin_date::text, checkout_date::text, status, created_at
		FROM booking_request_lines
		WHERE id = $1
		FOR UPDATE`, lineID)
	var ln domain.BookingRequestLine
	if err := row.Scan(&ln.ID, &ln.RequestID, &ln.UnitID, &ln.TenantName, &ln.Company, &ln.Comment,
		&ln.CheckinDate, &ln.CheckoutDate, &ln.Status, &ln.CreatedAt); err != nil {
		return nil, pgError(err)
	}
	if ln.Status != domain.LineStatusPending {
		return nil, domain.ErrAlreadyDecided
	}
	return &ln, nil
}

func distinctUnitIDs(lines []domain.BookingRequestLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, ln := range lines {
		if _, ok := seen[ln.UnitID]; !ok {
			seen[ln.UnitID] = struct{}{}
			ids = append(ids, ln.UnitID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ RequestRepository = (*PGRequestRepository)(nil)
