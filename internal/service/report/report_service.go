// Package report serves the read-only projections: per-unit occupancy
// overview, cleaning schedule and date-bounded booking reports. Pure
// queries; non-admin viewers get a redacted projection with tenant
// fields stripped.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rsolheim/unitbooking/internal/auth"
	"github.com/rsolheim/unitbooking/internal/dateutil"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/rsolheim/unitbooking/internal/repository"
)

type ReportUseCase interface {
	UnitOverview(ctx context.Context, caller auth.Context) ([]UnitOverview, error)
	CleaningPlan(ctx context.Context, caller auth.Context, start, end string) ([]CleaningEntry, error)
	BookingsReport(ctx context.Context, caller auth.Context, start, end string) ([]ReportBooking, error)
}

// OverviewBooking is a booking as shown in the per-unit overview.
type OverviewBooking struct {
	ID           int64  `json:"id"`
	TenantName   string `json:"tenant_name,omitempty"`
	Company      string `json:"company,omitempty"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

// UnitOverview is one unit's occupancy snapshot: the current occupant,
// the next arrival, everything upcoming and the cumulative completed
// nights.
type UnitOverview struct {
	UnitID               int64             `json:"unit_id"`
	UnitCode             string            `json:"unit_code"`
	Current              *OverviewBooking  `json:"current,omitempty"`
	Next                 *OverviewBooking  `json:"next,omitempty"`
	Upcoming             []OverviewBooking `json:"upcoming"`
	TotalNightsCompleted int               `json:"total_nights_completed"`
}

type CleaningEntry struct {
	UnitCode     string `json:"unit_code"`
	BookingID    int64  `json:"booking_id"`
	TenantName   string `json:"tenant_name,omitempty"`
	Company      string `json:"company,omitempty"`
	CheckoutDate string `json:"checkout_date"`
}

type ReportBooking struct {
	BookingID    int64  `json:"booking_id"`
	UnitCode     string `json:"unit_code"`
	TenantName   string `json:"tenant_name,omitempty"`
	Company      string `json:"company,omitempty"`
	TenantEmail  string `json:"tenant_email,omitempty"`
	TenantPhone  string `json:"tenant_phone,omitempty"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

type ReportService struct {
	reports      repository.ReportRepository
	units        repository.UnitRepository
	storeTimeout time.Duration
	now          func() time.Time
}

func NewReportService(reports repository.ReportRepository, units repository.UnitRepository, storeTimeout time.Duration) *ReportService {
	return &ReportService{
		reports:      reports,
		units:        units,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// UnitOverview composes the per-unit snapshot from every active booking.
// ISO date strings compare lexicographically, so "contains today" and
// ordering need no parsing.
func (s *ReportService) UnitOverview(ctx context.Context, caller auth.Context) ([]UnitOverview, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	units, err := s.units.List(storeCtx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.reports.ActiveBookings(storeCtx)
	if err != nil {
		return nil, err
	}

	byUnit := make(map[int64][]domain.Booking, len(units))
	for _, b := range bookings {
		byUnit[b.Booking.UnitID] = append(byUnit[b.Booking.UnitID], b.Booking)
	}

	today := s.today()
	redact := !caller.IsAdmin()

	out := make([]UnitOverview, 0, len(units))
	for _, u := range units {
		row := UnitOverview{UnitID: u.ID, UnitCode: u.UnitCode, Upcoming: []OverviewBooking{}}
		for _, b := range byUnit[u.ID] {
			switch {
			case b.CheckinDate <= today && b.CheckoutDate > today:
				cur := toOverviewBooking(b, redact)
				row.Current = &cur
			case b.CheckinDate > today:
				row.Upcoming = append(row.Upcoming, toOverviewBooking(b, redact))
				if row.Next == nil {
					next := toOverviewBooking(b, redact)
					row.Next = &next
				}
			case b.CheckoutDate <= today:
				if nights, ok := dateutil.NightsBetween(b.CheckinDate, b.CheckoutDate); ok {
					row.TotalNightsCompleted += nights
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// CleaningPlan lists checkouts falling in (start, end] so turnover
// cleaning can be scheduled.
func (s *ReportService) CleaningPlan(ctx context.Context, caller auth.Context, start, end string) ([]CleaningEntry, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateReportRange(start, end); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	rows, err := s.reports.CheckoutsBetween(storeCtx, start, end)
	if err != nil {
		return nil, err
	}

	redact := !caller.IsAdmin()
	out := make([]CleaningEntry, 0, len(rows))
	for _, r := range rows {
		entry := CleaningEntry{
			UnitCode:     r.UnitCode,
			BookingID:    r.Booking.ID,
			CheckoutDate: r.Booking.CheckoutDate,
		}
		if !redact {
			entry.TenantName = r.Booking.TenantName
			entry.Company = r.Booking.Company
		}
		out = append(out, entry)
	}
	return out, nil
}

// BookingsReport lists bookings overlapping [start, end). Admins see
// tenant contact fields; everyone else gets date ranges only.
func (s *ReportService) BookingsReport(ctx context.Context, caller auth.Context, start, end string) ([]ReportBooking, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateReportRange(start, end); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	rows, err := s.reports.OverlappingRange(storeCtx, start, end)
	if err != nil {
		return nil, err
	}

	redact := !caller.IsAdmin()
	out := make([]ReportBooking, 0, len(rows))
	for _, r := range rows {
		rb := ReportBooking{
			BookingID:    r.Booking.ID,
			UnitCode:     r.UnitCode,
			CheckinDate:  r.Booking.CheckinDate,
			CheckoutDate: r.Booking.CheckoutDate,
		}
		if !redact {
			rb.TenantName = r.Booking.TenantName
			rb.Company = r.Booking.Company
			rb.TenantEmail = r.Booking.TenantEmail
			rb.TenantPhone = r.Booking.TenantPhone
		}
		out = append(out, rb)
	}
	return out, nil
}

func (s *ReportService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func (s *ReportService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func toOverviewBooking(b domain.Booking, redact bool) OverviewBooking {
	ob := OverviewBooking{
		ID:           b.ID,
		CheckinDate:  b.CheckinDate,
		CheckoutDate: b.CheckoutDate,
	}
	if !redact {
		ob.TenantName = b.TenantName
		ob.Company = b.Company
	}
	return ob
}

func validateReportRange(start, end string) error {
	if !dateutil.IsISODate(start) || !dateutil.IsISODate(end) {
		return fmt.Errorf("%w: start and end must be YYYY-MM-DD", domain.ErrValidation)
	}
	if start >= end {
		return fmt.Errorf("%w: start must be before end", domain.ErrValidation)
	}
	return nil
}

var _ ReportUseCase = (*ReportService)(nil)
