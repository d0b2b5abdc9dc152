package domain

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed (or cancelled) reservation of one unit for the
// half-open date range [CheckinDate, CheckoutDate). Dates are ISO
// YYYY-MM-DD strings; no two booked rows on the same unit may overlap.
type Booking struct {
	ID           int64
	UnitID       int64
	TenantName   string
	Company      string
	TenantEmail  string
	TenantPhone  string
	CheckinDate  string
	CheckoutDate string
	Status       BookingStatus
}
