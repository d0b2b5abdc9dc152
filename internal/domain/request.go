package domain

import "time"

type LineStatus string

const (
	LineStatusPending  LineStatus = "pending"
	LineStatusApproved LineStatus = "approved"
	LineStatusRejected LineStatus = "rejected"
)

// BookingRequest is the envelope a requester submits; it owns its lines.
type BookingRequest struct {
	ID                int64
	RequestedByUserID string
	RequestedByEmail  string
	RequesterEmail    string
	RequesterPhone    string
	CreatedAt         time.Time
}

// BookingRequestLine is one candidate reservation inside a request.
// Once decided it is immutable; an approved line points at the booking
// it produced via ApprovedBookingID.
type BookingRequestLine struct {
	ID                int64
	RequestID         int64
	UnitID            int64
	TenantName        string
	Company           string
	Comment           string
	CheckinDate       string
	CheckoutDate      string
	Status            LineStatus
	ApprovedBookingID *int64
	DecidedAt         *time.Time
	DecidedByUserID   string
	CreatedAt         time.Time
}
