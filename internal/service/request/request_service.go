// Package request drives the booking request workflow: lines are
// submitted pending and move exactly once to approved or rejected.
// Approval converts the line into a confirmed booking in the same store
// transaction.
package request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rsolheim/unitbooking/internal/auth"
	"github.com/rsolheim/unitbooking/internal/dateutil"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/rsolheim/unitbooking/internal/kafka"
	"github.com/rsolheim/unitbooking/internal/pricing"
	"github.com/rsolheim/unitbooking/internal/repository"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"

	recentWindow = 30 * 24 * time.Hour
)

type RequestUseCase interface {
	Submit(ctx context.Context, caller auth.Context, input SubmitInput) (*domain.BookingRequest, []domain.BookingRequestLine, error)
	Decide(ctx context.Context, caller auth.Context, input DecideInput) (*DecideOutcome, error)
	ListRecent(ctx context.Context, caller auth.Context) (*Listing, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SubmitInput struct {
	RequesterEmail string       `json:"requester_email"`
	RequesterPhone string       `json:"requester_phone"`
	Lines          []SubmitLine `json:"lines"`
}

type SubmitLine struct {
	UnitID       int64  `json:"unit_id"`
	TenantName   string `json:"tenant_name"`
	Company      string `json:"company"`
	Comment      string `json:"comment"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

type DecideInput struct {
	LineID int64  `json:"line_id"`
	Action string `json:"action"`
}

// DecideOutcome reports the decided line; Booking is set only for
// approvals.
type DecideOutcome struct {
	Line    *domain.BookingRequestLine
	Booking *domain.Booking
}

type Listing struct {
	PendingCount int
	Lines        []repository.RequestLineView
}

type RequestService struct {
	requests           repository.RequestRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	maxLines           int
	storeTimeout       time.Duration
	log                *slog.Logger
}

type RequestServiceOption func(*RequestService)

func WithNotificationsTopic(topic string) RequestServiceOption {
	return func(s *RequestService) {
		s.notificationsTopic = topic
	}
}

func NewRequestService(
	requests repository.RequestRepository,
	producer Producer,
	eventsTopic string,
	maxLines int,
	storeTimeout time.Duration,
	log *slog.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	service := &RequestService{
		requests:     requests,
		producer:     producer,
		eventsTopic:  eventsTopic,
		maxLines:     maxLines,
		storeTimeout: storeTimeout,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Submit validates every line before anything is created, then persists
// the envelope and all lines in one transaction. Any conflict rejects
// the whole submission; no partial request is ever stored.
func (s *RequestService) Submit(ctx context.Context, caller auth.Context, input SubmitInput) (*domain.BookingRequest, []domain.BookingRequestLine, error) {
	if !caller.Authenticated() {
		return nil, nil, domain.ErrUnauthenticated
	}
	if len(input.Lines) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one line is required", domain.ErrValidation)
	}
	if len(input.Lines) > s.maxLines {
		return nil, nil, fmt.Errorf("%w: at most %d lines per submission", domain.ErrValidation, s.maxLines)
	}

	lines := make([]domain.BookingRequestLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.UnitID <= 0 {
			return nil, nil, fmt.Errorf("%w: unit_id is required on every line", domain.ErrValidation)
		}
		if err := dateutil.ValidateRange(in.CheckinDate, in.CheckoutDate); err != nil {
			return nil, nil, err
		}
		lines = append(lines, domain.BookingRequestLine{
			UnitID:       in.UnitID,
			TenantName:   strings.TrimSpace(in.TenantName),
			Company:      strings.TrimSpace(in.Company),
			Comment:      strings.TrimSpace(in.Comment),
			CheckinDate:  in.CheckinDate,
			CheckoutDate: in.CheckoutDate,
		})
	}

	req := &domain.BookingRequest{
		RequestedByUserID: caller.UserID,
		RequestedByEmail:  caller.Email,
		RequesterEmail:    strings.TrimSpace(input.RequesterEmail),
		RequesterPhone:    strings.TrimSpace(input.RequesterPhone),
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.requests.Submit(storeCtx, req, lines); err != nil {
		return nil, nil, err
	}

	for _, ln := range lines {
		s.publish(ctx, kafka.BookingEvent{
			Type:         kafka.EventRequestSubmitted,
			RequestID:    req.ID,
			LineID:       ln.ID,
			UnitID:       ln.UnitID,
			TenantName:   ln.TenantName,
			Company:      ln.Company,
			CheckinDate:  ln.CheckinDate,
			CheckoutDate: ln.CheckoutDate,
		}, false)
	}

	return req, lines, nil
}

// Decide applies a terminal decision to a pending line. Approval creates
// the confirmed booking and flips the line atomically; a conflict found
// at approval time leaves the line pending so the decider can re-triage
// (the requester may want another unit rather than an auto-reject).
// Deciding a decided line fails with ErrAlreadyDecided and re-sends
// nothing.
func (s *RequestService) Decide(ctx context.Context, caller auth.Context, input DecideInput) (*DecideOutcome, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if input.LineID <= 0 {
		return nil, fmt.Errorf("%w: line_id is required", domain.ErrValidation)
	}
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("%w: action must be %q or %q", domain.ErrValidation, ActionApprove, ActionReject)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	view, err := s.requests.GetLine(storeCtx, input.LineID)
	if err != nil {
		return nil, err
	}
	recipient := view.RequesterEmail
	if recipient == "" {
		recipient = view.RequestedByEmail
	}

	if action == ActionReject {
		line, err := s.requests.Reject(storeCtx, input.LineID, caller.UserID)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, kafka.BookingEvent{
			Type:           kafka.EventLineRejected,
			RequestID:      line.RequestID,
			LineID:         line.ID,
			UnitID:         line.UnitID,
			UnitCode:       view.UnitCode,
			RecipientEmail: recipient,
			CheckinDate:    line.CheckinDate,
			CheckoutDate:   line.CheckoutDate,
		}, true)
		return &DecideOutcome{Line: line}, nil
	}

	line, bk, err := s.requests.Approve(storeCtx, input.LineID, caller.UserID, recipient, view.RequesterPhone)
	if err != nil {
		return nil, err
	}

	event := kafka.BookingEvent{
		Type:           kafka.EventLineApproved,
		BookingID:      bk.ID,
		RequestID:      line.RequestID,
		LineID:         line.ID,
		UnitID:         line.UnitID,
		UnitCode:       view.UnitCode,
		TenantName:     line.TenantName,
		Company:        line.Company,
		RecipientEmail: recipient,
		CheckinDate:    line.CheckinDate,
		CheckoutDate:   line.CheckoutDate,
	}
	if total, ok := pricing.ForRange(line.CheckinDate, line.CheckoutDate); ok {
		event.PriceTotal = total
	}
	s.publish(ctx, event, true)

	return &DecideOutcome{Line: line, Booking: bk}, nil
}

// ListRecent is the admin triage view: lines from the last 30 days,
// pending first.
func (s *RequestService) ListRecent(ctx context.Context, caller auth.Context) (*Listing, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	views, err := s.requests.ListRecent(storeCtx, time.Now().UTC().Add(-recentWindow))
	if err != nil {
		return nil, err
	}

	pending := 0
	for _, v := range views {
		if v.Line.Status == domain.LineStatusPending {
			pending++
		}
	}
	return &Listing{PendingCount: pending, Lines: views}, nil
}

func (s *RequestService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *RequestService) publish(ctx context.Context, event kafka.BookingEvent, notify bool) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	key := uuid.NewString()
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		s.log.Warn("publish request event failed", "type", event.Type, "line_id", event.LineID, "error", err)
		return
	}
	if notify && s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.log.Warn("publish notification failed", "type", event.Type, "line_id", event.LineID, "error", err)
		}
	}
}

func requireAdmin(caller auth.Context) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

var _ RequestUseCase = (*RequestService)(nil)
