package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rsolheim/unitbooking/internal/auth"
	"github.com/rsolheim/unitbooking/internal/dateutil"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/rsolheim/unitbooking/internal/kafka"
	"github.com/rsolheim/unitbooking/internal/pricing"
	"github.com/rsolheim/unitbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, caller auth.Context, input CreateBookingInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, caller auth.Context, input UpdateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, caller auth.Context, id int64) (*repository.CancelResult, error)
	GetBooking(ctx context.Context, caller auth.Context, id int64) (*domain.Booking, error)
	ListUnits(ctx context.Context, caller auth.Context) ([]domain.Unit, error)
	ListAvailableUnits(ctx context.Context, caller auth.Context, checkin, checkout string) ([]domain.Unit, error)
}

type Cache interface {
	GetUnits(ctx context.Context) ([]domain.Unit, error)
	SetUnits(ctx context.Context, units []domain.Unit) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	units              repository.UnitRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	storeTimeout       time.Duration
	log                *slog.Logger
}

type CreateBookingInput struct {
	UnitID       int64  `json:"unit_id"`
	TenantName   string `json:"tenant_name"`
	Company      string `json:"company"`
	TenantEmail  string `json:"tenant_email"`
	TenantPhone  string `json:"tenant_phone"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

type UpdateBookingInput struct {
	BookingID    int64  `json:"booking_id"`
	TenantName   string `json:"tenant_name"`
	Company      string `json:"company"`
	TenantEmail  string `json:"tenant_email"`
	TenantPhone  string `json:"tenant_phone"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	units repository.UnitRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	storeTimeout time.Duration,
	log *slog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		units:        units,
		cache:        cache,
		producer:     producer,
		eventsTopic:  eventsTopic,
		storeTimeout: storeTimeout,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking records a direct admin booking. Validation and the
// advisory conflict check run before any write; the authoritative check
// repeats inside the store transaction, so a racing caller loses with
// ErrConflict rather than double-booking the unit.
func (s *BookingService) CreateBooking(ctx context.Context, caller auth.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if input.UnitID <= 0 {
		return nil, fmt.Errorf("%w: unit_id is required", domain.ErrValidation)
	}
	if err := dateutil.ValidateRange(input.CheckinDate, input.CheckoutDate); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UnitID:       input.UnitID,
		TenantName:   input.TenantName,
		Company:      input.Company,
		TenantEmail:  input.TenantEmail,
		TenantPhone:  input.TenantPhone,
		CheckinDate:  input.CheckinDate,
		CheckoutDate: input.CheckoutDate,
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	free, err := s.bookings.RangeFree(storeCtx, booking.UnitID, booking.CheckinDate, booking.CheckoutDate)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fmt.Errorf("%w: unit %d is booked for that range", domain.ErrConflict, booking.UnitID)
	}

	if err := s.bookings.Create(storeCtx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// UpdateBooking rewrites an active booking's tenant fields and range.
func (s *BookingService) UpdateBooking(ctx context.Context, caller auth.Context, input UpdateBookingInput) (*domain.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if input.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}
	if err := dateutil.ValidateRange(input.CheckinDate, input.CheckoutDate); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:           input.BookingID,
		TenantName:   input.TenantName,
		Company:      input.Company,
		TenantEmail:  input.TenantEmail,
		TenantPhone:  input.TenantPhone,
		CheckinDate:  input.CheckinDate,
		CheckoutDate: input.CheckoutDate,
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.bookings.Update(storeCtx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingUpdated, booking)
	return booking, nil
}

// CancelBooking soft-cancels a booking. Cancelling twice is a benign
// retry: both calls succeed, the second reports AlreadyCancelled and
// sends no second notification.
func (s *BookingService) CancelBooking(ctx context.Context, caller auth.Context, id int64) (*repository.CancelResult, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	result, err := s.bookings.Cancel(storeCtx, id)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCancelled {
		s.publish(ctx, kafka.EventBookingCancelled, &result.Booking)
	}
	return result, nil
}

func (s *BookingService) GetBooking(ctx context.Context, caller auth.Context, id int64) (*domain.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.bookings.GetByID(storeCtx, id)
}

// ListUnits returns the static unit reference set, cached since it only
// changes out of band.
func (s *BookingService) ListUnits(ctx context.Context, caller auth.Context) ([]domain.Unit, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if s.cache != nil {
		if cached, err := s.cache.GetUnits(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	units, err := s.units.List(storeCtx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetUnits(ctx, units)
	}
	return units, nil
}

// ListAvailableUnits returns every unit free for the range, checking
// both confirmed bookings and pending request lines. Never cached.
func (s *BookingService) ListAvailableUnits(ctx context.Context, caller auth.Context, checkin, checkout string) ([]domain.Unit, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if err := dateutil.ValidateRange(checkin, checkout); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.units.FreeUnits(storeCtx, checkin, checkout)
}

func (s *BookingService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:           eventType,
		BookingID:      booking.ID,
		UnitID:         booking.UnitID,
		TenantName:     booking.TenantName,
		Company:        booking.Company,
		RecipientEmail: booking.TenantEmail,
		CheckinDate:    booking.CheckinDate,
		CheckoutDate:   booking.CheckoutDate,
	}
	if total, ok := pricing.ForRange(booking.CheckinDate, booking.CheckoutDate); ok {
		event.PriceTotal = total
	}

	key := uuid.NewString()
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		s.log.Warn("publish booking event failed", "type", eventType, "booking_id", booking.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.log.Warn("publish notification failed", "type", eventType, "booking_id", booking.ID, "error", err)
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

var _ BookingUseCase = (*BookingService)(nil)
