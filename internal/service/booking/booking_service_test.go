package booking

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rsolheim/unitbooking/internal/auth"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/rsolheim/unitbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id int64) (*repository.CancelResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CancelResult), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) RangeFree(ctx context.Context, unitID int64, checkin, checkout string) (bool, error) {
	args := m.Called(ctx, unitID, checkin, checkout)
	return args.Bool(0), args.Error(1)
}

type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Unit), args.Error(1)
}

func (m *MockUnitRepository) FreeUnits(ctx context.Context, checkin, checkout string) ([]domain.Unit, error) {
	args := m.Called(ctx, checkin, checkout)
	return args.Get(0).([]domain.Unit), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetUnits(ctx context.Context) ([]domain.Unit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Unit), args.Error(1)
}

func (m *MockCache) SetUnits(ctx context.Context, units []domain.Unit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminCaller() auth.Context {
	return auth.New("admin-1", "admin@example.com", []string{"admin"})
}

func memberCaller() auth.Context {
	return auth.New("user-1", "user@example.com", nil)
}

func newTestService(bookings *MockBookingRepository, units *MockUnitRepository, cache Cache, producer Producer) *BookingService {
	return NewBookingService(
		bookings,
		units,
		cache,
		producer,
		"booking_events",
		time.Second,
		testLogger(),
		WithNotificationsTopic("notifications"),
	)
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockUnits := &MockUnitRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockUnits, nil, mockProducer)

	ctx := context.Background()
	input := CreateBookingInput{
		UnitID:       3,
		TenantName:   "Kari Nordmann",
		Company:      "Nordmann AS",
		TenantEmail:  "kari@example.com",
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-22",
	}

	mockRepo.On("RangeFree", mock.Anything, int64(3), "2024-01-01", "2024-01-22").Return(true, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 42
		}).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_events", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, adminCaller(), input)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, domain.BookingStatusBooked, created.Status)
	assert.Equal(t, input.UnitID, created.UnitID)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, &MockProducer{})

	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{
			name:  "missing unit",
			input: CreateBookingInput{CheckinDate: "2024-01-01", CheckoutDate: "2024-01-08"},
		},
		{
			name:  "six nights",
			input: CreateBookingInput{UnitID: 3, CheckinDate: "2024-01-01", CheckoutDate: "2024-01-07"},
		},
		{
			name:  "not Monday aligned",
			input: CreateBookingInput{UnitID: 3, CheckinDate: "2024-01-02", CheckoutDate: "2024-01-09"},
		},
		{
			name:  "malformed date",
			input: CreateBookingInput{UnitID: 3, CheckinDate: "01/02/2024", CheckoutDate: "2024-01-08"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := service.CreateBooking(ctx, adminCaller(), tc.input)
			assert.Nil(t, created)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// Nothing reached the store.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_AuthGuards(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockUnitRepository{}, nil, &MockProducer{})

	input := CreateBookingInput{UnitID: 3, CheckinDate: "2024-01-01", CheckoutDate: "2024-01-08"}

	_, err := service.CreateBooking(context.Background(), auth.Anonymous(), input)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = service.CreateBooking(context.Background(), memberCaller(), input)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBookingService_CreateBooking_Conflict(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, mockProducer)

	// The advisory pre-check passes but another writer wins the race
	// inside the store transaction.
	mockRepo.On("RangeFree", mock.Anything, int64(3), "2024-01-01", "2024-01-08").Return(true, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrConflict).Once()

	created, err := service.CreateBooking(context.Background(), adminCaller(), CreateBookingInput{
		UnitID:       3,
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-08",
	})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, domain.ErrConflict)
	mockProducer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PreCheckConflict(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, mockProducer)

	mockRepo.On("RangeFree", mock.Anything, int64(3), "2024-01-01", "2024-01-08").Return(false, nil).Once()

	created, err := service.CreateBooking(context.Background(), adminCaller(), CreateBookingInput{
		UnitID:       3,
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-08",
	})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, domain.ErrConflict)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_PublishFailureDoesNotFail(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, mockProducer)

	mockRepo.On("RangeFree", mock.Anything, int64(3), "2024-01-01", "2024-01-08").Return(true, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_events", mock.Anything, mock.Anything).
		Return(assert.AnError).Once()

	created, err := service.CreateBooking(context.Background(), adminCaller(), CreateBookingInput{
		UnitID:       3,
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-08",
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_GetBooking(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, &MockProducer{})

	stored := &domain.Booking{ID: 42, UnitID: 3, Status: domain.BookingStatusBooked}
	mockRepo.On("GetByID", mock.Anything, int64(42)).Return(stored, nil).Once()

	got, err := service.GetBooking(context.Background(), adminCaller(), 42)
	assert.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = service.GetBooking(context.Background(), memberCaller(), 42)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = service.GetBooking(context.Background(), adminCaller(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBookingService_CancelBooking_Idempotent(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, mockProducer)

	booking := domain.Booking{
		ID:           42,
		UnitID:       3,
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-08",
		Status:       domain.BookingStatusCancelled,
	}

	mockRepo.On("Cancel", mock.Anything, int64(42)).
		Return(&repository.CancelResult{Booking: booking}, nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_events", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	first, err := service.CancelBooking(context.Background(), adminCaller(), 42)
	assert.NoError(t, err)
	assert.False(t, first.AlreadyCancelled)

	// Second call: the store reports it was already cancelled and the
	// service sends no second notification.
	mockRepo.On("Cancel", mock.Anything, int64(42)).
		Return(&repository.CancelResult{Booking: booking, AlreadyCancelled: true}, nil).Once()

	second, err := service.CancelBooking(context.Background(), adminCaller(), 42)
	assert.NoError(t, err)
	assert.True(t, second.AlreadyCancelled)
	assert.Equal(t, "2024-01-01", second.Booking.CheckinDate)
	assert.Equal(t, "2024-01-08", second.Booking.CheckoutDate)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CancelBooking_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, &MockProducer{})

	mockRepo.On("Cancel", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound).Once()

	result, err := service.CancelBooking(context.Background(), adminCaller(), 99)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_ListAvailableUnits(t *testing.T) {
	mockUnits := &MockUnitRepository{}
	service := newTestService(&MockBookingRepository{}, mockUnits, nil, &MockProducer{})

	free := []domain.Unit{{ID: 1, UnitCode: "A-101"}, {ID: 2, UnitCode: "B-201"}}
	mockUnits.On("FreeUnits", mock.Anything, "2024-01-01", "2024-01-08").Return(free, nil).Once()

	units, err := service.ListAvailableUnits(context.Background(), memberCaller(), "2024-01-01", "2024-01-08")
	assert.NoError(t, err)
	assert.Equal(t, free, units)

	// A six-night range never reaches the store.
	_, err = service.ListAvailableUnits(context.Background(), memberCaller(), "2024-01-01", "2024-01-07")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.ListAvailableUnits(context.Background(), auth.Anonymous(), "2024-01-01", "2024-01-08")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	mockUnits.AssertExpectations(t)
}

func TestBookingService_ListUnits_CacheHit(t *testing.T) {
	mockUnits := &MockUnitRepository{}
	mockCache := &MockCache{}
	service := newTestService(&MockBookingRepository{}, mockUnits, mockCache, &MockProducer{})

	cached := []domain.Unit{{ID: 1, UnitCode: "A-101"}}
	mockCache.On("GetUnits", mock.Anything).Return(cached, nil).Once()

	units, err := service.ListUnits(context.Background(), memberCaller())
	assert.NoError(t, err)
	assert.Equal(t, cached, units)

	mockUnits.AssertNotCalled(t, "List", mock.Anything)
	mockCache.AssertExpectations(t)
}

func TestBookingService_ListUnits_CacheMiss(t *testing.T) {
	mockUnits := &MockUnitRepository{}
	mockCache := &MockCache{}
	service := newTestService(&MockBookingRepository{}, mockUnits, mockCache, &MockProducer{})

	stored := []domain.Unit{{ID: 1, UnitCode: "A-101"}, {ID: 2, UnitCode: "B-201"}}
	mockCache.On("GetUnits", mock.Anything).Return(nil, nil).Once()
	mockUnits.On("List", mock.Anything).Return(stored, nil).Once()
	mockCache.On("SetUnits", mock.Anything, stored).Return(nil).Once()

	units, err := service.ListUnits(context.Background(), memberCaller())
	assert.NoError(t, err)
	assert.Equal(t, stored, units)

	mockUnits.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestBookingService_UpdateBooking(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, &MockUnitRepository{}, nil, mockProducer)

	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).UnitID = 3
		}).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking_events", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "notifications", mock.Anything, mock.Anything).Return(nil).Once()

	updated, err := service.UpdateBooking(context.Background(), adminCaller(), UpdateBookingInput{
		BookingID:    42,
		TenantName:   "Ola Nordmann",
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-15",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), updated.UnitID)

	// Updating to a conflicting range surfaces the store's answer.
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrConflict).Once()

	_, err = service.UpdateBooking(context.Background(), adminCaller(), UpdateBookingInput{
		BookingID:    42,
		CheckinDate:  "2024-01-01",
		CheckoutDate: "2024-01-15",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	mockRepo.AssertExpectations(t)
}
