package mocks

import (
	"context"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// ===== BookingService =====

type MockBookingService struct {
	mock.Mock
}

func NewMockBookingService(t testingT) *MockBookingService {
	m := &MockBookingService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, query model.ListBookingsQuery) ([]*model.Booking, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateBooking(ctx context.Context, id uuid.UUID, req model.UpdateBookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) GenerateInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

// ===== ReservationService =====

type MockReservationService struct {
	mock.Mock
}

func NewMockReservationService(t testingT) *MockReservationService {
	m := &MockReservationService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReservationService) ReserveSeat(ctx context.Context, req model.ReserveSeatRequest) (*model.BookingSeat, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockReservationService) GetBookingSeat(ctx context.Context, id int64) (*model.BookingSeat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockReservationService) UpdateBookingSeat(ctx context.Context, id int64, req model.UpdateBookingSeatRequest) (*model.BookingSeat, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

// ===== TicketService =====

type MockTicketService struct {
	mock.Mock
}

func NewMockTicketService(t testingT) *MockTicketService {
	m := &MockTicketService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTicketService) RedeemTicket(ctx context.Context, barcode string) (*model.Ticket, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

// ===== CheckoutService =====

type MockCheckoutService struct {
	mock.Mock
}

func NewMockCheckoutService(t testingT) *MockCheckoutService {
	m := &MockCheckoutService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCheckoutService) CreateStripeSession(ctx context.Context, bookingID uuid.UUID) (*model.StripeSessionResponse, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StripeSessionResponse), args.Error(1)
}

func (m *MockCheckoutService) CreatePayPalOrder(ctx context.Context, bookingID uuid.UUID) (*model.PayPalOrderResponse, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayPalOrderResponse), args.Error(1)
}

// ===== PaymentReconciler =====

type MockPaymentReconciler struct {
	mock.Mock
}

func NewMockPaymentReconciler(t testingT) *MockPaymentReconciler {
	m := &MockPaymentReconciler{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPaymentReconciler) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func (m *MockPaymentReconciler) HandlePayPalWebhook(ctx context.Context, headers http.Header, body []byte) error {
	args := m.Called(ctx, headers, body)
	return args.Error(0)
}

// ===== BookingStateMachine =====

type MockBookingStateMachine struct {
	mock.Mock
}

func NewMockBookingStateMachine(t testingT) *MockBookingStateMachine {
	m := &MockBookingStateMachine{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBookingStateMachine) Confirm(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*service.TransitionResult, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransitionResult), args.Error(1)
}

func (m *MockBookingStateMachine) Cancel(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*service.TransitionResult, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransitionResult), args.Error(1)
}

func (m *MockBookingStateMachine) Expire(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*service.TransitionResult, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransitionResult), args.Error(1)
}

func (m *MockBookingStateMachine) AfterCommit(ctx context.Context, result *service.TransitionResult) {
	m.Called(ctx, result)
}

func (m *MockBookingStateMachine) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingStateMachine) ExpirePending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
