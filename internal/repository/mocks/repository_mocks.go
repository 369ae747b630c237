package mocks

import (
	"context"
	"go-gin-cinema-booking/internal/model"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ===== BookingRepository =====

type MockBookingRepository struct {
	mock.Mock
}

func NewMockBookingRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBookingRepository {
	m := &MockBookingRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBookingRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListActive(ctx context.Context, page, pageSize int, order model.SortOrder) ([]*model.Booking, error) {
	args := m.Called(ctx, page, pageSize, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindSummary(ctx context.Context, id uuid.UUID) (*model.BookingSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSummary), args.Error(1)
}

func (m *MockBookingRepository) ListExpirableIDs(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	args := m.Called(ctx, tx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindActiveByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdatePending(ctx context.Context, tx pgx.Tx, id uuid.UUID, update model.PendingBookingUpdate) (*model.Booking, error) {
	args := m.Called(ctx, tx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.BookingStatus, expiredAt *time.Time) (*model.Booking, error) {
	args := m.Called(ctx, tx, id, status, expiredAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

// ===== BookingSeatRepository =====

type MockBookingSeatRepository struct {
	mock.Mock
}

func NewMockBookingSeatRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBookingSeatRepository {
	m := &MockBookingSeatRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBookingSeatRepository) FindByID(ctx context.Context, id int64) (*model.BookingSeat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockBookingSeatRepository) IsSeatAvailable(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error) {
	args := m.Called(ctx, showtimeID, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingSeatRepository) Create(ctx context.Context, tx pgx.Tx, bookingID, showtimeID uuid.UUID, seatID int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error) {
	args := m.Called(ctx, tx, bookingID, showtimeID, seatID, basePrice, vatRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockBookingSeatRepository) FindPendingByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.BookingSeat, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockBookingSeatRepository) UpdatePrice(ctx context.Context, tx pgx.Tx, id int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error) {
	args := m.Called(ctx, tx, id, basePrice, vatRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingSeat), args.Error(1)
}

func (m *MockBookingSeatRepository) ListByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]*model.BookingSeat, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BookingSeat), args.Error(1)
}

func (m *MockBookingSeatRepository) DeactivateByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]int64, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// ===== TicketRepository =====

type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTicketRepository {
	m := &MockTicketRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTicketRepository) Create(ctx context.Context, tx pgx.Tx, bookingSeatID int64, barcode string) (*model.Ticket, error) {
	args := m.Called(ctx, tx, bookingSeatID, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ExistsByBarcode(ctx context.Context, tx pgx.Tx, barcode string) (bool, error) {
	args := m.Called(ctx, tx, barcode)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) FindDetailByBarcodeWithLock(ctx context.Context, tx pgx.Tx, barcode string) (*model.TicketDetail, error) {
	args := m.Called(ctx, tx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketDetail), args.Error(1)
}

func (m *MockTicketRepository) MarkRedeemed(ctx context.Context, tx pgx.Tx, id int64, redeemedAt time.Time) (*model.Ticket, error) {
	args := m.Called(ctx, tx, id, redeemedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

// ===== PaymentRepository =====

type MockPaymentRepository struct {
	mock.Mock
}

func NewMockPaymentRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentRepository {
	m := &MockPaymentRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, tx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SetProviderPaymentID(ctx context.Context, tx pgx.Tx, id int64, providerPaymentID string, metadata map[string]any) (*model.Payment, error) {
	args := m.Called(ctx, tx, id, providerPaymentID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Payment, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByProviderPaymentIDWithLock(ctx context.Context, tx pgx.Tx, provider model.PaymentProvider, providerPaymentID string) (*model.Payment, error) {
	args := m.Called(ctx, tx, provider, providerPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status model.PaymentStatus, providerPaymentID *string, metadata map[string]any) (*model.Payment, error) {
	args := m.Called(ctx, tx, id, status, providerPaymentID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CancelPendingByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

// ===== InvoiceRepository =====

type MockInvoiceRepository struct {
	mock.Mock
}

func NewMockInvoiceRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInvoiceRepository {
	m := &MockInvoiceRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInvoiceRepository) Create(ctx context.Context, tx pgx.Tx, invoice *model.Invoice) (*model.Invoice, error) {
	args := m.Called(ctx, tx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByCode(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	args := m.Called(ctx, tx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatusByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status model.InvoiceStatus) error {
	args := m.Called(ctx, tx, bookingID, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteDiscountItems(ctx context.Context, tx pgx.Tx, invoiceID int64) (int64, error) {
	args := m.Called(ctx, tx, invoiceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) RecalculateTotals(ctx context.Context, tx pgx.Tx, invoiceID int64) (*model.Invoice, error) {
	args := m.Called(ctx, tx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

// ===== CatalogRepository =====

type MockCatalogRepository struct {
	mock.Mock
}

func NewMockCatalogRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalogRepository {
	m := &MockCatalogRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCatalogRepository) FindCustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCatalogRepository) FindShowtimeByID(ctx context.Context, id uuid.UUID) (*model.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Showtime), args.Error(1)
}

func (m *MockCatalogRepository) FindActiveSeatByID(ctx context.Context, id int64) (*model.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seat), args.Error(1)
}

func (m *MockCatalogRepository) FindDiscountByCode(ctx context.Context, code string) (*model.Discount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Discount), args.Error(1)
}

func (m *MockCatalogRepository) FindDiscountByID(ctx context.Context, id int64) (*model.Discount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Discount), args.Error(1)
}
