package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	cacheMocks "go-gin-cinema-booking/internal/cache/mocks"
	dbMocks "go-gin-cinema-booking/internal/database/mocks"
	"go-gin-cinema-booking/internal/model"
	repoMocks "go-gin-cinema-booking/internal/repository/mocks"
	"go-gin-cinema-booking/internal/service"
	apperrors "go-gin-cinema-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type stateMachineMocks struct {
	tx       *dbMocks.TxRunner
	bookings *repoMocks.MockBookingRepository
	seats    *repoMocks.MockBookingSeatRepository
	payments *repoMocks.MockPaymentRepository
	invoices *repoMocks.MockInvoiceRepository
	locks    *cacheMocks.MockSeatLockStore
}

func setupStateMachine(t *testing.T) (*stateMachineMocks, service.BookingStateMachine) {
	m := &stateMachineMocks{
		tx:       dbMocks.NewTxRunner(),
		bookings: repoMocks.NewMockBookingRepository(t),
		seats:    repoMocks.NewMockBookingSeatRepository(t),
		payments: repoMocks.NewMockPaymentRepository(t),
		invoices: repoMocks.NewMockInvoiceRepository(t),
		locks:    cacheMocks.NewMockSeatLockStore(t),
	}
	sm := service.NewBookingStateMachine(m.tx, m.bookings, m.seats, m.payments, m.invoices, m.locks,
		15*time.Minute, func() time.Time { return fixedNow })
	return m, sm
}

func pendingBooking() *model.Booking {
	return &model.Booking{ID: uuid.New(), CustomerID: 1, ShowtimeID: uuid.New(), Status: model.BookingStatusPendingPayment}
}

func withStatus(b *model.Booking, status model.BookingStatus) *model.Booking {
	copied := *b
	copied.Status = status
	return &copied
}

func TestBookingStateMachine_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - invoice marked paid", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := pendingBooking()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID, model.BookingStatusConfirmed, (*time.Time)(nil)).
			Return(withStatus(b, model.BookingStatusConfirmed), nil).Once()
		m.invoices.On("UpdateStatusByBookingID", mock.Anything, mock.Anything, b.ID, model.InvoiceStatusPaid).Return(nil).Once()

		result, err := sm.Confirm(ctx, nil, b.ID)
		require.NoError(t, err)
		assert.True(t, result.Changed)
		assert.Equal(t, model.BookingStatusPendingPayment, result.From)
		assert.Equal(t, model.BookingStatusConfirmed, result.Booking.Status)
		assert.Empty(t, result.ReleasedSeatIDs)
	})

	t.Run("Success - booking without invoice", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := pendingBooking()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID, model.BookingStatusConfirmed, (*time.Time)(nil)).
			Return(withStatus(b, model.BookingStatusConfirmed), nil).Once()
		m.invoices.On("UpdateStatusByBookingID", mock.Anything, mock.Anything, b.ID, model.InvoiceStatusPaid).
			Return(apperrors.ErrInvoiceNotFound).Once()

		result, err := sm.Confirm(ctx, nil, b.ID)
		require.NoError(t, err)
		assert.True(t, result.Changed)
	})

	t.Run("Success - already confirmed is a no-op", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := withStatus(pendingBooking(), model.BookingStatusConfirmed)
		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()

		result, err := sm.Confirm(ctx, nil, b.ID)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		m.bookings.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("Failed - cancelled booking cannot be confirmed", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := withStatus(pendingBooking(), model.BookingStatusCancelled)
		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()

		_, err := sm.Confirm(ctx, nil, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidBookingTransition)
	})
}

func TestBookingStateMachine_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - seats and payments released", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := pendingBooking()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID, model.BookingStatusCancelled, (*time.Time)(nil)).
			Return(withStatus(b, model.BookingStatusCancelled), nil).Once()
		m.seats.On("DeactivateByBookingID", mock.Anything, mock.Anything, b.ID).Return([]int64{3, 4}, nil).Once()
		m.payments.On("CancelPendingByBookingID", mock.Anything, mock.Anything, b.ID).Return(int64(1), nil).Once()

		result, err := sm.Cancel(ctx, nil, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4}, result.ReleasedSeatIDs)

		owner := b.ID.String()
		m.locks.On("Release", mock.Anything, b.ShowtimeID, int64(3), owner).Return(true, nil).Once()
		m.locks.On("Release", mock.Anything, b.ShowtimeID, int64(4), owner).Return(false, errors.New("redis down")).Once()
		sm.AfterCommit(ctx, result)
	})

	t.Run("Failed - seat deactivation error", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := pendingBooking()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID, model.BookingStatusCancelled, (*time.Time)(nil)).
			Return(withStatus(b, model.BookingStatusCancelled), nil).Once()
		m.seats.On("DeactivateByBookingID", mock.Anything, mock.Anything, b.ID).Return(nil, errors.New("db error")).Once()

		_, err := sm.Cancel(ctx, nil, b.ID)
		assert.Error(t, err)
		m.payments.AssertNotCalled(t, "CancelPendingByBookingID")
	})
}

func TestBookingStateMachine_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := pendingBooking()

		m.bookings.On("FindActiveByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, b.ID, model.BookingStatusCancelled, (*time.Time)(nil)).
			Return(withStatus(b, model.BookingStatusCancelled), nil).Once()
		m.seats.On("DeactivateByBookingID", mock.Anything, mock.Anything, b.ID).Return([]int64{9}, nil).Once()
		m.payments.On("CancelPendingByBookingID", mock.Anything, mock.Anything, b.ID).Return(int64(0), nil).Once()
		m.locks.On("Release", mock.Anything, b.ShowtimeID, int64(9), b.ID.String()).Return(true, nil).Once()

		cancelled, err := sm.CancelBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	})

	t.Run("Failed - confirmed booking is not cancellable", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		b := withStatus(pendingBooking(), model.BookingStatusConfirmed)
		m.bookings.On("FindActiveByIDWithLock", mock.Anything, mock.Anything, b.ID).Return(b, nil).Once()

		_, err := sm.CancelBooking(ctx, b.ID)
		assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
		m.locks.AssertNotCalled(t, "Release")
	})
}

func TestBookingStateMachine_ExpirePending(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - skips bookings confirmed in the meantime", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		stale := pendingBooking()
		raced := withStatus(pendingBooking(), model.BookingStatusConfirmed)
		cutoff := fixedNow.Add(-15 * time.Minute)

		m.bookings.On("ListExpirableIDs", mock.Anything, cutoff, 200).Return([]uuid.UUID{stale.ID, raced.ID}, nil).Once()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, stale.ID).Return(stale, nil).Once()
		m.bookings.On("UpdateStatus", mock.Anything, mock.Anything, stale.ID, model.BookingStatusExpired,
			mock.MatchedBy(func(at *time.Time) bool { return at != nil && at.Equal(fixedNow) })).
			Return(withStatus(stale, model.BookingStatusExpired), nil).Once()
		m.seats.On("DeactivateByBookingID", mock.Anything, mock.Anything, stale.ID).Return([]int64{1}, nil).Once()
		m.payments.On("CancelPendingByBookingID", mock.Anything, mock.Anything, stale.ID).Return(int64(0), nil).Once()
		m.locks.On("Release", mock.Anything, stale.ShowtimeID, int64(1), stale.ID.String()).Return(true, nil).Once()

		m.bookings.On("FindByIDWithLock", mock.Anything, mock.Anything, raced.ID).Return(raced, nil).Once()

		expired, err := sm.ExpirePending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, 2, m.tx.Calls())
	})

	t.Run("Failed - listing error", func(t *testing.T) {
		m, sm := setupStateMachine(t)
		m.bookings.On("ListExpirableIDs", mock.Anything, mock.Anything, 200).Return(nil, errors.New("db error")).Once()

		_, err := sm.ExpirePending(ctx)
		assert.Error(t, err)
	})
}
