package service_test

import (
	"context"
	"testing"
	"time"

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

const testBarcode = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123"

func ticketDetail(bookingStatus model.BookingStatus, ticketStatus model.TicketStatus, start time.Time) *model.TicketDetail {
	return &model.TicketDetail{
		Ticket: model.Ticket{
			ID:           11,
			BarcodeValue: testBarcode,
			BarcodeType:  model.BarcodeTypeQR,
			Status:       ticketStatus,
		},
		BookingID:         uuid.New(),
		BookingStatus:     bookingStatus,
		ShowtimeStartTime: start,
	}
}

func TestTicketService_RedeemTicket(t *testing.T) {
	ctx := context.Background()
	later := fixedNow.Add(2 * time.Hour)
	earlier := fixedNow.Add(-time.Minute)

	setup := func(t *testing.T) (*repoMocks.MockTicketRepository, service.TicketService) {
		tickets := repoMocks.NewMockTicketRepository(t)
		return tickets, service.NewTicketService(dbMocks.NewTxRunner(), tickets, func() time.Time { return fixedNow })
	}

	t.Run("Success", func(t *testing.T) {
		tickets, svc := setup(t)
		detail := ticketDetail(model.BookingStatusConfirmed, model.TicketStatusIssued, later)
		redeemedAt := fixedNow

		tickets.On("FindDetailByBarcodeWithLock", mock.Anything, mock.Anything, testBarcode).Return(detail, nil).Once()
		tickets.On("MarkRedeemed", mock.Anything, mock.Anything, int64(11), fixedNow).
			Return(&model.Ticket{ID: 11, Status: model.TicketStatusRedeemed, RedeemedAt: &redeemedAt}, nil).Once()

		ticket, err := svc.RedeemTicket(ctx, testBarcode)
		require.NoError(t, err)
		assert.True(t, ticket.IsRedeemed())
	})

	t.Run("Failed - ErrTicketNotFound", func(t *testing.T) {
		tickets, svc := setup(t)
		tickets.On("FindDetailByBarcodeWithLock", mock.Anything, mock.Anything, testBarcode).Return(nil, apperrors.ErrTicketNotFound).Once()

		_, err := svc.RedeemTicket(ctx, testBarcode)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})

	t.Run("Failed - unpaid wins over redeemed and started", func(t *testing.T) {
		tickets, svc := setup(t)
		detail := ticketDetail(model.BookingStatusPendingPayment, model.TicketStatusRedeemed, earlier)
		tickets.On("FindDetailByBarcodeWithLock", mock.Anything, mock.Anything, testBarcode).Return(detail, nil).Once()

		_, err := svc.RedeemTicket(ctx, testBarcode)
		assert.ErrorIs(t, err, apperrors.ErrUnpaidBooking)
		tickets.AssertNotCalled(t, "MarkRedeemed")
	})

	t.Run("Failed - already used wins over started", func(t *testing.T) {
		tickets, svc := setup(t)
		detail := ticketDetail(model.BookingStatusConfirmed, model.TicketStatusRedeemed, earlier)
		tickets.On("FindDetailByBarcodeWithLock", mock.Anything, mock.Anything, testBarcode).Return(detail, nil).Once()

		_, err := svc.RedeemTicket(ctx, testBarcode)
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})

	t.Run("Failed - showtime starting now", func(t *testing.T) {
		tickets, svc := setup(t)
		detail := ticketDetail(model.BookingStatusConfirmed, model.TicketStatusIssued, fixedNow)
		tickets.On("FindDetailByBarcodeWithLock", mock.Anything, mock.Anything, testBarcode).Return(detail, nil).Once()

		_, err := svc.RedeemTicket(ctx, testBarcode)
		assert.ErrorIs(t, err, apperrors.ErrShowtimeStarted)
	})
}
