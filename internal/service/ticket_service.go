package service

import (
	"context"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type TicketService interface {
	// 入場核銷，一張票只能核銷一次
	RedeemTicket(ctx context.Context, barcode string) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	txRunner         database.TxRunner
	ticketRepository repository.TicketRepository
	now              func() time.Time
}

func NewTicketService(txRunner database.TxRunner, ticketRepository repository.TicketRepository, now func() time.Time) TicketService {
	if now == nil {
		now = time.Now
	}
	return &TicketServiceImpl{
		txRunner:         txRunner,
		ticketRepository: ticketRepository,
		now:              now,
	}
}

func (s *TicketServiceImpl) RedeemTicket(ctx context.Context, barcode string) (*model.Ticket, error) {
	var redeemed *model.Ticket
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		detail, err := s.ticketRepository.FindDetailByBarcodeWithLock(ctx, tx, barcode)
		if err != nil {
			return err
		}

		// 檢查順序固定：未付款 → 已使用 → 已開演
		if detail.BookingStatus != model.BookingStatusConfirmed {
			return apperrors.ErrUnpaidBooking
		}
		if detail.IsRedeemed() {
			return apperrors.ErrTicketAlreadyUsed
		}
		now := s.now()
		if !now.Before(detail.ShowtimeStartTime) {
			return apperrors.ErrShowtimeStarted
		}

		redeemed, err = s.ticketRepository.MarkRedeemed(ctx, tx, detail.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}
