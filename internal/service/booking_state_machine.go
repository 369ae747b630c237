package service

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/cache"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/logger"
	"go-gin-cinema-booking/pkg/metrics"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const expireBatchSize = 200

// TransitionResult Changed 為 false 表示訂位早已在目標狀態（重送的事件）
type TransitionResult struct {
	Booking         *model.Booking
	From            model.BookingStatus
	Changed         bool
	ReleasedSeatIDs []int64
}

type BookingStateMachine interface {
	// 以下三個在呼叫端的 transaction 內執行，commit 後需呼叫 AfterCommit
	Confirm(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error)
	Cancel(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error)
	Expire(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error)
	// AfterCommit 記錄 metrics 並釋放座位鎖
	AfterCommit(ctx context.Context, result *TransitionResult)

	// 自己開 transaction
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	ExpirePending(ctx context.Context) (int, error)
}

type BookingStateMachineImpl struct {
	txRunner              database.TxRunner
	bookingRepository     repository.BookingRepository
	bookingSeatRepository repository.BookingSeatRepository
	paymentRepository     repository.PaymentRepository
	invoiceRepository     repository.InvoiceRepository
	seatLocks             cache.SeatLockStore
	holdTTL               time.Duration
	now                   func() time.Time
}

func NewBookingStateMachine(
	txRunner database.TxRunner,
	bookingRepository repository.BookingRepository,
	bookingSeatRepository repository.BookingSeatRepository,
	paymentRepository repository.PaymentRepository,
	invoiceRepository repository.InvoiceRepository,
	seatLocks cache.SeatLockStore,
	holdTTL time.Duration,
	now func() time.Time,
) BookingStateMachine {
	if now == nil {
		now = time.Now
	}
	return &BookingStateMachineImpl{
		txRunner:              txRunner,
		bookingRepository:     bookingRepository,
		bookingSeatRepository: bookingSeatRepository,
		paymentRepository:     paymentRepository,
		invoiceRepository:     invoiceRepository,
		seatLocks:             seatLocks,
		holdTTL:               holdTTL,
		now:                   now,
	}
}

func (s *BookingStateMachineImpl) Confirm(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, tx, bookingID, model.BookingStatusConfirmed)
}

func (s *BookingStateMachineImpl) Cancel(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, tx, bookingID, model.BookingStatusCancelled)
}

func (s *BookingStateMachineImpl) Expire(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, tx, bookingID, model.BookingStatusExpired)
}

func (s *BookingStateMachineImpl) transition(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, target model.BookingStatus) (*TransitionResult, error) {
	// 1. 鎖住訂位列，與其他 webhook / 過期排程互斥
	booking, err := s.bookingRepository.FindByIDWithLock(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Booking: booking, From: booking.Status}
	if booking.Status == target {
		return result, nil
	}
	if !booking.Status.CanTransitionTo(target) {
		return result, apperrors.Wrap(apperrors.ErrInvalidBookingTransition,
			fmt.Errorf("booking %s: %s -> %s", bookingID, booking.Status, target))
	}

	// 2. 更新狀態；過期同時寫入 expired_at 讓它離開 active 查詢
	var expiredAt *time.Time
	if target == model.BookingStatusExpired {
		now := s.now()
		expiredAt = &now
	}
	updated, err := s.bookingRepository.UpdateStatus(ctx, tx, bookingID, target, expiredAt)
	if err != nil {
		return nil, err
	}
	result.Booking = updated
	result.Changed = true

	// 3. 連帶更新發票、座位、付款
	switch target {
	case model.BookingStatusConfirmed:
		err = s.invoiceRepository.UpdateStatusByBookingID(ctx, tx, bookingID, model.InvoiceStatusPaid)
		if err != nil && !errors.Is(err, apperrors.ErrInvoiceNotFound) {
			return nil, err
		}
	case model.BookingStatusCancelled, model.BookingStatusExpired:
		seatIDs, err := s.bookingSeatRepository.DeactivateByBookingID(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}
		result.ReleasedSeatIDs = seatIDs

		if _, err := s.paymentRepository.CancelPendingByBookingID(ctx, tx, bookingID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *BookingStateMachineImpl) AfterCommit(ctx context.Context, result *TransitionResult) {
	if result == nil || !result.Changed {
		return
	}
	metrics.BookingTransitions.WithLabelValues(string(result.Booking.Status)).Inc()

	log := logger.WithComponent("booking").With(
		zap.String("booking_id", result.Booking.ID.String()),
		zap.String("from", string(result.From)),
		zap.String("to", string(result.Booking.Status)),
	)
	log.Info("booking status changed")

	// 座位已在 DB 釋放，鎖只是提示；刪鎖失敗就等 TTL 自然過期
	owner := result.Booking.ID.String()
	for _, seatID := range result.ReleasedSeatIDs {
		if _, err := s.seatLocks.Release(ctx, result.Booking.ShowtimeID, seatID, owner); err != nil {
			log.Warn("release seat lock failed", zap.Int64("seat_id", seatID), zap.Error(err))
		}
	}
}

// CancelBooking 使用者主動取消，只允許 pending 的訂位
func (s *BookingStateMachineImpl) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	var result *TransitionResult
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.bookingRepository.FindActiveByIDWithLock(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !booking.IsPending() {
			return apperrors.ErrBookingNotFound
		}

		result, err = s.Cancel(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.AfterCommit(context.Background(), result)
	return result.Booking, nil
}

// ExpirePending 把超過保留時間仍未付款的訂位轉為 expired，每筆各自一個 transaction
func (s *BookingStateMachineImpl) ExpirePending(ctx context.Context) (int, error) {
	log := logger.WithComponent("expiry")
	cutoff := s.now().Add(-s.holdTTL)

	ids, err := s.bookingRepository.ListExpirableIDs(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		var result *TransitionResult
		err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
			var err error
			result, err = s.Expire(ctx, tx, id)
			return err
		})
		if err != nil {
			// 同時被付款確認或取消的訂位會在這裡失敗，跳過即可
			if errors.Is(err, apperrors.ErrInvalidBookingTransition) {
				log.Debug("skip booking no longer pending", zap.String("booking_id", id.String()))
				continue
			}
			log.Error("expire booking failed", zap.String("booking_id", id.String()), zap.Error(err))
			continue
		}

		s.AfterCommit(ctx, result)
		if result.Changed {
			expired++
		}
	}

	return expired, nil
}
