package service

import (
	"context"
	"errors"
	"go-gin-cinema-booking/internal/cache"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/logger"
	"go-gin-cinema-booking/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReservationService interface {
	// 預約座位：seat lock 快速擋下競爭，唯一索引作為最後防線
	ReserveSeat(ctx context.Context, req model.ReserveSeatRequest) (*model.BookingSeat, error)
	GetBookingSeat(ctx context.Context, id int64) (*model.BookingSeat, error)
	// 修改 pending 訂位座位的價格，含稅價重新計算
	UpdateBookingSeat(ctx context.Context, id int64, req model.UpdateBookingSeatRequest) (*model.BookingSeat, error)
}

type ReservationServiceImpl struct {
	txRunner              database.TxRunner
	bookingRepository     repository.BookingRepository
	bookingSeatRepository repository.BookingSeatRepository
	ticketRepository      repository.TicketRepository
	invoiceRepository     repository.InvoiceRepository
	catalogRepository     repository.CatalogRepository
	seatLocks             cache.SeatLockStore
	barcodeLength         int
}

func NewReservationService(
	txRunner database.TxRunner,
	bookingRepository repository.BookingRepository,
	bookingSeatRepository repository.BookingSeatRepository,
	ticketRepository repository.TicketRepository,
	invoiceRepository repository.InvoiceRepository,
	catalogRepository repository.CatalogRepository,
	seatLocks cache.SeatLockStore,
	barcodeLength int,
) ReservationService {
	if barcodeLength <= 0 {
		barcodeLength = 30
	}
	return &ReservationServiceImpl{
		txRunner:              txRunner,
		bookingRepository:     bookingRepository,
		bookingSeatRepository: bookingSeatRepository,
		ticketRepository:      ticketRepository,
		invoiceRepository:     invoiceRepository,
		catalogRepository:     catalogRepository,
		seatLocks:             seatLocks,
		barcodeLength:         barcodeLength,
	}
}

var maxVATRate = decimal.NewFromInt(1)

func validatePrice(basePrice, vatRate decimal.Decimal) error {
	if basePrice.IsNegative() || vatRate.IsNegative() || vatRate.GreaterThan(maxVATRate) {
		return apperrors.ErrInvalidPrice
	}
	return nil
}

// ensureNotInvoiced 發票開立後座位與價格就固定，付款金額以發票為準
func (s *ReservationServiceImpl) ensureNotInvoiced(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) error {
	_, err := s.invoiceRepository.FindByBookingID(ctx, tx, bookingID)
	switch {
	case err == nil:
		return apperrors.ErrSeatsLockedByInvoice
	case errors.Is(err, apperrors.ErrInvoiceNotFound):
		return nil
	default:
		return err
	}
}

func (s *ReservationServiceImpl) ReserveSeat(ctx context.Context, req model.ReserveSeatRequest) (*model.BookingSeat, error) {
	if req.BasePrice == nil || req.VATRate == nil {
		return nil, apperrors.ErrInvalidPrice
	}
	basePrice, vatRate := *req.BasePrice, *req.VATRate
	if err := validatePrice(basePrice, vatRate); err != nil {
		return nil, err
	}

	log := logger.WithComponent("reservation").With(
		zap.String("booking_id", req.BookingID.String()),
		zap.Int64("seat_id", req.SeatID),
	)

	// 1. 訂位必須存在且為 pending
	booking, err := s.bookingRepository.FindActiveByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsPending() {
		return nil, apperrors.ErrBookingNotFound
	}

	// 2. 座位必須存在，且在該場次的影廳內
	seat, err := s.catalogRepository.FindActiveSeatByID(ctx, req.SeatID)
	if err != nil {
		return nil, err
	}
	showtime, err := s.catalogRepository.FindShowtimeByID(ctx, booking.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if seat.ScreenID != showtime.ScreenID {
		return nil, apperrors.ErrSeatNotFound
	}

	// 3. 快速檢查：已有人持有座位鎖；lock store 出錯一律當成已上鎖
	locked, err := s.seatLocks.Exists(ctx, booking.ShowtimeID, req.SeatID)
	if err != nil {
		log.Error("seat lock store unavailable, failing closed", zap.Error(err))
		metrics.SeatReservations.WithLabelValues("lock_error").Inc()
		return nil, apperrors.Wrap(apperrors.ErrSeatNotAvailable, err)
	}
	if locked {
		metrics.SeatReservations.WithLabelValues("conflict").Inc()
		return nil, apperrors.ErrSeatNotAvailable
	}

	// 4. 已確認的訂位
	available, err := s.bookingSeatRepository.IsSeatAvailable(ctx, booking.ShowtimeID, req.SeatID)
	if err != nil {
		return nil, err
	}
	if !available {
		metrics.SeatReservations.WithLabelValues("conflict").Inc()
		return nil, apperrors.ErrSeatNotAvailable
	}

	// 5. SET NX 搶鎖，只有一個請求能進入寫入階段
	owner := booking.ID.String()
	acquired, err := s.seatLocks.TryLock(ctx, booking.ShowtimeID, req.SeatID, owner)
	if err != nil {
		log.Error("seat lock store unavailable, failing closed", zap.Error(err))
		metrics.SeatReservations.WithLabelValues("lock_error").Inc()
		return nil, apperrors.Wrap(apperrors.ErrSeatNotAvailable, err)
	}
	if !acquired {
		metrics.SeatReservations.WithLabelValues("conflict").Inc()
		return nil, apperrors.ErrSeatNotAvailable
	}

	// 6. 座位與票券在同一個 transaction 建立
	var created *model.BookingSeat
	err = s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		// 重新鎖住訂位，避免與取消 / 過期同時發生
		current, err := s.bookingRepository.FindActiveByIDWithLock(ctx, tx, req.BookingID)
		if err != nil {
			return err
		}
		if !current.IsPending() {
			return apperrors.ErrBookingNotFound
		}
		if current.ShowtimeID != booking.ShowtimeID {
			return apperrors.ErrSeatNotAvailable
		}
		if err := s.ensureNotInvoiced(ctx, tx, current.ID); err != nil {
			return err
		}

		bookingSeat, err := s.bookingSeatRepository.Create(ctx, tx, booking.ID, booking.ShowtimeID, req.SeatID, basePrice, vatRate)
		if err != nil {
			return err
		}

		barcode, err := uniqueCode(ctx, barcodeAlphabet, s.barcodeLength, func(ctx context.Context, code string) (bool, error) {
			return s.ticketRepository.ExistsByBarcode(ctx, tx, code)
		})
		if err != nil {
			return err
		}

		ticket, err := s.ticketRepository.Create(ctx, tx, bookingSeat.ID, barcode)
		if err != nil {
			return err
		}
		bookingSeat.Ticket = ticket
		created = bookingSeat
		return nil
	})

	if err != nil {
		// 寫入失敗要放掉鎖：使用 context.Background() 確保請求取消時仍會執行
		if _, releaseErr := s.seatLocks.Release(context.Background(), booking.ShowtimeID, req.SeatID, owner); releaseErr != nil {
			log.Warn("release seat lock failed", zap.Error(releaseErr))
		}
		if errors.Is(err, apperrors.ErrSeatNotAvailable) {
			metrics.SeatReservations.WithLabelValues("conflict").Inc()
		} else {
			metrics.SeatReservations.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.SeatReservations.WithLabelValues("reserved").Inc()
	log.Info("seat reserved", zap.Int64("booking_seat_id", created.ID))
	return created, nil
}

func (s *ReservationServiceImpl) GetBookingSeat(ctx context.Context, id int64) (*model.BookingSeat, error) {
	return s.bookingSeatRepository.FindByID(ctx, id)
}

func (s *ReservationServiceImpl) UpdateBookingSeat(ctx context.Context, id int64, req model.UpdateBookingSeatRequest) (*model.BookingSeat, error) {
	var updated *model.BookingSeat
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := s.bookingSeatRepository.FindPendingByIDWithLock(ctx, tx, id)
		if err != nil {
			return err
		}

		basePrice, vatRate := current.BasePrice, current.VATRate
		if req.BasePrice != nil {
			basePrice = *req.BasePrice
		}
		if req.VATRate != nil {
			vatRate = *req.VATRate
		}
		if err := validatePrice(basePrice, vatRate); err != nil {
			return err
		}
		if err := s.ensureNotInvoiced(ctx, tx, current.BookingID); err != nil {
			return err
		}

		updated, err = s.bookingSeatRepository.UpdatePrice(ctx, tx, id, basePrice, vatRate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
