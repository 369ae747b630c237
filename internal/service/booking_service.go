package service

import (
	"context"
	"errors"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListBookings(ctx context.Context, query model.ListBookingsQuery) ([]*model.Booking, error)
	// 只有 pending 的訂位能修改，其餘一律視為不存在
	UpdateBooking(ctx context.Context, id uuid.UUID, req model.UpdateBookingRequest) (*model.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GenerateInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
}

type BookingServiceImpl struct {
	txRunner              database.TxRunner
	bookingRepository     repository.BookingRepository
	bookingSeatRepository repository.BookingSeatRepository
	invoiceRepository     repository.InvoiceRepository
	catalogRepository     repository.CatalogRepository
	stateMachine          BookingStateMachine
	vatRate               decimal.Decimal
	currency              string
	invoiceCodeLength     int
	now                   func() time.Time
}

type BookingServiceConfig struct {
	VATRate           decimal.Decimal
	Currency          string
	InvoiceCodeLength int
	Now               func() time.Time
}

func NewBookingService(
	txRunner database.TxRunner,
	bookingRepository repository.BookingRepository,
	bookingSeatRepository repository.BookingSeatRepository,
	invoiceRepository repository.InvoiceRepository,
	catalogRepository repository.CatalogRepository,
	stateMachine BookingStateMachine,
	cfg BookingServiceConfig,
) BookingService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InvoiceCodeLength <= 0 {
		cfg.InvoiceCodeLength = 13
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &BookingServiceImpl{
		txRunner:              txRunner,
		bookingRepository:     bookingRepository,
		bookingSeatRepository: bookingSeatRepository,
		invoiceRepository:     invoiceRepository,
		catalogRepository:     catalogRepository,
		stateMachine:          stateMachine,
		vatRate:               cfg.VATRate,
		currency:              cfg.Currency,
		invoiceCodeLength:     cfg.InvoiceCodeLength,
		now:                   cfg.Now,
	}
}

// findUsableDiscount 折扣碼存在但已停用、過期或用完時回傳 ErrDiscountNotUsable
func (s *BookingServiceImpl) findUsableDiscount(ctx context.Context, code string) (*model.Discount, error) {
	discount, err := s.catalogRepository.FindDiscountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !discount.IsUsable(s.now()) {
		return nil, apperrors.ErrDiscountNotUsable
	}
	return discount, nil
}

func (s *BookingServiceImpl) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if _, err := s.catalogRepository.FindCustomerByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.catalogRepository.FindShowtimeByID(ctx, req.ShowtimeID); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		ShowtimeID: req.ShowtimeID,
		Status:     model.BookingStatusPendingPayment,
	}

	if req.DiscountCode != nil && *req.DiscountCode != "" {
		discount, err := s.findUsableDiscount(ctx, *req.DiscountCode)
		if err != nil {
			return nil, err
		}
		booking.DiscountID = &discount.ID
	}

	var created *model.Booking
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = s.bookingRepository.Create(ctx, tx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookingRepository.FindActiveByID(ctx, id)
}

func (s *BookingServiceImpl) ListBookings(ctx context.Context, query model.ListBookingsQuery) ([]*model.Booking, error) {
	if query.PageNumber < 1 {
		query.PageNumber = 1
	}
	if query.ItemsPerPage < 1 || query.ItemsPerPage > 20 {
		query.ItemsPerPage = 10
	}
	return s.bookingRepository.ListActive(ctx, query.PageNumber, query.ItemsPerPage, model.SortOrder(query.Order))
}

// toPendingUpdate 驗證參照的顧客、場次、折扣，轉成可寫入的部分更新
func (s *BookingServiceImpl) toPendingUpdate(ctx context.Context, req model.UpdateBookingRequest) (model.PendingBookingUpdate, error) {
	var update model.PendingBookingUpdate

	if req.CustomerID != nil {
		if _, err := s.catalogRepository.FindCustomerByID(ctx, *req.CustomerID); err != nil {
			return update, err
		}
		update.CustomerID = req.CustomerID
	}

	if req.ShowtimeID != nil {
		if _, err := s.catalogRepository.FindShowtimeByID(ctx, *req.ShowtimeID); err != nil {
			return update, err
		}
		update.ShowtimeID = req.ShowtimeID
	}

	if req.DiscountCode != nil {
		// 空字串代表移除折扣
		if *req.DiscountCode == "" {
			update.RemoveDiscount = true
		} else {
			discount, err := s.findUsableDiscount(ctx, *req.DiscountCode)
			if err != nil {
				return update, err
			}
			update.DiscountID = &discount.ID
		}
	}

	return update, nil
}

func (s *BookingServiceImpl) UpdateBooking(ctx context.Context, id uuid.UUID, req model.UpdateBookingRequest) (*model.Booking, error) {
	update, err := s.toPendingUpdate(ctx, req)
	if err != nil {
		return nil, err
	}

	var updated *model.Booking
	err = s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.bookingRepository.FindActiveByIDWithLock(ctx, tx, id)
		if err != nil {
			return err
		}
		if !booking.IsPending() {
			return apperrors.ErrBookingNotFound
		}
		if update.IsEmpty() {
			updated = booking
			return nil
		}

		// 已有座位時不能換場次，座位快照綁定原場次
		if update.ShowtimeID != nil && *update.ShowtimeID != booking.ShowtimeID {
			seats, err := s.bookingSeatRepository.ListByBookingID(ctx, tx, id)
			if err != nil {
				return err
			}
			if len(seats) > 0 {
				return apperrors.ErrShowtimeChangeWithSeats
			}
		}

		invoice, err := s.invoiceRepository.FindByBookingID(ctx, tx, id)
		if err != nil && !errors.Is(err, apperrors.ErrInvoiceNotFound) {
			return err
		}
		hasInvoice := err == nil

		if hasInvoice && update.DiscountID != nil && (booking.DiscountID == nil || *booking.DiscountID != *update.DiscountID) {
			return apperrors.ErrDiscountLockedByInvoice
		}

		updated, err = s.bookingRepository.UpdatePending(ctx, tx, id, update)
		if err != nil {
			return err
		}

		// 移除折扣時一併刪除發票上的折扣明細，座位明細保留
		if update.RemoveDiscount && booking.DiscountID != nil && hasInvoice {
			removed, err := s.invoiceRepository.DeleteDiscountItems(ctx, tx, invoice.ID)
			if err != nil {
				return err
			}
			if removed > 0 {
				if _, err := s.invoiceRepository.RecalculateTotals(ctx, tx, invoice.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.stateMachine.CancelBooking(ctx, id)
}

func (s *BookingServiceImpl) GenerateInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var created *model.Invoice
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.bookingRepository.FindActiveByIDWithLock(ctx, tx, id)
		if err != nil {
			return err
		}
		if !booking.IsPending() {
			return apperrors.ErrBookingNotFound
		}

		if _, err := s.invoiceRepository.FindByBookingID(ctx, tx, id); err == nil {
			return apperrors.ErrInvoiceAlreadyExists
		} else if !errors.Is(err, apperrors.ErrInvoiceNotFound) {
			return err
		}

		seats, err := s.bookingSeatRepository.ListByBookingID(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(seats) == 0 {
			return apperrors.ErrBookingHasNoSeats
		}

		var discount *model.Discount
		if booking.DiscountID != nil {
			discount, err = s.catalogRepository.FindDiscountByID(ctx, *booking.DiscountID)
			if err != nil {
				return err
			}
		}

		invoice := buildInvoice(id, seats, discount, s.vatRate, s.currency)
		invoice.Code, err = uniqueCode(ctx, digitAlphabet, s.invoiceCodeLength, func(ctx context.Context, code string) (bool, error) {
			return s.invoiceRepository.ExistsByCode(ctx, tx, code)
		})
		if err != nil {
			return err
		}

		created, err = s.invoiceRepository.Create(ctx, tx, invoice)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
