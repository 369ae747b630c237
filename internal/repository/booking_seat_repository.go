package repository

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// activeSeatConstraint 同場次同座位只允許一筆 active 的 booking_seat
const activeSeatConstraint = "booking_seats_active_seat_uq"

type BookingSeatRepository interface {
	FindByID(ctx context.Context, id int64) (*model.BookingSeat, error)
	IsSeatAvailable(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, bookingID, showtimeID uuid.UUID, seatID int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error)
	FindPendingByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.BookingSeat, error)
	UpdatePrice(ctx context.Context, tx pgx.Tx, id int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error)
	ListByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]*model.BookingSeat, error)
	DeactivateByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]int64, error)
}

type BookingSeatRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingSeatRepository(pool *pgxpool.Pool) BookingSeatRepository {
	return &BookingSeatRepositoryImpl{
		pool: pool,
	}
}

const bookingSeatColumns = `bs.id, bs.booking_id, bs.seat_id, bs.showtime_id, bs.base_price, bs.vat_rate, bs.price_with_vat, bs.active, bs.created_at, bs.updated_at`

func scanBookingSeat(row pgx.Row) (*model.BookingSeat, error) {
	var seat model.BookingSeat
	err := row.Scan(
		&seat.ID,
		&seat.BookingID,
		&seat.SeatID,
		&seat.ShowtimeID,
		&seat.BasePrice,
		&seat.VATRate,
		&seat.PriceWithVAT,
		&seat.Active,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingSeatNotFound
		}
		return nil, err
	}
	return &seat, nil
}

// Create 含稅價只在這裡由 base price 與稅率算出，不接受外部傳入
func (r *BookingSeatRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, bookingID, showtimeID uuid.UUID, seatID int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error) {
	query := `
		WITH bs AS (
			INSERT INTO booking_seats (booking_id, seat_id, showtime_id, base_price, vat_rate, price_with_vat)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + bookingSeatColumns + ` FROM bs
	`

	seat, err := scanBookingSeat(tx.QueryRow(ctx, query,
		bookingID, seatID, showtimeID, basePrice, vatRate, money.ApplyVAT(basePrice, vatRate),
	))
	if err != nil {
		if isUniqueViolation(err, activeSeatConstraint) {
			return nil, apperrors.Wrap(apperrors.ErrSeatNotAvailable, err)
		}
		return nil, fmt.Errorf("failed to create booking seat: %w", err)
	}

	return seat, nil
}

// FindByID 連同票券一起載入；票券與座位在同一個 transaction 建立，所以用 inner join
func (r *BookingSeatRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.BookingSeat, error) {
	query := `
		SELECT ` + bookingSeatColumns + `,
		       t.id, t.booking_seat_id, t.barcode_value, t.barcode_type, t.status, t.issued_at, t.redeemed_at
		FROM booking_seats bs
		JOIN tickets t ON t.booking_seat_id = bs.id
		WHERE bs.id = $1
	`

	var seat model.BookingSeat
	var ticket model.Ticket
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&seat.ID,
		&seat.BookingID,
		&seat.SeatID,
		&seat.ShowtimeID,
		&seat.BasePrice,
		&seat.VATRate,
		&seat.PriceWithVAT,
		&seat.Active,
		&seat.CreatedAt,
		&seat.UpdatedAt,
		&ticket.ID,
		&ticket.BookingSeatID,
		&ticket.BarcodeValue,
		&ticket.BarcodeType,
		&ticket.Status,
		&ticket.IssuedAt,
		&ticket.RedeemedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingSeatNotFound
		}
		return nil, err
	}

	seat.Ticket = &ticket
	return &seat, nil
}

// IsSeatAvailable 只排除已確認的訂位；pending 的競爭由 seat lock 與唯一索引處理
func (r *BookingSeatRepositoryImpl) IsSeatAvailable(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error) {
	query := `
		SELECT NOT EXISTS (
			SELECT 1
			FROM booking_seats bs
			JOIN bookings b ON b.id = bs.booking_id
			WHERE bs.showtime_id = $1 AND bs.seat_id = $2 AND b.status = 'confirmed'
		)
	`

	var available bool
	if err := r.pool.QueryRow(ctx, query, showtimeID, seatID).Scan(&available); err != nil {
		return false, err
	}
	return available, nil
}

// FindPendingByIDWithLock 只回傳所屬訂位仍為 pending 的座位，同時鎖住該列
func (r *BookingSeatRepositoryImpl) FindPendingByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.BookingSeat, error) {
	query := `
		SELECT ` + bookingSeatColumns + `
		FROM booking_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE bs.id = $1 AND b.status = 'pending_payment' AND b.expired_at IS NULL
		FOR UPDATE OF bs
	`
	return scanBookingSeat(tx.QueryRow(ctx, query, id))
}

func (r *BookingSeatRepositoryImpl) UpdatePrice(ctx context.Context, tx pgx.Tx, id int64, basePrice, vatRate decimal.Decimal) (*model.BookingSeat, error) {
	query := `
		WITH bs AS (
			UPDATE booking_seats
			SET base_price = $2, vat_rate = $3, price_with_vat = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + bookingSeatColumns + ` FROM bs
	`
	return scanBookingSeat(tx.QueryRow(ctx, query, id, basePrice, vatRate, money.ApplyVAT(basePrice, vatRate)))
}

func (r *BookingSeatRepositoryImpl) ListByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]*model.BookingSeat, error) {
	query := `
		SELECT ` + bookingSeatColumns + `
		FROM booking_seats bs
		WHERE bs.booking_id = $1 AND bs.active
		ORDER BY bs.id
	`

	rows, err := tx.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []*model.BookingSeat
	for rows.Next() {
		seat, err := scanBookingSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

// DeactivateByBookingID 訂位取消或過期時釋放座位，回傳被釋放的 seat id
func (r *BookingSeatRepositoryImpl) DeactivateByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]int64, error) {
	query := `
		UPDATE booking_seats
		SET active = FALSE, updated_at = NOW()
		WHERE booking_id = $1 AND active
		RETURNING seat_id
	`

	rows, err := tx.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
