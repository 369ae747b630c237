package repository

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListActive(ctx context.Context, page, pageSize int, order model.SortOrder) ([]*model.Booking, error)
	FindSummary(ctx context.Context, id uuid.UUID) (*model.BookingSummary, error)
	ListExpirableIDs(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	FindActiveByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error)
	UpdatePending(ctx context.Context, tx pgx.Tx, id uuid.UUID, update model.PendingBookingUpdate) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.BookingStatus, expiredAt *time.Time) (*model.Booking, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, customer_id, showtime_id, discount_id, status, expired_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.ShowtimeID,
		&booking.DiscountID,
		&booking.Status,
		&booking.ExpiredAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (id, customer_id, showtime_id, discount_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookingColumns

	// 新訂位一律從 pending_payment 開始
	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.ID, booking.CustomerID, booking.ShowtimeID, booking.DiscountID, model.BookingStatusPendingPayment,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1 AND expired_at IS NULL
	`
	return scanBooking(r.pool.QueryRow(ctx, query, id))
}

func (r *BookingRepositoryImpl) FindActiveByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1 AND expired_at IS NULL
		FOR UPDATE
	`
	return scanBooking(tx.QueryRow(ctx, query, id))
}

// FindByIDWithLock 包含已過期的訂位，給狀態機判斷終態用
func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`
	return scanBooking(tx.QueryRow(ctx, query, id))
}

func (r *BookingRepositoryImpl) ListActive(ctx context.Context, page, pageSize int, order model.SortOrder) ([]*model.Booking, error) {
	direction := "ASC"
	if order == model.SortDesc {
		direction = "DESC"
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE expired_at IS NULL
		ORDER BY created_at ` + direction + `, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0, pageSize)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) UpdatePending(ctx context.Context, tx pgx.Tx, id uuid.UUID, update model.PendingBookingUpdate) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET customer_id = COALESCE($2, customer_id),
		    showtime_id = COALESCE($3, showtime_id),
		    discount_id = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($4, discount_id) END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending_payment' AND expired_at IS NULL
		RETURNING ` + bookingColumns

	return scanBooking(tx.QueryRow(ctx, query,
		id, update.CustomerID, update.ShowtimeID, update.DiscountID, update.RemoveDiscount,
	))
}

func (r *BookingRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.BookingStatus, expiredAt *time.Time) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, expired_at = COALESCE($3, expired_at), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns

	return scanBooking(tx.QueryRow(ctx, query, id, status, expiredAt))
}

// ListExpirableIDs 超過保留時間仍未付款的訂位
func (r *BookingRepositoryImpl) ListExpirableIDs(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM bookings
		WHERE status = 'pending_payment' AND expired_at IS NULL AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *BookingRepositoryImpl) FindSummary(ctx context.Context, id uuid.UUID) (*model.BookingSummary, error) {
	query := `
		SELECT b.id, c.name, c.email, m.title, sc.name, st.start_time
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		JOIN showtimes st ON st.id = b.showtime_id
		JOIN movies m ON m.id = st.movie_id
		JOIN screens sc ON sc.id = st.screen_id
		WHERE b.id = $1
	`

	var summary model.BookingSummary
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&summary.BookingID,
		&summary.CustomerName,
		&summary.CustomerEmail,
		&summary.MovieTitle,
		&summary.ScreenName,
		&summary.StartTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	seatQuery := `
		SELECT s.seat_row, s.seat_number, t.barcode_value
		FROM booking_seats bs
		JOIN seats s ON s.id = bs.seat_id
		JOIN tickets t ON t.booking_seat_id = bs.id
		WHERE bs.booking_id = $1
		ORDER BY s.seat_row, s.seat_number
	`
	rows, err := r.pool.Query(ctx, seatQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seat model.SeatTicket
		if err := rows.Scan(&seat.Row, &seat.Number, &seat.BarcodeValue); err != nil {
			return nil, err
		}
		summary.Seats = append(summary.Seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &summary, nil
}
