package repository

import (
	"context"
	"errors"
	"go-gin-cinema-booking/internal/model"
	apperrors "go-gin-cinema-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository 唯讀查詢顧客、場次、座位與折扣
type CatalogRepository interface {
	FindCustomerByID(ctx context.Context, id int64) (*model.Customer, error)
	FindShowtimeByID(ctx context.Context, id uuid.UUID) (*model.Showtime, error)
	FindActiveSeatByID(ctx context.Context, id int64) (*model.Seat, error)
	FindDiscountByCode(ctx context.Context, code string) (*model.Discount, error)
	FindDiscountByID(ctx context.Context, id int64) (*model.Discount, error)
}

type CatalogRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &CatalogRepositoryImpl{
		pool: pool,
	}
}

func notFound(err error, sentinel *apperrors.Error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func (r *CatalogRepositoryImpl) FindCustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM customers WHERE id = $1`, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
	)
	if err != nil {
		return nil, notFound(err, apperrors.ErrCustomerNotFound)
	}
	return &customer, nil
}

func (r *CatalogRepositoryImpl) FindShowtimeByID(ctx context.Context, id uuid.UUID) (*model.Showtime, error) {
	query := `
		SELECT st.id, st.movie_id, st.screen_id, st.start_time, st.base_price, st.vat_rate, st.price_with_vat,
		       m.title, m.duration_minutes
		FROM showtimes st
		JOIN movies m ON m.id = st.movie_id
		WHERE st.id = $1
	`

	var showtime model.Showtime
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&showtime.ID,
		&showtime.MovieID,
		&showtime.ScreenID,
		&showtime.StartTime,
		&showtime.BasePrice,
		&showtime.VATRate,
		&showtime.PriceWithVAT,
		&showtime.MovieTitle,
		&showtime.DurationMinutes,
	)
	if err != nil {
		return nil, notFound(err, apperrors.ErrShowtimeNotFound)
	}
	return &showtime, nil
}

func (r *CatalogRepositoryImpl) FindActiveSeatByID(ctx context.Context, id int64) (*model.Seat, error) {
	var seat model.Seat
	err := r.pool.QueryRow(ctx, `
		SELECT id, screen_id, seat_row, seat_number, is_active
		FROM seats
		WHERE id = $1 AND is_active
	`, id).Scan(
		&seat.ID,
		&seat.ScreenID,
		&seat.Row,
		&seat.Number,
		&seat.IsActive,
	)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSeatNotFound)
	}
	return &seat, nil
}

const discountColumns = `id, code, description, is_percentage, amount, expires_at, usage_limit, times_used, is_active`

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var discount model.Discount
	err := row.Scan(
		&discount.ID,
		&discount.Code,
		&discount.Description,
		&discount.IsPercentage,
		&discount.Amount,
		&discount.ExpiresAt,
		&discount.UsageLimit,
		&discount.TimesUsed,
		&discount.IsActive,
	)
	if err != nil {
		return nil, notFound(err, apperrors.ErrDiscountNotFound)
	}
	return &discount, nil
}

// FindDiscountByCode 是否可用由 service 以 Discount.IsUsable 判斷
func (r *CatalogRepositoryImpl) FindDiscountByCode(ctx context.Context, code string) (*model.Discount, error) {
	return scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE code = $1`, code))
}

func (r *CatalogRepositoryImpl) FindDiscountByID(ctx context.Context, id int64) (*model.Discount, error) {
	return scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
}
