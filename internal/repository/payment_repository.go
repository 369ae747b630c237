package repository

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	apperrors "go-gin-cinema-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error)
	SetProviderPaymentID(ctx context.Context, tx pgx.Tx, id int64, providerPaymentID string, metadata map[string]any) (*model.Payment, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Payment, error)
	FindByProviderPaymentIDWithLock(ctx context.Context, tx pgx.Tx, provider model.PaymentProvider, providerPaymentID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status model.PaymentStatus, providerPaymentID *string, metadata map[string]any) (*model.Payment, error)
	CancelPendingByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (int64, error)
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

const paymentColumns = `id, booking_id, provider, provider_payment_id, provider_metadata, amount, currency, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var payment model.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Provider,
		&payment.ProviderPaymentID,
		&payment.ProviderMetadata,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// jsonbOrNull nil map 要寫成 SQL NULL，而不是 JSON 的 null
func jsonbOrNull(metadata map[string]any) any {
	if metadata == nil {
		return nil
	}
	return metadata
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	query := `
		INSERT INTO payments (booking_id, provider, provider_payment_id, provider_metadata, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + paymentColumns

	created, err := scanPayment(tx.QueryRow(ctx, query,
		payment.BookingID,
		payment.Provider,
		payment.ProviderPaymentID,
		jsonbOrNull(payment.ProviderMetadata),
		payment.Amount,
		payment.Currency,
		model.PaymentStatusPending,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return created, nil
}

func (r *PaymentRepositoryImpl) SetProviderPaymentID(ctx context.Context, tx pgx.Tx, id int64, providerPaymentID string, metadata map[string]any) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET provider_payment_id = $2, provider_metadata = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + paymentColumns
	return scanPayment(tx.QueryRow(ctx, query, id, providerPaymentID, jsonbOrNull(metadata)))
}

func (r *PaymentRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	return scanPayment(tx.QueryRow(ctx, query, id))
}

func (r *PaymentRepositoryImpl) FindByProviderPaymentIDWithLock(ctx context.Context, tx pgx.Tx, provider model.PaymentProvider, providerPaymentID string) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE provider = $1 AND provider_payment_id = $2
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanPayment(tx.QueryRow(ctx, query, provider, providerPaymentID))
}

// UpdateStatus providerPaymentID 為 nil 時保留原值；metadata 直接覆寫，nil 即清空
func (r *PaymentRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status model.PaymentStatus, providerPaymentID *string, metadata map[string]any) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    provider_payment_id = COALESCE($3, provider_payment_id),
		    provider_metadata = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + paymentColumns
	return scanPayment(tx.QueryRow(ctx, query, id, status, providerPaymentID, jsonbOrNull(metadata)))
}

// CancelPendingByBookingID 訂位終結時把還在等待金流的付款一併取消
func (r *PaymentRepositoryImpl) CancelPendingByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = 'cancelled', updated_at = NOW()
		WHERE booking_id = $1 AND status IN ('pending', 'failed')
	`, bookingID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
