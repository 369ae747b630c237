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

type InvoiceRepository interface {
	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, invoice *model.Invoice) (*model.Invoice, error)
	ExistsByCode(ctx context.Context, tx pgx.Tx, code string) (bool, error)
	FindByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*model.Invoice, error)
	UpdateStatusByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status model.InvoiceStatus) error
	DeleteDiscountItems(ctx context.Context, tx pgx.Tx, invoiceID int64) (int64, error)
	RecalculateTotals(ctx context.Context, tx pgx.Tx, invoiceID int64) (*model.Invoice, error)
}

type InvoiceRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) InvoiceRepository {
	return &InvoiceRepositoryImpl{
		pool: pool,
	}
}

const invoiceColumns = `id, booking_id, code, currency, total_base_price, vat_rate, total_vat_price, total_price, status, created_at, updated_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var invoice model.Invoice
	err := row.Scan(
		&invoice.ID,
		&invoice.BookingID,
		&invoice.Code,
		&invoice.Currency,
		&invoice.TotalBasePrice,
		&invoice.VATRate,
		&invoice.TotalVATPrice,
		&invoice.TotalPrice,
		&invoice.Status,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// Create 發票與明細一起寫入
func (r *InvoiceRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, invoice *model.Invoice) (*model.Invoice, error) {
	query := `
		INSERT INTO invoices (booking_id, code, currency, total_base_price, vat_rate, total_vat_price, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + invoiceColumns

	created, err := scanInvoice(tx.QueryRow(ctx, query,
		invoice.BookingID,
		invoice.Code,
		invoice.Currency,
		invoice.TotalBasePrice,
		invoice.VATRate,
		invoice.TotalVATPrice,
		invoice.TotalPrice,
		model.InvoiceStatusIssued,
	))
	if err != nil {
		if isUniqueViolation(err, "invoices_booking_id_key") {
			return nil, apperrors.Wrap(apperrors.ErrInvoiceAlreadyExists, err)
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, base_price, vat_rate, vat_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for _, item := range invoice.Items {
		item.InvoiceID = created.ID
		err := tx.QueryRow(ctx, itemQuery,
			item.InvoiceID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.BasePrice,
			item.VATRate,
			item.VATPrice,
			item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create invoice item: %w", err)
		}
	}

	created.Items = invoice.Items
	return created, nil
}

func (r *InvoiceRepositoryImpl) ExistsByCode(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *InvoiceRepositoryImpl) FindByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) (*model.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE booking_id = $1
	`
	invoice, err := scanInvoice(tx.QueryRow(ctx, query, bookingID))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return invoice, nil
}

func (r *InvoiceRepositoryImpl) listItems(ctx context.Context, tx pgx.Tx, invoiceID int64) ([]*model.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, base_price, vat_rate, vat_price, total_price
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`

	rows, err := tx.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.InvoiceItem
	for rows.Next() {
		var item model.InvoiceItem
		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.BasePrice,
			&item.VATRate,
			&item.VATPrice,
			&item.TotalPrice,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateStatusByBookingID 訂位沒有發票時回傳 ErrInvoiceNotFound
func (r *InvoiceRepositoryImpl) UpdateStatusByBookingID(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status model.InvoiceStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE invoices SET status = $2, updated_at = NOW()
		WHERE booking_id = $1
	`, bookingID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepositoryImpl) DeleteDiscountItems(ctx context.Context, tx pgx.Tx, invoiceID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `
		DELETE FROM invoice_items
		WHERE invoice_id = $1 AND description LIKE $2
	`, invoiceID, model.DiscountItemDescription+"%")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RecalculateTotals 依剩下的明細重算發票總額
func (r *InvoiceRepositoryImpl) RecalculateTotals(ctx context.Context, tx pgx.Tx, invoiceID int64) (*model.Invoice, error) {
	query := `
		UPDATE invoices i
		SET total_base_price = s.base, total_vat_price = s.vat, total_price = s.total, updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(base_price), 0) AS base,
			       COALESCE(SUM(vat_price), 0) AS vat,
			       COALESCE(SUM(total_price), 0) AS total
			FROM invoice_items
			WHERE invoice_id = $1
		) s
		WHERE i.id = $1
		RETURNING i.id, i.booking_id, i.code, i.currency, i.total_base_price, i.vat_rate, i.total_vat_price,
		          i.total_price, i.status, i.created_at, i.updated_at
	`
	invoice, err := scanInvoice(tx.QueryRow(ctx, query, invoiceID))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return invoice, nil
}
