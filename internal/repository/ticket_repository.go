package repository

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, bookingSeatID int64, barcode string) (*model.Ticket, error)
	ExistsByBarcode(ctx context.Context, tx pgx.Tx, barcode string) (bool, error)
	FindDetailByBarcodeWithLock(ctx context.Context, tx pgx.Tx, barcode string) (*model.TicketDetail, error)
	MarkRedeemed(ctx context.Context, tx pgx.Tx, id int64, redeemedAt time.Time) (*model.Ticket, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
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
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, bookingSeatID int64, barcode string) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (booking_seat_id, barcode_value, barcode_type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, booking_seat_id, barcode_value, barcode_type, status, issued_at, redeemed_at
	`

	ticket, err := scanTicket(tx.QueryRow(ctx, query, bookingSeatID, barcode, model.BarcodeTypeQR, model.TicketStatusIssued))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepositoryImpl) ExistsByBarcode(ctx context.Context, tx pgx.Tx, barcode string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE barcode_value = $1)`, barcode).Scan(&exists)
	return exists, err
}

// FindDetailByBarcodeWithLock 鎖住票券列，避免同一張票被兩個閘口同時核銷
func (r *TicketRepositoryImpl) FindDetailByBarcodeWithLock(ctx context.Context, tx pgx.Tx, barcode string) (*model.TicketDetail, error) {
	query := `
		SELECT t.id, t.booking_seat_id, t.barcode_value, t.barcode_type, t.status, t.issued_at, t.redeemed_at,
		       b.id, b.status, st.start_time
		FROM tickets t
		JOIN booking_seats bs ON bs.id = t.booking_seat_id
		JOIN bookings b ON b.id = bs.booking_id
		JOIN showtimes st ON st.id = bs.showtime_id
		WHERE t.barcode_value = $1
		FOR UPDATE OF t
	`

	var detail model.TicketDetail
	err := tx.QueryRow(ctx, query, barcode).Scan(
		&detail.ID,
		&detail.BookingSeatID,
		&detail.BarcodeValue,
		&detail.BarcodeType,
		&detail.Status,
		&detail.IssuedAt,
		&detail.RedeemedAt,
		&detail.BookingID,
		&detail.BookingStatus,
		&detail.ShowtimeStartTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return &detail, nil
}

func (r *TicketRepositoryImpl) MarkRedeemed(ctx context.Context, tx pgx.Tx, id int64, redeemedAt time.Time) (*model.Ticket, error) {
	query := `
		UPDATE tickets
		SET status = $2, redeemed_at = $3
		WHERE id = $1
		RETURNING id, booking_seat_id, barcode_value, barcode_type, status, issued_at, redeemed_at
	`
	return scanTicket(tx.QueryRow(ctx, query, id, model.TicketStatusRedeemed, redeemedAt))
}
