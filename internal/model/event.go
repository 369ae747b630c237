package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingConfirmedEvent webhook 確認訂位後發出，由通知 worker 消費
type BookingConfirmedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	PaymentID   int64     `json:"payment_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
