package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const BarcodeTypeQR = "qr"

// TicketStatus 票券狀態類型
type TicketStatus string

const (
	TicketStatusIssued   TicketStatus = "issued"
	TicketStatusRedeemed TicketStatus = "redeemed"
)

// BookingSeat 訂位中的單一座位，價格在建立時定格
type BookingSeat struct {
	ID           int64           `json:"id" db:"id"`
	BookingID    uuid.UUID       `json:"booking_id" db:"booking_id"`
	SeatID       int64           `json:"seat_id" db:"seat_id"`
	ShowtimeID   uuid.UUID       `json:"showtime_id" db:"showtime_id"`
	BasePrice    decimal.Decimal `json:"base_price" db:"base_price"`
	VATRate      decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	PriceWithVAT decimal.Decimal `json:"price_with_vat" db:"price_with_vat"`
	Active       bool            `json:"-" db:"active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`

	Ticket *Ticket `json:"ticket,omitempty" db:"-"`
}

// Ticket 票券模型，與 BookingSeat 一對一
type Ticket struct {
	ID            int64        `json:"id" db:"id"`
	BookingSeatID int64        `json:"booking_seat_id" db:"booking_seat_id"`
	BarcodeValue  string       `json:"barcode_value" db:"barcode_value"`
	BarcodeType   string       `json:"barcode_type" db:"barcode_type"`
	Status        TicketStatus `json:"status" db:"status"`
	IssuedAt      time.Time    `json:"issued_at" db:"issued_at"`
	RedeemedAt    *time.Time   `json:"redeemed_at" db:"redeemed_at"`
}

// IsRedeemed 檢查票券是否已使用
func (t *Ticket) IsRedeemed() bool {
	return t.Status == TicketStatusRedeemed
}

// TicketDetail 驗票時連帶載入 BookingSeat → Booking → Showtime
type TicketDetail struct {
	Ticket
	BookingID         uuid.UUID
	BookingStatus     BookingStatus
	ShowtimeStartTime time.Time
}

// ReserveSeatRequest 預約座位請求，含稅價一律由 server 計算
type ReserveSeatRequest struct {
	BookingID uuid.UUID        `json:"booking_id" binding:"required"`
	SeatID    int64            `json:"seat_id" binding:"required,min=1"`
	BasePrice *decimal.Decimal `json:"base_price" binding:"required"`
	VATRate   *decimal.Decimal `json:"vat_rate" binding:"required"`
}

// UpdateBookingSeatRequest 修改 pending 訂位座位的價格
type UpdateBookingSeatRequest struct {
	BasePrice *decimal.Decimal `json:"base_price"`
	VATRate   *decimal.Decimal `json:"vat_rate"`
}

// RedeemTicketRequest 驗票請求
type RedeemTicketRequest struct {
	BarcodeValue string `json:"barcode_value" binding:"required,max=64,alphanum"`
}
