package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus 訂位狀態類型
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusCancelled      BookingStatus = "cancelled"
	BookingStatusExpired        BookingStatus = "expired"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPendingPayment, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired:
		return true
	}
	return false
}

// IsTerminal confirmed / cancelled / expired 之後不能再轉換
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled || s == BookingStatusExpired
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired},
		BookingStatusConfirmed:      {},
		BookingStatusCancelled:      {},
		BookingStatusExpired:        {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking 訂位模型，expired_at 不為空即視為已刪除
type Booking struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	CustomerID int64         `json:"customer_id" db:"customer_id"`
	ShowtimeID uuid.UUID     `json:"showtime_id" db:"showtime_id"`
	DiscountID *int64        `json:"discount_id" db:"discount_id"`
	Status     BookingStatus `json:"status" db:"status"`
	ExpiredAt  *time.Time    `json:"expired_at,omitempty" db:"expired_at"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive 未被軟刪除
func (b *Booking) IsActive() bool {
	return b.ExpiredAt == nil
}

// IsPending 仍可修改、加座位、付款
func (b *Booking) IsPending() bool {
	return b.IsActive() && b.Status == BookingStatusPendingPayment
}

// PendingBookingUpdate 只允許 pending 訂位修改的欄位，nil 表示不變
type PendingBookingUpdate struct {
	CustomerID     *int64
	ShowtimeID     *uuid.UUID
	DiscountID     *int64
	RemoveDiscount bool
}

func (u PendingBookingUpdate) IsEmpty() bool {
	return u.CustomerID == nil && u.ShowtimeID == nil && u.DiscountID == nil && !u.RemoveDiscount
}

// SortOrder 列表依 created_at 排序方向
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CreateBookingRequest 建立訂位請求
type CreateBookingRequest struct {
	CustomerID   int64     `json:"customer_id" binding:"required,min=1"`
	ShowtimeID   uuid.UUID `json:"showtime_id" binding:"required"`
	DiscountCode *string   `json:"discount_code" binding:"omitempty,min=1,max=64"`
}

// UpdateBookingRequest 修改 pending 訂位；discount_code 給空字串代表移除折扣
type UpdateBookingRequest struct {
	CustomerID   *int64     `json:"customer_id" binding:"omitempty,min=1"`
	ShowtimeID   *uuid.UUID `json:"showtime_id"`
	DiscountCode *string    `json:"discount_code" binding:"omitempty,max=64"`
}

// ListBookingsQuery 分頁參數
type ListBookingsQuery struct {
	PageNumber   int    `form:"page_number,default=1" binding:"min=1"`
	ItemsPerPage int    `form:"items_per_page,default=10" binding:"min=1,max=20"`
	Order        string `form:"order,default=asc" binding:"oneof=asc desc"`
}

// BookingSummary 通知信所需的訂位資料
type BookingSummary struct {
	BookingID     uuid.UUID
	CustomerName  string
	CustomerEmail string
	MovieTitle    string
	ScreenName    string
	StartTime     time.Time
	Seats         []SeatTicket
}

type SeatTicket struct {
	Row          string
	Number       int
	BarcodeValue string
}
