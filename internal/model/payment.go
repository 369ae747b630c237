package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderPayPal PaymentProvider = "paypal"
)

// PaymentStatus 付款狀態類型
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// CanTransitionTo failed 仍可重試成功；completed / cancelled 為終態
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
		PaymentStatusFailed:    {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
		PaymentStatusCompleted: {},
		PaymentStatusCancelled: {},
	}

	for _, status := range transitions[s] {
		if status == target {
			return true
		}
	}
	return false
}

// Payment 一次付款嘗試，同一訂位可以有多筆
type Payment struct {
	ID                int64           `json:"id" db:"id"`
	BookingID         uuid.UUID       `json:"booking_id" db:"booking_id"`
	Provider          PaymentProvider `json:"provider" db:"provider"`
	ProviderPaymentID *string         `json:"provider_payment_id" db:"provider_payment_id"`
	ProviderMetadata  map[string]any  `json:"provider_metadata,omitempty" db:"provider_metadata"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Currency          string          `json:"currency" db:"currency"`
	Status            PaymentStatus   `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckoutRequest 建立 Stripe session / PayPal order 的請求
type CheckoutRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
}

type StripeSessionResponse struct {
	URL string `json:"url"`
}

type PayPalOrderResponse struct {
	OrderID     string `json:"order_id"`
	ApproveLink string `json:"approve_link"`
}
