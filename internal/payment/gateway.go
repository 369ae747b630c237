package payment

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Stripe 事件類型
const (
	StripeEventPaymentIntentSucceeded = "payment_intent.succeeded"
	StripeEventPaymentIntentFailed    = "payment_intent.payment_failed"
)

// PayPal 事件類型
const (
	PayPalEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	PayPalEventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
)

// PayPal webhook 必要標頭
var PayPalWebhookHeaders = []string{
	"PAYPAL-TRANSMISSION-ID",
	"PAYPAL-TRANSMISSION-TIME",
	"PAYPAL-CERT-URL",
	"PAYPAL-AUTH-ALGO",
	"PAYPAL-TRANSMISSION-SIG",
}

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64 // 最小貨幣單位
	Quantity   int64
}

type CheckoutSessionRequest struct {
	PaymentID int64
	Currency  string
	LineItems []CheckoutLineItem
}

type CheckoutSession struct {
	ID  string
	URL string
}

// StripeEvent 已驗證簽章的 webhook 事件，只保留對帳需要的欄位
type StripeEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	PaymentID       string // checkout 時寫入 metadata 的 payment_id
	ErrorMessage    string
}

type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	// ParseWebhook 用原始 body 驗證 Stripe-Signature，失敗回傳 error
	ParseWebhook(payload []byte, signature string) (*StripeEvent, error)
}

type PayPalOrder struct {
	ID          string
	ApproveLink string
}

type PayPalGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*PayPalOrder, error)
	// VerifyWebhook 呼叫 PayPal verify-webhook-signature；error 代表無法完成驗證（網路、逾時）
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (bool, error)
}
