package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus 發票狀態類型
type InvoiceStatus string

const (
	InvoiceStatusIssued   InvoiceStatus = "issued"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusRefunded InvoiceStatus = "refunded"
)

const (
	SeatsItemDescription    = "Seats"
	DiscountItemDescription = "Discount"
)

type Invoice struct {
	ID             int64           `json:"id" db:"id"`
	BookingID      uuid.UUID       `json:"booking_id" db:"booking_id"`
	Code           string          `json:"code" db:"code"`
	Currency       string          `json:"currency" db:"currency"`
	TotalBasePrice decimal.Decimal `json:"total_base_price" db:"total_base_price"`
	VATRate        decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	TotalVATPrice  decimal.Decimal `json:"total_vat_price" db:"total_vat_price"`
	TotalPrice     decimal.Decimal `json:"total_price" db:"total_price"`
	Status         InvoiceStatus   `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Items []*InvoiceItem `json:"items" db:"-"`
}

// InvoiceItem 金額帶正負號，折扣為負數
type InvoiceItem struct {
	ID          int64           `json:"id" db:"id"`
	InvoiceID   int64           `json:"invoice_id" db:"invoice_id"`
	Description string          `json:"description" db:"description"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	BasePrice   decimal.Decimal `json:"base_price" db:"base_price"`
	VATRate     decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	VATPrice    decimal.Decimal `json:"vat_price" db:"vat_price"`
	TotalPrice  decimal.Decimal `json:"total_price" db:"total_price"`
}
