package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 以下為唯讀的參考資料，CRUD 由後台維護

type Customer struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

type Showtime struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	MovieID         int64           `json:"movie_id" db:"movie_id"`
	ScreenID        int64           `json:"screen_id" db:"screen_id"`
	StartTime       time.Time       `json:"start_time" db:"start_time"`
	BasePrice       decimal.Decimal `json:"base_price" db:"base_price"`
	VATRate         decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	PriceWithVAT    decimal.Decimal `json:"price_with_vat" db:"price_with_vat"`
	MovieTitle      string          `json:"movie_title" db:"movie_title"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
}

// EndTime 開演時間加上片長
func (s *Showtime) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

type Seat struct {
	ID       int64  `json:"id" db:"id"`
	ScreenID int64  `json:"screen_id" db:"screen_id"`
	Row      string `json:"row" db:"seat_row"`
	Number   int    `json:"number" db:"seat_number"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

type Discount struct {
	ID           int64           `json:"id" db:"id"`
	Code         string          `json:"code" db:"code"`
	Description  string          `json:"description" db:"description"`
	IsPercentage bool            `json:"is_percentage" db:"is_percentage"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	ExpiresAt    *time.Time      `json:"expires_at" db:"expires_at"`
	UsageLimit   *int            `json:"usage_limit" db:"usage_limit"`
	TimesUsed    int             `json:"times_used" db:"times_used"`
	IsActive     bool            `json:"is_active" db:"is_active"`
}

// IsUsable 啟用中、未過期且未達使用上限
func (d *Discount) IsUsable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return false
	}
	if d.UsageLimit != nil && d.TimesUsed >= *d.UsageLimit {
		return false
	}
	return true
}
