package service

import (
	"fmt"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildInvoice 由座位與折扣計算發票明細與總額，不含 code
func buildInvoice(bookingID uuid.UUID, seats []*model.BookingSeat, discount *model.Discount, vatRate decimal.Decimal, currency string) *model.Invoice {
	base := decimal.Zero
	for _, seat := range seats {
		base = base.Add(seat.BasePrice)
	}
	base = money.Round(base)

	seatVAT := money.VATAmount(base, vatRate)
	items := []*model.InvoiceItem{{
		Description: model.SeatsItemDescription,
		Quantity:    len(seats),
		UnitPrice:   seats[0].BasePrice,
		BasePrice:   base,
		VATRate:     vatRate,
		VATPrice:    seatVAT,
		TotalPrice:  base.Add(seatVAT),
	}}

	if discount != nil {
		discounted := money.ApplyDiscount(base, discount.Amount, discount.IsPercentage)
		discountBase := base.Sub(discounted).Neg()
		discountVAT := money.VATAmount(discountBase, vatRate)
		items = append(items, &model.InvoiceItem{
			Description: fmt.Sprintf("%s %s", model.DiscountItemDescription, discount.Code),
			Quantity:    1,
			UnitPrice:   decimal.Zero,
			BasePrice:   discountBase,
			VATRate:     vatRate,
			VATPrice:    discountVAT,
			TotalPrice:  discountBase.Add(discountVAT),
		})
	}

	invoice := &model.Invoice{
		BookingID:      bookingID,
		Currency:       currency,
		VATRate:        vatRate,
		TotalBasePrice: decimal.Zero,
		TotalVATPrice:  decimal.Zero,
		TotalPrice:     decimal.Zero,
		Status:         model.InvoiceStatusIssued,
		Items:          items,
	}
	for _, item := range items {
		invoice.TotalBasePrice = invoice.TotalBasePrice.Add(item.BasePrice)
		invoice.TotalVATPrice = invoice.TotalVATPrice.Add(item.VATPrice)
		invoice.TotalPrice = invoice.TotalPrice.Add(item.TotalPrice)
	}

	return invoice
}
