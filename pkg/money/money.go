package money

import (
	"github.com/shopspring/decimal"
)

// 所有金額在邊界上都四捨五入到小數兩位（half away from zero，負數同樣適用）
const scale = 2

var hundred = decimal.NewFromInt(100)

// Round 金額取到小數兩位
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(scale)
}

// ApplyVAT 回傳含稅價 net * (1 + rate)
func ApplyVAT(net, rate decimal.Decimal) decimal.Decimal {
	return Round(net.Mul(decimal.NewFromInt(1).Add(rate)))
}

// VATAmount 回傳稅額 base * rate
func VATAmount(base, rate decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(rate))
}

// ApplyDiscount 回傳折扣後金額；百分比折扣的 amount 以 0-100 表示，結果不會小於 0
func ApplyDiscount(price, amount decimal.Decimal, isPercentage bool) decimal.Decimal {
	var discounted decimal.Decimal
	if isPercentage {
		discounted = price.Mul(decimal.NewFromInt(1).Sub(amount.Div(hundred)))
	} else {
		discounted = price.Sub(amount)
	}
	discounted = Round(discounted)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// ToMinorUnits 轉成金流商要的最小貨幣單位（cents）
func ToMinorUnits(d decimal.Decimal) int64 {
	return Round(d).Shift(scale).IntPart()
}

// Format 固定兩位小數的字串，PayPal amount.value 使用
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(scale)
}
