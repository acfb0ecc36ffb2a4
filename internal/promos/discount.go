package promos

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount reduces amount by the promo's percent part, then by its fixed part, and
// clamps the result at zero. A nil or inactive promo leaves amount unchanged. Expiry is
// not considered here.
func ApplyDiscount(promo *models.PromoCode, amount decimal.Decimal) decimal.Decimal {
	if promo == nil || !promo.Active {
		return amount
	}
	if promo.DiscountPercent != nil && *promo.DiscountPercent > 0 {
		pct := decimal.NewFromInt(int64(*promo.DiscountPercent))
		amount = amount.Sub(amount.Mul(pct).Div(hundred))
	}
	if promo.DiscountAmount != nil && !promo.DiscountAmount.IsZero() {
		amount = amount.Sub(*promo.DiscountAmount)
	}
	if amount.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return amount
}
