package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/enums"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
)

// Discount computes the amount a validated coupon takes off the subtotal.
// A nil coupon discounts nothing. Percent coupons round half-up at two
// places; amount coupons are capped at the subtotal so an order total can
// never go negative from a discount alone.
func Discount(subtotal decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	if coupon == nil {
		return money.Zero
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return money.Zero
	}
	if coupon.DiscountType == enums.DiscountTypePercent {
		return money.Percent(subtotal, coupon.Value)
	}
	return money.Min(coupon.Value, subtotal)
}

// DeliveryFee prices shipping for the post-discount subtotal. No active
// rate means free delivery, as does clearing a nonzero free-over threshold.
func DeliveryFee(subtotal decimal.Decimal, rate *models.DeliveryRate) decimal.Decimal {
	if rate == nil {
		return money.Zero
	}
	if rate.FreeOver.IsPositive() && subtotal.GreaterThanOrEqual(rate.FreeOver) {
		return money.Zero
	}
	return rate.Fee
}
