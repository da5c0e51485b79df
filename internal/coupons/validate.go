package coupons

import (
	"time"

	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Validate checks whether the coupon can be applied to an order with the
// given subtotal at the given time. It returns nil when the coupon is
// usable and a business-rule error naming the reason otherwise.
func Validate(coupon *models.Coupon, now time.Time, subtotal decimal.Decimal) error {
	if coupon == nil || !coupon.Active {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon is not valid").
			WithDetails(map[string]string{"reason": "invalid_coupon"})
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon has expired").
			WithDetails(map[string]string{"reason": "coupon_expired"})
	}
	if coupon.Exhausted() {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon has been fully redeemed").
			WithDetails(map[string]string{"reason": "coupon_exhausted"})
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "order does not meet the coupon minimum").
			WithDetails(map[string]string{
				"reason":           "below_minimum_order",
				"min_order_amount": coupon.MinOrderAmount.StringFixed(2),
			})
	}
	return nil
}
