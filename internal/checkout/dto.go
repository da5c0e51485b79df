package checkout

import (
	"github.com/rohitnair-dev/storefront-backend/internal/cart"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// QuoteDTO prices the cart as it would check out right now. Amounts are
// rounded to two decimals at this boundary only.
type QuoteDTO struct {
	Items       []cart.LineDTO `json:"items"`
	Subtotal    string         `json:"subtotal"`
	Discount    string         `json:"discount"`
	DeliveryFee string         `json:"delivery_fee"`
	Total       string         `json:"total"`
	CouponCode  string         `json:"coupon_code,omitempty"`
}

func buildQuoteDTO(snapshot *cart.Snapshot, coupon *models.Coupon, subtotal, discount, fee decimal.Decimal) *QuoteDTO {
	total := subtotal.Sub(discount).Add(fee)

	dto := &QuoteDTO{
		Items:       snapshot.DTO().Items,
		Subtotal:    money.Round2(subtotal).StringFixed(2),
		Discount:    money.Round2(discount).StringFixed(2),
		DeliveryFee: money.Round2(fee).StringFixed(2),
		Total:       money.Round2(total).StringFixed(2),
	}
	if coupon != nil {
		dto.CouponCode = coupon.Code
	}
	return dto
}
