package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/enums"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func TestDiscountNilCoupon(t *testing.T) {
	got := Discount(dec(t, "100.00"), nil)
	if !got.IsZero() {
		t.Fatalf("expected zero discount, got %s", got)
	}
}

func TestDiscountPercent(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType: enums.DiscountTypePercent,
		Value:        dec(t, "10"),
	}
	got := Discount(dec(t, "100.00"), coupon)
	if !got.Equal(dec(t, "10.00")) {
		t.Fatalf("expected 10.00, got %s", got)
	}
}

func TestDiscountAmountCappedAtSubtotal(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType: enums.DiscountTypeAmount,
		Value:        dec(t, "150.00"),
	}
	got := Discount(dec(t, "100.00"), coupon)
	if !got.Equal(dec(t, "100.00")) {
		t.Fatalf("expected cap at subtotal, got %s", got)
	}
}

func TestDiscountBelowMinimumIsZero(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:   enums.DiscountTypePercent,
		Value:          dec(t, "10"),
		MinOrderAmount: dec(t, "500.00"),
	}
	if got := Discount(dec(t, "499.99"), coupon); !got.IsZero() {
		t.Fatalf("expected zero below minimum, got %s", got)
	}
	if got := Discount(dec(t, "500.00"), coupon); !got.Equal(dec(t, "50.00")) {
		t.Fatalf("expected 50.00 at minimum, got %s", got)
	}
}

func TestDeliveryFeeThreshold(t *testing.T) {
	rate := &models.DeliveryRate{
		Fee:      dec(t, "50.00"),
		FreeOver: dec(t, "1000.00"),
	}
	if got := DeliveryFee(dec(t, "999.99"), rate); !got.Equal(dec(t, "50.00")) {
		t.Fatalf("expected 50.00 below threshold, got %s", got)
	}
	if got := DeliveryFee(dec(t, "1000.00"), rate); !got.IsZero() {
		t.Fatalf("expected free delivery at threshold, got %s", got)
	}
}

func TestDeliveryFeeNoRateOrNoFreeTier(t *testing.T) {
	if got := DeliveryFee(dec(t, "10.00"), nil); !got.IsZero() {
		t.Fatalf("expected zero fee without rate, got %s", got)
	}
	rate := &models.DeliveryRate{Fee: dec(t, "50.00")}
	if got := DeliveryFee(dec(t, "99999.00"), rate); !got.Equal(dec(t, "50.00")) {
		t.Fatalf("expected flat fee with no free tier, got %s", got)
	}
}
