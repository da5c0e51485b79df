package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rohitnair-dev/storefront-backend/pkg/enums"
)

// Order is the durable result of a checkout. Contact fields, applied
// discount and delivery fee are immutable once created; only the status
// columns move afterwards.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	FullName         string              `gorm:"column:full_name;not null"`
	Phone            string              `gorm:"column:phone;not null"`
	Email            string              `gorm:"column:email;not null;default:''"`
	Address          string              `gorm:"column:address;not null"`
	City             string              `gorm:"column:city;not null"`
	State            string              `gorm:"column:state;not null"`
	PostalCode       string              `gorm:"column:postal_code;not null"`
	Notes            string              `gorm:"column:notes;not null;default:''"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentReference string              `gorm:"column:payment_reference;not null;default:''"`
	CouponID         *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	Coupon           *Coupon             `gorm:"foreignKey:CouponID;constraint:OnDelete:SET NULL"`
	DiscountAmount   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	DeliveryFee      decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(10,2);not null;default:0"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal sums the item subtotals.
func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Total is subtotal minus discount plus delivery fee.
func (o Order) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.DiscountAmount).Add(o.DeliveryFee)
}
