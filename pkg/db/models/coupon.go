package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rohitnair-dev/storefront-backend/pkg/enums"
)

// Coupon is a discount code. UsedCount only ever grows, bounded by MaxUses
// when set; the increment happens inside the checkout transaction.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value          decimal.Decimal    `gorm:"column:value;type:numeric(10,2);not null"`
	MinOrderAmount decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(10,2);not null;default:0"`
	MaxUses        *int               `gorm:"column:max_uses"`
	UsedCount      int                `gorm:"column:used_count;not null;default:0"`
	Active         bool               `gorm:"column:active;not null;default:true"`
	ExpiresAt      *time.Time         `gorm:"column:expires_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Exhausted reports whether the usage cap has been reached.
func (c Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}
