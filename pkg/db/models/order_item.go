package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one purchased line. Price is copied from the product
// at checkout so later catalog edits never alter historical orders; the
// product row itself is protected from deletion while items reference it.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal is the snapshot price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
