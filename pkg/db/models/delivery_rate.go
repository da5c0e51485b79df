package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryRate prices shipping: a flat fee with an optional free-shipping
// threshold. FreeOver of zero means no free tier. The schema keeps at most
// one row active.
type DeliveryRate struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null;default:'Standard Delivery'"`
	Fee       decimal.Decimal `gorm:"column:fee;type:numeric(10,2);not null;default:0"`
	FreeOver  decimal.Decimal `gorm:"column:free_over;type:numeric(10,2);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
