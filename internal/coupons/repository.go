package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// NormalizeCode canonicalizes user-supplied coupon codes. Codes are stored
// uppercase, so lookups normalize the same way.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository exposes coupon lookup plus the conditional usage increment used
// by checkout.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindActiveByCode loads an active coupon by normalized code.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		First(&coupon, "code = ? AND active = ?", NormalizeCode(code), true).
		Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ConsumeUse atomically increments the coupon's usage count. The WHERE guard
// makes the update a no-op once the cap is reached, which is the only
// protection against concurrent over-redemption.
func (r *Repository) ConsumeUse(ctx context.Context, couponID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND active = ? AND (max_uses IS NULL OR used_count < max_uses)", couponID, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
