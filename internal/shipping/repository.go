package shipping

import (
	"context"
	"errors"

	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads delivery rate configuration.
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

// ActiveRate returns the currently active delivery rate, or nil when no rate
// is configured. Pricing treats a missing rate as free delivery.
func (r *Repository) ActiveRate(ctx context.Context) (*models.DeliveryRate, error) {
	var rate models.DeliveryRate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&rate).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
