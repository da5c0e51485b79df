package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes read access to the catalog plus the conditional
// inventory decrement used by checkout.
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

// FindActiveByID loads an active product by primary key.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		First(&product, "id = ? AND is_active = ?", id, true).
		Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySlug loads an active product by its URL slug.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		First(&product, "slug = ? AND is_active = ?", slug, true).
		Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductListResult is one cursor page of active products.
type ProductListResult struct {
	Products   []models.Product
	NextCursor string
}

// ListActive returns active products newest first with cursor pagination.
func (r *Repository) ListActive(ctx context.Context, params pagination.Params) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).
		Where("is_active = ?", true)

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ProductListResult{Products: rows, NextCursor: nextCursor}, nil
}

// ResolveActive loads the active products for the given IDs, keyed by ID.
// IDs with no active product are simply absent from the result.
func (r *Repository) ResolveActive(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	resolved := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		resolved[row.ID] = row
	}
	return resolved, nil
}

// DecrementInventory atomically subtracts qty from the product's inventory.
// The WHERE guard makes the update a no-op when stock is insufficient, which
// is the only oversell protection checkout relies on.
func (r *Repository) DecrementInventory(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND inventory >= ?", productID, qty).
		UpdateColumn("inventory", gorm.Expr("inventory - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
