package catalog

import (
	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
)

// ProductDTO is the storefront view of a product. Inventory counts stay
// private; callers only learn whether the product can be added to a cart.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	InStock     bool      `json:"in_stock"`
}

// ProductListDTO is one page of products plus the cursor for the next page.
type ProductListDTO struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Price:       money.Round2(product.Price).StringFixed(2),
		InStock:     product.InStock(),
	}
}
