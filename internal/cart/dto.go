package cart

import (
	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
)

// LineDTO is one cart line with amounts rounded for emission.
type LineDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  string    `json:"subtotal"`
}

// CartDTO is the API shape of a cart snapshot.
type CartDTO struct {
	Items    []LineDTO `json:"items"`
	Subtotal string    `json:"subtotal"`
}

// DTO converts the snapshot into its API shape, rounding at this boundary.
func (s *Snapshot) DTO() *CartDTO {
	items := make([]LineDTO, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, LineDTO{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Slug:      line.Product.Slug,
			UnitPrice: money.Round2(line.Product.Price).StringFixed(2),
			Quantity:  line.Quantity,
			Subtotal:  money.Round2(line.Subtotal()).StringFixed(2),
		})
	}
	return &CartDTO{
		Items:    items,
		Subtotal: money.Round2(s.Subtotal()).StringFixed(2),
	}
}
