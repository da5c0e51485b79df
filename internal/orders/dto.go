package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/money"
)

// OrderItemDTO is one purchased line with its price snapshot.
type OrderItemDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	Subtotal  string    `json:"subtotal"`
}

// OrderDTO is the storefront view of an order. All amounts are rounded to
// two decimals at this boundary.
type OrderDTO struct {
	ID             uuid.UUID      `json:"id"`
	Status         string         `json:"status"`
	PaymentMethod  string         `json:"payment_method"`
	PaymentStatus  string         `json:"payment_status"`
	FullName       string         `json:"full_name"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email,omitempty"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	State          string         `json:"state"`
	PostalCode     string         `json:"postal_code"`
	Notes          string         `json:"notes,omitempty"`
	Items          []OrderItemDTO `json:"items"`
	Subtotal       string         `json:"subtotal"`
	DiscountAmount string         `json:"discount_amount"`
	DeliveryFee    string         `json:"delivery_fee"`
	Total          string         `json:"total"`
	CreatedAt      time.Time      `json:"created_at"`
}

// OrderListDTO is one page of orders plus the cursor for the next page.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ToOrderDTO converts a persisted order into its API shape.
func ToOrderDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     money.Round2(item.Price).StringFixed(2),
			Subtotal:  money.Round2(item.Subtotal()).StringFixed(2),
		})
	}

	return &OrderDTO{
		ID:             order.ID,
		Status:         order.Status.String(),
		PaymentMethod:  order.PaymentMethod.String(),
		PaymentStatus:  order.PaymentStatus.String(),
		FullName:       order.FullName,
		Phone:          order.Phone,
		Email:          order.Email,
		Address:        order.Address,
		City:           order.City,
		State:          order.State,
		PostalCode:     order.PostalCode,
		Notes:          order.Notes,
		Items:          items,
		Subtotal:       money.Round2(order.Subtotal()).StringFixed(2),
		DiscountAmount: money.Round2(order.DiscountAmount).StringFixed(2),
		DeliveryFee:    money.Round2(order.DeliveryFee).StringFixed(2),
		Total:          money.Round2(order.Total()).StringFixed(2),
		CreatedAt:      order.CreatedAt,
	}
}
