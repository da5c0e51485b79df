package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes order history and detail reads.
type Service interface {
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListDTO, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs an orders service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListDTO, error) {
	result, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	dtos := make([]OrderDTO, 0, len(result.Orders))
	for i := range result.Orders {
		dtos = append(dtos, *ToOrderDTO(&result.Orders[i]))
	}
	return &OrderListDTO{Orders: dtos, NextCursor: result.NextCursor}, nil
}

// Detail loads an order and enforces that it belongs to the caller. A foreign
// order reads as not found rather than forbidden so order IDs stay unguessable.
func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToOrderDTO(order), nil
}

// Get loads an order without ownership scoping. Checkout uses it to return
// the freshly created order; it is not routed directly.
func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return ToOrderDTO(order), nil
}
