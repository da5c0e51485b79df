package catalog

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes the public catalog read surface.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params) (*ProductListDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductListDTO, error) {
	result, err := s.repo.ListActive(ctx, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	dtos := make([]ProductDTO, 0, len(result.Products))
	for i := range result.Products {
		dtos = append(dtos, *toProductDTO(&result.Products[i]))
	}

	return &ProductListDTO{Products: dtos, NextCursor: result.NextCursor}, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return toProductDTO(product), nil
}
