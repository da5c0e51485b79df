package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rohitnair-dev/storefront-backend/api/responses"
	"github.com/rohitnair-dev/storefront-backend/api/validators"
	"github.com/rohitnair-dev/storefront-backend/internal/catalog"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// ProductsController serves the public catalog surface.
type ProductsController struct {
	svc  catalog.Service
	logg *logger.Logger
}

func NewProductsController(svc catalog.Service, logg *logger.Logger) (*ProductsController, error) {
	if svc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &ProductsController{svc: svc, logg: logg}, nil
}

func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	list, err := c.svc.ListProducts(ctx, params)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

func (c *ProductsController) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
		return
	}

	product, err := c.svc.GetProductBySlug(ctx, slug)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, product)
}
