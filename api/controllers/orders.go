package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rohitnair-dev/storefront-backend/api/middleware"
	"github.com/rohitnair-dev/storefront-backend/api/responses"
	"github.com/rohitnair-dev/storefront-backend/api/validators"
	"github.com/rohitnair-dev/storefront-backend/internal/orders"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// OrdersController serves the authenticated order history surface.
type OrdersController struct {
	svc  orders.Service
	logg *logger.Logger
}

func NewOrdersController(svc orders.Service, logg *logger.Logger) (*OrdersController, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &OrdersController{svc: svc, logg: logg}, nil
}

func (c *OrdersController) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := c.userID(w, r)
	if !ok {
		return
	}

	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	list, err := c.svc.History(ctx, userID, params)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

func (c *OrdersController) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := c.userID(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(
			pkgerrors.CodeValidation, "order id must be a valid UUID"))
		return
	}

	order, err := c.svc.Detail(ctx, userID, orderID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, order)
}

func (c *OrdersController) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(
			pkgerrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(
			pkgerrors.CodeUnauthorized, err, "invalid user identity"))
		return uuid.Nil, false
	}
	return userID, true
}
