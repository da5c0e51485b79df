package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rohitnair-dev/storefront-backend/api/middleware"
	"github.com/rohitnair-dev/storefront-backend/api/responses"
	"github.com/rohitnair-dev/storefront-backend/api/validators"
	"github.com/rohitnair-dev/storefront-backend/internal/cart"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// CartController manages the session-scoped shopping cart.
type CartController struct {
	svc  cart.Service
	logg *logger.Logger
}

func NewCartController(svc cart.Service, logg *logger.Logger) (*CartController, error) {
	if svc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &CartController{svc: svc, logg: logg}, nil
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required"`
}

type setCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := c.sessionID(w, r)
	if !ok {
		return
	}

	snapshot, err := c.svc.Snapshot(ctx, sessionID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot.DTO())
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := c.sessionID(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a valid UUID"))
		return
	}

	snapshot, err := c.svc.AddItem(ctx, sessionID, productID, req.Quantity)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot.DTO())
}

func (c *CartController) SetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := c.sessionID(w, r)
	if !ok {
		return
	}

	productID, ok := c.productID(w, r)
	if !ok {
		return
	}

	var req setCartItemRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	snapshot, err := c.svc.SetQuantity(ctx, sessionID, productID, req.Quantity)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot.DTO())
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := c.sessionID(w, r)
	if !ok {
		return
	}

	productID, ok := c.productID(w, r)
	if !ok {
		return
	}

	snapshot, err := c.svc.RemoveItem(ctx, sessionID, productID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, snapshot.DTO())
}

func (c *CartController) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(
			pkgerrors.CodeValidation, "cart session is missing"))
		return "", false
	}
	return sessionID, true
}

func (c *CartController) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "productID")
	productID, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(
			pkgerrors.CodeValidation, "product id must be a valid UUID"))
		return uuid.Nil, false
	}
	return productID, true
}
