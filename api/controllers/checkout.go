package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rohitnair-dev/storefront-backend/api/middleware"
	"github.com/rohitnair-dev/storefront-backend/api/responses"
	"github.com/rohitnair-dev/storefront-backend/api/validators"
	"github.com/rohitnair-dev/storefront-backend/internal/checkout"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// CheckoutController exposes quoting and order submission.
type CheckoutController struct {
	svc  checkout.Service
	logg *logger.Logger
}

func NewCheckoutController(svc checkout.Service, logg *logger.Logger) (*CheckoutController, error) {
	if svc == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	return &CheckoutController{svc: svc, logg: logg}, nil
}

type submitCheckoutRequest struct {
	FullName      string `json:"full_name" validate:"required,max=200"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address" validate:"required,max=500"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,max=100"`
	PostalCode    string `json:"postal_code" validate:"required,max=20"`
	Notes         string `json:"notes" validate:"omitempty,max=1000"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cod upi card"`
	CouponCode    string `json:"coupon_code" validate:"omitempty,max=64"`
}

func (c *CheckoutController) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session is missing"))
		return
	}

	couponCode := strings.TrimSpace(r.URL.Query().Get("coupon"))

	quote, err := c.svc.Quote(ctx, sessionID, couponCode)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, quote)
}

func (c *CheckoutController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session is missing"))
		return
	}

	var req submitCheckoutRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	input := checkout.SubmitInput{
		FullName:      strings.TrimSpace(req.FullName),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Notes:         strings.TrimSpace(req.Notes),
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
	}

	if rawUserID := middleware.UserIDFromContext(ctx); rawUserID != "" {
		userID, err := uuid.Parse(rawUserID)
		if err != nil {
			responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(
				pkgerrors.CodeUnauthorized, err, "invalid user identity"))
			return
		}
		input.UserID = &userID
	}

	order, err := c.svc.Submit(ctx, sessionID, input)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, order)
}
