package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/internal/cart"
	"github.com/rohitnair-dev/storefront-backend/internal/catalog"
	"github.com/rohitnair-dev/storefront-backend/internal/coupons"
	"github.com/rohitnair-dev/storefront-backend/internal/orders"
	"github.com/rohitnair-dev/storefront-backend/internal/shipping"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
	"github.com/rohitnair-dev/storefront-backend/pkg/metrics"
	"github.com/rohitnair-dev/storefront-backend/pkg/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartAccess interface {
	Snapshot(ctx context.Context, sessionID string) (*cart.Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// SubmitInput is the validated checkout form. Field-level validation happens
// at the API boundary; the service re-checks only what it relies on.
type SubmitInput struct {
	FullName      string
	Phone         string
	Email         string
	Address       string
	City          string
	State         string
	PostalCode    string
	Notes         string
	PaymentMethod string
	CouponCode    string
	UserID        *uuid.UUID
}

// Service orchestrates checkout quoting and submission.
type Service interface {
	Quote(ctx context.Context, sessionID, couponCode string) (*QuoteDTO, error)
	Submit(ctx context.Context, sessionID string, input SubmitInput) (*orders.OrderDTO, error)
}

type service struct {
	tx           txRunner
	cartSvc      cartAccess
	catalogRepo  *catalog.Repository
	couponRepo   *coupons.Repository
	ordersRepo   *orders.Repository
	shippingRepo *shipping.Repository
	metrics      *metrics.CheckoutMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartSvc cartAccess,
	catalogRepo *catalog.Repository,
	couponRepo *coupons.Repository,
	ordersRepo *orders.Repository,
	shippingRepo *shipping.Repository,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if shippingRepo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:           tx,
		cartSvc:      cartSvc,
		catalogRepo:  catalogRepo,
		couponRepo:   couponRepo,
		ordersRepo:   ordersRepo,
		shippingRepo: shippingRepo,
		metrics:      checkoutMetrics,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Quote prices the current cart without side effects.
func (s *service) Quote(ctx context.Context, sessionID, couponCode string) (*QuoteDTO, error) {
	snapshot, err := s.cartSvc.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty").
			WithDetails(map[string]string{"reason": "empty_cart"})
	}

	subtotal := snapshot.Subtotal()

	coupon, err := s.resolveCoupon(ctx, nil, couponCode, subtotal)
	if err != nil {
		return nil, err
	}

	rate, err := s.shippingRepo.ActiveRate(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading delivery rate")
	}

	discount := pricing.Discount(subtotal, coupon)
	discounted := subtotal.Sub(discount)
	fee := pricing.DeliveryFee(discounted, rate)

	return buildQuoteDTO(snapshot, coupon, subtotal, discount, fee), nil
}

// Submit runs the whole checkout inside one database transaction. The cart
// is cleared only after the transaction commits.
func (s *service) Submit(ctx context.Context, sessionID string, input SubmitInput) (*orders.OrderDTO, error) {
	start := s.now()
	outcome := metrics.OutcomeError
	defer func() {
		s.metrics.Observe(outcome, time.Since(start))
	}()

	paymentMethod, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		outcome = metrics.OutcomeRejected
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]string{"payment_method": input.PaymentMethod})
	}

	var orderID uuid.UUID
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		snapshot, err := s.cartSvc.Snapshot(ctx, sessionID)
		if err != nil {
			return err
		}
		if snapshot.Empty() {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty").
				WithDetails(map[string]string{"reason": "empty_cart"})
		}

		subtotal := snapshot.Subtotal()

		coupon, err := s.resolveCoupon(ctx, tx, input.CouponCode, subtotal)
		if err != nil {
			return err
		}

		rate, err := s.shippingRepo.WithTx(tx).ActiveRate(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading delivery rate")
		}

		discount := pricing.Discount(subtotal, coupon)
		discounted := subtotal.Sub(discount)
		fee := pricing.DeliveryFee(discounted, rate)

		order := &models.Order{
			UserID:         input.UserID,
			FullName:       input.FullName,
			Phone:          input.Phone,
			Email:          input.Email,
			Address:        input.Address,
			City:           input.City,
			State:          input.State,
			PostalCode:     input.PostalCode,
			Notes:          input.Notes,
			Status:         enums.OrderStatusPending,
			PaymentMethod:  paymentMethod,
			PaymentStatus:  enums.PaymentStatusPending,
			DiscountAmount: discount,
			DeliveryFee:    fee,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
		}

		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		catalogRepo := s.catalogRepo.WithTx(tx)
		items := make([]models.OrderItem, 0, len(snapshot.Lines))
		for _, line := range snapshot.Lines {
			ok, err := catalogRepo.DecrementInventory(ctx, line.Product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing inventory")
			}
			if !ok {
				return s.stockConflict(ctx, catalogRepo, line)
			}
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
				Price:     line.Product.Price,
			})
		}

		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
		}

		if coupon != nil {
			consumed, err := s.couponRepo.WithTx(tx).ConsumeUse(ctx, coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming coupon use")
			}
			if !consumed {
				return pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon has been fully redeemed").
					WithDetails(map[string]string{"reason": "coupon_exhausted"})
			}
		}

		orderID = order.ID
		return nil
	})
	if txErr != nil {
		outcome = outcomeFor(txErr)
		return nil, txErr
	}

	// the transaction is committed; a cart-clear failure must not fail checkout
	if err := s.cartSvc.Clear(ctx, sessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", orderID.String()), "cart clear after checkout failed")
	}

	created, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading created order")
	}

	outcome = metrics.OutcomeSuccess
	return orders.ToOrderDTO(created), nil
}

// resolveCoupon looks up and validates the coupon when a code is supplied.
// A nil tx reads through the service's base connection (quote path).
func (s *service) resolveCoupon(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}

	repo := s.couponRepo
	if tx != nil {
		repo = s.couponRepo.WithTx(tx)
	}

	coupon, err := repo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "coupon is not valid").
				WithDetails(map[string]string{"reason": "invalid_coupon"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	if err := coupons.Validate(coupon, s.now(), subtotal); err != nil {
		return nil, err
	}
	return coupon, nil
}

// stockConflict builds the conflict error after a failed decrement, naming
// what was requested and what is actually available.
func (s *service) stockConflict(ctx context.Context, repo *catalog.Repository, line cart.Line) error {
	available := 0
	if current, err := repo.FindActiveByID(ctx, line.Product.ID); err == nil {
		available = current.Inventory
	}
	return pkgerrors.New(pkgerrors.CodeStockConflict, "insufficient stock").
		WithDetails(map[string]any{
			"product_id":   line.Product.ID.String(),
			"product_name": line.Product.Name,
			"requested":    line.Quantity,
			"available":    available,
		})
}

func outcomeFor(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.OutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeStockConflict:
		return metrics.OutcomeStockConflict
	case pkgerrors.CodeValidation, pkgerrors.CodeBusinessRule, pkgerrors.CodeNotFound:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
