package checkout

import (
	"context"
	"fmt"
	"io"
	"testing"

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  inventory INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_type TEXT NOT NULL,
  value NUMERIC NOT NULL,
  min_order_amount NUMERIC NOT NULL DEFAULT 0,
  max_uses INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS delivery_rates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Standard Delivery',
  fee NUMERIC NOT NULL DEFAULT 0,
  free_over NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  full_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_reference TEXT NOT NULL DEFAULT '',
  coupon_id TEXT,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type memoryBagStore struct {
	bags map[string]cart.Bag
}

func newMemoryBagStore() *memoryBagStore {
	return &memoryBagStore{bags: map[string]cart.Bag{}}
}

func (m *memoryBagStore) Load(_ context.Context, sessionID string) (cart.Bag, error) {
	bag := cart.Bag{}
	for id, qty := range m.bags[sessionID] {
		bag[id] = qty
	}
	return bag, nil
}

func (m *memoryBagStore) Save(_ context.Context, sessionID string, bag cart.Bag) error {
	if len(bag) == 0 {
		delete(m.bags, sessionID)
		return nil
	}
	m.bags[sessionID] = bag
	return nil
}

func (m *memoryBagStore) Clear(_ context.Context, sessionID string) error {
	delete(m.bags, sessionID)
	return nil
}

type checkoutFixture struct {
	db    *gorm.DB
	svc   Service
	cart  cart.Service
	store *memoryBagStore
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	catalogRepo := catalog.NewRepository(db)
	store := newMemoryBagStore()

	cartSvc, err := cart.NewService(store, catalogRepo, 100)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		testTxRunner{db: db},
		cartSvc,
		catalogRepo,
		coupons.NewRepository(db),
		orders.NewRepository(db),
		shipping.NewRepository(db),
		metrics.NewCheckoutMetrics(nil),
		logg,
	)
	require.NoError(t, err)

	return &checkoutFixture{db: db, svc: svc, cart: cartSvc, store: store}
}

func (f *checkoutFixture) createProduct(t *testing.T, name, slug, price string, inventory int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Price:     decimal.RequireFromString(price),
		Inventory: inventory,
		IsActive:  true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *checkoutFixture) createCoupon(t *testing.T, code string, discountType enums.DiscountType, value, minOrder string, maxUses *int, usedCount int) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           code,
		DiscountType:   discountType,
		Value:          decimal.RequireFromString(value),
		MinOrderAmount: decimal.RequireFromString(minOrder),
		MaxUses:        maxUses,
		UsedCount:      usedCount,
		Active:         true,
	}
	require.NoError(t, f.db.Create(coupon).Error)
	return coupon
}

func (f *checkoutFixture) createRate(t *testing.T, fee, freeOver string) {
	t.Helper()
	rate := &models.DeliveryRate{
		ID:       uuid.New(),
		Name:     "Standard Delivery",
		Fee:      decimal.RequireFromString(fee),
		FreeOver: decimal.RequireFromString(freeOver),
		IsActive: true,
	}
	require.NoError(t, f.db.Create(rate).Error)
}

func validInput() SubmitInput {
	return SubmitInput{
		FullName:      "Asha Rao",
		Phone:         "9876543210",
		Email:         "asha@example.com",
		Address:       "14 Lake View Road",
		City:          "Chennai",
		State:         "TN",
		PostalCode:    "600001",
		PaymentMethod: "cod",
	}
}

func (f *checkoutFixture) productInventory(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", id).Error)
	return product.Inventory
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func TestSubmit_success(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Masala Chai", "masala-chai", "100.00", 10)
	maxUses := 5
	coupon := f.createCoupon(t, "SAVE10", enums.DiscountTypePercent, "10", "0", &maxUses, 0)
	f.createRate(t, "50.00", "500.00")

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 2)
	require.NoError(t, err)

	input := validInput()
	input.CouponCode = "save10"
	dto, err := f.svc.Submit(context.Background(), "sess", input)
	require.NoError(t, err)

	// 200 subtotal, 20 discount, 180 post-discount, under free_over so fee applies
	assert.Equal(t, "200.00", dto.Subtotal)
	assert.Equal(t, "20.00", dto.DiscountAmount)
	assert.Equal(t, "50.00", dto.DeliveryFee)
	assert.Equal(t, "230.00", dto.Total)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, "pending", dto.PaymentStatus)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "100.00", dto.Items[0].Price)

	assert.Equal(t, 8, f.productInventory(t, product.ID))

	var after models.Coupon
	require.NoError(t, f.db.First(&after, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, after.UsedCount)

	// cart cleared only after the commit
	assert.Empty(t, f.store.bags["sess"])
}

func TestSubmit_freeDeliveryOverThreshold(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Gift Hamper", "gift-hamper", "600.00", 5)
	f.createRate(t, "50.00", "500.00")

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	dto, err := f.svc.Submit(context.Background(), "sess", validInput())
	require.NoError(t, err)
	assert.Equal(t, "0.00", dto.DeliveryFee)
	assert.Equal(t, "600.00", dto.Total)
}

func TestSubmit_insufficientStockRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Rare Blend", "rare-blend", "100.00", 5)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 3)
	require.NoError(t, err)

	// stock drained between add-to-cart and checkout
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", product.ID).UpdateColumn("inventory", 1).Error)

	_, err = f.svc.Submit(context.Background(), "sess", validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStockConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, details["requested"])
	assert.Equal(t, 1, details["available"])

	assert.Equal(t, 1, f.productInventory(t, product.ID))
	assert.Equal(t, int64(0), f.orderCount(t))

	// failed checkout leaves the cart untouched
	assert.Equal(t, 3, f.store.bags["sess"][product.ID])
}

func TestSubmit_sequentialCheckoutsOverLastUnit(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Last Unit", "last-unit", "100.00", 1)

	_, err := f.cart.AddItem(context.Background(), "sess-a", product.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(context.Background(), "sess-b", product.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), "sess-a", validInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), "sess-b", validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStockConflict, typed.Code())

	assert.Equal(t, 0, f.productInventory(t, product.ID))
	assert.Equal(t, int64(1), f.orderCount(t))
}

func TestSubmit_emptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Submit(context.Background(), "sess", validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())
	assert.Equal(t, int64(0), f.orderCount(t))
}

func TestSubmit_unknownCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Chai", "chai", "100.00", 5)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	input := validInput()
	input.CouponCode = "NOSUCHCODE"
	_, err = f.svc.Submit(context.Background(), "sess", input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())

	assert.Equal(t, 5, f.productInventory(t, product.ID))
	assert.Equal(t, int64(0), f.orderCount(t))
}

func TestSubmit_exhaustedCouponRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Chai", "chai", "100.00", 5)
	maxUses := 1
	f.createCoupon(t, "ONCE", enums.DiscountTypeAmount, "10", "0", &maxUses, 1)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	input := validInput()
	input.CouponCode = "ONCE"
	_, err = f.svc.Submit(context.Background(), "sess", input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())

	assert.Equal(t, 5, f.productInventory(t, product.ID))
	assert.Equal(t, int64(0), f.orderCount(t))
}

func TestSubmit_invalidPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t)

	input := validInput()
	input.PaymentMethod = "bitcoin"
	_, err := f.svc.Submit(context.Background(), "sess", input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSubmit_attachesUserID(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Chai", "chai", "100.00", 5)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	userID := uuid.New()
	input := validInput()
	input.UserID = &userID
	dto, err := f.svc.Submit(context.Background(), "sess", input)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", dto.ID).Error)
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
}

func TestQuote_hasNoSideEffects(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Chai", "chai", "100.00", 5)
	maxUses := 5
	coupon := f.createCoupon(t, "SAVE10", enums.DiscountTypePercent, "10", "0", &maxUses, 0)
	f.createRate(t, "50.00", "500.00")

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 2)
	require.NoError(t, err)

	quote, err := f.svc.Quote(context.Background(), "sess", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "200.00", quote.Subtotal)
	assert.Equal(t, "20.00", quote.Discount)
	assert.Equal(t, "50.00", quote.DeliveryFee)
	assert.Equal(t, "230.00", quote.Total)
	assert.Equal(t, "SAVE10", quote.CouponCode)

	assert.Equal(t, 5, f.productInventory(t, product.ID))
	var after models.Coupon
	require.NoError(t, f.db.First(&after, "id = ?", coupon.ID).Error)
	assert.Equal(t, 0, after.UsedCount)
	assert.Equal(t, 2, f.store.bags["sess"][product.ID])
}

func TestQuote_amountDiscountCappedAtSubtotal(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Sampler", "sampler", "100.00", 5)
	f.createCoupon(t, "BIG", enums.DiscountTypeAmount, "150.00", "0", nil, 0)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	quote, err := f.svc.Quote(context.Background(), "sess", "BIG")
	require.NoError(t, err)
	assert.Equal(t, "100.00", quote.Discount)
	assert.Equal(t, "0.00", quote.Total)
}

func TestQuote_emptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Quote(context.Background(), "sess", "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())
}

func TestSubmit_belowCouponMinimum(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.createProduct(t, "Chai", "chai", "100.00", 5)
	f.createCoupon(t, "MIN500", enums.DiscountTypePercent, "10", "500.00", nil, 0)

	_, err := f.cart.AddItem(context.Background(), "sess", product.ID, 1)
	require.NoError(t, err)

	input := validInput()
	input.CouponCode = "MIN500"
	_, err = f.svc.Submit(context.Background(), "sess", input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "below_minimum_order", details["reason"])
}
