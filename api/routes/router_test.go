package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rohitnair-dev/storefront-backend/api/controllers"
	"github.com/rohitnair-dev/storefront-backend/internal/cart"
	"github.com/rohitnair-dev/storefront-backend/internal/catalog"
	"github.com/rohitnair-dev/storefront-backend/internal/checkout"
	"github.com/rohitnair-dev/storefront-backend/internal/coupons"
	"github.com/rohitnair-dev/storefront-backend/internal/orders"
	"github.com/rohitnair-dev/storefront-backend/internal/shipping"
	"github.com/rohitnair-dev/storefront-backend/pkg/auth"
	"github.com/rohitnair-dev/storefront-backend/pkg/config"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
	"github.com/rohitnair-dev/storefront-backend/pkg/metrics"
)

func setupRouterTestDB(t *testing.T) *gorm.DB {
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

type routerTxRunner struct {
	db *gorm.DB
}

func (r routerTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type routerBagStore struct {
	mu   sync.Mutex
	bags map[string]cart.Bag
}

func newRouterBagStore() *routerBagStore {
	return &routerBagStore{bags: map[string]cart.Bag{}}
}

func (m *routerBagStore) Load(_ context.Context, sessionID string) (cart.Bag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bag := cart.Bag{}
	for id, qty := range m.bags[sessionID] {
		bag[id] = qty
	}
	return bag, nil
}

func (m *routerBagStore) Save(_ context.Context, sessionID string, bag cart.Bag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(bag) == 0 {
		delete(m.bags, sessionID)
		return nil
	}
	m.bags[sessionID] = bag
	return nil
}

func (m *routerBagStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bags, sessionID)
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type routerFixture struct {
	db      *gorm.DB
	cfg     *config.Config
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	db := setupRouterTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	cfg := &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret"},
		Session: config.SessionConfig{
			CookieName: "storefront_session",
			CartTTL:    time.Hour,
		},
		Checkout: config.CheckoutConfig{MaxQuantityPerLine: 100},
	}

	catalogRepo := catalog.NewRepository(db)
	store := newRouterBagStore()

	catalogSvc, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(store, catalogRepo, cfg.Checkout.MaxQuantityPerLine)
	require.NoError(t, err)
	ordersRepo := orders.NewRepository(db)
	ordersSvc, err := orders.NewService(ordersRepo)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(
		routerTxRunner{db: db},
		cartSvc,
		catalogRepo,
		coupons.NewRepository(db),
		ordersRepo,
		shipping.NewRepository(db),
		metrics.NewCheckoutMetrics(nil),
		logg,
	)
	require.NoError(t, err)

	productsCtrl, err := controllers.NewProductsController(catalogSvc, logg)
	require.NoError(t, err)
	cartCtrl, err := controllers.NewCartController(cartSvc, logg)
	require.NoError(t, err)
	checkoutCtrl, err := controllers.NewCheckoutController(checkoutSvc, logg)
	require.NoError(t, err)
	ordersCtrl, err := controllers.NewOrdersController(ordersSvc, logg)
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, Controllers{
		Health:   controllers.NewHealthController(logg, okPinger{}, okPinger{}),
		Products: productsCtrl,
		Cart:     cartCtrl,
		Checkout: checkoutCtrl,
		Orders:   ordersCtrl,
	})

	return &routerFixture{db: db, cfg: cfg, handler: handler}
}

func (f *routerFixture) createProduct(t *testing.T, name, slug, price string, inventory int) *models.Product {
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

func (f *routerFixture) createRate(t *testing.T, fee, freeOver string) {
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

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(f *routerFixture) *http.Cookie {
	return &http.Cookie{Name: f.cfg.Session.CookieName, Value: uuid.NewString()}
}

func decodeData(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthLive(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReady(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestListProducts(t *testing.T) {
	f := newRouterFixture(t)
	f.createProduct(t, "Masala Chai Sampler", "masala-chai-sampler", "249.00", 12)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "masala-chai-sampler")
	assert.NotContains(t, rec.Body.String(), `"inventory"`)
}

func TestGetProductBySlugNotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/no-such-slug", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartMintsSessionCookie(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, f.cfg.Session.CookieName, cookies[0].Name)
	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
}

func TestCartAddAndFetch(t *testing.T) {
	f := newRouterFixture(t)
	product := f.createProduct(t, "Filter Coffee", "filter-coffee", "180.00", 5)
	cookie := sessionCookie(f)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":2}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(cookie)
	rec = f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec.Body)
	assert.Equal(t, "360.00", data["subtotal"])
}

func TestCartRejectsUnknownProduct(t *testing.T) {
	f := newRouterFixture(t)
	cookie := sessionCookie(f)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":1}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rec := f.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutQuoteAndSubmit(t *testing.T) {
	f := newRouterFixture(t)
	product := f.createProduct(t, "Ghee Jar", "ghee-jar", "450.00", 10)
	f.createRate(t, "50.00", "1000.00")
	cookie := sessionCookie(f)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":2}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/checkout/quote", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decodeData(t, rec.Body)
	assert.Equal(t, "900.00", quote["subtotal"])
	assert.Equal(t, "50.00", quote["delivery_fee"])
	assert.Equal(t, "950.00", quote["total"])

	submit := `{
		"full_name": "Asha Rao",
		"phone": "9876543210",
		"email": "asha@example.com",
		"address": "14 Lake View Road",
		"city": "Chennai",
		"state": "TN",
		"postal_code": "600001",
		"payment_method": "cod"
	}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(submit))
	req.AddCookie(cookie)
	rec = f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeData(t, rec.Body)
	assert.Equal(t, "950.00", order["total"])
	assert.Equal(t, "pending", order["status"])

	var remaining models.Product
	require.NoError(t, f.db.First(&remaining, "id = ?", product.ID).Error)
	assert.Equal(t, 8, remaining.Inventory)

	// The cart was cleared, so a replayed submission finds nothing to buy.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(submit))
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(req).Code)
}

func TestCheckoutValidatesPayload(t *testing.T) {
	f := newRouterFixture(t)
	cookie := sessionCookie(f)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(`{"payment_method":"wire"}`))
	req.AddCookie(cookie)
	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersRequireAuthentication(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrdersRejectInvalidToken(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := f.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedCheckoutAttachesOrderToUser(t *testing.T) {
	f := newRouterFixture(t)
	product := f.createProduct(t, "Brass Lamp", "brass-lamp", "1200.00", 3)
	f.createRate(t, "50.00", "1000.00")
	cookie := sessionCookie(f)

	userID := uuid.New()
	token, err := auth.MintToken(f.cfg.JWT, time.Now(), userID, time.Hour)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":1}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	submit := `{
		"full_name": "Asha Rao",
		"phone": "9876543210",
		"address": "14 Lake View Road",
		"city": "Chennai",
		"state": "TN",
		"postal_code": "600001",
		"payment_method": "upi"
	}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(submit))
	req.AddCookie(cookie)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), product.ID.String())
	assert.Contains(t, rec.Body.String(), `"total":"1200.00"`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
