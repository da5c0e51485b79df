package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohitnair-dev/storefront-backend/api/controllers"
	"github.com/rohitnair-dev/storefront-backend/api/middleware"
	"github.com/rohitnair-dev/storefront-backend/pkg/config"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// Controllers bundles the HTTP surface handed to the router.
type Controllers struct {
	Health   *controllers.HealthController
	Products *controllers.ProductsController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Orders   *controllers.OrdersController
}

// NewRouter wires middleware and routes for the storefront API.
func NewRouter(cfg *config.Config, logg *logger.Logger, ctrl Controllers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", ctrl.Health.Live)
		r.Get("/ready", ctrl.Health.Ready)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg, logg))

		r.Get("/products", ctrl.Products.List)
		r.Get("/products/{slug}", ctrl.Products.GetBySlug)

		// Cart and checkout key off the session cookie.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", ctrl.Cart.Get)
				r.Post("/items", ctrl.Cart.AddItem)
				r.Put("/items/{productID}", ctrl.Cart.SetItem)
				r.Delete("/items/{productID}", ctrl.Cart.RemoveItem)
			})

			r.Get("/checkout/quote", ctrl.Checkout.Quote)
			r.Post("/checkout", ctrl.Checkout.Submit)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/", ctrl.Orders.History)
			r.Get("/{orderID}", ctrl.Orders.Detail)
		})
	})

	return r
}
