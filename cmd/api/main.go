package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/rohitnair-dev/storefront-backend/api/controllers"
	"github.com/rohitnair-dev/storefront-backend/api/routes"
	"github.com/rohitnair-dev/storefront-backend/internal/cart"
	"github.com/rohitnair-dev/storefront-backend/internal/catalog"
	"github.com/rohitnair-dev/storefront-backend/internal/checkout"
	"github.com/rohitnair-dev/storefront-backend/internal/coupons"
	"github.com/rohitnair-dev/storefront-backend/internal/orders"
	"github.com/rohitnair-dev/storefront-backend/internal/shipping"
	"github.com/rohitnair-dev/storefront-backend/pkg/config"
	"github.com/rohitnair-dev/storefront-backend/pkg/db"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
	"github.com/rohitnair-dev/storefront-backend/pkg/metrics"
	"github.com/rohitnair-dev/storefront-backend/pkg/migrate"
	"github.com/rohitnair-dev/storefront-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	handler, err := buildHandler(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}

	if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing resources", err)
		os.Exit(1)
	}
}

func buildHandler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	gormDB := dbClient.DB()

	catalogRepo := catalog.NewRepository(gormDB)
	couponRepo := coupons.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	shippingRepo := shipping.NewRepository(gormDB)

	cartStore, err := cart.NewStore(redisClient, cfg.Session.CartTTL)
	if err != nil {
		return nil, err
	}

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(cartStore, catalogRepo, cfg.Checkout.MaxQuantityPerLine)
	if err != nil {
		return nil, err
	}
	ordersSvc, err := orders.NewService(ordersRepo)
	if err != nil {
		return nil, err
	}
	checkoutSvc, err := checkout.NewService(
		dbClient,
		cartSvc,
		catalogRepo,
		couponRepo,
		ordersRepo,
		shippingRepo,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		return nil, err
	}

	productsCtrl, err := controllers.NewProductsController(catalogSvc, logg)
	if err != nil {
		return nil, err
	}
	cartCtrl, err := controllers.NewCartController(cartSvc, logg)
	if err != nil {
		return nil, err
	}
	checkoutCtrl, err := controllers.NewCheckoutController(checkoutSvc, logg)
	if err != nil {
		return nil, err
	}
	ordersCtrl, err := controllers.NewOrdersController(ordersSvc, logg)
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(cfg, logg, routes.Controllers{
		Health:   controllers.NewHealthController(logg, dbClient, redisClient),
		Products: productsCtrl,
		Cart:     cartCtrl,
		Checkout: checkoutCtrl,
		Orders:   ordersCtrl,
	}), nil
}
