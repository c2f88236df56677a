package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dessy-cafe/storefront-backend/api/routes"
	authsvc "github.com/dessy-cafe/storefront-backend/internal/auth"
	cartsvc "github.com/dessy-cafe/storefront-backend/internal/cart"
	categorysvc "github.com/dessy-cafe/storefront-backend/internal/categories"
	couponsvc "github.com/dessy-cafe/storefront-backend/internal/coupons"
	ordersvc "github.com/dessy-cafe/storefront-backend/internal/orders"
	paymentsvc "github.com/dessy-cafe/storefront-backend/internal/payment"
	productsvc "github.com/dessy-cafe/storefront-backend/internal/products"
	"github.com/dessy-cafe/storefront-backend/internal/users"
	"github.com/dessy-cafe/storefront-backend/pkg/auth/session"
	"github.com/dessy-cafe/storefront-backend/pkg/config"
	"github.com/dessy-cafe/storefront-backend/pkg/db"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/metrics"
	"github.com/dessy-cafe/storefront-backend/pkg/migrate"
	"github.com/dessy-cafe/storefront-backend/pkg/razorpay"
	"github.com/dessy-cafe/storefront-backend/pkg/redis"
)

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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.New(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(users.NewRepository(dbClient.DB()), sessionManager, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	categoryRepo := categorysvc.NewRepository(dbClient.DB())
	categoryService, err := categorysvc.NewService(categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productsvc.NewRepository(dbClient.DB()), categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	couponService, err := couponsvc.NewService(couponsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	pricing, err := cartsvc.PricingFromConfig(cfg.Delivery)
	if err != nil {
		logg.Error(context.Background(), "failed to load delivery pricing", err)
		os.Exit(1)
	}

	cartStore, err := cartsvc.NewRedisStore(redisClient, cfg.Redis.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartStore, productService, couponService, pricing, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(ordersvc.NewRepository(dbClient.DB()), dbClient, cartService, productService, couponService, pricing, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := paymentsvc.NewService(gateway, orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Sessions:   sessionManager,
			Metrics:    httpMetrics,
			Gatherer:   registry,
			Auth:       authService,
			Categories: categoryService,
			Products:   productService,
			Coupons:    couponService,
			Cart:       cartService,
			Orders:     orderService,
			Payments:   paymentService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
