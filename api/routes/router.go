package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dessy-cafe/storefront-backend/api/controllers"
	"github.com/dessy-cafe/storefront-backend/api/middleware"
	authsvc "github.com/dessy-cafe/storefront-backend/internal/auth"
	cartsvc "github.com/dessy-cafe/storefront-backend/internal/cart"
	categorysvc "github.com/dessy-cafe/storefront-backend/internal/categories"
	couponsvc "github.com/dessy-cafe/storefront-backend/internal/coupons"
	ordersvc "github.com/dessy-cafe/storefront-backend/internal/orders"
	paymentsvc "github.com/dessy-cafe/storefront-backend/internal/payment"
	productsvc "github.com/dessy-cafe/storefront-backend/internal/products"
	"github.com/dessy-cafe/storefront-backend/pkg/auth/session"
	"github.com/dessy-cafe/storefront-backend/pkg/config"
	"github.com/dessy-cafe/storefront-backend/pkg/db"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/metrics"
	"github.com/dessy-cafe/storefront-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions sessionManager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth       authsvc.Service
	Categories categorysvc.Service
	Products   productsvc.Service
	Coupons    couponsvc.Service
	Cart       cartsvc.Service
	Orders     ordersvc.Service
	Payments   paymentsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg), middleware.Idempotency(deps.Redis, logg)).
			Post("/register", controllers.Register(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.Login(deps.Auth, logg))
		r.Post("/refresh", controllers.Refresh(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.Logout(deps.Auth, logg))
			r.Get("/profile", controllers.Profile(deps.Auth, logg))
			r.Put("/profile", controllers.UpdateProfile(deps.Auth, logg))
		})
	})

	// Public catalog surface: no credentials required to browse.
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.ListMenuCategories(deps.Categories, logg))
		r.Get("/{slug}", controllers.GetCategoryBySlug(deps.Categories, logg))
	})
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Products, logg))
		r.Get("/{slug}", controllers.GetProductBySlug(deps.Products, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Put("/items", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items", controllers.RemoveCartItem(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/coupon", controllers.ApplyCoupon(deps.Cart, logg))
			r.Delete("/coupon", controllers.RemoveCoupon(deps.Cart, logg))
		})

		r.Post("/api/v1/coupons/validate", controllers.ValidateCoupon(deps.Coupons, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
		})

		r.Route("/api/v1/payments", func(r chi.Router) {
			r.Post("/{orderID}/checkout", controllers.InitiatePayment(deps.Payments, logg))
			r.Post("/{orderID}/verify", controllers.VerifyPayment(deps.Payments, logg))
			r.Post("/{orderID}/failure", controllers.ReportPaymentFailure(deps.Payments, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminListCategories(deps.Categories, logg))
			r.Post("/", controllers.AdminCreateCategory(deps.Categories, logg))
			r.Put("/{categoryID}", controllers.AdminUpdateCategory(deps.Categories, logg))
			r.Delete("/{categoryID}", controllers.AdminDeleteCategory(deps.Categories, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
			r.Put("/{productID}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(deps.Products, logg))
			r.Post("/{productID}/variants", controllers.AdminAddVariant(deps.Products, logg))
			r.Put("/{productID}/variants/{variantID}", controllers.AdminUpdateVariant(deps.Products, logg))
			r.Delete("/{productID}/variants/{variantID}", controllers.AdminDeleteVariant(deps.Products, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
			r.Get("/{code}", controllers.AdminGetCoupon(deps.Coupons, logg))
			r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
			r.Put("/{couponID}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
			r.Delete("/{couponID}", controllers.AdminDeleteCoupon(deps.Coupons, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})
	})

	return r
}
