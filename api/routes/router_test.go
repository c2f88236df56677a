package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/dessy-cafe/storefront-backend/internal/auth"
	cartsvc "github.com/dessy-cafe/storefront-backend/internal/cart"
	categorysvc "github.com/dessy-cafe/storefront-backend/internal/categories"
	couponsvc "github.com/dessy-cafe/storefront-backend/internal/coupons"
	ordersvc "github.com/dessy-cafe/storefront-backend/internal/orders"
	paymentsvc "github.com/dessy-cafe/storefront-backend/internal/payment"
	productsvc "github.com/dessy-cafe/storefront-backend/internal/products"
	pkgAuth "github.com/dessy-cafe/storefront-backend/pkg/auth"
	"github.com/dessy-cafe/storefront-backend/pkg/auth/session"
	"github.com/dessy-cafe/storefront-backend/pkg/config"
	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
	"github.com/dessy-cafe/storefront-backend/pkg/redis"
	"github.com/dessy-cafe/storefront-backend/pkg/types"
	"gorm.io/gorm"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

func (stubAuthService) Profile(ctx context.Context, userID uuid.UUID) (*authsvc.UserDTO, error) {
	return &authsvc.UserDTO{ID: userID}, nil
}

func (stubAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input authsvc.UpdateProfileInput) (*authsvc.UserDTO, error) {
	return &authsvc.UserDTO{ID: userID}, nil
}

type stubCategoryService struct{}

func (stubCategoryService) ListMenu(ctx context.Context) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (stubCategoryService) List(ctx context.Context, params pagination.Params) (*types.Page[models.Category], error) {
	return &types.Page[models.Category]{}, nil
}

func (stubCategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return &models.Category{}, nil
}

func (stubCategoryService) Create(ctx context.Context, input categorysvc.CreateCategoryInput) (*models.Category, error) {
	return &models.Category{}, nil
}

func (stubCategoryService) Update(ctx context.Context, id uuid.UUID, input categorysvc.UpdateCategoryInput) (*models.Category, error) {
	return &models.Category{}, nil
}

func (stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, filter productsvc.ListFilter, params pagination.Params) (*types.Page[productsvc.ProductDTO], error) {
	return &types.Page[productsvc.ProductDTO]{}, nil
}

func (stubProductService) GetBySlug(ctx context.Context, slug string) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (stubProductService) AddVariant(ctx context.Context, productID uuid.UUID, input productsvc.VariantInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input productsvc.UpdateVariantInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	return nil
}

func (stubProductService) ResolveCartItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*productsvc.PricedItem, error) {
	return &productsvc.PricedItem{}, nil
}

type stubCouponService struct{}

func (stubCouponService) ValidateForCart(ctx context.Context, code string, basket couponsvc.Basket) (*couponsvc.Discount, error) {
	return &couponsvc.Discount{}, nil
}

func (stubCouponService) Redeem(ctx context.Context, tx *gorm.DB, code string) error { return nil }

func (stubCouponService) List(ctx context.Context, params pagination.Params) (*types.Page[models.Coupon], error) {
	return &types.Page[models.Coupon]{}, nil
}

func (stubCouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return &models.Coupon{}, nil
}

func (stubCouponService) Create(ctx context.Context, input couponsvc.CreateCouponInput) (*models.Coupon, error) {
	return &models.Coupon{}, nil
}

func (stubCouponService) Update(ctx context.Context, id uuid.UUID, input couponsvc.UpdateCouponInput) (*models.Coupon, error) {
	return &models.Coupon{}, nil
}

func (stubCouponService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID string) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID string, productID uuid.UUID, variantID *uuid.UUID) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

func (stubCartService) Clear(ctx context.Context, userID string) error { return nil }

func (stubCartService) ApplyCoupon(ctx context.Context, userID, code string) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

func (stubCartService) RemoveCoupon(ctx context.Context, userID string) (*cartsvc.Quote, error) {
	return &cartsvc.Quote{}, nil
}

type stubOrderService struct{}

func (stubOrderService) Create(ctx context.Context, userID uuid.UUID, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) GetByID(ctx context.Context, orderID uuid.UUID, actor ordersvc.Actor) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[ordersvc.OrderDTO], error) {
	return &types.Page[ordersvc.OrderDTO]{}, nil
}

func (stubOrderService) List(ctx context.Context, filter ordersvc.ListFilter, params pagination.Params) (*types.Page[ordersvc.OrderDTO], error) {
	return &types.Page[ordersvc.OrderDTO]{}, nil
}

func (stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note *string) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) AttachGatewayOrder(ctx context.Context, orderID, userID uuid.UUID, gatewayOrderID string) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error { return nil }

type stubPaymentService struct{}

func (stubPaymentService) InitiateCheckout(ctx context.Context, orderID, userID uuid.UUID) (*paymentsvc.CheckoutSession, error) {
	return &paymentsvc.CheckoutSession{}, nil
}

func (stubPaymentService) VerifyPayment(ctx context.Context, userID uuid.UUID, input paymentsvc.VerifyInput) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubPaymentService) ReportFailure(ctx context.Context, orderID, userID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Redis:      redis.NewWithStore(nil),
		Sessions:   stubSessionManager{},
		Auth:       stubAuthService{},
		Categories: stubCategoryService{},
		Products:   stubProductService{},
		Coupons:    stubCouponService{},
		Cart:       stubCartService{},
		Orders:     stubOrderService{},
		Payments:   stubPaymentService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/api/v1/products", "/api/v1/categories", "/health/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestReadinessReportsCacheOutage(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 with no cache backend got %d", resp.Code)
	}
}

func TestCartRequiresToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartAllowsCustomerToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with customer token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestOrdersRequireToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}
