package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

func money(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc.(*service), conn
}

func activeWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func mustCreate(t *testing.T, svc Service, input CreateCouponInput) string {
	t.Helper()
	if input.StartDate.IsZero() {
		input.StartDate, input.EndDate = activeWindow()
	}
	coupon, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	return coupon.Code
}

func basket(subtotal string, lines ...BasketLine) Basket {
	return Basket{Subtotal: money(subtotal), Lines: lines}
}

func TestValidatePercentageCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	code := mustCreate(t, svc, CreateCouponInput{
		Code:  "save10",
		Type:  enums.CouponTypePercentage,
		Value: money("10"),
	})

	discount, err := svc.ValidateForCart(context.Background(), code, basket("600"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", discount.Code)
	assert.True(t, discount.Amount.Equal(money("60")))
}

func TestValidatePercentageCouponCappedByMaxDiscount(t *testing.T) {
	svc, _ := newTestService(t)
	code := mustCreate(t, svc, CreateCouponInput{
		Code:        "BIGSAVE",
		Type:        enums.CouponTypePercentage,
		Value:       money("50"),
		MaxDiscount: money("100"),
	})

	discount, err := svc.ValidateForCart(context.Background(), code, basket("600"))
	require.NoError(t, err)
	assert.True(t, discount.Amount.Equal(money("100")))
}

func TestValidateFixedCouponClampedToSubtotal(t *testing.T) {
	svc, _ := newTestService(t)
	code := mustCreate(t, svc, CreateCouponInput{
		Code:  "FLAT200",
		Type:  enums.CouponTypeFixed,
		Value: money("200"),
	})

	discount, err := svc.ValidateForCart(context.Background(), code, basket("150"))
	require.NoError(t, err)
	assert.True(t, discount.Amount.Equal(money("150")))
}

func TestValidateCouponCaseInsensitiveLookup(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{
		Code:  "WELCOME",
		Type:  enums.CouponTypeFixed,
		Value: money("50"),
	})

	discount, err := svc.ValidateForCart(context.Background(), "welcome", basket("300"))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", discount.Code)
}

func TestValidateCouponMinOrderAmount(t *testing.T) {
	svc, _ := newTestService(t)
	code := mustCreate(t, svc, CreateCouponInput{
		Code:           "MIN500",
		Type:           enums.CouponTypeFixed,
		Value:          money("50"),
		MinOrderAmount: money("500"),
	})

	_, err := svc.ValidateForCart(context.Background(), code, basket("499"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.ValidateForCart(context.Background(), code, basket("500"))
	assert.NoError(t, err)
}

func TestValidateCouponWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	future, err := svc.Create(ctx, CreateCouponInput{
		Code:      "SOON",
		Type:      enums.CouponTypeFixed,
		Value:     money("50"),
		StartDate: now.Add(time.Hour),
		EndDate:   now.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.ValidateForCart(ctx, future.Code, basket("300"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	expired, err := svc.Create(ctx, CreateCouponInput{
		Code:      "GONE",
		Type:      enums.CouponTypeFixed,
		Value:     money("50"),
		StartDate: now.Add(-48 * time.Hour),
		EndDate:   now.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.ValidateForCart(ctx, expired.Code, basket("300"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestValidateInactiveCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	inactive := false
	start, end := activeWindow()
	coupon, err := svc.Create(context.Background(), CreateCouponInput{
		Code:      "PAUSED",
		Type:      enums.CouponTypeFixed,
		Value:     money("50"),
		StartDate: start,
		EndDate:   end,
		IsActive:  &inactive,
	})
	require.NoError(t, err)

	_, err = svc.ValidateForCart(context.Background(), coupon.Code, basket("300"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestValidateUnknownCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ValidateForCart(context.Background(), "NOPE", basket("300"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestValidateUsageLimit(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	code := mustCreate(t, svc, CreateCouponInput{
		Code:       "ONCE",
		Type:       enums.CouponTypeFixed,
		Value:      money("50"),
		UsageLimit: 1,
	})

	_, err := svc.ValidateForCart(ctx, code, basket("300"))
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, conn, code))

	_, err = svc.ValidateForCart(ctx, code, basket("300"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	err = svc.Redeem(ctx, conn, code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestValidateScopedCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tubs := uuid.New()
	shakes := uuid.New()
	eligibleProduct := uuid.New()

	code := mustCreate(t, svc, CreateCouponInput{
		Code:                 "TUBS20",
		Type:                 enums.CouponTypePercentage,
		Value:                money("20"),
		ApplicableCategories: []string{tubs.String()},
	})

	// only the tub line is discounted
	discount, err := svc.ValidateForCart(ctx, code, basket("500",
		BasketLine{ProductID: eligibleProduct, CategoryID: tubs, LineTotal: money("200")},
		BasketLine{ProductID: uuid.New(), CategoryID: shakes, LineTotal: money("300")},
	))
	require.NoError(t, err)
	assert.True(t, discount.Amount.Equal(money("40")))

	// no eligible lines at all
	_, err = svc.ValidateForCart(ctx, code, basket("300",
		BasketLine{ProductID: uuid.New(), CategoryID: shakes, LineTotal: money("300")},
	))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestEligibleSubtotalCappedBySubtotal(t *testing.T) {
	svc, _ := newTestService(t)
	tubs := uuid.New()
	code := mustCreate(t, svc, CreateCouponInput{
		Code:                 "CAP10",
		Type:                 enums.CouponTypePercentage,
		Value:                money("10"),
		ApplicableCategories: []string{tubs.String()},
	})

	// line totals exceeding the subtotal never inflate the discount base
	discount, err := svc.ValidateForCart(context.Background(), code, basket("400",
		BasketLine{ProductID: uuid.New(), CategoryID: tubs, LineTotal: money("400")},
		BasketLine{ProductID: uuid.New(), CategoryID: tubs, LineTotal: money("400")},
	))
	require.NoError(t, err)
	assert.True(t, discount.Amount.Equal(money("40")))
}

func TestValidateProductScopedCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	product := uuid.New()
	code := mustCreate(t, svc, CreateCouponInput{
		Code:               "HERO",
		Type:               enums.CouponTypeFixed,
		Value:              money("30"),
		ApplicableProducts: []string{product.String()},
	})

	discount, err := svc.ValidateForCart(context.Background(), code, basket("400",
		BasketLine{ProductID: product, CategoryID: uuid.New(), LineTotal: money("100")},
		BasketLine{ProductID: uuid.New(), CategoryID: uuid.New(), LineTotal: money("300")},
	))
	require.NoError(t, err)
	assert.True(t, discount.Amount.Equal(money("30")))
}

func TestCreateCouponValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	start, end := activeWindow()

	_, err := svc.Create(ctx, CreateCouponInput{Code: "", Type: enums.CouponTypeFixed, Value: money("10"), StartDate: start, EndDate: end})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateCouponInput{Code: "X", Type: "bogus", Value: money("10"), StartDate: start, EndDate: end})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateCouponInput{Code: "X", Type: enums.CouponTypePercentage, Value: money("150"), StartDate: start, EndDate: end})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateCouponInput{Code: "X", Type: enums.CouponTypeFixed, Value: money("10"), StartDate: end, EndDate: start})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{Code: "DUP", Type: enums.CouponTypeFixed, Value: money("10")})

	start, end := activeWindow()
	_, err := svc.Create(context.Background(), CreateCouponInput{Code: "dup", Type: enums.CouponTypeFixed, Value: money("10"), StartDate: start, EndDate: end})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestUpdateAndDeleteCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	code := mustCreate(t, svc, CreateCouponInput{Code: "EDITME", Type: enums.CouponTypeFixed, Value: money("10")})

	coupon, err := svc.GetByCode(ctx, code)
	require.NoError(t, err)

	newValue := money("25")
	updated, err := svc.Update(ctx, coupon.ID, UpdateCouponInput{Value: &newValue})
	require.NoError(t, err)
	assert.True(t, updated.Value.Equal(newValue))

	require.NoError(t, svc.Delete(ctx, coupon.ID))
	_, err = svc.GetByCode(ctx, code)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListCoupons(t *testing.T) {
	svc, _ := newTestService(t)
	for _, code := range []string{"A1", "A2", "A3"} {
		mustCreate(t, svc, CreateCouponInput{Code: code, Type: enums.CouponTypeFixed, Value: money("5")})
	}

	page, err := svc.List(context.Background(), pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Payload, 2)
}
