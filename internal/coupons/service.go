package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
	"github.com/dessy-cafe/storefront-backend/pkg/types"
)

// BasketLine is the coupon engine's view of one cart line.
type BasketLine struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	LineTotal  decimal.Decimal
}

// Basket is what the coupon engine prices against.
type Basket struct {
	Subtotal decimal.Decimal
	Lines    []BasketLine
}

// Discount is a successful validation outcome.
type Discount struct {
	Code   string
	Amount decimal.Decimal
}

// Service validates coupons against baskets and manages the coupon book.
type Service interface {
	ValidateForCart(ctx context.Context, code string, basket Basket) (*Discount, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
	List(ctx context.Context, params pagination.Params) (*types.Page[models.Coupon], error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCouponInput holds the validated payload to create a coupon.
type CreateCouponInput struct {
	Code                 string
	Type                 enums.CouponType
	Value                decimal.Decimal
	MinOrderAmount       decimal.Decimal
	MaxDiscount          decimal.Decimal
	UsageLimit           int
	StartDate            time.Time
	EndDate              time.Time
	IsActive             *bool
	ApplicableProducts   []string
	ApplicableCategories []string
}

// UpdateCouponInput holds optional mutation values for a coupon.
type UpdateCouponInput struct {
	Value                *decimal.Decimal
	MinOrderAmount       *decimal.Decimal
	MaxDiscount          *decimal.Decimal
	UsageLimit           *int
	StartDate            *time.Time
	EndDate              *time.Time
	IsActive             *bool
	ApplicableProducts   *[]string
	ApplicableCategories *[]string
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a coupon service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// ValidateForCart checks every redemption rule and computes the discount.
// The cart-supplied discount is never trusted; this is the only source of
// discount amounts.
func (s *service) ValidateForCart(ctx context.Context, code string, basket Basket) (*Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	now := s.now()
	switch {
	case !coupon.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	case now.Before(coupon.StartDate):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet")
	case now.After(coupon.EndDate):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	case coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	case basket.Subtotal.LessThan(coupon.MinOrderAmount):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not meet the coupon minimum").
			WithDetails(map[string]string{"min_order_amount": coupon.MinOrderAmount.String()})
	}

	eligible := eligibleSubtotal(coupon, basket)
	if !eligible.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon does not apply to any item in the cart")
	}

	return &Discount{Code: coupon.Code, Amount: discountAmount(coupon, eligible)}, nil
}

// Redeem consumes one use of the coupon inside the caller's transaction.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	updated, err := s.repo.WithTx(tx).IncrementUsage(ctx, code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming coupon")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon usage limit reached")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*types.Page[models.Coupon], error) {
	coupons, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing coupons")
	}
	return &types.Page[models.Coupon]{
		Payload: coupons,
		Total:   total,
		Page:    params.Page,
		Limit:   pagination.NormalizeLimit(params.Limit),
	}, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	return coupon, nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	if err := validateValue(input.Type, input.Value); err != nil {
		return nil, err
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.MinOrderAmount.IsNegative() || input.MaxDiscount.IsNegative() || input.UsageLimit < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon limits must not be negative")
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking coupon code")
	}

	coupon := &models.Coupon{
		ID:                   uuid.New(),
		Code:                 code,
		Type:                 input.Type,
		Value:                input.Value,
		MinOrderAmount:       input.MinOrderAmount,
		MaxDiscount:          input.MaxDiscount,
		UsageLimit:           input.UsageLimit,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		IsActive:             true,
		ApplicableProducts:   input.ApplicableProducts,
		ApplicableCategories: input.ApplicableCategories,
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating coupon")
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	if input.Value != nil {
		if err := validateValue(coupon.Type, *input.Value); err != nil {
			return nil, err
		}
		coupon.Value = *input.Value
	}
	if input.MinOrderAmount != nil {
		coupon.MinOrderAmount = *input.MinOrderAmount
	}
	if input.MaxDiscount != nil {
		coupon.MaxDiscount = *input.MaxDiscount
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = *input.UsageLimit
	}
	if input.StartDate != nil {
		coupon.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		coupon.EndDate = *input.EndDate
	}
	if coupon.EndDate.Before(coupon.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.ApplicableProducts != nil {
		coupon.ApplicableProducts = *input.ApplicableProducts
	}
	if input.ApplicableCategories != nil {
		coupon.ApplicableCategories = *input.ApplicableCategories
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating coupon")
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting coupon")
	}
	return nil
}

// eligibleSubtotal returns the portion of the basket the coupon may discount.
// Unscoped coupons cover the whole subtotal; scoped coupons cover only lines
// whose product or category appears in the applicable lists.
func eligibleSubtotal(coupon *models.Coupon, basket Basket) decimal.Decimal {
	if len(coupon.ApplicableProducts) == 0 && len(coupon.ApplicableCategories) == 0 {
		return basket.Subtotal
	}

	productSet := toSet(coupon.ApplicableProducts)
	categorySet := toSet(coupon.ApplicableCategories)

	eligible := decimal.Zero
	for _, line := range basket.Lines {
		if productSet[line.ProductID.String()] || categorySet[line.CategoryID.String()] {
			eligible = eligible.Add(line.LineTotal)
		}
	}
	if eligible.GreaterThan(basket.Subtotal) {
		return basket.Subtotal
	}
	return eligible
}

// discountAmount computes the discount on the eligible subtotal. Percentage
// coupons are capped by MaxDiscount when set; no discount exceeds the
// eligible amount.
func discountAmount(coupon *models.Coupon, eligible decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch coupon.Type {
	case enums.CouponTypePercentage:
		amount = eligible.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		if coupon.MaxDiscount.IsPositive() && amount.GreaterThan(coupon.MaxDiscount) {
			amount = coupon.MaxDiscount
		}
	case enums.CouponTypeFixed:
		amount = coupon.Value
	}
	if amount.GreaterThan(eligible) {
		return eligible
	}
	return amount
}

func validateValue(couponType enums.CouponType, value decimal.Decimal) error {
	if !value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if couponType == enums.CouponTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
