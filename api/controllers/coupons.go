package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/api/responses"
	"github.com/dessy-cafe/storefront-backend/api/validators"
	couponsvc "github.com/dessy-cafe/storefront-backend/internal/coupons"
	"github.com/dessy-cafe/storefront-backend/pkg/enums"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

type createCouponRequest struct {
	Code                 string          `json:"code" validate:"required"`
	Type                 string          `json:"type" validate:"required"`
	Value                decimal.Decimal `json:"value" validate:"required"`
	MinOrderAmount       decimal.Decimal `json:"min_order_amount"`
	MaxDiscount          decimal.Decimal `json:"max_discount"`
	UsageLimit           int             `json:"usage_limit" validate:"omitempty,min=0"`
	StartDate            time.Time       `json:"start_date" validate:"required"`
	EndDate              time.Time       `json:"end_date" validate:"required"`
	IsActive             *bool           `json:"is_active,omitempty"`
	ApplicableProducts   []string        `json:"applicable_products,omitempty"`
	ApplicableCategories []string        `json:"applicable_categories,omitempty"`
}

type updateCouponRequest struct {
	Value                *decimal.Decimal `json:"value,omitempty"`
	MinOrderAmount       *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxDiscount          *decimal.Decimal `json:"max_discount,omitempty"`
	UsageLimit           *int             `json:"usage_limit,omitempty" validate:"omitempty,min=0"`
	StartDate            *time.Time       `json:"start_date,omitempty"`
	EndDate              *time.Time       `json:"end_date,omitempty"`
	IsActive             *bool            `json:"is_active,omitempty"`
	ApplicableProducts   *[]string        `json:"applicable_products,omitempty"`
	ApplicableCategories *[]string        `json:"applicable_categories,omitempty"`
}

type validateCouponRequest struct {
	Code        string          `json:"code" validate:"required"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"required"`
	ProductIDs  []string        `json:"product_ids,omitempty" validate:"omitempty,dive,uuid"`
	CategoryIDs []string        `json:"category_ids,omitempty" validate:"omitempty,dive,uuid"`
}

type validateCouponResponse struct {
	Valid    bool             `json:"valid"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// ValidateCoupon checks a code against an order amount before checkout.
// Redemption rules that fail report valid=false with a reason rather than
// an error status; the amounts here are advisory, order creation re-prices.
func ValidateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.OrderAmount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive"))
			return
		}

		basket := couponsvc.Basket{Subtotal: payload.OrderAmount}
		for _, raw := range payload.ProductIDs {
			id, err := validators.ParsePathUUID(raw, "product_ids")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			basket.Lines = append(basket.Lines, couponsvc.BasketLine{ProductID: id, LineTotal: payload.OrderAmount})
		}
		for _, raw := range payload.CategoryIDs {
			id, err := validators.ParsePathUUID(raw, "category_ids")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			basket.Lines = append(basket.Lines, couponsvc.BasketLine{CategoryID: id, LineTotal: payload.OrderAmount})
		}

		discount, err := svc.ValidateForCart(r.Context(), strings.TrimSpace(payload.Code), basket)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && (typed.Code() == pkgerrors.CodeValidation || typed.Code() == pkgerrors.CodeNotFound) {
				responses.WriteSuccess(w, validateCouponResponse{Valid: false, Reason: typed.Message()})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, validateCouponResponse{Valid: true, Discount: &discount.Amount})
	}
}

func AdminListCoupons(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.List(r.Context(), pagination.FromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}

		coupon, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminCreateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		couponType, err := enums.ParseCouponType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type"))
			return
		}

		coupon, err := svc.Create(r.Context(), couponsvc.CreateCouponInput{
			Code:                 strings.TrimSpace(payload.Code),
			Type:                 couponType,
			Value:                payload.Value,
			MinOrderAmount:       payload.MinOrderAmount,
			MaxDiscount:          payload.MaxDiscount,
			UsageLimit:           payload.UsageLimit,
			StartDate:            payload.StartDate,
			EndDate:              payload.EndDate,
			IsActive:             payload.IsActive,
			ApplicableProducts:   payload.ApplicableProducts,
			ApplicableCategories: payload.ApplicableCategories,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminUpdateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Update(r.Context(), id, couponsvc.UpdateCouponInput{
			Value:                payload.Value,
			MinOrderAmount:       payload.MinOrderAmount,
			MaxDiscount:          payload.MaxDiscount,
			UsageLimit:           payload.UsageLimit,
			StartDate:            payload.StartDate,
			EndDate:              payload.EndDate,
			IsActive:             payload.IsActive,
			ApplicableProducts:   payload.ApplicableProducts,
			ApplicableCategories: payload.ApplicableCategories,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminDeleteCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
