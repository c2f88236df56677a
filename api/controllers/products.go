package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/api/responses"
	"github.com/dessy-cafe/storefront-backend/api/validators"
	productsvc "github.com/dessy-cafe/storefront-backend/internal/products"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

type createProductRequest struct {
	Name         string                `json:"name" validate:"required"`
	Description  string                `json:"description,omitempty"`
	CategoryID   string                `json:"category_id" validate:"required,uuid"`
	BasePrice    decimal.Decimal       `json:"base_price" validate:"required"`
	SellingPrice decimal.Decimal       `json:"selling_price" validate:"required"`
	Images       []string              `json:"images,omitempty"`
	IsAvailable  *bool                 `json:"is_available,omitempty"`
	Variants     []variantInputRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

type variantInputRequest struct {
	Name         string          `json:"name" validate:"required"`
	Size         string          `json:"size" validate:"required"`
	BasePrice    decimal.Decimal `json:"base_price" validate:"required"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"required"`
	IsAvailable  *bool           `json:"is_available,omitempty"`
}

type updateProductRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CategoryID   *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	Images       *[]string        `json:"images,omitempty"`
	IsAvailable  *bool            `json:"is_available,omitempty"`
}

type updateVariantRequest struct {
	Name         *string          `json:"name,omitempty"`
	Size         *string          `json:"size,omitempty"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	IsAvailable  *bool            `json:"is_available,omitempty"`
}

func (r variantInputRequest) toInput() productsvc.VariantInput {
	return productsvc.VariantInput{
		Name:         strings.TrimSpace(r.Name),
		Size:         strings.TrimSpace(r.Size),
		BasePrice:    r.BasePrice,
		SellingPrice: r.SellingPrice,
		IsAvailable:  r.IsAvailable,
	}
}

// ListProducts is the public catalog listing: available products only, with
// optional category and text filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, true)
}

// AdminListProducts shows the whole catalog, unavailable products included.
func AdminListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, false)
}

func listProducts(svc productsvc.Service, logg *logger.Logger, onlyAvailable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := productsvc.ListFilter{
			Search:        validators.SanitizeString(r.URL.Query().Get("search"), 120),
			OnlyAvailable: onlyAvailable,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, err := validators.ParsePathUUID(raw, "category_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.CategoryID = &categoryID
		}

		page, err := svc.List(r.Context(), filter, pagination.FromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProductBySlug(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := validators.ParsePathUUID(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variants := make([]productsvc.VariantInput, 0, len(payload.Variants))
		for _, variant := range payload.Variants {
			variants = append(variants, variant.toInput())
		}

		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			Name:         validators.SanitizeString(payload.Name, 160),
			Description:  strings.TrimSpace(payload.Description),
			CategoryID:   categoryID,
			BasePrice:    payload.BasePrice,
			SellingPrice: payload.SellingPrice,
			Images:       payload.Images,
			IsAvailable:  payload.IsAvailable,
			Variants:     variants,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateProductInput{
			Name:         payload.Name,
			Description:  payload.Description,
			BasePrice:    payload.BasePrice,
			SellingPrice: payload.SellingPrice,
			Images:       payload.Images,
			IsAvailable:  payload.IsAvailable,
		}
		if payload.CategoryID != nil {
			categoryID, err := validators.ParsePathUUID(*payload.CategoryID, "category_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CategoryID = &categoryID
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productID")
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

func AdminAddVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload variantInputRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddVariant(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateVariant(r.Context(), productID, variantID, productsvc.UpdateVariantInput{
			Name:         payload.Name,
			Size:         payload.Size,
			BasePrice:    payload.BasePrice,
			SellingPrice: payload.SellingPrice,
			IsAvailable:  payload.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariant(r.Context(), productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
