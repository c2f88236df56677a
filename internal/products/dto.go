package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
)

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	CategoryID   uuid.UUID       `json:"category_id"`
	BasePrice    decimal.Decimal `json:"base_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Images       []string        `json:"images"`
	IsAvailable  bool            `json:"is_available"`
	Variants     []VariantDTO    `json:"variants"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// VariantDTO is the API shape of a product variant.
type VariantDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Size         string          `json:"size"`
	BasePrice    decimal.Decimal `json:"base_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	IsAvailable  bool            `json:"is_available"`
}

func toVariantDTO(variant models.ProductVariant) VariantDTO {
	return VariantDTO{
		ID:           variant.ID,
		Name:         variant.Name,
		Size:         variant.Size,
		BasePrice:    variant.BasePrice,
		SellingPrice: variant.SellingPrice,
		IsAvailable:  variant.IsAvailable,
	}
}

func toProductDTO(product models.Product) ProductDTO {
	variants := make([]VariantDTO, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, toVariantDTO(variant))
	}
	images := product.Images
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:           product.ID,
		Name:         product.Name,
		Slug:         product.Slug,
		Description:  product.Description,
		CategoryID:   product.CategoryID,
		BasePrice:    product.BasePrice,
		SellingPrice: product.SellingPrice,
		Images:       images,
		IsAvailable:  product.IsAvailable,
		Variants:     variants,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

// PricedItem is the catalog's answer to "what does this cart line cost
// right now". It snapshots names so order items stay readable after
// catalog edits.
type PricedItem struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	VariantName *string
	CategoryID  uuid.UUID
	UnitPrice   decimal.Decimal
}
