package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/internal/categories"
	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
	"github.com/dessy-cafe/storefront-backend/pkg/types"
)

// Service exposes catalog reads for the storefront and product management
// for the back office.
type Service interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*types.Page[ProductDTO], error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
	ResolveCartItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*PricedItem, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string
	Description  string
	CategoryID   uuid.UUID
	BasePrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Images       []string
	IsAvailable  *bool
	Variants     []VariantInput
}

// VariantInput defines one size/option of a product.
type VariantInput struct {
	Name         string
	Size         string
	BasePrice    decimal.Decimal
	SellingPrice decimal.Decimal
	IsAvailable  *bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	CategoryID   *uuid.UUID
	BasePrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	Images       *[]string
	IsAvailable  *bool
}

// UpdateVariantInput holds optional mutation values for a variant.
type UpdateVariantInput struct {
	Name         *string
	Size         *string
	BasePrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	IsAvailable  *bool
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo         *Repository
	categoryRepo categoryLoader
}

// NewService constructs a product service instance.
func NewService(repo *Repository, categoryRepo categoryLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo, categoryRepo: categoryRepo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*types.Page[ProductDTO], error) {
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	payload := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, toProductDTO(row))
	}
	return &types.Page[ProductDTO]{
		Payload: payload,
		Total:   total,
		Page:    params.Page,
		Limit:   pagination.NormalizeLimit(params.Limit),
	}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, asLookupError(err, "loading product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asLookupError(err, "loading product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if err := validatePrices(input.BasePrice, input.SellingPrice); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}

	slug := categories.Slugify(name)
	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking product slug")
	}

	product := &models.Product{
		ID:           uuid.New(),
		Name:         name,
		Slug:         slug,
		Description:  input.Description,
		CategoryID:   input.CategoryID,
		BasePrice:    input.BasePrice,
		SellingPrice: input.SellingPrice,
		Images:       input.Images,
		IsAvailable:  true,
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}

	for _, v := range input.Variants {
		variant, err := buildVariant(product.ID, v)
		if err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, *variant)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asLookupError(err, "loading product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
		}
		product.CategoryID = *input.CategoryID
	}
	if input.BasePrice != nil {
		product.BasePrice = *input.BasePrice
	}
	if input.SellingPrice != nil {
		product.SellingPrice = *input.SellingPrice
	}
	if err := validatePrices(product.BasePrice, product.SellingPrice); err != nil {
		return nil, err
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return asLookupError(err, "loading product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, asLookupError(err, "loading product")
	}

	variant, err := buildVariant(productID, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating variant")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error) {
	variant, err := s.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, asLookupError(err, "loading variant")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name cannot be empty")
		}
		variant.Name = name
	}
	if input.Size != nil {
		variant.Size = *input.Size
	}
	if input.BasePrice != nil {
		variant.BasePrice = *input.BasePrice
	}
	if input.SellingPrice != nil {
		variant.SellingPrice = *input.SellingPrice
	}
	if err := validatePrices(variant.BasePrice, variant.SellingPrice); err != nil {
		return nil, err
	}
	if input.IsAvailable != nil {
		variant.IsAvailable = *input.IsAvailable
	}

	if err := s.repo.UpdateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating variant")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if _, err := s.repo.FindVariant(ctx, productID, variantID); err != nil {
		return asLookupError(err, "loading variant")
	}
	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting variant")
	}
	return nil
}

// ResolveCartItem returns the current price for a product or variant line.
// Unavailable catalog entries resolve to an error so stale carts cannot
// order them.
func (s *service) ResolveCartItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*PricedItem, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, asLookupError(err, "loading product")
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}

	item := &PricedItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		CategoryID:  product.CategoryID,
		UnitPrice:   product.SellingPrice,
	}

	if variantID != nil {
		variant, err := s.repo.FindVariant(ctx, productID, *variantID)
		if err != nil {
			return nil, asLookupError(err, "loading variant")
		}
		if !variant.IsAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "variant is not available")
		}
		item.VariantID = &variant.ID
		item.VariantName = &variant.Name
		item.UnitPrice = variant.SellingPrice
	}

	return item, nil
}

func buildVariant(productID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
	}
	if err := validatePrices(input.BasePrice, input.SellingPrice); err != nil {
		return nil, err
	}
	variant := &models.ProductVariant{
		ID:           uuid.New(),
		ProductID:    productID,
		Name:         name,
		Size:         input.Size,
		BasePrice:    input.BasePrice,
		SellingPrice: input.SellingPrice,
		IsAvailable:  true,
	}
	if input.IsAvailable != nil {
		variant.IsAvailable = *input.IsAvailable
	}
	return variant, nil
}

func validatePrices(base, selling decimal.Decimal) error {
	if base.IsNegative() || selling.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if selling.GreaterThan(base) {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot exceed base price")
	}
	return nil
}

func asLookupError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
