package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dessy-cafe/storefront-backend/internal/categories"
	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
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

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	conn := openTestDB(t)

	category := models.Category{
		ID:   uuid.New(),
		Name: "Tubs",
		Slug: "tubs",
		Path: "tubs",
	}
	require.NoError(t, conn.Create(&category).Error)

	svc, err := NewService(NewRepository(conn), categories.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn, category.ID
}

func createInput(name string, categoryID uuid.UUID) CreateProductInput {
	return CreateProductInput{
		Name:         name,
		Description:  "creamy",
		CategoryID:   categoryID,
		BasePrice:    money("250"),
		SellingPrice: money("200"),
		Images:       []string{"https://cdn.example.com/vanilla.jpg"},
	}
}

func TestCreateProduct(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, createInput("Vanilla Tub", categoryID))
	require.NoError(t, err)
	assert.Equal(t, "vanilla-tub", dto.Slug)
	assert.True(t, dto.SellingPrice.Equal(money("200")))
	assert.True(t, dto.IsAvailable)
	assert.Empty(t, dto.Variants)
}

func TestCreateProductWithVariants(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	input := createInput("Chocolate Tub", categoryID)
	input.Variants = []VariantInput{
		{Name: "500ml", Size: "500ml", BasePrice: money("300"), SellingPrice: money("250")},
		{Name: "1L", Size: "1l", BasePrice: money("550"), SellingPrice: money("450")},
	}

	dto, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, dto.Variants, 2)
	assert.Equal(t, "500ml", dto.Variants[0].Name)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	input := createInput("", categoryID)
	_, err := svc.Create(ctx, input)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	input = createInput("Overpriced", categoryID)
	input.SellingPrice = money("999")
	_, err = svc.Create(ctx, input)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	input = createInput("Orphan", uuid.New())
	_, err = svc.Create(ctx, input)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("Mango Tub", categoryID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput("Mango Tub", categoryID))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestListFiltersAvailability(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("Visible", categoryID))
	require.NoError(t, err)

	hidden := createInput("Hidden", categoryID)
	unavailable := false
	hidden.IsAvailable = &unavailable
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	page, err := svc.List(ctx, ListFilter{OnlyAvailable: true}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Payload, 1)
	assert.Equal(t, "Visible", page.Payload[0].Name)

	page, err = svc.List(ctx, ListFilter{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestListSearch(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("Strawberry Swirl", categoryID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput("Pistachio", categoryID))
	require.NoError(t, err)

	page, err := svc.List(ctx, ListFilter{Search: "straw"}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Payload, 1)
	assert.Equal(t, "Strawberry Swirl", page.Payload[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, createInput("Plain", categoryID))
	require.NoError(t, err)

	newPrice := money("180")
	updated, err := svc.Update(ctx, dto.ID, UpdateProductInput{SellingPrice: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.SellingPrice.Equal(newPrice))

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{SellingPrice: &newPrice})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestVariantLifecycle(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, createInput("Kulfi", categoryID))
	require.NoError(t, err)

	dto, err = svc.AddVariant(ctx, dto.ID, VariantInput{
		Name:         "Stick Pack",
		Size:         "6pc",
		BasePrice:    money("120"),
		SellingPrice: money("100"),
	})
	require.NoError(t, err)
	require.Len(t, dto.Variants, 1)
	variantID := dto.Variants[0].ID

	newPrice := money("90")
	dto, err = svc.UpdateVariant(ctx, dto.ID, variantID, UpdateVariantInput{SellingPrice: &newPrice})
	require.NoError(t, err)
	assert.True(t, dto.Variants[0].SellingPrice.Equal(newPrice))

	require.NoError(t, svc.DeleteVariant(ctx, dto.ID, variantID))
	dto, err = svc.GetByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Variants)
}

func TestResolveCartItemBaseProduct(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, createInput("Vanilla", categoryID))
	require.NoError(t, err)

	item, err := svc.ResolveCartItem(ctx, dto.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Vanilla", item.ProductName)
	assert.Nil(t, item.VariantID)
	assert.True(t, item.UnitPrice.Equal(money("200")))
}

func TestResolveCartItemVariantPriceWins(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	input := createInput("Choco", categoryID)
	input.Variants = []VariantInput{
		{Name: "Family Pack", BasePrice: money("600"), SellingPrice: money("500")},
	}
	dto, err := svc.Create(ctx, input)
	require.NoError(t, err)
	variantID := dto.Variants[0].ID

	item, err := svc.ResolveCartItem(ctx, dto.ID, &variantID)
	require.NoError(t, err)
	require.NotNil(t, item.VariantName)
	assert.Equal(t, "Family Pack", *item.VariantName)
	assert.True(t, item.UnitPrice.Equal(money("500")))
}

func TestResolveCartItemUnavailable(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	input := createInput("Retired", categoryID)
	unavailable := false
	input.IsAvailable = &unavailable
	dto, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.ResolveCartItem(ctx, dto.ID, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = svc.ResolveCartItem(ctx, uuid.New(), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestResolveCartItemWrongVariant(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, createInput("Solo", categoryID))
	require.NoError(t, err)

	otherVariant := uuid.New()
	_, err = svc.ResolveCartItem(ctx, dto.ID, &otherVariant)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
