package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dessy-cafe/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ice-cream-tubs", Slugify("Ice Cream Tubs"))
	assert.Equal(t, "sundaes-more", Slugify("Sundaes & More!"))
	assert.Equal(t, "waffles", Slugify("  Waffles  "))
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, CreateCategoryInput{Name: "Ice Cream Tubs"})
	require.NoError(t, err)
	assert.Equal(t, "ice-cream-tubs", category.Slug)
	assert.Equal(t, "ice-cream-tubs", category.Path)
	assert.Equal(t, 0, category.Level)
	assert.True(t, category.IsActive)
}

func TestCreateCategoryWithParentBuildsPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateCategoryInput{Name: "Desserts"})
	require.NoError(t, err)

	child, err := svc.Create(ctx, CreateCategoryInput{Name: "Sundaes", ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "desserts/sundaes", child.Path)
}

func TestCreateCategoryDuplicateSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCategoryInput{Name: "Waffles"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Waffles"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestCreateCategoryValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "   "})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.Create(context.Background(), CreateCategoryInput{Name: "Shakes", ParentID: &missing})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListMenuSkipsInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCategoryInput{Name: "Active"})
	require.NoError(t, err)
	inactive := false
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Hidden", IsActive: &inactive})
	require.NoError(t, err)

	menu, err := svc.ListMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Active", menu[0].Name)
}

func TestListPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := svc.Create(ctx, CreateCategoryInput{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Payload, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
}

func TestUpdateCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, CreateCategoryInput{Name: "Old Name"})
	require.NoError(t, err)

	newName := "New Name"
	inactive := false
	updated, err := svc.Update(ctx, category.ID, UpdateCategoryInput{Name: &newName, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.False(t, updated.IsActive)
	// slug is stable across renames
	assert.Equal(t, "old-name", updated.Slug)
}

func TestUpdateMissingCategory(t *testing.T) {
	svc, _ := newTestService(t)
	name := "Whatever"

	_, err := svc.Update(context.Background(), uuid.New(), UpdateCategoryInput{Name: &name})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteCategoryBlockedWhenProductsExist(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, CreateCategoryInput{Name: "Tubs"})
	require.NoError(t, err)

	product := models.Product{
		ID:         uuid.New(),
		Name:       "Vanilla Tub",
		Slug:       "vanilla-tub",
		CategoryID: category.ID,
	}
	require.NoError(t, repo.db.Create(&product).Error)

	err = svc.Delete(ctx, category.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestDeleteCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	category, err := svc.Create(ctx, CreateCategoryInput{Name: "Seasonal"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, category.ID))

	_, err = svc.GetBySlug(ctx, "seasonal")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
