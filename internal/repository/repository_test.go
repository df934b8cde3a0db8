package repository

import (
	"context"
	"testing"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) model.Price {
	return model.NewPrice(decimal.RequireFromString(s))
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(testutil.NewDB(t))

	first := &model.Category{Name: "Cement"}
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)
	second := &model.Category{Name: "Cement"}
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	updated, err := repo.UpdateName(ctx, first.ID, "Tiles")
	require.NoError(t, err)
	assert.Equal(t, "Tiles", updated.Name)

	_, err = repo.UpdateName(ctx, 9999, "Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, second.ID))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategoryDeleteRestrictedByProducts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	categories := NewCategoryRepository(db)
	products := NewProductRepository(db)

	cat := &model.Category{Name: "Steel"}
	require.NoError(t, categories.Create(ctx, cat))
	require.NoError(t, products.Create(ctx, &model.Product{Name: "Rebar", Price: price("4"), CategoryID: cat.ID, Status: model.StatusActive}))

	count, err := categories.CountProducts(ctx, cat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	err = categories.Delete(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	categories := NewCategoryRepository(db)
	repo := NewProductRepository(db)

	cement := &model.Category{Name: "Cement"}
	require.NoError(t, categories.Create(ctx, cement))
	paint := &model.Category{Name: "Paint"}
	require.NoError(t, categories.Create(ctx, paint))

	bag := &model.Product{Name: "Bag", Price: price("12.5"), CategoryID: cement.ID, Status: model.StatusActive, Images: model.ImageRefs{"https://x/a,b.png", "https://x/c.png"}}
	require.NoError(t, repo.Create(ctx, bag))
	time.Sleep(time.Millisecond)
	hidden := &model.Product{Name: "Old Bag", Price: price("1"), CategoryID: cement.ID, Status: model.StatusInactive}
	require.NoError(t, repo.Create(ctx, hidden))
	time.Sleep(time.Millisecond)
	can := &model.Product{Name: "Can", Price: price("3"), CategoryID: paint.ID, Status: model.StatusActive}
	require.NoError(t, repo.Create(ctx, can))

	active, err := repo.List(ctx, ProductFilter{Status: model.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, can.ID, active[0].ID, "newest first")
	assert.Equal(t, "Paint", active[0].CategoryName)

	byCategory, err := repo.List(ctx, ProductFilter{Status: model.StatusActive, CategoryID: &cement.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "12.50", byCategory[0].Price.String())
	assert.Equal(t, model.ImageRefs{"https://x/a,b.png", "https://x/c.png"}, byCategory[0].Images)

	got, err := repo.Get(ctx, hidden.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cement", got.CategoryName)

	_, err = repo.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	categories := NewCategoryRepository(db)
	repo := NewProductRepository(db)

	cat := &model.Category{Name: "Cement"}
	require.NoError(t, categories.Create(ctx, cat))
	desc := "50kg"
	p := &model.Product{Name: "Bag", Description: &desc, Price: price("10"), CategoryID: cat.ID, Status: model.StatusActive}
	require.NoError(t, repo.Create(ctx, p))
	before := p.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	p.Name = "Big Bag"
	p.Description = nil
	p.Status = model.StatusInactive
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big Bag", got.Name)
	assert.Nil(t, got.Description)
	assert.Equal(t, model.StatusInactive, got.Status)
	assert.True(t, got.UpdatedAt.After(before))

	require.NoError(t, repo.UpdateImages(ctx, p.ID, model.ImageRefs{"u1"}))
	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImageRefs{"u1"}, got.Images)

	missing := &model.Product{ID: 9999, Name: "x", CategoryID: cat.ID, Status: model.StatusActive}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateImages(ctx, 9999, nil), ErrNotFound)

	badCategory := &model.Product{Name: "Orphan", Price: price("1"), CategoryID: 4242, Status: model.StatusActive}
	assert.ErrorIs(t, repo.Create(ctx, badCategory), ErrForeignKey)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))

	u := &model.User{Email: "a@b.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	err := repo.Create(ctx, &model.User{Email: "a@b.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
