package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	valid := entity.ProductInput{Title: "Lamp", Price: 10, Description: "d", Image: "i.png"}

	cases := map[string]func(*entity.ProductInput){
		"empty title":       func(in *entity.ProductInput) { in.Title = "  " },
		"empty description": func(in *entity.ProductInput) { in.Description = "" },
		"no image":          func(in *entity.ProductInput) { in.Image = "" },
		"negative price":    func(in *entity.ProductInput) { in.Price = -1 },
		"rating too high":   func(in *entity.ProductInput) { in.Rating = &entity.Rating{Rate: 6} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := f.catalog.CreateProduct(context.Background(), "", in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateProductDefaults(t *testing.T) {
	f := newFixture(t)
	p, err := f.catalog.CreateProduct(context.Background(), "u1", entity.ProductInput{
		Title: "Lamp", Description: "d", ImageURL: "https://img/lamp.png",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCategory, p.Category)
	assert.Equal(t, "https://img/lamp.png", p.Image)
	assert.Equal(t, "u1", p.UserID)
}

func TestListProductsPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := range 23 {
		f.product(t, fmt.Sprintf("p%02d", i), 1)
	}

	items, page, err := f.catalog.ListProducts(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, entity.Page{CurrentPage: 3, TotalPages: 3, TotalItems: 23, HasPreviousPage: true}, page)

	items, page, err = f.catalog.ListProducts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, PageSize)
	assert.Equal(t, "p00", items[0].Title)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPreviousPage)
}

func TestListProductsCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, _ := newTestCache(t)
	f.catalog = NewCatalogService(f.products, WithCache(c, 0), WithCacheObserver(f.counter))

	f.product(t, "a", 1)
	_, _, err := f.catalog.ListProducts(ctx, 1)
	require.NoError(t, err)
	items, _, err := f.catalog.ListProducts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, f.counter.hits)
	assert.Equal(t, 1, f.counter.misses)

	f.product(t, "b", 1)
	items, _, err = f.catalog.ListProducts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, f.counter.misses)
}

func TestListProductsSurvivesCacheOutage(t *testing.T) {
	f := newFixture(t)
	c, mr := newTestCache(t)
	f.catalog = NewCatalogService(f.products, WithCache(c, 0))
	f.product(t, "a", 1)
	mr.Close()

	items, _, err := f.catalog.ListProducts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.catalog.CreateProduct(ctx, "", entity.ProductInput{
		Title: "Lamp", Price: 10, Description: "d", Image: "i.png", Rating: &entity.Rating{Rate: 4, Count: 2},
	})
	require.NoError(t, err)

	up, err := f.catalog.UpdateProduct(ctx, p.ID, entity.ProductInput{
		Title: "Desk lamp", Price: 12, Description: "d", Image: "i.png", Category: "home",
	})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", up.Title)
	assert.Equal(t, "home", up.Category)
	assert.Equal(t, entity.Rating{Rate: 4, Count: 2}, up.Rating)

	_, err = f.catalog.UpdateProduct(ctx, "missing", entity.ProductInput{Title: "x", Description: "d", Image: "i"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
	_, err = f.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, p.ID), ErrNotFound)
}
