package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismcart/search/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }

func doc(id int64, name string, price float64, stock int) *domain.ProductDocument {
	return &domain.ProductDocument{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		Category:  &domain.RefDoc{ID: 1, Name: "Shoes"},
		Brand:     &domain.RefDoc{ID: 2, Name: "Nike"},
		Tags:      []domain.RefDoc{{ID: 1, Name: "running"}},
		CreatedAt: time.Date(2025, 1, int(id), 0, 0, 0, 0, time.UTC),
		NameSuggest: domain.Completion{
			Input:  []string{name},
			Weight: stock,
		},
	}
}

func seed(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.IndexProduct(ctx, doc(1, "Trail Runner", 100, 5)))
	require.NoError(t, e.IndexProduct(ctx, doc(2, "Road Racer", 200, 0)))
	require.NoError(t, e.IndexProduct(ctx, doc(3, "Trail Hiker", 300, 2)))
}

func TestSearch_TextQuery(t *testing.T) {
	e := New()
	seed(t, e)

	result, err := e.Search(context.Background(), domain.SearchCriteria{
		Query: "trail", Page: 1, PageSize: 20,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Products, 2)
}

func TestSearch_PriceAndStockFilters(t *testing.T) {
	e := New()
	seed(t, e)

	result, err := e.Search(context.Background(), domain.SearchCriteria{
		MinPrice:    float64Ptr(150),
		InStockOnly: true,
		Page:        1,
		PageSize:    20,
	})

	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(3), result.Products[0].ID)
}

func TestSearch_CategoryIDVersusName(t *testing.T) {
	e := New()
	seed(t, e)
	ctx := context.Background()

	byID, err := e.Search(ctx, domain.SearchCriteria{Category: "1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byID.Total)

	byName, err := e.Search(ctx, domain.SearchCriteria{Category: "Shoes", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byName.Total)

	miss, err := e.Search(ctx, domain.SearchCriteria{Category: "99", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(0), miss.Total)
}

func TestSearch_SortAndPagination(t *testing.T) {
	e := New()
	seed(t, e)

	result, err := e.Search(context.Background(), domain.SearchCriteria{
		Sort: domain.SortPriceDesc, Page: 1, PageSize: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Products, 2)
	assert.Equal(t, int64(3), result.Products[0].ID)
	assert.Equal(t, int64(2), result.Products[1].ID)

	page2, err := e.Search(context.Background(), domain.SearchCriteria{
		Sort: domain.SortPriceDesc, Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, page2.Products, 1)
	assert.Equal(t, int64(1), page2.Products[0].ID)
}

func TestSearch_PageBeyondEnd(t *testing.T) {
	e := New()
	seed(t, e)

	result, err := e.Search(context.Background(), domain.SearchCriteria{Page: 9, PageSize: 20})

	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Equal(t, int64(3), result.Total)
}

func TestDeleteProduct_MissingIsSuccess(t *testing.T) {
	e := New()

	err := e.DeleteProduct(context.Background(), 999)

	assert.NoError(t, err)
}

func TestCount(t *testing.T) {
	e := New()
	seed(t, e)
	ctx := context.Background()

	count, err := e.Count(ctx, domain.IndexProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, e.IndexEntity(ctx, domain.IndexBrands, &domain.EntityDocument{ID: 2, Name: "Nike"}))
	brandCount, err := e.Count(ctx, domain.IndexBrands)
	require.NoError(t, err)
	assert.Equal(t, int64(1), brandCount)
}

func TestFacets(t *testing.T) {
	e := New()
	seed(t, e)

	facets, err := e.Facets(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, facets.Categories, 1)
	assert.Equal(t, "Shoes", facets.Categories[0].Value)
	assert.Equal(t, int64(3), facets.Categories[0].Count)
	assert.InDelta(t, 100.0, facets.Price.Min, 0.001)
	assert.InDelta(t, 300.0, facets.Price.Max, 0.001)
	assert.InDelta(t, 200.0, facets.Price.Avg, 0.001)
}

func TestSuggest_WordStart(t *testing.T) {
	e := New()
	seed(t, e)

	suggestions, err := e.Suggest(context.Background(), "tra", domain.StrategyWordStart, 10)

	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Trail Runner", suggestions[0].Text)
	require.NotNil(t, suggestions[0].Product)
	assert.Equal(t, int64(1), suggestions[0].Product.ID)
}

func TestMoreLikeThis_ExcludesSeed(t *testing.T) {
	e := New()
	seed(t, e)

	similar, err := e.MoreLikeThis(context.Background(), 1, 5)

	require.NoError(t, err)
	require.NotEmpty(t, similar)
	for _, doc := range similar {
		assert.NotEqual(t, int64(1), doc.ID)
	}
}

func TestComplete_GroupsPerIndex(t *testing.T) {
	e := New()
	seed(t, e)
	ctx := context.Background()
	require.NoError(t, e.IndexEntity(ctx, domain.IndexCategories, &domain.EntityDocument{ID: 1, Name: "Trail Gear"}))

	groups, err := e.Complete(ctx, "tra", 10)

	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, domain.IndexProducts, groups[0].Index)
	assert.Contains(t, groups[0].Suggestions, "Trail Runner")
	assert.Equal(t, domain.IndexCategories, groups[1].Index)
	assert.Contains(t, groups[1].Suggestions, "Trail Gear")
}
