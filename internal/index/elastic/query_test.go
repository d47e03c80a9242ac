package elastic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismcart/search/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }

func TestBuildSearchQuery_TextQuery(t *testing.T) {
	body := buildSearchQuery(domain.SearchCriteria{Query: "running shoes", Page: 1, PageSize: 20})

	boolQ := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQ["must"].([]any)
	require.Len(t, must, 1)
	mm := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "running shoes", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Contains(t, mm["fields"], "name^3")
	assert.Contains(t, mm["fields"], "sku")
}

func TestBuildSearchQuery_EmptyQueryMatchesAll(t *testing.T) {
	body := buildSearchQuery(domain.SearchCriteria{Page: 1, PageSize: 20})

	boolQ := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQ["must"].([]any)
	require.Len(t, must, 1)
	_, ok := must[0].(map[string]any)["match_all"]
	assert.True(t, ok)
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	body := buildSearchQuery(domain.SearchCriteria{Page: 3, PageSize: 25})

	assert.Equal(t, 50, body["from"])
	assert.Equal(t, 25, body["size"])
}

func TestBuildFilters_NumericCategoryFiltersOnID(t *testing.T) {
	filters := buildFilters(domain.SearchCriteria{Category: "12"})

	require.Len(t, filters, 1)
	term := filters[0].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, "12", term["category.id"])
}

func TestBuildFilters_NamedBrandMatchesOnName(t *testing.T) {
	filters := buildFilters(domain.SearchCriteria{Brand: "Nike"})

	require.Len(t, filters, 1)
	match := filters[0].(map[string]any)["match"].(map[string]any)
	assert.Equal(t, "Nike", match["brand.name"])
}

func TestBuildFilters_PriceRange(t *testing.T) {
	filters := buildFilters(domain.SearchCriteria{
		MinPrice: float64Ptr(100),
		MaxPrice: float64Ptr(500),
	})

	require.Len(t, filters, 1)
	priceRange := filters[0].(map[string]any)["range"].(map[string]any)["price"].(map[string]any)
	assert.Equal(t, 100.0, priceRange["gte"])
	assert.Equal(t, 500.0, priceRange["lte"])
}

func TestBuildFilters_OneNestedClausePerTag(t *testing.T) {
	filters := buildFilters(domain.SearchCriteria{Tags: []string{"running", "outdoor"}})

	require.Len(t, filters, 2)
	for i, want := range []string{"running", "outdoor"} {
		nested := filters[i].(map[string]any)["nested"].(map[string]any)
		assert.Equal(t, "tags", nested["path"])
		match := nested["query"].(map[string]any)["match"].(map[string]any)
		assert.Equal(t, want, match["tags.name"])
	}
}

func TestBuildFilters_InStockOnly(t *testing.T) {
	filters := buildFilters(domain.SearchCriteria{InStockOnly: true})

	require.Len(t, filters, 1)
	stockRange := filters[0].(map[string]any)["range"].(map[string]any)["stock"].(map[string]any)
	assert.Equal(t, 0, stockRange["gt"])
}

func TestBuildSort(t *testing.T) {
	assert.Nil(t, buildSort(domain.SortRelevance))
	assert.Nil(t, buildSort(""))

	asc := buildSort(domain.SortPriceAsc)
	require.Len(t, asc, 1)
	assert.Equal(t, "asc", asc[0].(map[string]any)["price"].(map[string]any)["order"])

	popular := buildSort(domain.SortPopular)
	require.Len(t, popular, 2)
	assert.Equal(t, "desc", popular[0].(map[string]any)["views"].(map[string]any)["order"])
	assert.Equal(t, "desc", popular[1].(map[string]any)["quantity_sold"].(map[string]any)["order"])
}

func TestBuildFacetsQuery_ZeroHits(t *testing.T) {
	body := buildFacetsQuery("")

	assert.Equal(t, 0, body["size"])
	_, hasQuery := body["query"]
	assert.False(t, hasQuery)

	aggs := body["aggs"].(map[string]any)
	cats := aggs["categories"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, "category.name.keyword", cats["field"])
	assert.Equal(t, 50, cats["size"])

	tags := aggs["tags"].(map[string]any)
	assert.Equal(t, "tags", tags["nested"].(map[string]any)["path"])
	_, hasStats := aggs["price_stats"].(map[string]any)["stats"]
	assert.True(t, hasStats)
}

func TestBuildFacetsQuery_ScopedByQuery(t *testing.T) {
	body := buildFacetsQuery("shoes")

	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "shoes", mm["query"])
	assert.Equal(t, []string{"name", "description"}, mm["fields"])
}

func TestBuildMoreLikeThisQuery(t *testing.T) {
	body := buildMoreLikeThisQuery(42, 5)

	mlt := body["query"].(map[string]any)["more_like_this"].(map[string]any)
	assert.Equal(t, []string{"name", "description", "category.name", "tags.name"}, mlt["fields"])
	assert.Equal(t, 1, mlt["min_term_freq"])
	assert.Equal(t, 12, mlt["max_query_terms"])
	assert.Equal(t, 5, body["size"])

	like := mlt["like"].([]any)[0].(map[string]any)
	assert.Equal(t, int64(42), like["_id"])
}

func TestBuildSuggestQuery_WordStartDefault(t *testing.T) {
	e := &Engine{boosts: DefaultSuggestBoosts()}
	body := e.buildSuggestQuery("sho", "", 10)

	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "phrase_prefix", mm["type"])
	assert.Contains(t, mm["fields"], "name^3")
	assert.Equal(t, 10, body["size"])
}

func TestBuildSuggestQuery_NgramRequiresAllTerms(t *testing.T) {
	e := &Engine{boosts: DefaultSuggestBoosts()}
	body := e.buildSuggestQuery("sho", domain.StrategyNgram, 10)

	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "and", mm["operator"])
}

func TestBuildSuggestQuery_Wildcard(t *testing.T) {
	e := &Engine{boosts: DefaultSuggestBoosts()}
	body := e.buildSuggestQuery("sho", domain.StrategyWildcard, 10)

	qs := body["query"].(map[string]any)["query_string"].(map[string]any)
	assert.Equal(t, "*sho*", qs["query"])
	assert.Equal(t, false, qs["analyze_wildcard"])
}

func TestBuildSuggestQuery_CombinedFunctionScore(t *testing.T) {
	e := &Engine{boosts: DefaultSuggestBoosts()}
	body := e.buildSuggestQuery("sho", domain.StrategyCombined, 10)

	fs := body["query"].(map[string]any)["function_score"].(map[string]any)
	assert.Equal(t, "sum", fs["score_mode"])
	assert.Equal(t, "multiply", fs["boost_mode"])

	boolQ := fs["query"].(map[string]any)["bool"].(map[string]any)
	assert.Equal(t, 1, boolQ["minimum_should_match"])
	should := boolQ["should"].([]any)
	require.Len(t, should, 3)
	prefix := should[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, 3.0, prefix["boost"])

	functions := fs["functions"].([]any)
	require.Len(t, functions, 2)
	views := functions[0].(map[string]any)["field_value_factor"].(map[string]any)
	assert.Equal(t, "views", views["field"])
	assert.Equal(t, 0.1, views["factor"])
	assert.Equal(t, "log1p", views["modifier"])
	sold := functions[1].(map[string]any)["field_value_factor"].(map[string]any)
	assert.Equal(t, 0.2, sold["factor"])
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, pageCount(100, 0))
	assert.Equal(t, 0, pageCount(100, -1))
	assert.Equal(t, 5, pageCount(100, 20))
	assert.Equal(t, 6, pageCount(101, 20))
	assert.Equal(t, 0, pageCount(0, 20))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, isDigits("123"))
	assert.False(t, isDigits("12a"))
	assert.False(t, isDigits(""))
	assert.False(t, isDigits("Nike"))
}
