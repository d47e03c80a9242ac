package elastic

import (
	"github.com/prismcart/search/internal/domain"
)

// searchFields are the multi_match targets for full-text search, boosted
// toward the name.
var searchFields = []string{
	"name^3",
	"description^2",
	"short_description^2",
	"brand.name",
	"category.name",
	"tags.name",
	"sku",
}

// buildSearchQuery assembles the full request body for a criteria search:
// scored text query, non-scoring filters, sort and offset pagination.
func buildSearchQuery(c domain.SearchCriteria) map[string]any {
	boolQuery := map[string]any{}

	if c.Query != "" {
		boolQuery["must"] = []any{
			map[string]any{
				"multi_match": map[string]any{
					"query":     c.Query,
					"fields":    searchFields,
					"fuzziness": "AUTO",
				},
			},
		}
	} else {
		boolQuery["must"] = []any{
			map[string]any{"match_all": map[string]any{}},
		}
	}

	if filters := buildFilters(c); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  (c.Page - 1) * c.PageSize,
		"size":  c.PageSize,
	}
	if sort := buildSort(c.Sort); sort != nil {
		body["sort"] = sort
	}
	return body
}

// buildFilters renders the non-scoring filter clauses. Category and brand
// values that are all digits filter on the embedded object's id; anything
// else matches its name. Each tag gets its own nested clause so all
// requested tags must be present.
func buildFilters(c domain.SearchCriteria) []any {
	var filters []any

	if c.Category != "" {
		filters = append(filters, refFilter("category", c.Category))
	}
	if c.Brand != "" {
		filters = append(filters, refFilter("brand", c.Brand))
	}

	if c.MinPrice != nil || c.MaxPrice != nil {
		rangeBody := map[string]any{}
		if c.MinPrice != nil {
			rangeBody["gte"] = *c.MinPrice
		}
		if c.MaxPrice != nil {
			rangeBody["lte"] = *c.MaxPrice
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": rangeBody},
		})
	}

	for _, tag := range c.Tags {
		filters = append(filters, map[string]any{
			"nested": map[string]any{
				"path": "tags",
				"query": map[string]any{
					"match": map[string]any{"tags.name": tag},
				},
			},
		})
	}

	if c.InStockOnly {
		filters = append(filters, map[string]any{
			"range": map[string]any{"stock": map[string]any{"gt": 0}},
		})
	}
	return filters
}

func refFilter(field, value string) map[string]any {
	if isDigits(value) {
		return map[string]any{
			"term": map[string]any{field + ".id": value},
		}
	}
	return map[string]any{
		"match": map[string]any{field + ".name": value},
	}
}

// buildSort returns the sort clause, or nil for relevance order.
func buildSort(sort string) []any {
	switch sort {
	case domain.SortPriceAsc:
		return []any{map[string]any{"price": map[string]any{"order": "asc"}}}
	case domain.SortPriceDesc:
		return []any{map[string]any{"price": map[string]any{"order": "desc"}}}
	case domain.SortNewest:
		return []any{map[string]any{"created_at": map[string]any{"order": "desc"}}}
	case domain.SortPopular:
		return []any{
			map[string]any{"views": map[string]any{"order": "desc"}},
			map[string]any{"quantity_sold": map[string]any{"order": "desc"}},
		}
	default:
		return nil
	}
}

const facetBucketSize = 50

// buildFacetsQuery assembles the zero-hit aggregation request. The
// optional text query scopes the aggregations to matching products
// without fetching any of them.
func buildFacetsQuery(query string) map[string]any {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"categories": map[string]any{
				"terms": map[string]any{
					"field": "category.name.keyword",
					"size":  facetBucketSize,
				},
			},
			"brands": map[string]any{
				"terms": map[string]any{
					"field": "brand.name.keyword",
					"size":  facetBucketSize,
				},
			},
			"tags": map[string]any{
				"nested": map[string]any{"path": "tags"},
				"aggs": map[string]any{
					"tag_names": map[string]any{
						"terms": map[string]any{
							"field": "tags.name.keyword",
							"size":  facetBucketSize,
						},
					},
				},
			},
			"price_stats": map[string]any{
				"stats": map[string]any{"field": "price"},
			},
		},
	}
	if query != "" {
		body["query"] = map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name", "description"},
			},
		}
	}
	return body
}

// buildMoreLikeThisQuery finds products textually similar to the seed
// document. The seed itself is never part of the result set.
func buildMoreLikeThisQuery(productID int64, limit int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"more_like_this": map[string]any{
				"fields": []string{"name", "description", "category.name", "tags.name"},
				"like": []any{
					map[string]any{
						"_index": domain.IndexProducts,
						"_id":    productID,
					},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
			},
		},
		"size": limit,
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
