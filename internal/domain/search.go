package domain

// Sort modes accepted by the search surface.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
	SortPopular   = "popular"
)

// IsValidSort reports whether s is a known sort mode. Empty means
// relevance.
func IsValidSort(s string) bool {
	switch s {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortPopular:
		return true
	}
	return false
}

// SearchCriteria is a normalized search request. Category and Brand accept
// either a numeric id or a display name; all-digit values filter on the
// embedded object's id, anything else matches its name.
type SearchCriteria struct {
	Query       string
	Category    string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
	Tags        []string
	InStockOnly bool
	Sort        string
	Page        int
	PageSize    int
}

// SearchResult is a page of product documents in index rank order.
type SearchResult struct {
	Products   []*ProductDocument
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
	TookMs     int64
}

// FacetBucket is one value of a terms aggregation.
type FacetBucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// PriceStats summarizes the price distribution of matching products.
type PriceStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Facets is the aggregation result used to render filter sidebars. It is
// computed with a zero-hit query so no documents are fetched.
type Facets struct {
	Categories []FacetBucket `json:"categories"`
	Brands     []FacetBucket `json:"brands"`
	Tags       []FacetBucket `json:"tags"`
	Price      PriceStats    `json:"price"`
}

// Autocomplete strategies.
const (
	StrategyWordStart = "word_start"
	StrategyNgram     = "ngram"
	StrategyWildcard  = "wildcard"
	StrategyCombined  = "combined"
)

// IsValidStrategy reports whether s is a known autocomplete strategy.
// Empty means word_start.
func IsValidStrategy(s string) bool {
	switch s {
	case "", StrategyWordStart, StrategyNgram, StrategyWildcard, StrategyCombined:
		return true
	}
	return false
}

// Suggestion is one autocomplete hit: the display text, its score and a
// compact product payload for rich dropdowns.
type Suggestion struct {
	Text    string             `json:"text"`
	Score   float64            `json:"score"`
	Product *SuggestionProduct `json:"product,omitempty"`
}

// SuggestionProduct is the subset of product fields rendered inline in
// autocomplete results.
type SuggestionProduct struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Slug               string  `json:"slug"`
	Price              float64 `json:"price"`
	DiscountedPrice    float64 `json:"discounted_price"`
	PercentageDiscount *int    `json:"percentage_discount"`
	Stock              int     `json:"stock"`
	Views              int64   `json:"views"`
	QuantitySold       int64   `json:"quantity_sold"`
	Rating             float64 `json:"rating"`
	CoverImage         string  `json:"cover_image"`
	Brand              *RefDoc `json:"brand,omitempty"`
	Category           *RefDoc `json:"category,omitempty"`
}

// CompletionGroup is the per-index result of the multi-index completion
// suggester.
type CompletionGroup struct {
	Index       string   `json:"index"`
	Suggestions []string `json:"suggestions"`
}
