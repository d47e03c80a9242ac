// Package service holds the application services wiring the index engine,
// the catalog repositories and the sync bus together.
package service

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/index"
	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/pagination"
)

// SearchService answers product search and browse requests. Reads prefer
// the index for ranking and fall back to the catalog when the index
// cannot serve; the catalog stays authoritative for product data either
// way.
type SearchService struct {
	engine   index.Engine
	products catalog.ProductRepository
	breaker  *gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
}

func NewSearchService(engine index.Engine, products catalog.ProductRepository, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:   engine,
		products: products,
		breaker:  newIndexBreaker("search"),
		logger:   logger,
	}
}

// ProductPage is the uniform result of both the index-backed and the
// catalog-backed paths.
type ProductPage = pagination.Result[*domain.Product]

// normalize applies defaults and clamps pagination.
func normalize(c domain.SearchCriteria) (domain.SearchCriteria, error) {
	if !domain.IsValidSort(c.Sort) {
		return c, apperrors.InvalidInput("invalid sort: " + c.Sort)
	}
	if c.Sort == "" {
		c.Sort = domain.SortRelevance
	}
	params := pagination.Params{Page: c.Page, PageSize: c.PageSize}.Normalize()
	c.Page = params.Page
	c.PageSize = params.PageSize
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return c, apperrors.InvalidInput("min_price exceeds max_price")
	}
	return c, nil
}

// Search runs the hybrid fetch. A text query goes through the index for
// ranked ids, hydrated from the catalog in index order. Without a query,
// or when the index cannot serve, the catalog answers directly.
func (s *SearchService) Search(ctx context.Context, criteria domain.SearchCriteria) (ProductPage, error) {
	criteria, err := normalize(criteria)
	if err != nil {
		return ProductPage{}, err
	}

	if criteria.Query == "" {
		return s.catalogSearch(ctx, criteria)
	}

	result, err := s.breaker.Execute(func() (any, error) {
		return s.engine.Search(ctx, criteria)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "index search unavailable, falling back to catalog",
			slog.String("query", criteria.Query),
			slog.String("error", err.Error()),
		)
		return s.catalogSearch(ctx, criteria)
	}
	return s.hydrate(ctx, result.(*domain.SearchResult), criteria)
}

// hydrate loads the matched products from the catalog and re-applies the
// index ranking. Ids the catalog no longer has are dropped; the total
// still reflects the index count.
func (s *SearchService) hydrate(ctx context.Context, result *domain.SearchResult, criteria domain.SearchCriteria) (ProductPage, error) {
	ids := make([]int64, 0, len(result.Products))
	for _, doc := range result.Products {
		ids = append(ids, doc.ID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return ProductPage{}, apperrors.Wrap(err, "hydrate search results")
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	params := pagination.Params{Page: criteria.Page, PageSize: criteria.PageSize}
	return pagination.NewResult(ordered, result.Total, params), nil
}

// catalogSearch is the index-less path: plain SQL filtering. With a text
// query this is the degraded mode, matching name and description without
// relevance ranking.
func (s *SearchService) catalogSearch(ctx context.Context, criteria domain.SearchCriteria) (ProductPage, error) {
	filter := catalog.ProductFilter{
		Search:      criteria.Query,
		Category:    criteria.Category,
		Brand:       criteria.Brand,
		MinPrice:    criteria.MinPrice,
		MaxPrice:    criteria.MaxPrice,
		Tags:        criteria.Tags,
		InStockOnly: criteria.InStockOnly,
		Sort:        criteria.Sort,
	}
	params := pagination.Params{Page: criteria.Page, PageSize: criteria.PageSize}
	page, err := s.products.List(ctx, filter, params)
	if err != nil {
		return ProductPage{}, apperrors.Wrap(err, "catalog search")
	}
	return page, nil
}

// Facets returns filter aggregations, optionally scoped by a text query.
func (s *SearchService) Facets(ctx context.Context, query string) (*domain.Facets, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.engine.Facets(ctx, query)
	})
	if err != nil {
		return nil, apperrors.Unavailable("search index unavailable")
	}
	return result.(*domain.Facets), nil
}

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 20
)

// Similar returns products resembling the given one, seed excluded.
func (s *SearchService) Similar(ctx context.Context, productID int64, limit int) ([]*domain.ProductDocument, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}
	result, err := s.breaker.Execute(func() (any, error) {
		return s.engine.MoreLikeThis(ctx, productID, limit)
	})
	if err != nil {
		return nil, apperrors.Unavailable("search index unavailable")
	}
	return result.([]*domain.ProductDocument), nil
}
