// Package memory implements the index engine with in-process maps. It
// backs tests and local development without an Elasticsearch cluster;
// matching is simple substring containment rather than analyzed text.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/prismcart/search/internal/domain"
)

// Engine stores documents keyed by id per index.
type Engine struct {
	mu       sync.RWMutex
	products map[int64]*domain.ProductDocument
	entities map[string]map[int64]*domain.EntityDocument
	ready    bool
}

// New returns an engine with all indices "created".
func New() *Engine {
	e := &Engine{}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.products = make(map[int64]*domain.ProductDocument)
	e.entities = map[string]map[int64]*domain.EntityDocument{
		domain.IndexCategories: {},
		domain.IndexBrands:     {},
		domain.IndexTags:       {},
	}
	e.ready = true
}

func (e *Engine) Ping(context.Context) error { return nil }

func (e *Engine) EnsureIndices(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		e.reset()
	}
	return nil
}

func (e *Engine) DeleteIndices(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.products = nil
	e.entities = nil
	e.ready = false
	return nil
}

func (e *Engine) ProductIndexReady(context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Engine) IndexProduct(_ context.Context, doc *domain.ProductDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := *doc
	e.products[doc.ID] = &copied
	return nil
}

// DeleteProduct is idempotent: deleting an absent document succeeds.
func (e *Engine) DeleteProduct(_ context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.products, id)
	return nil
}

func (e *Engine) BulkIndexProducts(ctx context.Context, docs []*domain.ProductDocument) (int, int, []string, error) {
	for _, doc := range docs {
		if err := e.IndexProduct(ctx, doc); err != nil {
			return 0, 0, nil, err
		}
	}
	return len(docs), 0, nil, nil
}

func (e *Engine) IndexEntity(_ context.Context, index string, doc *domain.EntityDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entities[index] == nil {
		e.entities[index] = make(map[int64]*domain.EntityDocument)
	}
	copied := *doc
	e.entities[index][doc.ID] = &copied
	return nil
}

func (e *Engine) DeleteEntity(_ context.Context, index string, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entities[index] != nil {
		delete(e.entities[index], id)
	}
	return nil
}

func (e *Engine) Search(_ context.Context, c domain.SearchCriteria) (*domain.SearchResult, error) {
	e.mu.RLock()
	var matched []*domain.ProductDocument
	for _, doc := range e.products {
		if matches(doc, c) {
			matched = append(matched, doc)
		}
	}
	e.mu.RUnlock()

	sortDocs(matched, c.Sort)

	total := int64(len(matched))
	start := (c.Page - 1) * c.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + c.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	totalPages := 0
	if c.PageSize > 0 {
		totalPages = int((total + int64(c.PageSize) - 1) / int64(c.PageSize))
	}
	return &domain.SearchResult{
		Products:   matched[start:end],
		Total:      total,
		Page:       c.Page,
		PageSize:   c.PageSize,
		TotalPages: totalPages,
	}, nil
}

func matches(doc *domain.ProductDocument, c domain.SearchCriteria) bool {
	if c.Query != "" && !textMatch(doc, c.Query) {
		return false
	}
	if c.Category != "" && !refMatch(doc.Category, c.Category) {
		return false
	}
	if c.Brand != "" && !refMatch(doc.Brand, c.Brand) {
		return false
	}
	if c.MinPrice != nil && doc.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && doc.Price > *c.MaxPrice {
		return false
	}
	for _, want := range c.Tags {
		if !hasTag(doc.Tags, want) {
			return false
		}
	}
	if c.InStockOnly && doc.Stock <= 0 {
		return false
	}
	return true
}

func textMatch(doc *domain.ProductDocument, query string) bool {
	q := strings.ToLower(query)
	haystacks := []string{doc.Name, doc.Description, doc.ShortDescription, doc.SKU}
	if doc.Brand != nil {
		haystacks = append(haystacks, doc.Brand.Name)
	}
	if doc.Category != nil {
		haystacks = append(haystacks, doc.Category.Name)
	}
	for _, t := range doc.Tags {
		haystacks = append(haystacks, t.Name)
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), q) {
			return true
		}
	}
	return false
}

func refMatch(ref *domain.RefDoc, value string) bool {
	if ref == nil {
		return false
	}
	if isDigits(value) {
		return strconv.FormatInt(ref.ID, 10) == value
	}
	return strings.EqualFold(ref.Name, value)
}

func hasTag(tags []domain.RefDoc, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t.Name, want) {
			return true
		}
	}
	return false
}

func sortDocs(docs []*domain.ProductDocument, mode string) {
	switch mode {
	case domain.SortPriceAsc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Price < docs[j].Price })
	case domain.SortPriceDesc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Price > docs[j].Price })
	case domain.SortNewest:
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	case domain.SortPopular:
		sort.Slice(docs, func(i, j int) bool {
			if docs[i].Views != docs[j].Views {
				return docs[i].Views > docs[j].Views
			}
			return docs[i].QuantitySold > docs[j].QuantitySold
		})
	default:
		// Deterministic order stands in for relevance.
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
}

func (e *Engine) Facets(_ context.Context, query string) (*domain.Facets, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	categories := map[string]int64{}
	brands := map[string]int64{}
	tags := map[string]int64{}
	var prices []float64
	for _, doc := range e.products {
		if query != "" && !textMatch(doc, query) {
			continue
		}
		if doc.Category != nil {
			categories[doc.Category.Name]++
		}
		if doc.Brand != nil {
			brands[doc.Brand.Name]++
		}
		for _, t := range doc.Tags {
			tags[t.Name]++
		}
		prices = append(prices, doc.Price)
	}

	facets := &domain.Facets{
		Categories: toBuckets(categories),
		Brands:     toBuckets(brands),
		Tags:       toBuckets(tags),
	}
	if len(prices) > 0 {
		minP, maxP, sum := prices[0], prices[0], 0.0
		for _, p := range prices {
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
			sum += p
		}
		facets.Price = domain.PriceStats{Min: minP, Max: maxP, Avg: sum / float64(len(prices))}
	}
	return facets, nil
}

func toBuckets(counts map[string]int64) []domain.FacetBucket {
	buckets := make([]domain.FacetBucket, 0, len(counts))
	for value, count := range counts {
		buckets = append(buckets, domain.FacetBucket{Value: value, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	return buckets
}

// MoreLikeThis scores candidates by shared category and tag overlap.
func (e *Engine) MoreLikeThis(_ context.Context, productID int64, limit int) ([]*domain.ProductDocument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seed, ok := e.products[productID]
	if !ok {
		return nil, nil
	}
	seedTags := map[string]bool{}
	for _, t := range seed.Tags {
		seedTags[strings.ToLower(t.Name)] = true
	}

	type scored struct {
		doc   *domain.ProductDocument
		score int
	}
	var candidates []scored
	for id, doc := range e.products {
		if id == productID {
			continue
		}
		score := 0
		if seed.Category != nil && doc.Category != nil && seed.Category.ID == doc.Category.ID {
			score += 2
		}
		for _, t := range doc.Tags {
			if seedTags[strings.ToLower(t.Name)] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{doc: doc, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]*domain.ProductDocument, 0, limit)
	for _, cand := range candidates[:limit] {
		out = append(out, cand.doc)
	}
	return out, nil
}

// Suggest approximates the strategies: word_start matches name or brand
// word prefixes, everything else falls back to substring matching. The
// combined strategy orders by views and sales.
func (e *Engine) Suggest(_ context.Context, query, strategy string, limit int) ([]domain.Suggestion, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []*domain.ProductDocument
	for _, doc := range e.products {
		var hit bool
		switch strategy {
		case domain.StrategyNgram, domain.StrategyWildcard:
			hit = textMatch(doc, query)
		case domain.StrategyCombined:
			hit = textMatch(doc, query) || wordPrefixMatch(doc, q)
		default:
			hit = wordPrefixMatch(doc, q)
		}
		if hit {
			matched = append(matched, doc)
		}
	}

	if strategy == domain.StrategyCombined {
		sort.Slice(matched, func(i, j int) bool {
			pi := matched[i].Views + 2*matched[i].QuantitySold
			pj := matched[j].Views + 2*matched[j].QuantitySold
			if pi != pj {
				return pi > pj
			}
			return matched[i].ID < matched[j].ID
		})
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	}

	if limit > len(matched) {
		limit = len(matched)
	}
	suggestions := make([]domain.Suggestion, 0, limit)
	for _, doc := range matched[:limit] {
		suggestions = append(suggestions, domain.Suggestion{
			Text:  doc.Name,
			Score: 1,
			Product: &domain.SuggestionProduct{
				ID:                 doc.ID,
				Name:               doc.Name,
				Slug:               doc.Slug,
				Price:              doc.Price,
				DiscountedPrice:    doc.DiscountedPrice,
				PercentageDiscount: doc.PercentageDiscount,
				Stock:              doc.Stock,
				Views:              doc.Views,
				QuantitySold:       doc.QuantitySold,
				Rating:             doc.Rating,
				CoverImage:         doc.CoverImage,
				Brand:              doc.Brand,
				Category:           doc.Category,
			},
		})
	}
	return suggestions, nil
}

func wordPrefixMatch(doc *domain.ProductDocument, q string) bool {
	fields := []string{doc.Name}
	if doc.Brand != nil {
		fields = append(fields, doc.Brand.Name)
	}
	for _, f := range fields {
		for _, word := range strings.Fields(strings.ToLower(f)) {
			if strings.HasPrefix(word, q) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) Complete(_ context.Context, prefix string, limit int) ([]domain.CompletionGroup, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := strings.ToLower(prefix)
	groups := []domain.CompletionGroup{}

	productGroup := domain.CompletionGroup{Index: domain.IndexProducts, Suggestions: []string{}}
	var prodDocs []*domain.ProductDocument
	for _, doc := range e.products {
		prodDocs = append(prodDocs, doc)
	}
	sort.Slice(prodDocs, func(i, j int) bool {
		if prodDocs[i].NameSuggest.Weight != prodDocs[j].NameSuggest.Weight {
			return prodDocs[i].NameSuggest.Weight > prodDocs[j].NameSuggest.Weight
		}
		return prodDocs[i].ID < prodDocs[j].ID
	})
	for _, doc := range prodDocs {
		if len(productGroup.Suggestions) >= limit {
			break
		}
		for _, input := range doc.NameSuggest.Input {
			if strings.HasPrefix(strings.ToLower(input), p) {
				productGroup.Suggestions = append(productGroup.Suggestions, doc.Name)
				break
			}
		}
	}
	groups = append(groups, productGroup)

	for _, index := range []string{domain.IndexCategories, domain.IndexBrands, domain.IndexTags} {
		group := domain.CompletionGroup{Index: index, Suggestions: []string{}}
		var docs []*domain.EntityDocument
		for _, doc := range e.entities[index] {
			docs = append(docs, doc)
		}
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		for _, doc := range docs {
			if len(group.Suggestions) >= limit {
				break
			}
			if strings.HasPrefix(strings.ToLower(doc.Name), p) {
				group.Suggestions = append(group.Suggestions, doc.Name)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (e *Engine) Count(_ context.Context, index string) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index == domain.IndexProducts {
		return int64(len(e.products)), nil
	}
	return int64(len(e.entities[index])), nil
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
