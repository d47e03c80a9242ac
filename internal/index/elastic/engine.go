// Package elastic implements the index engine against Elasticsearch 8
// using the official client and raw query DSL.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/prismcart/search/internal/domain"
)

// Config holds engine settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Boosts    SuggestBoosts
}

// Engine talks to Elasticsearch. It manages the products index plus the
// categories, brands and tags entity indices.
type Engine struct {
	client *elasticsearch.Client
	logger *slog.Logger
	boosts SuggestBoosts
}

var managedIndices = []string{
	domain.IndexProducts,
	domain.IndexCategories,
	domain.IndexBrands,
	domain.IndexTags,
}

// New creates the client and ensures all managed indices exist.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	boosts := cfg.Boosts
	if boosts == (SuggestBoosts{}) {
		boosts = DefaultSuggestBoosts()
	}

	e := &Engine{client: client, logger: logger, boosts: boosts}
	if err := e.EnsureIndices(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// searchResponse is the subset of the _search response we decode.
type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations"`
	Suggest      json.RawMessage `json:"suggest"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// apiError turns a non-2xx response into an error carrying the ES type and
// reason.
func apiError(op string, res *esapi.Response) error {
	var errResp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil || errResp.Error.Type == "" {
		return fmt.Errorf("elasticsearch %s: %s", op, res.Status())
	}
	return fmt.Errorf("elasticsearch %s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
}

// Ping verifies the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apiError("ping", res)
	}
	return nil
}

// EnsureIndices creates any managed index that does not exist yet.
func (e *Engine) EnsureIndices(ctx context.Context) error {
	for _, name := range managedIndices {
		exists, err := e.indexExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		mapping := entityMapping
		if name == domain.IndexProducts {
			mapping = productMapping
		}
		res, err := e.client.Indices.Create(name,
			e.client.Indices.Create.WithContext(ctx),
			e.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
		res.Body.Close()
		if res.IsError() {
			return apiError("create index "+name, res)
		}
		e.logger.InfoContext(ctx, "created index", slog.String("index", name))
	}
	return nil
}

// DeleteIndices removes all managed indices, ignoring those that are
// already gone.
func (e *Engine) DeleteIndices(ctx context.Context) error {
	res, err := e.client.Indices.Delete(managedIndices,
		e.client.Indices.Delete.WithContext(ctx),
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("delete indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apiError("delete indices", res)
	}
	return nil
}

func (e *Engine) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := e.client.Indices.Exists([]string{name},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// ProductIndexReady reports whether the products index exists. Any error
// counts as not ready.
func (e *Engine) ProductIndexReady(ctx context.Context) bool {
	exists, err := e.indexExists(ctx, domain.IndexProducts)
	return err == nil && exists
}

// IndexProduct upserts one document, refreshing so the change is
// immediately searchable.
func (e *Engine) IndexProduct(ctx context.Context, doc *domain.ProductDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal product document: %w", err)
	}
	res, err := e.client.Index(domain.IndexProducts, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatInt(doc.ID, 10)),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apiError(fmt.Sprintf("index product %d", doc.ID), res)
	}
	return nil
}

// DeleteProduct removes a document. A 404 is success: the goal state is
// "document absent".
func (e *Engine) DeleteProduct(ctx context.Context, id int64) error {
	return e.deleteDoc(ctx, domain.IndexProducts, id)
}

// IndexEntity upserts a category, brand or tag document.
func (e *Engine) IndexEntity(ctx context.Context, index string, doc *domain.EntityDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal entity document: %w", err)
	}
	res, err := e.client.Index(index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatInt(doc.ID, 10)),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index %s %d: %w", index, doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apiError(fmt.Sprintf("index %s %d", index, doc.ID), res)
	}
	return nil
}

// DeleteEntity removes an entity document, tolerating 404.
func (e *Engine) DeleteEntity(ctx context.Context, index string, id int64) error {
	return e.deleteDoc(ctx, index, id)
}

func (e *Engine) deleteDoc(ctx context.Context, index string, id int64) error {
	res, err := e.client.Delete(index, strconv.FormatInt(id, 10),
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil
	}
	if res.IsError() {
		return apiError(fmt.Sprintf("delete %s %d", index, id), res)
	}
	return nil
}

// BulkIndexProducts writes documents through the _bulk API as NDJSON,
// tallying per-item failures instead of aborting on the first.
func (e *Engine) BulkIndexProducts(ctx context.Context, docs []*domain.ProductDocument) (int, int, []string, error) {
	if len(docs) == 0 {
		return 0, 0, nil, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, domain.IndexProducts, strconv.FormatInt(doc.ID, 10))
		buf.WriteString(meta)
		buf.WriteByte('\n')
		line, err := json.Marshal(doc)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("marshal product document %d: %w", doc.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	res, err := e.client.Bulk(bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, 0, nil, apiError("bulk index", res)
	}

	var bulkRes bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return 0, 0, nil, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed, failed := 0, 0
	var errs []string
	for _, item := range bulkRes.Items {
		for _, op := range item {
			if op.Error != nil {
				failed++
				errs = append(errs, fmt.Sprintf("doc %s: %s: %s", op.ID, op.Error.Type, op.Error.Reason))
			} else {
				indexed++
			}
		}
	}
	return indexed, failed, errs, nil
}

// Search runs the criteria query and decodes hits in rank order.
func (e *Engine) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	body := buildSearchQuery(criteria)
	resp, err := e.doSearch(ctx, domain.IndexProducts, body, "search")
	if err != nil {
		return nil, err
	}

	products := make([]*domain.ProductDocument, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc domain.ProductDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		products = append(products, &doc)
	}

	total := resp.Hits.Total.Value
	return &domain.SearchResult{
		Products:   products,
		Total:      total,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
		TotalPages: pageCount(total, criteria.PageSize),
		TookMs:     resp.Took,
	}, nil
}

// pageCount is ceiling division guarded against a zero page size, which the
// service normally clamps but raw callers may not.
func pageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// facetsAggs mirrors the aggregation response shape.
type facetsAggs struct {
	Categories struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	} `json:"categories"`
	Brands struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	} `json:"brands"`
	Tags struct {
		TagNames struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int64  `json:"doc_count"`
			} `json:"buckets"`
		} `json:"tag_names"`
	} `json:"tags"`
	PriceStats struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
		Avg float64 `json:"avg"`
	} `json:"price_stats"`
}

// Facets runs the zero-hit aggregation query.
func (e *Engine) Facets(ctx context.Context, query string) (*domain.Facets, error) {
	body := buildFacetsQuery(query)
	resp, err := e.doSearch(ctx, domain.IndexProducts, body, "facets")
	if err != nil {
		return nil, err
	}

	var aggs facetsAggs
	if len(resp.Aggregations) > 0 {
		if err := json.Unmarshal(resp.Aggregations, &aggs); err != nil {
			return nil, fmt.Errorf("decode aggregations: %w", err)
		}
	}

	facets := &domain.Facets{
		Categories: make([]domain.FacetBucket, 0, len(aggs.Categories.Buckets)),
		Brands:     make([]domain.FacetBucket, 0, len(aggs.Brands.Buckets)),
		Tags:       make([]domain.FacetBucket, 0, len(aggs.Tags.TagNames.Buckets)),
		Price: domain.PriceStats{
			Min: aggs.PriceStats.Min,
			Max: aggs.PriceStats.Max,
			Avg: aggs.PriceStats.Avg,
		},
	}
	for _, b := range aggs.Categories.Buckets {
		facets.Categories = append(facets.Categories, domain.FacetBucket{Value: b.Key, Count: b.DocCount})
	}
	for _, b := range aggs.Brands.Buckets {
		facets.Brands = append(facets.Brands, domain.FacetBucket{Value: b.Key, Count: b.DocCount})
	}
	for _, b := range aggs.Tags.TagNames.Buckets {
		facets.Tags = append(facets.Tags, domain.FacetBucket{Value: b.Key, Count: b.DocCount})
	}
	return facets, nil
}

// MoreLikeThis returns similar products, seed excluded by the MLT query
// itself.
func (e *Engine) MoreLikeThis(ctx context.Context, productID int64, limit int) ([]*domain.ProductDocument, error) {
	body := buildMoreLikeThisQuery(productID, limit)
	resp, err := e.doSearch(ctx, domain.IndexProducts, body, "more like this")
	if err != nil {
		return nil, err
	}
	products := make([]*domain.ProductDocument, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc domain.ProductDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		products = append(products, &doc)
	}
	return products, nil
}

// Count returns the document count of one index.
func (e *Engine) Count(ctx context.Context, index string) (int64, error) {
	res, err := e.client.Count(
		e.client.Count.WithContext(ctx),
		e.client.Count.WithIndex(index),
	)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, apiError("count "+index, res)
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return out.Count, nil
}

func (e *Engine) doSearch(ctx context.Context, index string, body map[string]any, op string) (*searchResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode %s query: %w", op, err)
	}
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apiError(op, res)
	}
	var resp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	return &resp, nil
}
