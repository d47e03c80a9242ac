// Package index defines the search engine abstraction. The elastic
// subpackage implements it against Elasticsearch; the memory subpackage
// provides an in-process implementation for tests and index-less
// development.
package index

import (
	"context"

	"github.com/prismcart/search/internal/domain"
)

// Engine is everything the service layer needs from a search index.
// Implementations must treat deletes of missing documents as success.
type Engine interface {
	// Ping verifies the index backend is reachable.
	Ping(ctx context.Context) error

	// EnsureIndices creates any missing indices with their mappings.
	EnsureIndices(ctx context.Context) error

	// DeleteIndices removes all managed indices. Missing indices are not
	// an error.
	DeleteIndices(ctx context.Context) error

	// ProductIndexReady reports whether the products index exists and the
	// backend is reachable.
	ProductIndexReady(ctx context.Context) bool

	// IndexProduct upserts one product document.
	IndexProduct(ctx context.Context, doc *domain.ProductDocument) error

	// DeleteProduct removes a product document by id.
	DeleteProduct(ctx context.Context, id int64) error

	// BulkIndexProducts upserts many documents, returning how many were
	// indexed, how many failed, and a message per failure.
	BulkIndexProducts(ctx context.Context, docs []*domain.ProductDocument) (indexed, failed int, errs []string, err error)

	// IndexEntity upserts a category, brand or tag document into the
	// named index.
	IndexEntity(ctx context.Context, index string, doc *domain.EntityDocument) error

	// DeleteEntity removes an entity document by id.
	DeleteEntity(ctx context.Context, index string, id int64) error

	// Search runs a criteria query against the products index.
	Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error)

	// Facets computes filter aggregations, optionally scoped by a text
	// query, without fetching documents.
	Facets(ctx context.Context, query string) (*domain.Facets, error)

	// MoreLikeThis returns products similar to the given one, excluding
	// it.
	MoreLikeThis(ctx context.Context, productID int64, limit int) ([]*domain.ProductDocument, error)

	// Suggest runs one autocomplete strategy over the products index.
	Suggest(ctx context.Context, query, strategy string, limit int) ([]domain.Suggestion, error)

	// Complete runs the completion suggester across all managed indices.
	Complete(ctx context.Context, prefix string, limit int) ([]domain.CompletionGroup, error)

	// Count returns the document count of the named index.
	Count(ctx context.Context, index string) (int64, error)
}
