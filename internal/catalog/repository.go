// Package catalog defines the repositories over the authoritative product
// database. The postgres subpackage implements them with pgx.
package catalog

import (
	"context"

	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/pkg/pagination"
)

// ProductFilter narrows catalog listing. Zero values mean "no filter".
// Category follows the same id-or-name dispatch as the index path:
// all-digit values filter on category_id, anything else on the name.
type ProductFilter struct {
	// Search matches name or description case-insensitively. Used by the
	// degraded path when the index cannot serve a text query.
	Search      string
	Category    string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
	Tags        []string
	InStockOnly bool
	Sort        string
}

// ProductRepository is the catalog access the search subsystem needs.
type ProductRepository interface {
	// Create inserts a product and fills in its generated id.
	Create(ctx context.Context, p *domain.Product) error

	// GetByID loads one product with its associations.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetByIDs loads products for the given ids in no particular order.
	// Ids with no live row are simply absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	// List pages through products matching the filter.
	List(ctx context.Context, filter ProductFilter, params pagination.Params) (pagination.Result[*domain.Product], error)

	// ListAfter returns up to limit products with id greater than afterID,
	// ordered by id. Used to walk the whole catalog during resync.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Product, error)

	// Update rewrites a product's own columns.
	Update(ctx context.Context, p *domain.Product) error

	// Delete soft-deletes a product.
	Delete(ctx context.Context, id int64) error

	// IDsReferencing returns ids of live products referencing the entity,
	// for reindex fan-out.
	IDsReferencing(ctx context.Context, kind domain.EntityKind, entityID int64) ([]int64, error)

	// ReplaceRelations rewrites a product's many-to-many rows for one
	// entity kind.
	ReplaceRelations(ctx context.Context, productID int64, kind domain.EntityKind, entityIDs []int64) error

	// Count returns the number of live products.
	Count(ctx context.Context) (int64, error)
}

// Entity is the shared shape of categories, brands, tags, sub-categories
// and colors as the sync engine sees them. Slug is empty for colors.
type Entity struct {
	ID   int64
	Name string
	Slug string
}

// EntityRepository covers the shared catalog entities.
type EntityRepository interface {
	Get(ctx context.Context, kind domain.EntityKind, id int64) (*Entity, error)
	List(ctx context.Context, kind domain.EntityKind) ([]*Entity, error)
	Create(ctx context.Context, kind domain.EntityKind, e *Entity) error
	Rename(ctx context.Context, kind domain.EntityKind, id int64, name string) error

	// Delete removes the entity row. Product foreign keys null out and
	// join rows cascade at the database level.
	Delete(ctx context.Context, kind domain.EntityKind, id int64) error

	// ProductCount returns how many live products reference the entity.
	ProductCount(ctx context.Context, kind domain.EntityKind, id int64) (int64, error)
}
