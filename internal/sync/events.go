// Package sync keeps the search indices in step with the catalog. Catalog
// mutations publish typed events on an in-process bus; the Syncer handles
// them synchronously on the caller's goroutine, best-effort: an index
// failure is logged and counted but never fails the catalog write.
package sync

import "github.com/prismcart/search/internal/domain"

// Event is a catalog change notification.
type Event interface {
	name() string
}

// ProductSaved fires after a product insert or update.
type ProductSaved struct {
	ProductID int64
}

// ProductDeleted fires after a product delete.
type ProductDeleted struct {
	ProductID int64
}

// EntitySaved fires after a shared entity insert or rename. Renames
// cascade: every product embedding the entity's name is reindexed.
type EntitySaved struct {
	Kind     domain.EntityKind
	EntityID int64
}

// EntityDeleted fires after a shared entity delete. ProductIDs holds the
// products that referenced it, captured before the delete detached them.
type EntityDeleted struct {
	Kind       domain.EntityKind
	EntityID   int64
	ProductIDs []int64
}

// RelationsChanged fires after a product's tag, color or sub-category set
// changes. Only that product is reindexed.
type RelationsChanged struct {
	ProductID int64
	Kind      domain.EntityKind
}

func (ProductSaved) name() string     { return "product_saved" }
func (ProductDeleted) name() string   { return "product_deleted" }
func (EntitySaved) name() string      { return "entity_saved" }
func (EntityDeleted) name() string    { return "entity_deleted" }
func (RelationsChanged) name() string { return "relations_changed" }

// entityIndex maps a kind to its own index. Colors and sub-categories
// live only inside product documents.
func entityIndex(kind domain.EntityKind) string {
	switch kind {
	case domain.KindCategory:
		return domain.IndexCategories
	case domain.KindBrand:
		return domain.IndexBrands
	case domain.KindTag:
		return domain.IndexTags
	default:
		return ""
	}
}
