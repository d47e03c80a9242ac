package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/internal/index/memory"
	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/pagination"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProducts struct {
	products map[int64]*domain.Product
}

func newFakeProducts(products ...*domain.Product) *fakeProducts {
	f := &fakeProducts{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product")
	}
	return p, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []int64) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) List(context.Context, catalog.ProductFilter, pagination.Params) (pagination.Result[*domain.Product], error) {
	return pagination.Result[*domain.Product]{}, nil
}

func (f *fakeProducts) ListAfter(_ context.Context, afterID int64, limit int) ([]*domain.Product, error) {
	var ids []int64
	for id := range f.products {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeProducts) Update(_ context.Context, p *domain.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) IDsReferencing(_ context.Context, kind domain.EntityKind, entityID int64) ([]int64, error) {
	var ids []int64
	for id, p := range f.products {
		switch kind {
		case domain.KindCategory:
			if p.Category != nil && p.Category.ID == entityID {
				ids = append(ids, id)
			}
		case domain.KindBrand:
			if p.Brand != nil && p.Brand.ID == entityID {
				ids = append(ids, id)
			}
		case domain.KindTag:
			for _, t := range p.Tags {
				if t.ID == entityID {
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeProducts) ReplaceRelations(context.Context, int64, domain.EntityKind, []int64) error {
	return nil
}

func (f *fakeProducts) Count(context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

type fakeEntities struct {
	entities map[domain.EntityKind]map[int64]*catalog.Entity
	counts   map[int64]int64
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		entities: make(map[domain.EntityKind]map[int64]*catalog.Entity),
		counts:   make(map[int64]int64),
	}
}

func (f *fakeEntities) put(kind domain.EntityKind, e *catalog.Entity, productCount int64) {
	if f.entities[kind] == nil {
		f.entities[kind] = make(map[int64]*catalog.Entity)
	}
	f.entities[kind][e.ID] = e
	f.counts[e.ID] = productCount
}

func (f *fakeEntities) Get(_ context.Context, kind domain.EntityKind, id int64) (*catalog.Entity, error) {
	e, ok := f.entities[kind][id]
	if !ok {
		return nil, apperrors.NotFound(string(kind))
	}
	return e, nil
}

func (f *fakeEntities) List(_ context.Context, kind domain.EntityKind) ([]*catalog.Entity, error) {
	var out []*catalog.Entity
	for _, e := range f.entities[kind] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEntities) Create(_ context.Context, kind domain.EntityKind, e *catalog.Entity) error {
	f.put(kind, e, 0)
	return nil
}

func (f *fakeEntities) Rename(_ context.Context, kind domain.EntityKind, id int64, name string) error {
	e, ok := f.entities[kind][id]
	if !ok {
		return apperrors.NotFound(string(kind))
	}
	e.Name = name
	return nil
}

func (f *fakeEntities) Delete(_ context.Context, kind domain.EntityKind, id int64) error {
	delete(f.entities[kind], id)
	return nil
}

func (f *fakeEntities) ProductCount(_ context.Context, _ domain.EntityKind, id int64) (int64, error) {
	return f.counts[id], nil
}

// failingEngine wraps the memory engine and fails product indexing for
// chosen ids.
type failingEngine struct {
	*memory.Engine
	failIDs map[int64]bool
}

func (f *failingEngine) IndexProduct(ctx context.Context, doc *domain.ProductDocument) error {
	if f.failIDs[doc.ID] {
		return errors.New("index rejected document")
	}
	return f.Engine.IndexProduct(ctx, doc)
}

func productWithCategory(id int64, name string, cat *domain.Category) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		Slug:     "p-" + name,
		Price:    100,
		Stock:    1,
		Category: cat,
	}
}

func searchByID(t *testing.T, engine *memory.Engine, id int64) *domain.ProductDocument {
	t.Helper()
	result, err := engine.Search(context.Background(), domain.SearchCriteria{Page: 1, PageSize: 100})
	require.NoError(t, err)
	for _, doc := range result.Products {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

func TestSyncer_ProductSaved_IndexesDocument(t *testing.T) {
	engine := memory.New()
	products := newFakeProducts(productWithCategory(1, "Runner", nil))
	syncer := NewSyncer(engine, products, newFakeEntities(), nil, newTestLogger())

	syncer.Handle(context.Background(), ProductSaved{ProductID: 1})

	doc := searchByID(t, engine, 1)
	require.NotNil(t, doc)
	assert.Equal(t, "Runner", doc.Name)
}

func TestSyncer_ProductSaved_MissingProductRemovesDocument(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()
	require.NoError(t, engine.IndexProduct(ctx, &domain.ProductDocument{ID: 7, Name: "Ghost"}))
	syncer := NewSyncer(engine, newFakeProducts(), newFakeEntities(), nil, newTestLogger())

	syncer.Handle(ctx, ProductSaved{ProductID: 7})

	assert.Nil(t, searchByID(t, engine, 7))
}

func TestSyncer_ProductDeleted(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()
	require.NoError(t, engine.IndexProduct(ctx, &domain.ProductDocument{ID: 5, Name: "Old"}))
	syncer := NewSyncer(engine, newFakeProducts(), newFakeEntities(), nil, newTestLogger())

	syncer.Handle(ctx, ProductDeleted{ProductID: 5})

	assert.Nil(t, searchByID(t, engine, 5))
}

func TestSyncer_CategoryRename_FansOutToProducts(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()

	cat := &domain.Category{ID: 3, Name: "Footwear", Slug: "footwear"}
	products := newFakeProducts(
		productWithCategory(1, "Runner", &domain.Category{ID: 3, Name: "Footwear"}),
		productWithCategory(2, "Hiker", &domain.Category{ID: 3, Name: "Footwear"}),
		productWithCategory(9, "Hat", &domain.Category{ID: 8, Name: "Accessories"}),
	)
	entities := newFakeEntities()
	entities.put(domain.KindCategory, &catalog.Entity{ID: 3, Name: "Footwear", Slug: "footwear"}, 2)
	syncer := NewSyncer(engine, products, entities, nil, newTestLogger())

	// Stale documents carrying the old name.
	for _, id := range []int64{1, 2} {
		require.NoError(t, engine.IndexProduct(ctx, domain.BuildProductDocument(products.products[id])))
	}

	// The rename lands in the catalog first, then the event fires.
	cat.Name = "Shoes"
	for _, p := range products.products {
		if p.Category != nil && p.Category.ID == 3 {
			p.Category.Name = "Shoes"
		}
	}
	entities.entities[domain.KindCategory][3].Name = "Shoes"

	syncer.Handle(ctx, EntitySaved{Kind: domain.KindCategory, EntityID: 3})

	for _, id := range []int64{1, 2} {
		doc := searchByID(t, engine, id)
		require.NotNil(t, doc)
		require.NotNil(t, doc.Category)
		assert.Equal(t, "Shoes", doc.Category.Name, "product %d should embed the new name", id)
	}
	// The untouched product was not reindexed.
	assert.Nil(t, searchByID(t, engine, 9))

	count, err := engine.Count(ctx, domain.IndexCategories)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncer_FanOutContinuesPastFailures(t *testing.T) {
	inner := memory.New()
	engine := &failingEngine{Engine: inner, failIDs: map[int64]bool{1: true}}
	products := newFakeProducts(
		productWithCategory(1, "Runner", &domain.Category{ID: 3, Name: "Shoes"}),
		productWithCategory(2, "Hiker", &domain.Category{ID: 3, Name: "Shoes"}),
	)
	entities := newFakeEntities()
	entities.put(domain.KindCategory, &catalog.Entity{ID: 3, Name: "Shoes", Slug: "shoes"}, 2)
	syncer := NewSyncer(engine, products, entities, nil, newTestLogger())

	syncer.Handle(context.Background(), EntitySaved{Kind: domain.KindCategory, EntityID: 3})

	assert.Nil(t, searchByID(t, inner, 1), "failed product stays unindexed")
	assert.NotNil(t, searchByID(t, inner, 2), "failure of one product must not stop the rest")
}

func TestSyncer_EntityDeleted_ReindexesDetachedProducts(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()

	p := productWithCategory(1, "Runner", &domain.Category{ID: 3, Name: "Shoes"})
	products := newFakeProducts(p)
	entities := newFakeEntities()
	syncer := NewSyncer(engine, products, entities, nil, newTestLogger())

	require.NoError(t, engine.IndexProduct(ctx, domain.BuildProductDocument(p)))
	require.NoError(t, engine.IndexEntity(ctx, domain.IndexCategories, &domain.EntityDocument{ID: 3, Name: "Shoes"}))

	// Catalog detaches first, then the event fires with the captured ids.
	p.Category = nil
	syncer.Handle(ctx, EntityDeleted{Kind: domain.KindCategory, EntityID: 3, ProductIDs: []int64{1}})

	doc := searchByID(t, engine, 1)
	require.NotNil(t, doc)
	assert.Nil(t, doc.Category, "document must drop the deleted reference")

	count, err := engine.Count(ctx, domain.IndexCategories)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSyncer_RelationsChanged_ReindexesOnlyThatProduct(t *testing.T) {
	engine := memory.New()
	products := newFakeProducts(
		productWithCategory(1, "Runner", nil),
		productWithCategory(2, "Hiker", nil),
	)
	syncer := NewSyncer(engine, products, newFakeEntities(), nil, newTestLogger())

	syncer.Handle(context.Background(), RelationsChanged{ProductID: 1, Kind: domain.KindTag})

	assert.NotNil(t, searchByID(t, engine, 1))
	assert.Nil(t, searchByID(t, engine, 2))
}

func TestDrift_Report(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()
	products := newFakeProducts(
		productWithCategory(1, "Runner", nil),
		productWithCategory(2, "Hiker", nil),
	)
	entities := newFakeEntities()
	syncer := NewSyncer(engine, products, entities, nil, newTestLogger())

	// Only one of two products indexed: products drifts by 1.
	require.NoError(t, engine.IndexProduct(ctx, domain.BuildProductDocument(products.products[1])))

	report, err := syncer.Drift(ctx)
	require.NoError(t, err)
	require.Len(t, report.Indices, 4)

	productDrift := report.Indices[0]
	assert.Equal(t, domain.IndexProducts, productDrift.Index)
	assert.Equal(t, StatusOutOfSync, productDrift.Status)
	assert.Equal(t, int64(1), productDrift.Difference)

	for _, d := range report.Indices[1:] {
		assert.Equal(t, StatusSynced, d.Status)
		assert.Equal(t, int64(0), d.Difference)
	}
}

func TestResync_WalksWholeCatalog(t *testing.T) {
	engine := memory.New()
	ctx := context.Background()
	products := newFakeProducts(
		productWithCategory(1, "Runner", nil),
		productWithCategory(2, "Hiker", nil),
		productWithCategory(3, "Hat", nil),
	)
	entities := newFakeEntities()
	entities.put(domain.KindCategory, &catalog.Entity{ID: 3, Name: "Shoes", Slug: "shoes"}, 2)
	entities.put(domain.KindBrand, &catalog.Entity{ID: 5, Name: "Nike", Slug: "nike"}, 3)
	syncer := NewSyncer(engine, products, entities, nil, newTestLogger())

	report, err := syncer.Resync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Products.Indexed)
	assert.Equal(t, 0, report.Products.Failed)
	assert.Equal(t, 1, report.Categories.Indexed)
	assert.Equal(t, 1, report.Brands.Indexed)

	count, err := engine.Count(ctx, domain.IndexProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBus_SynchronousDelivery(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(func(context.Context, Event) { order = append(order, "first") })
	bus.Subscribe(func(context.Context, Event) { order = append(order, "second") })

	bus.Publish(context.Background(), ProductSaved{ProductID: 1})

	assert.Equal(t, []string{"first", "second"}, order, "handlers run before Publish returns, in order")
}
