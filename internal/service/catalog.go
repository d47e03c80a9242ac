package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	syncpkg "github.com/prismcart/search/internal/sync"
	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/slug"
)

// CatalogService owns catalog writes. Every successful mutation publishes
// a sync event so the index observes the change before the request
// returns; a sync failure never fails the write.
type CatalogService struct {
	products catalog.ProductRepository
	entities catalog.EntityRepository
	bus      *syncpkg.Bus
	logger   *slog.Logger
}

func NewCatalogService(
	products catalog.ProductRepository,
	entities catalog.EntityRepository,
	bus *syncpkg.Bus,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		entities: entities,
		bus:      bus,
		logger:   logger,
	}
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name               string  `json:"name" validate:"required,min=1,max=255"`
	Description        string  `json:"description"`
	ShortDescription   string  `json:"short_description"`
	Price              float64 `json:"price" validate:"gt=0"`
	CostPrice          float64 `json:"cost_price" validate:"gte=0"`
	PercentageDiscount *int    `json:"percentage_discount" validate:"omitempty,gte=0,lte=100"`
	Stock              int     `json:"stock" validate:"gte=0"`
	CoverImage         string  `json:"cover_image"`
	CategoryID         *int64  `json:"category_id"`
	BrandID            *int64  `json:"brand_id"`
	TagIDs             []int64 `json:"tag_ids"`
	ColorIDs           []int64 `json:"color_ids"`
	SubCategoryIDs     []int64 `json:"sub_category_ids"`
}

const maxSlugAttempts = 50

// CreateProduct inserts the product, its relations, and reindexes it.
// Slug collisions get a numeric suffix; the SKU is generated from the
// name plus a random tail.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be positive")
	}

	p := productFromInput(input)
	base := slug.Generate(input.Name)

	var created bool
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		p.Slug = base
		if attempt > 0 {
			p.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		p.SKU = generateSKU(input.Name)
		err := s.products.Create(ctx, p)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
	}
	if !created {
		return nil, apperrors.AlreadyExists("product slug")
	}

	if err := s.writeRelations(ctx, p.ID, input); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, syncpkg.ProductSaved{ProductID: p.ID})
	return s.products.GetByID(ctx, p.ID)
}

// UpdateProduct rewrites the product and its relations, then reindexes.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := productFromInput(input)
	p.ID = id
	p.Slug = existing.Slug
	p.SKU = existing.SKU
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	if err := s.writeRelations(ctx, id, input); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, syncpkg.ProductSaved{ProductID: id})
	return s.products.GetByID(ctx, id)
}

// DeleteProduct soft-deletes the product and removes its document.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(ctx, syncpkg.ProductDeleted{ProductID: id})
	return nil
}

// SetProductRelations rewrites one many-to-many set and reindexes only
// that product.
func (s *CatalogService) SetProductRelations(ctx context.Context, productID int64, kind domain.EntityKind, entityIDs []int64) error {
	if err := s.products.ReplaceRelations(ctx, productID, kind, entityIDs); err != nil {
		return err
	}
	s.bus.Publish(ctx, syncpkg.RelationsChanged{ProductID: productID, Kind: kind})
	return nil
}

// CreateEntity inserts a shared entity and indexes its document.
func (s *CatalogService) CreateEntity(ctx context.Context, kind domain.EntityKind, name string) (*catalog.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	e := &catalog.Entity{Name: name, Slug: slug.Generate(name)}
	if err := s.entities.Create(ctx, kind, e); err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, syncpkg.EntitySaved{Kind: kind, EntityID: e.ID})
	return e, nil
}

// RenameEntity renames a shared entity. The sync engine fans the new name
// out to every product document embedding it.
func (s *CatalogService) RenameEntity(ctx context.Context, kind domain.EntityKind, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.InvalidInput("name is required")
	}
	if err := s.entities.Rename(ctx, kind, id, name); err != nil {
		return err
	}
	s.bus.Publish(ctx, syncpkg.EntitySaved{Kind: kind, EntityID: id})
	return nil
}

// DeleteEntity captures the referencing products before deleting, so the
// sync engine can rebuild their documents with the reference gone instead
// of leaving them stale.
func (s *CatalogService) DeleteEntity(ctx context.Context, kind domain.EntityKind, id int64) error {
	productIDs, err := s.products.IDsReferencing(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.entities.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.bus.Publish(ctx, syncpkg.EntityDeleted{Kind: kind, EntityID: id, ProductIDs: productIDs})
	return nil
}

func (s *CatalogService) writeRelations(ctx context.Context, productID int64, input ProductInput) error {
	for _, rel := range []struct {
		kind domain.EntityKind
		ids  []int64
	}{
		{domain.KindTag, input.TagIDs},
		{domain.KindColor, input.ColorIDs},
		{domain.KindSubCategory, input.SubCategoryIDs},
	} {
		if rel.ids == nil {
			continue
		}
		if err := s.products.ReplaceRelations(ctx, productID, rel.kind, rel.ids); err != nil {
			return err
		}
	}
	return nil
}

func productFromInput(input ProductInput) *domain.Product {
	p := &domain.Product{
		Name:               input.Name,
		Description:        input.Description,
		ShortDescription:   input.ShortDescription,
		Price:              input.Price,
		CostPrice:          input.CostPrice,
		PercentageDiscount: input.PercentageDiscount,
		Stock:              input.Stock,
		CoverImage:         input.CoverImage,
	}
	if input.CategoryID != nil {
		p.Category = &domain.Category{ID: *input.CategoryID}
	}
	if input.BrandID != nil {
		p.Brand = &domain.Brand{ID: *input.BrandID}
	}
	return p
}

const skuAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateSKU takes the first three letters of the name, uppercased, plus
// a random five-character tail.
func generateSKU(name string) string {
	prefix := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix = append(prefix, r)
			if len(prefix) == 3 {
				break
			}
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}
	tail := make([]byte, 5)
	for i := range tail {
		tail[i] = skuAlphabet[rand.Intn(len(skuAlphabet))]
	}
	return string(prefix) + "-" + string(tail)
}
