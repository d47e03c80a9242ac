// Package postgres implements the catalog repositories with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/pkg/database"
	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/pagination"
)

// ProductRepository reads and writes the products table and its
// association tables.
type ProductRepository struct {
	pool database.DBTX
}

func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `
	p.id, p.name, p.slug, p.sku, p.description, p.short_description,
	p.price, p.cost_price, p.percentage_discount, p.stock, p.rating,
	p.views, p.quantity_sold, p.cover_image,
	c.id, c.name, c.slug,
	b.id, b.name, b.slug,
	(SELECT count(*) FROM reviews r WHERE r.product_id = p.id) AS reviews_count,
	p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

// Create inserts the product row. Associations are written separately via
// ReplaceRelations.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	var categoryID, brandID *int64
	if p.Category != nil {
		categoryID = &p.Category.ID
	}
	if p.Brand != nil {
		brandID = &p.Brand.ID
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (
			name, slug, sku, description, short_description, price,
			cost_price, percentage_discount, stock, rating, cover_image,
			category_id, brand_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Slug, p.SKU, p.Description, p.ShortDescription, p.Price,
		p.CostPrice, p.PercentageDiscount, p.Stock, p.Rating, p.CoverImage,
		categoryID, brandID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product")
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID loads one live product with associations.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+productColumns+productFrom+` WHERE p.deleted_at IS NULL AND p.id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if err := r.loadAssociations(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByIDs loads live products for the given ids. Missing ids are
// silently absent.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT`+productColumns+productFrom+` WHERE p.deleted_at IS NULL AND p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// List pages through products matching the filter, fetching the total via
// a window function so one round trip serves both.
func (r *ProductRepository) List(ctx context.Context, filter catalog.ProductFilter, params pagination.Params) (pagination.Result[*domain.Product], error) {
	var zero pagination.Result[*domain.Product]

	conditions := "WHERE p.deleted_at IS NULL"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		ph := arg("%" + filter.Search + "%")
		conditions += fmt.Sprintf(" AND (p.name ILIKE %s OR p.description ILIKE %s)", ph, ph)
	}
	if filter.Category != "" {
		if id, err := strconv.ParseInt(filter.Category, 10, 64); err == nil {
			conditions += fmt.Sprintf(" AND p.category_id = %s", arg(id))
		} else {
			conditions += fmt.Sprintf(" AND c.name ILIKE %s", arg(filter.Category))
		}
	}
	if filter.Brand != "" {
		conditions += fmt.Sprintf(" AND b.name ILIKE %s", arg(filter.Brand))
	}
	if filter.MinPrice != nil {
		conditions += fmt.Sprintf(" AND p.price >= %s", arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conditions += fmt.Sprintf(" AND p.price <= %s", arg(*filter.MaxPrice))
	}
	for _, tag := range filter.Tags {
		conditions += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.product_id = p.id AND t.name ILIKE %s)`, arg(tag))
	}
	if filter.InStockOnly {
		conditions += " AND p.stock > 0"
	}

	query := `SELECT` + productColumns + `, count(*) OVER() AS total_count` + productFrom + " " +
		conditions + " " + orderClause(filter.Sort) +
		fmt.Sprintf(" LIMIT %s OFFSET %s", arg(params.PageSize), arg(params.Offset()))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	var total int64
	for rows.Next() {
		p, rowTotal, err := scanProductWithTotal(rows)
		if err != nil {
			return zero, fmt.Errorf("scan product: %w", err)
		}
		total = rowTotal
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate products: %w", err)
	}
	if err := r.loadAssociations(ctx, products); err != nil {
		return zero, err
	}
	return pagination.NewResult(products, total, params), nil
}

// ListAfter walks the catalog in id order, for resync.
func (r *ProductRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+productColumns+productFrom+
			` WHERE p.deleted_at IS NULL AND p.id > $1 ORDER BY p.id LIMIT $2`,
		afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products after %d: %w", afterID, err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Update rewrites the product's own columns.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	var categoryID, brandID *int64
	if p.Category != nil {
		categoryID = &p.Category.ID
	}
	if p.Brand != nil {
		brandID = &p.Brand.ID
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET
			name = $1, slug = $2, description = $3, short_description = $4,
			price = $5, cost_price = $6, percentage_discount = $7,
			stock = $8, rating = $9, cover_image = $10,
			category_id = $11, brand_id = $12, updated_at = now()
		WHERE id = $13 AND deleted_at IS NULL`,
		p.Name, p.Slug, p.Description, p.ShortDescription,
		p.Price, p.CostPrice, p.PercentageDiscount,
		p.Stock, p.Rating, p.CoverImage,
		categoryID, brandID, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product")
		}
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product")
	}
	return nil
}

// Delete soft-deletes the product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product")
	}
	return nil
}

// IDsReferencing returns live product ids referencing the entity.
func (r *ProductRepository) IDsReferencing(ctx context.Context, kind domain.EntityKind, entityID int64) ([]int64, error) {
	var query string
	switch kind {
	case domain.KindCategory:
		query = `SELECT id FROM products WHERE deleted_at IS NULL AND category_id = $1`
	case domain.KindBrand:
		query = `SELECT id FROM products WHERE deleted_at IS NULL AND brand_id = $1`
	case domain.KindTag:
		query = `SELECT p.id FROM products p
			JOIN product_tags pt ON pt.product_id = p.id
			WHERE p.deleted_at IS NULL AND pt.tag_id = $1`
	case domain.KindColor:
		query = `SELECT p.id FROM products p
			JOIN product_colors pc ON pc.product_id = p.id
			WHERE p.deleted_at IS NULL AND pc.color_id = $1`
	case domain.KindSubCategory:
		query = `SELECT p.id FROM products p
			JOIN product_sub_categories psc ON psc.product_id = p.id
			WHERE p.deleted_at IS NULL AND psc.sub_category_id = $1`
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("product ids for %s %d: %w", kind, entityID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceRelations rewrites the join rows for one many-to-many kind.
func (r *ProductRepository) ReplaceRelations(ctx context.Context, productID int64, kind domain.EntityKind, entityIDs []int64) error {
	var table, column string
	switch kind {
	case domain.KindTag:
		table, column = "product_tags", "tag_id"
	case domain.KindColor:
		table, column = "product_colors", "color_id"
	case domain.KindSubCategory:
		table, column = "product_sub_categories", "sub_category_id"
	default:
		return fmt.Errorf("entity kind %q is not a product relation", kind)
	}

	if _, err := r.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1`, table), productID); err != nil {
		return fmt.Errorf("clear %s for product %d: %w", table, productID, err)
	}
	for _, entityID := range entityIDs {
		if _, err := r.pool.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (product_id, %s) VALUES ($1, $2)`, table, column),
			productID, entityID); err != nil {
			return fmt.Errorf("insert %s for product %d: %w", table, productID, err)
		}
	}
	return nil
}

// Count returns the number of live products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE deleted_at IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func orderClause(sort string) string {
	switch sort {
	case domain.SortPriceAsc:
		return "ORDER BY p.price ASC"
	case domain.SortPriceDesc:
		return "ORDER BY p.price DESC"
	case domain.SortPopular:
		return "ORDER BY p.views DESC, p.quantity_sold DESC"
	default:
		return "ORDER BY p.created_at DESC"
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p, _, err := scanProductInto(row, false)
	return p, err
}

func scanProductWithTotal(row pgx.Row) (*domain.Product, int64, error) {
	return scanProductInto(row, true)
}

func scanProductInto(row pgx.Row, withTotal bool) (*domain.Product, int64, error) {
	var (
		p                    domain.Product
		catID, brandID       *int64
		catName, catSlug     *string
		brandName, brandSlug *string
		total                int64
	)
	dest := []any{
		&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.ShortDescription,
		&p.Price, &p.CostPrice, &p.PercentageDiscount, &p.Stock, &p.Rating,
		&p.Views, &p.QuantitySold, &p.CoverImage,
		&catID, &catName, &catSlug,
		&brandID, &brandName, &brandSlug,
		&p.ReviewsCount,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, &total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	if catID != nil {
		p.Category = &domain.Category{ID: *catID}
		if catName != nil {
			p.Category.Name = *catName
		}
		if catSlug != nil {
			p.Category.Slug = *catSlug
		}
	}
	if brandID != nil {
		p.Brand = &domain.Brand{ID: *brandID}
		if brandName != nil {
			p.Brand.Name = *brandName
		}
		if brandSlug != nil {
			p.Brand.Slug = *brandSlug
		}
	}
	return &p, total, nil
}

func collectProducts(rows pgx.Rows) ([]*domain.Product, error) {
	defer rows.Close()
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// loadAssociations fills tags, colors, sub-categories and media for the
// given products with one query per association table.
func (r *ProductRepository) loadAssociations(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	if err := r.loadRefs(ctx, ids, `
		SELECT pt.product_id, t.id, t.name, t.slug
		FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.product_id = ANY($1)`,
		func(productID int64, e catalog.Entity) {
			p := byID[productID]
			p.Tags = append(p.Tags, domain.Tag{ID: e.ID, Name: e.Name, Slug: e.Slug})
		}); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	if err := r.loadRefs(ctx, ids, `
		SELECT psc.product_id, sc.id, sc.name, sc.slug
		FROM product_sub_categories psc JOIN sub_categories sc ON sc.id = psc.sub_category_id
		WHERE psc.product_id = ANY($1)`,
		func(productID int64, e catalog.Entity) {
			p := byID[productID]
			p.SubCategories = append(p.SubCategories, domain.SubCategory{ID: e.ID, Name: e.Name, Slug: e.Slug})
		}); err != nil {
		return fmt.Errorf("load sub categories: %w", err)
	}

	if err := r.loadRefs(ctx, ids, `
		SELECT pc.product_id, cl.id, cl.name, cl.hex_code
		FROM product_colors pc JOIN colors cl ON cl.id = pc.color_id
		WHERE pc.product_id = ANY($1)`,
		func(productID int64, e catalog.Entity) {
			p := byID[productID]
			p.Colors = append(p.Colors, domain.Color{ID: e.ID, Name: e.Name, HexCode: e.Slug})
		}); err != nil {
		return fmt.Errorf("load colors: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, id, image FROM product_media WHERE product_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID, mediaID int64
		var image string
		if err := rows.Scan(&productID, &mediaID, &image); err != nil {
			return fmt.Errorf("scan media: %w", err)
		}
		p := byID[productID]
		p.Media = append(p.Media, domain.Media{ID: mediaID, Image: image})
	}
	return rows.Err()
}

// loadRefs runs one association query; the third scanned column lands in
// Entity.Slug whatever its meaning (slug or hex code).
func (r *ProductRepository) loadRefs(ctx context.Context, ids []int64, query string, apply func(int64, catalog.Entity)) error {
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		var e catalog.Entity
		if err := rows.Scan(&productID, &e.ID, &e.Name, &e.Slug); err != nil {
			return err
		}
		apply(productID, e)
	}
	return rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
