package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prismcart/search/internal/catalog"
	"github.com/prismcart/search/internal/domain"
	"github.com/prismcart/search/pkg/database"
	apperrors "github.com/prismcart/search/pkg/errors"
)

// EntityRepository covers categories, brands, tags, sub-categories and
// colors through one table-dispatched implementation.
type EntityRepository struct {
	pool database.DBTX
}

func NewEntityRepository(pool database.DBTX) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// entityTable describes how one kind maps to SQL. Colors carry a hex code
// where the others carry a slug.
type entityTable struct {
	name      string
	thirdCol  string
	refColumn string
	joinTable string
	joinCol   string
}

var entityTables = map[domain.EntityKind]entityTable{
	domain.KindCategory:    {name: "categories", thirdCol: "slug", refColumn: "category_id"},
	domain.KindBrand:       {name: "brands", thirdCol: "slug", refColumn: "brand_id"},
	domain.KindTag:         {name: "tags", thirdCol: "slug", joinTable: "product_tags", joinCol: "tag_id"},
	domain.KindSubCategory: {name: "sub_categories", thirdCol: "slug", joinTable: "product_sub_categories", joinCol: "sub_category_id"},
	domain.KindColor:       {name: "colors", thirdCol: "hex_code", joinTable: "product_colors", joinCol: "color_id"},
}

func tableFor(kind domain.EntityKind) (entityTable, error) {
	t, ok := entityTables[kind]
	if !ok {
		return entityTable{}, fmt.Errorf("unknown entity kind %q", kind)
	}
	return t, nil
}

func (r *EntityRepository) Get(ctx context.Context, kind domain.EntityKind, id int64) (*catalog.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var e catalog.Entity
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, name, %s FROM %s WHERE id = $1`, t.thirdCol, t.name), id,
	).Scan(&e.ID, &e.Name, &e.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(string(kind))
		}
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return &e, nil
}

func (r *EntityRepository) List(ctx context.Context, kind domain.EntityKind) ([]*catalog.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, name, %s FROM %s ORDER BY id`, t.thirdCol, t.name))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var entities []*catalog.Entity
	for rows.Next() {
		var e catalog.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Slug); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

func (r *EntityRepository) Create(ctx context.Context, kind domain.EntityKind, e *catalog.Entity) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, %s) VALUES ($1, $2) RETURNING id`, t.name, t.thirdCol),
		e.Name, e.Slug,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists(string(kind))
		}
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

func (r *EntityRepository) Rename(ctx context.Context, kind domain.EntityKind, id int64, name string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2`, t.name), name, id)
	if err != nil {
		return fmt.Errorf("rename %s %d: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(string(kind))
	}
	return nil
}

func (r *EntityRepository) Delete(ctx context.Context, kind domain.EntityKind, id int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(string(kind))
	}
	return nil
}

func (r *EntityRepository) ProductCount(ctx context.Context, kind domain.EntityKind, id int64) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var query string
	if t.refColumn != "" {
		query = fmt.Sprintf(
			`SELECT count(*) FROM products WHERE deleted_at IS NULL AND %s = $1`, t.refColumn)
	} else {
		query = fmt.Sprintf(`
			SELECT count(*) FROM products p
			JOIN %s j ON j.product_id = p.id
			WHERE p.deleted_at IS NULL AND j.%s = $1`, t.joinTable, t.joinCol)
	}
	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("product count for %s %d: %w", kind, id, err)
	}
	return count, nil
}
