package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	productColumns = `p.id, p.name, p.description, p.category_id, c.name, p.price, p.stock, p.is_active, p.image, p.color, p.size`

	countProductsSQL = `SELECT count(*) FROM products p
		WHERE ($1::bigint IS NULL OR p.category_id = $1)
		  AND ($2::text = '' OR p.name ILIKE '%' || $2 || '%')
		  AND (NOT $3::boolean OR p.is_active)`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE ($1::bigint IS NULL OR p.category_id = $1)
		  AND ($2::text = '' OR p.name ILIKE '%' || $2 || '%')
		  AND (NOT $3::boolean OR p.is_active)
		ORDER BY p.id
		LIMIT $4 OFFSET $5`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	listCategoriesSQL = `SELECT id, name, is_active FROM categories
		WHERE is_active ORDER BY name`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns one clamped page of products plus the total matching count.
func (r *CatalogRepository) List(ctx context.Context, params catalog.ListParams) ([]catalog.Product, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, countProductsSQL,
		params.CategoryID, params.Search, params.ActiveOnly,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	params.Clamp(total)

	rows, err := r.pool.Query(ctx, listProductsSQL,
		params.CategoryID, params.Search, params.ActiveOnly,
		params.PageSize, params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Categories returns all active categories ordered by name.
func (r *CatalogRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Active)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p           catalog.Product
		description *string
		image       *string
		color       *string
		size        *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &description, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Stock, &p.Active, &image, &color, &size,
	)
	if description != nil {
		p.Description = *description
	}
	if image != nil {
		p.Image = *image
	}
	if color != nil {
		p.Color = *color
	}
	if size != nil {
		p.Size = *size
	}
	return p, err
}
