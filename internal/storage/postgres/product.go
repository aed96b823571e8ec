package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mini-shop/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, category, image_url, stock, created_at, updated_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (name, description, price, category, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// Find looks a product up by its identifier. A missing row is reported as
// product.NotFound, not as an error.
func (r *ProductRepository) Find(ctx context.Context, id int64) (product.Lookup, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return product.NotFound(), fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.NotFound(), nil
		}
		return product.NotFound(), fmt.Errorf("getting product %d: %w", id, err)
	}
	return product.Found(p), nil
}

// Create validates and inserts a product, returning it with the identity
// and timestamps assigned by the database.
func (r *ProductRepository) Create(ctx context.Context, d product.Draft) (product.Product, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return product.Product{}, err
	}

	rows, err := r.pool.Query(ctx, insertProductSQL,
		d.Name, d.Description, d.Price, d.Category, d.ImageURL, d.Stock,
	)
	if err != nil {
		return product.Product{}, fmt.Errorf("creating product %q: %w", d.Name, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return product.Product{}, fmt.Errorf("creating product %q: %w", d.Name, err)
	}
	return p, nil
}

// Ping checks that the database is reachable.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}
