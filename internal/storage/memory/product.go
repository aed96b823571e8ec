// Package memory implements an in-process catalog store ordered by product
// id. It backs demo runs without a database and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/xenking/mini-shop/internal/domain/product"
)

const degree = 16

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository on a B-tree keyed by id.
type ProductRepository struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[product.Product]
	lastID int64
	now    func() time.Time
}

// Option configures a ProductRepository.
type Option func(*ProductRepository)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *ProductRepository) { r.now = now }
}

// NewProductRepository returns an empty store.
func NewProductRepository(opts ...Option) *ProductRepository {
	r := &ProductRepository{
		tree: btree.NewG(degree, func(a, b product.Product) bool { return a.ID < b.ID }),
		now:  time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// List returns all products ordered by id.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]product.Product, 0, r.tree.Len())
	r.tree.Ascend(func(p product.Product) bool {
		products = append(products, clone(p))
		return true
	})
	return products, nil
}

// Find returns the product with the given id, or product.NotFound.
func (r *ProductRepository) Find(_ context.Context, id int64) (product.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.tree.Get(product.Product{ID: id})
	if !ok {
		return product.NotFound(), nil
	}
	return product.Found(clone(p)), nil
}

// Create validates the draft and stores it under the next id. Ids are never
// reused.
func (r *ProductRepository) Create(_ context.Context, d product.Draft) (product.Product, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return product.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	now := r.now().UTC().Truncate(time.Microsecond)
	p := product.Product{
		ID:          r.lastID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Stock:       d.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tree.ReplaceOrInsert(clone(p))
	return p, nil
}

// Ping always succeeds.
func (r *ProductRepository) Ping(context.Context) error {
	return nil
}

// clone detaches the image URL pointer so callers cannot mutate stored rows.
func clone(p product.Product) product.Product {
	if p.ImageURL != nil {
		u := *p.ImageURL
		p.ImageURL = &u
	}
	return p
}
