package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	// ImageURL is nil when the product has no picture.
	ImageURL  *string
	Stock     int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines the catalog store. Products are only ever created by
// seeding; the HTTP surface is read-only.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Find(ctx context.Context, id int64) (Lookup, error)
	Create(ctx context.Context, d Draft) (Product, error)
	Ping(ctx context.Context) error
}

// Lookup is the result of a lookup by id: either Found(Product) or NotFound.
// The zero value is NotFound.
type Lookup struct {
	product Product
	found   bool
}

// Found wraps an existing product.
func Found(p Product) Lookup {
	return Lookup{product: p, found: true}
}

// NotFound is the lookup result for an unknown id.
func NotFound() Lookup {
	return Lookup{}
}

// Product returns the found product, or ErrNotFound.
func (l Lookup) Product() (Product, error) {
	if !l.found {
		return Product{}, ErrNotFound
	}
	return l.product, nil
}
