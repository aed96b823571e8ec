// Package seed fills the catalog with demo products.
package seed

import (
	"context"
	"net/url"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"syreclabs.com/go/faker"

	"github.com/xenking/mini-shop/internal/domain/product"
)

const (
	minPriceCents = 10_00
	maxPriceCents = 500_00
	maxStock      = 100

	placeholderImage = "https://via.placeholder.com/640x480.png?text="
)

// Item is a catalog entry from a seed file. Price, Stock and ImageURL are
// sampled when absent.
type Item struct {
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int32           `json:"stock,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
}

// Sampler fills in the missing fields of an Item. Values come from faker's
// package-level generator, so all Samplers share one random sequence. It is
// safe for concurrent use.
type Sampler struct{}

var fakerMu sync.Mutex

// NewSampler returns a Sampler drawing from the current faker sequence.
func NewSampler() *Sampler {
	return &Sampler{}
}

// NewSeededSampler reseeds faker so that the draws that follow are the same
// for the same seed.
func NewSeededSampler(seed int64) *Sampler {
	fakerMu.Lock()
	defer fakerMu.Unlock()
	faker.Seed(seed)
	return &Sampler{}
}

func (s *Sampler) between(lo, hi int) int {
	fakerMu.Lock()
	defer fakerMu.Unlock()
	return faker.RandomInt(lo, hi)
}

// Price returns a price in [10.00, 500.00] with two decimals.
func (s *Sampler) Price() decimal.Decimal {
	cents := s.between(minPriceCents, maxPriceCents)
	return decimal.New(int64(cents), -product.PriceScale)
}

// Stock returns a stock count in [0, 100].
func (s *Sampler) Stock() int32 {
	return int32(s.between(0, maxStock))
}

// ImageURL returns a placeholder picture labelled with the product name.
func ImageURL(name string) string {
	return placeholderImage + url.QueryEscape(name)
}

// Draft turns it into a product draft, sampling whatever it leaves out.
func (s *Sampler) Draft(it Item) product.Draft {
	d := product.Draft{
		Name:        it.Name,
		Description: it.Description,
		Category:    it.Category,
	}
	if it.Price != nil {
		d.Price = *it.Price
	} else {
		d.Price = s.Price()
	}
	if it.Stock != nil {
		d.Stock = *it.Stock
	} else {
		d.Stock = s.Stock()
	}
	if it.ImageURL != nil {
		u := *it.ImageURL
		d.ImageURL = &u
	} else {
		u := ImageURL(it.Name)
		d.ImageURL = &u
	}
	return d
}

// Options configures Run.
type Options struct {
	Sampler *Sampler
	// Concurrency bounds parallel inserts. Values below 2 insert sequentially,
	// which keeps ids in file order.
	Concurrency int
}

// Run validates every item, then creates them in repo. Nothing is inserted
// when any item is invalid. Results are returned in item order.
func Run(ctx context.Context, repo product.Repository, items []Item, opts Options) ([]product.Product, error) {
	sampler := opts.Sampler
	if sampler == nil {
		sampler = NewSampler()
	}

	drafts := make([]product.Draft, len(items))
	for i, it := range items {
		d := sampler.Draft(it).Normalize()
		if err := d.Validate(); err != nil {
			return nil, errors.Wrapf(err, "item %d (%q)", i, it.Name)
		}
		drafts[i] = d
	}

	lg := zctx.From(ctx)
	created := make([]product.Product, len(drafts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, d := range drafts {
		g.Go(func() error {
			p, err := repo.Create(gCtx, d)
			if err != nil {
				return errors.Wrapf(err, "create %q", d.Name)
			}
			created[i] = p
			lg.Debug("Seeded product",
				zap.Int64("id", p.ID),
				zap.String("name", p.Name),
				zap.String("price", p.Price.StringFixed(product.PriceScale)),
				zap.Int32("stock", p.Stock),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lg.Info("Seeded catalog", zap.Int("products", len(created)))
	return created, nil
}
