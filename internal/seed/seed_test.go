package seed

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/mini-shop/db"
	"github.com/xenking/mini-shop/internal/domain/product"
	"github.com/xenking/mini-shop/internal/storage/memory"
)

type failingRepo struct {
	*memory.ProductRepository
	failOn string
}

func (r *failingRepo) Create(ctx context.Context, d product.Draft) (product.Product, error) {
	if d.Name == r.failOn {
		return product.Product{}, errors.New("insert failed")
	}
	return r.ProductRepository.Create(ctx, d)
}

func TestDefaultCatalog(t *testing.T) {
	items, err := ParseBytes(db.SeedProducts)
	require.NoError(t, err)
	require.Len(t, items, 30)

	perCategory := map[string]int{}
	for _, it := range items {
		perCategory[it.Category]++
		assert.NotEmpty(t, it.Name)
		assert.NotEmpty(t, it.Description)
		assert.Nil(t, it.Price, "default catalog prices are sampled")
	}
	assert.Equal(t, map[string]int{
		"Electronics":   5,
		"Clothing":      5,
		"Books":         5,
		"Home & Garden": 5,
		"Sports":        5,
		"Toys":          5,
	}, perCategory)
}

func TestSamplerRanges(t *testing.T) {
	s := NewSeededSampler(42)
	lo, hi := decimal.RequireFromString("10.00"), decimal.RequireFromString("500.00")

	for range 1000 {
		p := s.Price()
		assert.True(t, p.GreaterThanOrEqual(lo) && p.LessThanOrEqual(hi), "price %s", p)
		assert.True(t, p.Equal(p.Round(2)), "price %s has two decimals", p)

		st := s.Stock()
		assert.GreaterOrEqual(t, st, int32(0))
		assert.LessOrEqual(t, st, int32(100))
	}
}

func TestSamplerReproducible(t *testing.T) {
	draw := func(seed int64) []string {
		s := NewSeededSampler(seed)
		var out []string
		for range 20 {
			out = append(out, s.Price().StringFixed(2), strconv.Itoa(int(s.Stock())))
		}
		return out
	}

	assert.Equal(t, draw(7), draw(7))
	assert.NotEqual(t, draw(7), draw(8))
}

func TestRun_SeededReproducible(t *testing.T) {
	items, err := ParseBytes(db.SeedProducts)
	require.NoError(t, err)

	run := func() []product.Product {
		created, err := Run(context.Background(), memory.NewProductRepository(), items, Options{Sampler: NewSeededSampler(2025)})
		require.NoError(t, err)
		return created
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Price.StringFixed(2), second[i].Price.StringFixed(2))
		assert.Equal(t, first[i].Stock, second[i].Stock)
	}
}

func TestSamplerUnseeded(t *testing.T) {
	s := NewSampler()
	p := s.Price()
	assert.False(t, p.IsNegative())
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://via.placeholder.com/640x480.png?text=Plant+Pot+Set", ImageURL("Plant Pot Set"))
	assert.Equal(t, "https://via.placeholder.com/640x480.png?text=USB-C+Hub", ImageURL("USB-C Hub"))
	assert.Equal(t, "https://via.placeholder.com/640x480.png?text=Tom+%26+Jerry", ImageURL("Tom & Jerry"))
}

func TestSamplerDraft(t *testing.T) {
	s := NewSeededSampler(1)

	t.Run("sampled", func(t *testing.T) {
		d := s.Draft(Item{Name: "Yoga Mat", Category: "Sports", Description: "Non-slip yoga mat."})
		require.NotNil(t, d.ImageURL)
		assert.Equal(t, ImageURL("Yoga Mat"), *d.ImageURL)
		assert.NoError(t, d.Validate())
	})

	t.Run("explicit values win", func(t *testing.T) {
		price := decimal.RequireFromString("19.99")
		stock := int32(50)
		image := "images/yoga.png"

		d := s.Draft(Item{
			Name: "Yoga Mat", Category: "Sports", Description: "Non-slip yoga mat.",
			Price: &price, Stock: &stock, ImageURL: &image,
		})
		assert.Equal(t, "19.99", d.Price.StringFixed(2))
		assert.Equal(t, int32(50), d.Stock)
		assert.Equal(t, "images/yoga.png", *d.ImageURL)
	})
}

func TestRun_Sequential(t *testing.T) {
	items, err := ParseBytes(db.SeedProducts)
	require.NoError(t, err)

	repo := memory.NewProductRepository()
	ctx := context.Background()

	created, err := Run(ctx, repo, items, Options{Sampler: NewSeededSampler(3)})
	require.NoError(t, err)
	require.Len(t, created, 30)

	for i, p := range created {
		assert.Equal(t, int64(i+1), p.ID, "sequential seeding keeps file order")
		assert.Equal(t, items[i].Name, p.Name)
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, listed)
}

func TestRun_Concurrent(t *testing.T) {
	items, err := ParseBytes(db.SeedProducts)
	require.NoError(t, err)

	repo := memory.NewProductRepository()
	created, err := Run(context.Background(), repo, items, Options{Concurrency: 8})
	require.NoError(t, err)
	require.Len(t, created, 30)

	ids := map[int64]bool{}
	for i, p := range created {
		assert.Equal(t, items[i].Name, p.Name, "results follow item order")
		ids[p.ID] = true
	}
	assert.Len(t, ids, 30)
}

func TestRun_InvalidItemInsertsNothing(t *testing.T) {
	repo := memory.NewProductRepository()
	items := []Item{
		{Name: "Board Game", Category: "Toys", Description: "Strategy board game."},
		{Name: "", Category: "Toys", Description: "Nameless."},
	}

	_, err := Run(context.Background(), repo, items, Options{})

	var vErr *product.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "name", vErr.Field)

	listed, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRun_StoreError(t *testing.T) {
	repo := &failingRepo{ProductRepository: memory.NewProductRepository(), failOn: "RC Car"}
	items := []Item{
		{Name: "Puzzle Game", Category: "Toys", Description: "1000-piece jigsaw puzzle."},
		{Name: "RC Car", Category: "Toys", Description: "Remote control racing car."},
	}

	_, err := Run(context.Background(), repo, items, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create "RC Car"`)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(plain, db.SeedProducts, 0o600))

	compressed := filepath.Join(dir, "products.json.gz")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write(db.SeedProducts)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	fromPlain, err := LoadFile(plain)
	require.NoError(t, err)
	fromGzip, err := LoadFile(compressed)
	require.NoError(t, err)

	assert.Len(t, fromPlain, 30)
	assert.Equal(t, fromPlain, fromGzip)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"name":"x","colour":"red"}]`), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "parse")
}
