package main

import (
	"context"
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/mini-shop/db"
	"github.com/xenking/mini-shop/internal/seed"
	"github.com/xenking/mini-shop/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ProductsFile string `default:"" usage:"Catalog JSON file, optionally .gz; the built-in catalog when empty" flag:"products-file"`
	Seed         int64  `default:"0" usage:"Random seed for prices and stock; 0 picks a random one" flag:"seed"`
	Concurrency  int    `default:"1" usage:"Parallel inserts; 1 keeps ids in file order" flag:"concurrency"`
}

func loadConfig(args []string) (*config, error) {
	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        "SHOP",
		AllowUnknownEnvs: true,
		SkipFiles:        true,
		Args:             args,
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
	}
	return &cfg, nil
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := loadConfig(os.Args[1:])
		if err != nil {
			return err
		}
		return run(zctx.Base(ctx, lg), cfg)
	})
}

func run(ctx context.Context, cfg *config) error {
	lg := zctx.From(ctx)

	items, err := loadItems(cfg.ProductsFile)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	sampler := seed.NewSampler()
	if cfg.Seed != 0 {
		sampler = seed.NewSeededSampler(cfg.Seed)
	}

	lg.Info("Seeding products", zap.Int("count", len(items)), zap.Int("concurrency", cfg.Concurrency))
	if _, err := seed.Run(ctx, postgres.NewProductRepository(pool), items, seed.Options{
		Sampler:     sampler,
		Concurrency: cfg.Concurrency,
	}); err != nil {
		return errors.Wrap(err, "seed products")
	}

	lg.Info("Seed completed")
	return nil
}

func loadItems(path string) ([]seed.Item, error) {
	if path == "" {
		return seed.ParseBytes(db.SeedProducts)
	}
	return seed.LoadFile(path)
}
