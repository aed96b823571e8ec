// Package app wires the catalog API: store, health checks, handlers,
// middleware and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/mini-shop/db"
	"github.com/xenking/mini-shop/internal/domain/product"
	"github.com/xenking/mini-shop/internal/handler"
	"github.com/xenking/mini-shop/internal/seed"
	"github.com/xenking/mini-shop/internal/storage/memory"
	"github.com/xenking/mini-shop/internal/storage/postgres"
	"github.com/xenking/mini-shop/pkg/health"
	"github.com/xenking/mini-shop/pkg/httpmiddleware"
)

const serviceName = "shop-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("prefix", cfg.PathPrefix),
	)

	products, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	healthSvc := health.New()
	healthSvc.AddReadiness(health.Check{Name: "store", Timeout: 5 * time.Second, Func: health.PingCheck(products)})
	healthSvc.AddLiveness(health.Check{Name: "goroutines", Timeout: time.Second, Func: health.GoroutineCountCheck(10000)})
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	routes, err := NewRoutes(cfg, lg, products, healthSvc, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           routes,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: drop readiness, let balancers notice, then drain.
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	healthSvc.SetReady(true)

	return g.Wait()
}

// OpenStore returns the product store selected by cfg.Storage.Driver and a
// function releasing its resources.
func OpenStore(ctx context.Context, cfg *Config) (product.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		repo := memory.NewProductRepository()
		if cfg.Storage.SeedOnStart {
			items, err := seed.ParseBytes(db.SeedProducts)
			if err != nil {
				return nil, nil, errors.Wrap(err, "parse default catalog")
			}
			if _, err := seed.Run(ctx, repo, items, seed.Options{}); err != nil {
				return nil, nil, errors.Wrap(err, "seed memory store")
			}
		}
		return repo, func() {}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewProductRepository(pool), pool.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewRoutes builds the server handler: health endpoints and the catalog API
// behind the middleware chain.
func NewRoutes(
	cfg *Config,
	lg *zap.Logger,
	products product.Repository,
	healthSvc *health.Service,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, error) {
	h, err := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, products, mp)
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, cfg.PathPrefix)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, routeFinder, tp, mp),
		// Outside Recovery so recovered panics are logged and traced as 500s.
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
	), nil
}
