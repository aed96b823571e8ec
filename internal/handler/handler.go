package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/mini-shop/internal/domain/product"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler serves the read-only catalog API on top of a product.Repository.
type Handler struct {
	products     product.Repository
	imageBaseURL string
	lookups      metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, products product.Repository, mp metric.MeterProvider) (*Handler, error) {
	lookups, err := mp.Meter("github.com/xenking/mini-shop/internal/handler").Int64Counter(
		"catalog.product.lookups",
		metric.WithDescription("Single product lookups by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create lookups counter")
	}

	return &Handler{
		products:     products,
		imageBaseURL: cfg.ImageBaseURL,
		lookups:      lookups,
	}, nil
}

// Register mounts the catalog routes on mux under prefix (e.g. "/api" or "").
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/products", h.ListProducts)
	mux.HandleFunc("GET "+prefix+"/products/{id}", h.GetProduct)
	mux.HandleFunc("GET "+prefix+"/test", h.Status)
}
