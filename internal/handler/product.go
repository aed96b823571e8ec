package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/mini-shop/internal/domain/product"
)

const (
	msgNotFound  = "Product not found"
	msgInvalidID = "Invalid product id"
	msgServer    = "Server Error"
)

var (
	resultFound    = metric.WithAttributes(attribute.String("result", "found"))
	resultNotFound = metric.WithAttributes(attribute.String("result", "not_found"))
	resultInvalid  = metric.WithAttributes(attribute.String("result", "invalid"))
)

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.products.List(ctx)
	if err != nil {
		zctx.From(ctx).Error("List products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServer)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			h.encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

// GetProduct returns a single product by ID. Non-numeric ids are rejected
// with 400; numeric ids without a matching row yield 404.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.lookups.Add(ctx, 1, resultInvalid)
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	lookup, err := h.products.Find(ctx, id)
	if err != nil {
		zctx.From(ctx).Error("Get product", zap.Int64("product_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServer)
		return
	}

	p, err := lookup.Product()
	if errors.Is(err, product.ErrNotFound) {
		h.lookups.Add(ctx, 1, resultNotFound)
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	h.lookups.Add(ctx, 1, resultFound)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

// Status reports that the API is up.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("React Mini Shop API is running!") })
			e.Field("status", func(e *jx.Encoder) { e.Str("success") })
		})
	})
}
