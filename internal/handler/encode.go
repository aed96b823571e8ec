package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/mini-shop/internal/domain/product"
)

// timestampLayout renders timestamps in UTC with microsecond precision.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// encodeProduct writes p as a JSON object. Prices are emitted as numbers
// with exactly two decimals.
func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()

	e.FieldStart("id")
	e.Int64(p.ID)

	e.FieldStart("name")
	e.Str(p.Name)

	e.FieldStart("description")
	e.Str(p.Description)

	e.FieldStart("price")
	e.Num(jx.Num(p.Price.StringFixed(product.PriceScale)))

	e.FieldStart("category")
	e.Str(p.Category)

	e.FieldStart("image_url")
	if p.ImageURL != nil {
		e.Str(h.imageURL(*p.ImageURL))
	} else {
		e.Null()
	}

	e.FieldStart("stock")
	e.Int32(p.Stock)

	e.FieldStart("created_at")
	e.Str(p.CreatedAt.UTC().Format(timestampLayout))

	e.FieldStart("updated_at")
	e.Str(p.UpdatedAt.UTC().Format(timestampLayout))

	e.ObjEnd()
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(u string) string {
	if h.imageBaseURL == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(u, "/")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Bytes())))
	w.WriteHeader(status)
	// Status is already written; a failed write means the client went away.
	_, _ = w.Write(e.Bytes())
}
