package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// PriceScale is the number of fractional digits stored for prices.
	PriceScale = 2
	// PricePrecision is the total number of digits a price may have.
	PricePrecision = 10

	maxNameLen     = 255
	maxCategoryLen = 255
	maxImageURLLen = 255
)

// MaxPrice is the largest price representable as NUMERIC(10,2).
var MaxPrice = decimal.New(1, PricePrecision-PriceScale).Sub(decimal.New(1, -PriceScale))

// ValidationError indicates a draft field violates a catalog invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Draft holds the caller-supplied fields of a product that has not been
// stored yet. Identity and timestamps are assigned by the Repository.
type Draft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    *string
	// Stock defaults to 0.
	Stock int32
}

// Normalize returns a copy with whitespace trimmed, an empty image URL
// turned into nil and the price rounded to PriceScale.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	if d.ImageURL != nil {
		u := strings.TrimSpace(*d.ImageURL)
		if u == "" {
			d.ImageURL = nil
		} else {
			d.ImageURL = &u
		}
	}
	d.Price = d.Price.Round(PriceScale)
	return d
}

// Validate checks the draft against the catalog invariants. It does not
// normalize; call Normalize first.
func (d Draft) Validate() error {
	switch {
	case d.Name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case len(d.Name) > maxNameLen:
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("longer than %d bytes", maxNameLen)}
	case d.Description == "":
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	case len(d.Category) > maxCategoryLen:
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("longer than %d bytes", maxCategoryLen)}
	case d.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case d.Price.GreaterThan(MaxPrice):
		return &ValidationError{Field: "price", Reason: "exceeds " + MaxPrice.StringFixed(PriceScale)}
	case !d.Price.Equal(d.Price.Round(PriceScale)):
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("more than %d decimal places", PriceScale)}
	case d.Stock < 0:
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	case d.ImageURL != nil && len(*d.ImageURL) > maxImageURLLen:
		return &ValidationError{Field: "image_url", Reason: fmt.Sprintf("longer than %d bytes", maxImageURLLen)}
	}
	return nil
}
