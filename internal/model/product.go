package model

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a pottery piece in the catalogue.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	CategoryID  string          `json:"categoryId" db:"category_id"`
	Dimensions  Dimensions      `json:"dimensions"`
	Colors      []string        `json:"colors" db:"colors"`
	ImageURL    string          `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Dimensions holds the optional physical measurements of a product.
// Lengths are in centimetres, weight in grams.
type Dimensions struct {
	Height   *float64 `json:"height,omitempty" db:"height"`
	Width    *float64 `json:"width,omitempty" db:"width"`
	Depth    *float64 `json:"depth,omitempty" db:"depth"`
	Diameter *float64 `json:"diameter,omitempty" db:"diameter"`
	Weight   *float64 `json:"weight,omitempty" db:"weight"`
}

// ProductFilter narrows a catalogue listing.
type ProductFilter struct {
	CategoryID string
	Search     string
	Limit      int
	Offset     int
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"categoryId"`
	Dimensions  Dimensions      `json:"dimensions"`
	Colors      []string        `json:"colors"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// Validate checks the request fields that do not need the database.
func (r *ProductRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	if r.Price.IsNegative() {
		return NewValidationError("price", "price cannot be negative")
	}
	if r.Price.Exponent() < -2 && !r.Price.Equal(r.Price.Round(2)) {
		return NewValidationError("price", "price cannot have more than two decimal places")
	}
	if r.Stock < 0 {
		return NewValidationError("stock", "stock cannot be negative")
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return NewValidationError("categoryId", "categoryId is required")
	}

	dims := []struct {
		field string
		value *float64
	}{
		{"height", r.Dimensions.Height},
		{"width", r.Dimensions.Width},
		{"depth", r.Dimensions.Depth},
		{"diameter", r.Dimensions.Diameter},
		{"weight", r.Dimensions.Weight},
	}
	for _, d := range dims {
		if d.value == nil {
			continue
		}
		if math.IsNaN(*d.value) || math.IsInf(*d.value, 0) {
			return NewValidationError(d.field, "%s must be a finite number", d.field)
		}
		if *d.value < 0 {
			return NewValidationError(d.field, "%s cannot be negative", d.field)
		}
	}

	return nil
}
