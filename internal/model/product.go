package model

import (
	"strings"
	"time"
)

// UncategorizedName is used wherever a product has no category.
const UncategorizedName = "Uncategorized"

// Product is the client's read-through copy of a backend inventory record.
type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Expiry      string  `json:"expiry,omitempty"` // "2006-01-02" or full ISO timestamp
	SKUID       string  `json:"skuId,omitempty"`
	Status      string  `json:"status,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// ExpiryDate parses Expiry. The boolean is false when the product has no usable expiry.
func (p Product) ExpiryDate(loc *time.Location) (time.Time, bool) {
	if strings.TrimSpace(p.Expiry) == "" {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(p.Expiry, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CategoryOrDefault returns the product category or UncategorizedName.
func (p Product) CategoryOrDefault() string {
	if p.Category == "" {
		return UncategorizedName
	}
	return p.Category
}

// Value is quantity times unit price.
func (p Product) Value() float64 {
	return float64(p.Quantity) * p.Price
}

// ProductInput is the payload for creating or updating an inventory item.
// Pointer fields are only sent when set, which lets updates be partial.
type ProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Expiry      *string  `json:"expiry,omitempty"`
	Description *string  `json:"description,omitempty"`
}
