package api

import (
	"net/url"
	"strconv"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// Credentials are sent to /auth/login and /auth/register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// MessageResponse is the backend's generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ItemResponse is returned by inventory writes.
type ItemResponse struct {
	Message string        `json:"message"`
	Item    model.Product `json:"item"`
}

// TransactionResponse is returned when a transaction is recorded.
type TransactionResponse struct {
	Message     string            `json:"message"`
	Transaction model.Transaction `json:"transaction"`
	TotalPrice  float64           `json:"total_price"`
}

// InventoryFilters narrow GET /inventory. Zero values are not sent.
type InventoryFilters struct {
	MinQty         *int
	MaxQty         *int
	MinPrice       *float64
	MaxPrice       *float64
	Search         string
	Category       string
	ExpiryFrom     string
	ExpiryTo       string
	IncludeDeleted bool
}

// Values encodes the filters as query parameters.
func (f InventoryFilters) Values() url.Values {
	q := url.Values{}
	setString := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	setString("search", f.Search)
	setString("category", f.Category)
	if f.MinQty != nil {
		q.Set("minQty", strconv.Itoa(*f.MinQty))
	}
	if f.MaxQty != nil {
		q.Set("maxQty", strconv.Itoa(*f.MaxQty))
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	setString("expiryFrom", f.ExpiryFrom)
	setString("expiryTo", f.ExpiryTo)
	if f.IncludeDeleted {
		q.Set("includeDeleted", "true")
	}
	return q
}

// ExpiryItem is a product annotated by the backend's expiry radar.
type ExpiryItem struct {
	model.Product
	ExpiryStatus string `json:"expiryStatus"`
	DaysToExpiry int    `json:"daysToExpiry"`
}

// ExpiryCounts summarises an ExpiryRadarResponse.
type ExpiryCounts struct {
	Total        int `json:"total"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiringSoon"`
	Safe         int `json:"safe"`
}

// ExpiryRadarResponse groups products by backend-computed expiry status.
type ExpiryRadarResponse struct {
	Expired      []ExpiryItem `json:"expired"`
	ExpiringSoon []ExpiryItem `json:"expiringSoon"`
	Safe         []ExpiryItem `json:"safe"`
	Counts       ExpiryCounts `json:"counts"`
}
