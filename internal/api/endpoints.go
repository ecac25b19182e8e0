package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if err := ValidateLogin(creds); err != nil {
		return nil, err
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.Username == "" {
		resp.Username = creds.Username
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, creds Credentials) (*MessageResponse, error) {
	if err := ValidateRegistration(creds); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, creds, &resp); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return &resp, nil
}

// ListInventory returns products matching filters.
func (c *Client) ListInventory(ctx context.Context, filters InventoryFilters) ([]model.Product, error) {
	var products []model.Product
	if err := c.getJSON(ctx, "/inventory", filters.Values(), &products); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return products, nil
}

// CreateInventoryItem adds a product.
func (c *Client) CreateInventoryItem(ctx context.Context, in model.ProductInput) (*ItemResponse, error) {
	if err := ValidateProduct(in, true); err != nil {
		return nil, err
	}
	if in.Description == nil {
		empty := ""
		in.Description = &empty
	}
	var resp ItemResponse
	if err := c.do(ctx, http.MethodPost, "/inventory", nil, in, &resp); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return &resp, nil
}

// UpdateInventoryItem applies a partial update to product id.
func (c *Client) UpdateInventoryItem(ctx context.Context, id string, in model.ProductInput) (*ItemResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := ValidateProduct(in, false); err != nil {
		return nil, err
	}
	var resp ItemResponse
	if err := c.do(ctx, http.MethodPut, "/inventory/"+url.PathEscape(id), nil, in, &resp); err != nil {
		return nil, fmt.Errorf("failed to update inventory item %s: %w", id, err)
	}
	return &resp, nil
}

// DeleteInventoryItem removes product id.
func (c *Client) DeleteInventoryItem(ctx context.Context, id string) (*MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/inventory/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete inventory item %s: %w", id, err)
	}
	return &resp, nil
}

// ListTransactions returns every recorded transaction.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.getJSON(ctx, "/transactions", nil, &txs); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// CreateTransaction records a sale or purchase.
func (c *Client) CreateTransaction(ctx context.Context, in model.TransactionInput) (*TransactionResponse, error) {
	if err := ValidateTransaction(in); err != nil {
		return nil, err
	}
	var resp TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, in, &resp); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return &resp, nil
}

// ListCategories returns categories, optionally including deleted ones.
func (c *Client) ListCategories(ctx context.Context, includeDeleted bool) ([]model.Category, error) {
	var query url.Values
	if includeDeleted {
		query = url.Values{"includeDeleted": []string{"true"}}
	}
	var categories []model.Category
	if err := c.getJSON(ctx, "/categories", query, &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	if err := ValidateCategory(in, true); err != nil {
		return nil, err
	}
	var category model.Category
	if err := c.do(ctx, http.MethodPost, "/categories", nil, in, &category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory applies a partial update to category id.
func (c *Client) UpdateCategory(ctx context.Context, id string, in model.CategoryInput) (*model.Category, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := ValidateCategory(in, false); err != nil {
		return nil, err
	}
	var category model.Category
	if err := c.do(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), nil, in, &category); err != nil {
		return nil, fmt.Errorf("failed to update category %s: %w", id, err)
	}
	return &category, nil
}

// DeleteCategory removes category id.
func (c *Client) DeleteCategory(ctx context.Context, id string) (*MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return &resp, nil
}

// Predict calls GET /predict. Errors are returned unwrapped so callers can
// inspect the *common.APIError status.
func (c *Client) Predict(ctx context.Context, p model.ForecastParams) (*model.ForecastResponse, error) {
	if err := ValidateForecast(p); err != nil {
		return nil, err
	}
	query := url.Values{
		"sku_id":  []string{p.SKUID},
		"date":    []string{p.Date},
		"temp":    []string{strconv.FormatFloat(p.Temp, 'f', -1, 64)},
		"rain":    []string{strconv.FormatFloat(p.Rain, 'f', -1, 64)},
		"holiday": []string{strconv.Itoa(p.Holiday)},
	}
	var resp model.ForecastResponse
	if err := c.getJSON(ctx, "/predict", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExpiryRadar fetches the backend's expiry grouping. days <= 0 uses the
// backend default; an empty category means all categories.
func (c *Client) ExpiryRadar(ctx context.Context, days int, category string) (*ExpiryRadarResponse, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", strconv.Itoa(days))
	}
	if category != "" {
		query.Set("category", category)
	}
	var resp ExpiryRadarResponse
	if err := c.getJSON(ctx, "/expiry-radar", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch expiry radar: %w", err)
	}
	return &resp, nil
}
