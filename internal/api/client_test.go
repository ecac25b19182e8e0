package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/model"
)

func fastRetry() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client()), WithRetryOptions(fastRetry())}, opts...)
	client, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient("not a url")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestClient_Headers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get(requestIDHeader))
		assert.NoError(t, err, "request ID should be a UUID")
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writeJSON(t, w, http.StatusOK, []model.Transaction{})
	}, WithToken("secret"))

	txs, err := client.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, []model.Category{})
	})

	_, err := client.ListCategories(context.Background(), false)
	require.NoError(t, err)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		status  int
		wantErr error
	}{
		{name: "error field", status: http.StatusConflict, body: `{"error":"Item already exists"}`, want: "Item already exists"},
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"Bad quantity"}`, want: "Bad quantity"},
		{name: "error wins over message", status: http.StatusBadRequest, body: `{"error":"A","message":"B"}`, want: "A"},
		{name: "no message", status: http.StatusForbidden, body: `{"detail":"nope"}`, want: "Request failed"},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Unexpected server response"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"msg":"Token has expired"}`, want: "Request failed", wantErr: common.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.DeleteInventoryItem(context.Background(), "7")
			require.Error(t, err)

			var apiErr *common.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsUnauthorized(err))
			}
		})
	}
}

func TestClient_RetriesServerErrorsOnReads(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(t, w, http.StatusServiceUnavailable, map[string]string{"error": "warming up"})
			return
		}
		writeJSON(t, w, http.StatusOK, []model.Product{{ID: "1", Name: "Milk", Quantity: 4}})
	})

	products, err := client.ListInventory(context.Background(), InventoryFilters{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "no model"})
	})

	_, err := client.Predict(context.Background(), model.ForecastParams{SKUID: "milk-7c8915", Date: "2025-06-08", Temp: 25})
	var apiErr *common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	_, err := client.CreateTransaction(context.Background(), model.TransactionInput{
		ProductName: "Milk", Type: model.TransactionSale, Quantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Predict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "milk-7c8915", q.Get("sku_id"))
		assert.Equal(t, "2025-06-08", q.Get("date"))
		assert.Equal(t, "18.5", q.Get("temp"))
		assert.Equal(t, "0", q.Get("rain"))
		assert.Equal(t, "1", q.Get("holiday"))
		writeJSON(t, w, http.StatusOK, map[string]float64{"prediction": 12.75})
	})

	resp, err := client.Predict(context.Background(), model.ForecastParams{
		SKUID: "milk-7c8915", Date: "2025-06-08", Temp: 18.5, Holiday: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.75, resp.Prediction, 0.0001)
}

func TestClient_ListInventoryFilters(t *testing.T) {
	minQty := 0
	maxPrice := 9.99
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "milk", q.Get("search"))
		assert.Equal(t, "0", q.Get("minQty"))
		assert.Equal(t, "9.99", q.Get("maxPrice"))
		assert.Equal(t, "true", q.Get("includeDeleted"))
		assert.False(t, q.Has("category"))
		assert.False(t, q.Has("maxQty"))
		writeJSON(t, w, http.StatusOK, []model.Product{})
	})

	_, err := client.ListInventory(context.Background(), InventoryFilters{
		Search:         "milk",
		MinQty:         &minQty,
		MaxPrice:       &maxPrice,
		IncludeDeleted: true,
	})
	require.NoError(t, err)
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, Credentials{Username: "alice", Password: "hunter22"}, creds)
		writeJSON(t, w, http.StatusOK, map[string]string{"access_token": "tok"})
	})

	resp, err := client.Login(context.Background(), Credentials{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, "alice", resp.Username, "falls back to the submitted username")
}

func TestClient_CreateInventoryItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Milk", body["name"])
		assert.Equal(t, "", body["description"])
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"message": "created",
			"item":    map[string]any{"id": 12, "name": "Milk", "quantity": 3, "price": 1.5},
		})
	})

	name, category, expiry := "Milk", "Dairy", "2025-07-01"
	qty, price := 3, 1.5
	resp, err := client.CreateInventoryItem(context.Background(), model.ProductInput{
		Name: &name, Category: &category, Expiry: &expiry, Quantity: &qty, Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ID("12"), resp.Item.ID)
}

func TestClient_ValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	_, err := client.CreateTransaction(ctx, model.TransactionInput{ProductName: "Milk", Type: "gift", Quantity: 0})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = client.CreateInventoryItem(ctx, model.ProductInput{})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = client.Predict(ctx, model.ForecastParams{SKUID: "x", Date: "next week"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = client.DeleteCategory(ctx, " ")
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Zero(t, calls.Load())
}

func TestClient_ExpiryRadar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		assert.Equal(t, "Dairy", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{
			"expired": [{"id": "1", "name": "Milk", "category": "Dairy", "quantity": 2, "price": 1, "expiry": "2025-05-01", "daysToExpiry": -3, "expiryStatus": "expired"}],
			"expiringSoon": [],
			"safe": [],
			"counts": {"total": 1, "expired": 1, "expiringSoon": 0, "safe": 0}
		}`))
	})

	resp, err := client.ExpiryRadar(context.Background(), 14, "Dairy")
	require.NoError(t, err)
	require.Len(t, resp.Expired, 1)
	assert.Equal(t, "Milk", resp.Expired[0].Name)
	assert.Equal(t, -3, resp.Expired[0].DaysToExpiry)
	assert.Equal(t, 1, resp.Counts.Expired)
}

func TestClient_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, []model.Product{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListInventory(ctx, InventoryFilters{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
