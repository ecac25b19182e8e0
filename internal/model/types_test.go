package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "string id", input: `"abc-1"`, want: "abc-1"},
		{name: "numeric id", input: `42`, want: "42"},
		{name: "null id", input: `null`, want: ""},
		{name: "bool id", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	t.Run("naive iso timestamp uses local zone", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-04T10:30:00"`), &ts))
		assert.Equal(t, time.Date(2025, 3, 4, 10, 30, 0, 0, time.Local), ts.Time)
	})

	t.Run("rfc3339 keeps offset", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-04T10:30:00Z"`), &ts))
		assert.True(t, ts.Equal(time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)))
	})

	t.Run("date only", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-04"`), &ts))
		assert.Equal(t, 4, ts.Day())
	})

	t.Run("unix seconds", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`1700000000`), &ts))
		assert.Equal(t, int64(1700000000), ts.Unix())
	})

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}

func TestTransaction_DecodesBackendShape(t *testing.T) {
	raw := `{"id": 7, "product_id": "p1", "product_name": "Milk", "transaction_type": "sale",
		"product_quantity": 3, "total_price": 4.5, "time_of_transaction": "2025-01-02T09:00:00"}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &txn))
	assert.Equal(t, ID("7"), txn.ID)
	assert.True(t, txn.IsSale())
	assert.Equal(t, 3, txn.Quantity)
	assert.InDelta(t, 4.5, txn.TotalPrice, 0.0001)
	assert.Equal(t, 2025, txn.Time.Year())
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StatusStockout, ClassifyStock(50, 10))
	assert.Equal(t, StatusOK, ClassifyStock(20, 20))
	assert.Equal(t, StatusOK, ClassifyStock(10, 20))
	assert.Equal(t, StatusOverstock, ClassifyStock(5, 40))
	assert.Equal(t, StatusOverstock, ClassifyStock(0, 1))
	assert.Equal(t, StatusOK, ClassifyStock(0, 0))
}

func TestActiveCategoryNames(t *testing.T) {
	cats := []Category{
		{Name: "Produce", Status: CategoryActive},
		{Name: "Bakery", Status: CategoryActive},
		{Name: "Old", Status: CategoryDeleted},
	}
	assert.Equal(t, []string{"Bakery", "Produce"}, ActiveCategoryNames(cats))

	inactive := []Category{{Name: "B", Status: CategoryInactive}, {Name: "A", Status: CategoryDeleted}}
	assert.Equal(t, []string{"A", "B"}, ActiveCategoryNames(inactive))
}

func TestProduct_ExpiryDate(t *testing.T) {
	p := Product{Expiry: "2026-12-31"}
	d, ok := p.ExpiryDate(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), d)

	_, ok = Product{}.ExpiryDate(time.UTC)
	assert.False(t, ok)

	_, ok = Product{Expiry: "soon"}.ExpiryDate(time.UTC)
	assert.False(t, ok)
}
