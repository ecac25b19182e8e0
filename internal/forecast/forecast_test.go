package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/cache"
	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/model"
	"github.com/Veraticus/amo-inventory/internal/sku"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// fakePredictor answers from a table keyed by SKU. Unknown SKUs get a 404.
type fakePredictor struct {
	predictions map[string]float64
	errs        map[string]error
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *fakePredictor) Predict(ctx context.Context, p model.ForecastParams) (*model.ForecastResponse, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := f.errs[p.SKUID]; ok {
		return nil, err
	}
	if v, ok := f.predictions[p.SKUID]; ok {
		return &model.ForecastResponse{Prediction: v}, nil
	}
	return nil, &common.APIError{Status: http.StatusNotFound, Message: "Model not found"}
}

func params(skus ...string) []model.ForecastParams {
	out := make([]model.ForecastParams, len(skus))
	for i, s := range skus {
		out[i] = model.ForecastParams{SKUID: s, Date: "2025-06-08", Temp: 25}
	}
	return out
}

func TestDefaultParams(t *testing.T) {
	now := time.Date(2025, 12, 28, 15, 0, 0, 0, time.UTC)
	p := DefaultParams("milk-7c8915", now)
	assert.Equal(t, model.ForecastParams{SKUID: "milk-7c8915", Date: "2026-01-04", Temp: 25}, p)
}

func TestPredictDemand_UsesCache(t *testing.T) {
	ctx := context.Background()
	client := &fakePredictor{predictions: map[string]float64{"a": 10}}
	reg := metrics.NewRegistry()
	f := NewForecaster(client, cache.NewForecastCache(storage.NewMemoryStore(), cache.WithMetrics(reg)), reg)

	for i := 0; i < 3; i++ {
		resp, err := f.PredictDemand(ctx, params("a")[0])
		require.NoError(t, err)
		assert.InDelta(t, 10, resp.Prediction, 0.0001)
	}
	assert.Equal(t, int32(1), client.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(reg.ForecastRequests), 0.0001)
	assert.InDelta(t, 2, testutil.ToFloat64(reg.CacheHits), 0.0001)
}

func TestPredictDemand_CacheExpires(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	client := &fakePredictor{predictions: map[string]float64{"a": 10}}
	f := NewForecaster(client, cache.NewForecastCache(nil, cache.WithClock(clock)), nil)

	_, err := f.PredictDemand(ctx, params("a")[0])
	require.NoError(t, err)
	clock.Advance(cache.DefaultTTL)
	_, err = f.PredictDemand(ctx, params("a")[0])
	require.NoError(t, err)

	assert.Equal(t, int32(2), client.calls.Load())
}

func TestPredictDemand_ModelNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"not found", http.StatusNotFound, true},
		{"bad request", http.StatusBadRequest, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := metrics.NewRegistry()
			client := &fakePredictor{errs: map[string]error{
				"a": &common.APIError{Status: tt.status, Message: "nope"},
			}}
			f := NewForecaster(client, nil, reg)

			_, err := f.PredictDemand(context.Background(), params("a")[0])
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.Is(err, common.ErrModelNotFound))

			var mnf *common.ModelNotFoundError
			if tt.want {
				require.ErrorAs(t, err, &mnf)
				assert.Equal(t, "a", mnf.SKUID)
				assert.InDelta(t, 1, testutil.ToFloat64(reg.ForecastFailures.WithLabelValues("model_not_found")), 0.0001)
			}
		})
	}
}

func TestPredictDemand_FailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	client := &fakePredictor{}
	f := NewForecaster(client, cache.NewForecastCache(nil), nil)

	_, err := f.PredictDemand(ctx, params("missing")[0])
	require.Error(t, err)
	_, err = f.PredictDemand(ctx, params("missing")[0])
	require.Error(t, err)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestPredictBatch_ResultCount(t *testing.T) {
	skus := []string{"a", "b", "c", "d", "e", "f", "g"}
	client := &fakePredictor{
		predictions: map[string]float64{"a": 1, "b": 2, "d": 4, "e": 5, "g": 7},
		errs:        map[string]error{"f": errors.New("connection reset")},
	}

	for _, concurrency := range []int{-1, 0, 1, 2, 3, len(skus), len(skus) + 5} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			f := NewForecaster(client, nil, nil)
			results := f.PredictBatch(context.Background(), params(skus...), concurrency)
			require.Len(t, results, len(skus))

			bySKU := make(map[string]BatchResult)
			for _, r := range results {
				bySKU[r.SKUID] = r
			}
			assert.Len(t, bySKU, len(skus), "every input SKU is tagged exactly once")

			assert.True(t, bySKU["a"].OK())
			assert.InDelta(t, 4, bySKU["d"].Result.Prediction, 0.0001)
			assert.Equal(t, NoModelMessage, bySKU["c"].Error)
			assert.Nil(t, bySKU["c"].Result)
			assert.Contains(t, bySKU["f"].Error, "connection reset")
		})
	}
}

func TestPredictBatch_Empty(t *testing.T) {
	f := NewForecaster(&fakePredictor{}, nil, nil)
	assert.Empty(t, f.PredictBatch(context.Background(), nil, 3))
}

func TestPredictBatch_BoundedConcurrency(t *testing.T) {
	preds := make(map[string]float64)
	var skus []string
	for i := 0; i < 12; i++ {
		s := fmt.Sprintf("sku-%d", i)
		skus = append(skus, s)
		preds[s] = float64(i)
	}
	client := &fakePredictor{predictions: preds, delay: 10 * time.Millisecond}
	f := NewForecaster(client, nil, nil)

	results := f.PredictBatch(context.Background(), params(skus...), 3)
	assert.Len(t, results, 12)
	assert.LessOrEqual(t, client.maxInFlight.Load(), int32(3))
}

func TestPredictBatch_Canceled(t *testing.T) {
	client := &fakePredictor{predictions: map[string]float64{"a": 1, "b": 2, "c": 3}}
	f := NewForecaster(client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.PredictBatch(ctx, params("a", "b", "c"), 2)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.OK())
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
	assert.Zero(t, client.calls.Load(), "no requests after cancellation")
}

func TestTopByQuantity(t *testing.T) {
	products := []model.Product{
		{ID: "1", Name: "A", Quantity: 5},
		{ID: "2", Name: "B", Quantity: 50},
		{ID: "3", Name: "C", Quantity: 5},
		{ID: "4", Name: "D", Quantity: 20},
	}

	top := TopByQuantity(products, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"B", "D", "A"}, []string{top[0].Name, top[1].Name, top[2].Name})
	assert.Equal(t, "A", products[0].Name, "input is not reordered")
	assert.Len(t, TopByQuantity(products, 10), 4)
}

func TestBuildPortfolio(t *testing.T) {
	ctx := context.Background()
	resolver := sku.NewResolver(storage.NewMemoryStore(), nil)
	products := []model.Product{
		{ID: "1", Name: "Milk", Quantity: 10, SKUID: "milk"},
		{ID: "2", Name: "Bread", Quantity: 40, SKUID: "bread"},
		{ID: "3", Name: "Eggs", Quantity: 20, SKUID: "eggs"},
		{ID: "4", Name: "Caviar", Quantity: 1},
	}
	client := &fakePredictor{predictions: map[string]float64{"milk": 50, "bread": 5, "eggs": 20}}
	f := NewForecaster(client, nil, nil)

	var mu sync.Mutex
	var progress []int
	rows := f.BuildPortfolio(ctx, resolver, products, PortfolioOptions{
		Params: model.ForecastParams{Date: "2025-06-08", Temp: 25},
		Size:   4,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 4, total)
			progress = append(progress, done)
		},
	})

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Bread", "Eggs", "Milk", "Caviar"},
		[]string{rows[0].Product.Name, rows[1].Product.Name, rows[2].Product.Name, rows[3].Product.Name})

	bread, eggs, milk, caviar := rows[0], rows[1], rows[2], rows[3]
	assert.Equal(t, model.StatusOverstock, bread.Status)
	assert.InDelta(t, -35, bread.Gap, 0.0001)
	assert.Equal(t, model.StatusOK, eggs.Status)
	assert.Equal(t, model.StatusStockout, milk.Status)
	assert.InDelta(t, 40, milk.Gap, 0.0001)

	assert.Equal(t, "caviar-"+sku.ShortHash("Caviar"), caviar.SKUID)
	assert.Equal(t, NoModelMessage, caviar.Error)
	assert.Equal(t, model.StatusOK, caviar.Status)
	assert.Zero(t, caviar.PredictedDemand)

	assert.Equal(t, []int{1, 2, 3, 4}, progress)
}

func TestBuildPortfolio_DefaultSize(t *testing.T) {
	var products []model.Product
	preds := make(map[string]float64)
	for i := 0; i < 15; i++ {
		key := fmt.Sprintf("p%d", i)
		products = append(products, model.Product{ID: model.ID(key), Name: key, Quantity: i, SKUID: key})
		preds[key] = 1
	}
	f := NewForecaster(&fakePredictor{predictions: preds}, nil, nil)

	rows := f.BuildPortfolio(context.Background(), sku.NewResolver(nil, nil), products, PortfolioOptions{
		Params: model.ForecastParams{Date: "2025-06-08"},
	})
	assert.Len(t, rows, DefaultPortfolioSize)
	assert.Equal(t, 14, rows[0].Product.Quantity)
}
