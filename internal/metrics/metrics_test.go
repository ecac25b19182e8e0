package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.CacheHits.Inc()
	r.CacheHits.Inc()
	r.StorageError("cache", "persist")

	assert.InDelta(t, 2, testutil.ToFloat64(r.CacheHits), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(r.StorageErrors.WithLabelValues("cache", "persist")), 0.001)
}

func TestRegistry_NilStorageErrorIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() { r.StorageError("sku", "save") })
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.ForecastRequests.Inc()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "amo_forecast_requests_total 1")
}

func TestRegistry_GathererIsPrivate(t *testing.T) {
	r := NewRegistry()
	r.CacheMisses.Inc()

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "amo_forecast_cache_misses_total")
	assert.NotContains(t, names, "go_goroutines")
}
