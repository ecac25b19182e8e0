// Package metrics exposes prometheus counters for the client's caches and forecast calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private prometheus registry and the counters the client updates.
type Registry struct {
	reg *prometheus.Registry

	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CachePromotions    prometheus.Counter
	StorageErrors      *prometheus.CounterVec
	ForecastRequests   prometheus.Counter
	ForecastFailures   *prometheus.CounterVec
	ForecastLatencySec prometheus.Histogram
	SKUsDerived        prometheus.Counter
}

// NewRegistry creates a registry with all counters registered.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amo_forecast_cache_hits_total",
		Help: "Forecast cache lookups served from memory or durable storage.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amo_forecast_cache_misses_total",
		Help: "Forecast cache lookups that found no live entry.",
	})
	promotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amo_forecast_cache_promotions_total",
		Help: "Durable cache hits copied into memory.",
	})
	storageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amo_storage_errors_total",
		Help: "Swallowed durable storage failures by component and operation.",
	}, []string{"component", "op"})
	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amo_forecast_requests_total",
		Help: "Prediction requests sent to the backend.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amo_forecast_failures_total",
		Help: "Failed prediction requests by reason.",
	}, []string{"reason"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amo_forecast_latency_seconds",
		Help:    "Backend prediction latency.",
		Buckets: prometheus.DefBuckets,
	})
	derived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amo_sku_derived_total",
		Help: "SKU keys derived from product names.",
	})

	r.MustRegister(hits, misses, promotions, storageErrors, requests, failures, latency, derived)
	return &Registry{
		reg:                r,
		CacheHits:          hits,
		CacheMisses:        misses,
		CachePromotions:    promotions,
		StorageErrors:      storageErrors,
		ForecastRequests:   requests,
		ForecastFailures:   failures,
		ForecastLatencySec: latency,
		SKUsDerived:        derived,
	}
}

// Gatherer exposes the underlying registry, mostly for tests and `amo cache stats`.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// StorageError records a swallowed storage failure.
func (r *Registry) StorageError(component, op string) {
	if r == nil {
		return
	}
	r.StorageErrors.WithLabelValues(component, op).Inc()
}
