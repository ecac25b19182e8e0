package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cache"
	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/config"
	"github.com/Veraticus/amo-inventory/internal/forecast"
	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/model"
	"github.com/Veraticus/amo-inventory/internal/session"
	"github.com/Veraticus/amo-inventory/internal/sku"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// app wires the client's components for a single command invocation.
type app struct {
	cfg        *config.Config
	store      storage.Store
	metrics    *metrics.Registry
	client     *api.Client
	sessions   *session.Manager
	cache      *cache.Cache[model.ForecastResponse]
	skus       *sku.Resolver
	forecaster *forecast.Forecaster
	metricsSrv *http.Server
	now        func() time.Time
}

func (o *rootOptions) newApp(ctx context.Context) (*app, error) {
	if o.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	store, err := storage.Open(ctx, o.cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	reg := metrics.NewRegistry()
	sessions := session.NewManager(store, nil)

	token := o.cfg.API.Token
	if token == "" {
		s, err := sessions.Load(ctx)
		switch {
		case err == nil:
			token = s.Token
		case !errors.Is(err, session.ErrNoSession):
			slog.Warn("Failed to load session", "error", err)
		}
	}

	client, err := api.NewClient(o.cfg.API.BaseURL,
		api.WithTimeout(o.cfg.API.Timeout),
		api.WithRateLimit(o.cfg.API.RateLimit),
		api.WithToken(token))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	forecastCache := cache.NewForecastCache(store,
		cache.WithTTL(o.cfg.Cache.TTL),
		cache.WithMetrics(reg))

	a := &app{
		cfg:        o.cfg,
		store:      store,
		metrics:    reg,
		client:     client,
		sessions:   sessions,
		cache:      forecastCache,
		skus:       sku.NewResolver(store, reg),
		forecaster: forecast.NewForecaster(client, forecastCache, reg),
		now:        o.now,
	}
	if o.cfg.Metrics.Addr != "" {
		a.serveMetrics(o.cfg.Metrics.Addr)
	}
	return a, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Metrics server stopped", "error", err)
		}
	}()
}

// Close releases the store and stops the metrics server.
func (a *app) Close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		common.LogError(err, "Failed to close local store", common.Fields{"backend": a.cfg.Storage.Backend})
	}
}

// withApp runs fn with a fully wired app and closes it afterwards.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := o.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
