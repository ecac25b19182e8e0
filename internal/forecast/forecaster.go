// Package forecast requests demand predictions from the backend, caching
// results and fanning batches out over a bounded worker pool.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/amo-inventory/internal/cache"
	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/model"
)

// Default forecast inputs.
const (
	DefaultHorizonDays = 7
	DefaultTemp        = 25.0
	DefaultRain        = 0.0
	DefaultHoliday     = 0
	DefaultConcurrency = 3
)

const dateLayout = "2006-01-02"

// Predictor performs a single uncached prediction. *api.Client implements it.
type Predictor interface {
	Predict(ctx context.Context, p model.ForecastParams) (*model.ForecastResponse, error)
}

// Forecaster serves predictions through the forecast cache.
type Forecaster struct {
	client  Predictor
	cache   *cache.Cache[model.ForecastResponse]
	metrics *metrics.Registry
}

// NewForecaster creates a Forecaster. A nil cache disables caching.
func NewForecaster(client Predictor, c *cache.Cache[model.ForecastResponse], m *metrics.Registry) *Forecaster {
	return &Forecaster{client: client, cache: c, metrics: m}
}

// DefaultParams returns the default inputs for skuID: one week out, 25 degrees,
// no rain, not a holiday.
func DefaultParams(skuID string, now time.Time) model.ForecastParams {
	return model.ForecastParams{
		SKUID:   skuID,
		Date:    now.AddDate(0, 0, DefaultHorizonDays).Format(dateLayout),
		Temp:    DefaultTemp,
		Rain:    DefaultRain,
		Holiday: DefaultHoliday,
	}
}

// PredictDemand returns the predicted demand for p, from cache when possible.
// A 404 or 400 from the backend becomes a *common.ModelNotFoundError.
func (f *Forecaster) PredictDemand(ctx context.Context, p model.ForecastParams) (*model.ForecastResponse, error) {
	key := cache.ForecastKey(p)
	if f.cache != nil {
		if cached, ok := f.cache.Get(ctx, key); ok {
			return &cached, nil
		}
	}

	start := time.Now()
	if f.metrics != nil {
		f.metrics.ForecastRequests.Inc()
	}
	resp, err := f.client.Predict(ctx, p)
	if f.metrics != nil {
		f.metrics.ForecastLatencySec.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		err = classifyError(p.SKUID, err)
		f.recordFailure(err)
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(ctx, key, *resp)
	}
	return resp, nil
}

func classifyError(skuID string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
		return &common.ModelNotFoundError{SKUID: skuID, Err: err}
	}
	return fmt.Errorf("prediction for %s failed: %w", skuID, err)
}

func (f *Forecaster) recordFailure(err error) {
	if f.metrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, common.ErrModelNotFound):
		reason = "model_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "canceled"
	case errors.Is(err, common.ErrValidation):
		reason = "validation"
	}
	f.metrics.ForecastFailures.WithLabelValues(reason).Inc()
	slog.Debug("Prediction failed", "reason", reason, "error", err)
}
