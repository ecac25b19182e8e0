package forecast

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/model"
)

// NoModelMessage is reported for SKUs the backend has no model for.
const NoModelMessage = "No model available"

// BatchResult is the outcome of one prediction in a batch. Exactly one of
// Result and Error is set.
type BatchResult struct {
	Result *model.ForecastResponse `json:"result,omitempty"`
	SKUID  string                  `json:"skuId"`
	Error  string                  `json:"error,omitempty"`
}

// OK reports whether the prediction succeeded.
func (r BatchResult) OK() bool {
	return r.Error == "" && r.Result != nil
}

// PredictBatch predicts every entry of params using at most concurrency
// workers. It always returns len(params) results, in no particular order.
// Failures never abort the batch. Once ctx is done, remaining entries are
// recorded with the context error instead of being sent.
func (f *Forecaster) PredictBatch(ctx context.Context, params []model.ForecastParams, concurrency int) []BatchResult {
	return f.runBatch(ctx, params, concurrency, nil)
}

func (f *Forecaster) runBatch(
	ctx context.Context,
	params []model.ForecastParams,
	concurrency int,
	onResult func(BatchResult),
) []BatchResult {
	if len(params) == 0 {
		return []BatchResult{}
	}

	workers := max(1, min(concurrency, len(params)))

	// Create work channel
	workChan := make(chan model.ForecastParams, len(params))
	for _, p := range params {
		workChan <- p
	}
	close(workChan)

	resultsChan := make(chan BatchResult, len(params))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			f.batchWorker(ctx, workChan, resultsChan)
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]BatchResult, 0, len(params))
	for result := range resultsChan {
		if onResult != nil {
			onResult(result)
		}
		results = append(results, result)
	}
	return results
}

// batchWorker drains workChan until it is empty.
func (f *Forecaster) batchWorker(ctx context.Context, workChan <-chan model.ForecastParams, resultsChan chan<- BatchResult) {
	for p := range workChan {
		if err := ctx.Err(); err != nil {
			resultsChan <- BatchResult{SKUID: p.SKUID, Error: err.Error()}
			continue
		}

		resp, err := f.PredictDemand(ctx, p)
		if err != nil {
			resultsChan <- BatchResult{SKUID: p.SKUID, Error: batchErrorMessage(err)}
			continue
		}
		resultsChan <- BatchResult{SKUID: p.SKUID, Result: resp}
	}
}

func batchErrorMessage(err error) string {
	if errors.Is(err, common.ErrModelNotFound) {
		return NoModelMessage
	}
	return err.Error()
}
