package forecast

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// DefaultPortfolioSize is how many products a portfolio forecast covers.
const DefaultPortfolioSize = 10

// SKUResolver maps a product to its forecasting key. *sku.Resolver implements it.
type SKUResolver interface {
	Resolve(ctx context.Context, productID, productName, existingKey string) string
}

// PortfolioOptions configures BuildPortfolio. Params.SKUID is ignored; every
// product gets its own key and shares the remaining inputs.
type PortfolioOptions struct {
	Progress    func(done, total int)
	Params      model.ForecastParams
	Size        int
	Concurrency int
}

// BuildPortfolio forecasts the Size products with the most stock and joins
// each prediction with its product. Rows follow the stock ranking. A row
// whose prediction failed carries the error, zero demand and status ok.
func (f *Forecaster) BuildPortfolio(
	ctx context.Context,
	resolver SKUResolver,
	products []model.Product,
	opts PortfolioOptions,
) []model.PortfolioRow {
	size := opts.Size
	if size <= 0 {
		size = DefaultPortfolioSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	top := TopByQuantity(products, size)
	params := make([]model.ForecastParams, len(top))
	for i, p := range top {
		params[i] = opts.Params
		params[i].SKUID = resolver.Resolve(ctx, p.ID.String(), p.Name, p.SKUID)
	}

	done := 0
	var onResult func(BatchResult)
	if opts.Progress != nil {
		onResult = func(BatchResult) {
			done++
			opts.Progress(done, len(params))
		}
	}

	results := f.runBatch(ctx, params, concurrency, onResult)
	bySKU := make(map[string]BatchResult, len(results))
	for _, r := range results {
		bySKU[r.SKUID] = r
	}

	rows := make([]model.PortfolioRow, len(top))
	for i, p := range top {
		rows[i] = portfolioRow(p, params[i].SKUID, bySKU[params[i].SKUID])
	}

	slog.Debug("Built forecast portfolio",
		"products", len(products),
		"forecast", len(rows),
		"date", opts.Params.Date)
	return rows
}

func portfolioRow(p model.Product, skuID string, r BatchResult) model.PortfolioRow {
	stock := float64(p.Quantity)
	row := model.PortfolioRow{
		Product:      p,
		SKUID:        skuID,
		CurrentStock: stock,
		Status:       model.StatusOK,
	}
	if !r.OK() {
		row.Error = r.Error
		row.Gap = -stock
		return row
	}

	row.PredictedDemand = r.Result.Prediction
	row.Gap = row.PredictedDemand - stock
	row.Status = model.ClassifyStock(row.PredictedDemand, stock)
	return row
}

// TopByQuantity returns up to n products ordered by quantity, largest first.
// Ties keep their input order.
func TopByQuantity(products []model.Product, n int) []model.Product {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quantity > sorted[j].Quantity
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
