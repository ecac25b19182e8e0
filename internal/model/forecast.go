package model

// ForecastParams are the inputs of a single demand prediction.
type ForecastParams struct {
	SKUID   string  `json:"sku_id"`
	Date    string  `json:"date"` // "2006-01-02"
	Temp    float64 `json:"temp"`
	Rain    float64 `json:"rain"`
	Holiday int     `json:"holiday"` // 0 or 1
}

// ForecastResponse is the backend's prediction for one ForecastParams.
type ForecastResponse struct {
	Prediction float64 `json:"prediction"`
}

// StockStatus compares predicted demand against stock on hand.
type StockStatus string

// Stock status constants.
const (
	StatusStockout  StockStatus = "stockout"
	StatusOK        StockStatus = "ok"
	StatusOverstock StockStatus = "overstock"
)

// ClassifyStock returns stockout when demand exceeds stock, overstock when stock
// exceeds twice the demand, and ok otherwise.
func ClassifyStock(predicted, stock float64) StockStatus {
	switch {
	case predicted > stock:
		return StatusStockout
	case stock > predicted*2:
		return StatusOverstock
	default:
		return StatusOK
	}
}

// PortfolioRow joins a product with its predicted demand. It is derived on
// demand and never persisted.
type PortfolioRow struct {
	Product         Product
	SKUID           string
	Status          StockStatus
	Error           string
	PredictedDemand float64
	CurrentStock    float64
	Gap             float64 // PredictedDemand - CurrentStock
}

// StockoutRisk ranks a successfully forecast product by supply shortfall.
type StockoutRisk struct {
	Product         Product
	SKUID           string
	Status          StockStatus
	PredictedDemand float64
	CurrentStock    float64
	RiskScore       float64 // PredictedDemand - CurrentStock
	ReorderQty      float64
}
