package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// StockoutRisks ranks successfully forecast rows by shortfall, most urgent
// first. Rows with an error are skipped.
func StockoutRisks(rows []model.PortfolioRow) []model.StockoutRisk {
	risks := make([]model.StockoutRisk, 0, len(rows))
	for _, r := range rows {
		if r.Error != "" {
			continue
		}
		score := r.PredictedDemand - r.CurrentStock
		risks = append(risks, model.StockoutRisk{
			Product:         r.Product,
			SKUID:           r.SKUID,
			PredictedDemand: r.PredictedDemand,
			CurrentStock:    r.CurrentStock,
			RiskScore:       score,
			ReorderQty:      max(0, score),
			Status:          model.ClassifyStock(r.PredictedDemand, r.CurrentStock),
		})
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].RiskScore > risks[j].RiskScore
	})
	return risks
}

// StockoutInsight summarises risks in one sentence.
func StockoutInsight(risks []model.StockoutRisk) string {
	atRisk, overstock := 0, 0
	for _, r := range risks {
		switch r.Status {
		case model.StatusStockout:
			atRisk++
		case model.StatusOverstock:
			overstock++
		}
	}

	var parts []string
	if atRisk > 0 {
		parts = append(parts, fmt.Sprintf("%d %s likely to stock out within 7 days", atRisk, plural(atRisk, "product")))
	}
	if overstock > 0 {
		parts = append(parts, fmt.Sprintf("%d %s overstocked", overstock, plural(overstock, "product")))
	}
	if len(parts) == 0 {
		return "All analyzed products have adequate stock levels."
	}
	return strings.Join(parts, ". ") + "."
}
