package analytics

import (
	"sort"
	"time"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// DefaultSalesWindow is the trailing window of the daily sales chart, in days.
const DefaultSalesWindow = 30

// CategoryPalette is cycled through when colouring category slices.
var CategoryPalette = []string{
	"#6941C6", "#7F56D9", "#B692F6", "#D6BBFB",
	"#F4EBFF", "#9E77ED", "#53389E", "#E9D7FE",
}

// DailyPoint is one day of a chart series.
type DailyPoint struct {
	Date  string  `json:"date"`  // 2006-01-02
	Label string  `json:"label"` // Jan 2
	Value float64 `json:"value"`
}

// DailySales sums units sold per day over the trailing window of days,
// ending today. It always returns days+1 chronological points, zero-filled.
func DailySales(txs []model.Transaction, days int, now time.Time) []DailyPoint {
	if days < 0 {
		days = 0
	}
	loc := now.Location()
	today := startOfDay(now)
	cutoff := today.AddDate(0, 0, -days)

	keys := dayKeys(cutoff, today)
	totals := make(map[string]float64, len(keys))
	for _, k := range keys {
		totals[k] = 0
	}

	for _, t := range txs {
		if !t.IsSale() || t.Time.IsZero() || t.Time.Before(cutoff) {
			continue
		}
		key := t.Time.In(loc).Format(dayLayout)
		if _, ok := totals[key]; ok {
			totals[key] += float64(t.Quantity)
		}
	}

	points := make([]DailyPoint, 0, len(keys))
	for _, k := range keys {
		day, _ := time.ParseInLocation(dayLayout, k, loc)
		points = append(points, DailyPoint{Date: k, Label: day.Format(labelLayout), Value: totals[k]})
	}
	return points
}

// InventoryValueSnapshot is the current stock value as a single chart point.
func InventoryValueSnapshot(products []model.Product, now time.Time) DailyPoint {
	return DailyPoint{
		Date:  now.Format(dayLayout),
		Label: "Current",
		Value: round2(TotalValue(products)),
	}
}

// TotalUnits sums stock quantity.
func TotalUnits(products []model.Product) int {
	total := 0
	for _, p := range products {
		total += p.Quantity
	}
	return total
}

// TotalValue sums quantity times price.
func TotalValue(products []model.Product) float64 {
	total := 0.0
	for _, p := range products {
		total += p.Value()
	}
	return total
}

// CategoryDistribution sums stock per category, largest first. Equal totals
// are ordered by name.
func CategoryDistribution(products []model.Product) []Slice {
	totals := make(map[string]float64)
	for _, p := range products {
		totals[p.CategoryOrDefault()] += float64(p.Quantity)
	}

	slices := make([]Slice, 0, len(totals))
	for name, v := range totals {
		slices = append(slices, Slice{Name: name, Value: v})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Name < slices[j].Name
	})
	for i := range slices {
		slices[i].Color = CategoryPalette[i%len(CategoryPalette)]
	}
	return slices
}

// StockCounts splits products by availability.
type StockCounts struct {
	Total      int `json:"total"`
	Available  int `json:"available"`
	OutOfStock int `json:"outOfStock"`
}

// ProductStockCounts counts products in and out of stock.
func ProductStockCounts(products []model.Product) StockCounts {
	c := StockCounts{Total: len(products)}
	for _, p := range products {
		switch {
		case p.Quantity > 0:
			c.Available++
		case p.Quantity == 0:
			c.OutOfStock++
		}
	}
	return c
}

// Totals are the headline numbers of the transactions view.
type Totals struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
}

// TransactionTotals sums sales revenue, purchase spend and the signed net.
func TransactionTotals(txs []model.Transaction) Totals {
	t := Totals{Count: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case model.TransactionSale:
			t.Revenue += tx.TotalPrice
		case model.TransactionPurchase:
			t.Expenses += abs(tx.TotalPrice)
		}
		t.Net += tx.TotalPrice
	}
	return t
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
