// Package export renders records as CSV for download or piping.
package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/amo-inventory/internal/analytics"
	"github.com/Veraticus/amo-inventory/internal/model"
)

// Table is a header row plus data rows of equal width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// EscapeField quotes s when it contains a quote, comma or newline, doubling
// embedded quotes.
func EscapeField(s string) string {
	if strings.ContainsAny(s, "\",\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Render joins the escaped header and rows with newlines. There is no
// trailing newline.
func Render(t Table) string {
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, joinRow(t.Headers))
	for _, row := range t.Rows {
		lines = append(lines, joinRow(row))
	}
	return strings.Join(lines, "\n")
}

func joinRow(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	return strings.Join(escaped, ",")
}

// Write renders t to w.
func Write(w io.Writer, t Table) error {
	if _, err := io.WriteString(w, Render(t)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteFile renders t to path, creating parent directories.
func WriteFile(path string, t Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(Render(t)), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Products exports name, category, price, quantity and expiry.
func Products(products []model.Product) Table {
	t := Table{Headers: []string{"name", "category", "price", "quantity", "expiry"}}
	for _, p := range products {
		t.Rows = append(t.Rows, []string{
			p.Name,
			p.Category,
			formatNumber(p.Price),
			strconv.Itoa(p.Quantity),
			p.Expiry,
		})
	}
	return t
}

// Transactions exports the transaction ledger.
func Transactions(txs []model.Transaction) Table {
	t := Table{Headers: []string{
		"id", "time_of_transaction", "product_name", "transaction_type", "product_quantity", "total_price",
	}}
	for _, tx := range txs {
		when := ""
		if !tx.Time.IsZero() {
			when = tx.Time.Format(time.RFC3339)
		}
		t.Rows = append(t.Rows, []string{
			tx.ID.String(),
			when,
			tx.ProductName,
			string(tx.Type),
			strconv.Itoa(tx.Quantity),
			formatNumber(tx.TotalPrice),
		})
	}
	return t
}

// Categories exports name, description and status.
func Categories(categories []model.Category) Table {
	t := Table{Headers: []string{"name", "description", "status"}}
	for _, c := range categories {
		t.Rows = append(t.Rows, []string{c.Name, c.Description, string(c.Status)})
	}
	return t
}

// ExpiryRadar exports products with their days left and expiry status.
func ExpiryRadar(items []analytics.ExpiryProduct) Table {
	t := Table{Headers: []string{"name", "category", "quantity", "price", "expiry", "daysLeft", "status"}}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{
			it.Name,
			it.Category,
			strconv.Itoa(it.Quantity),
			formatNumber(it.Price),
			it.Expiry,
			strconv.Itoa(it.DaysLeft),
			string(it.Status),
		})
	}
	return t
}

// StatusLabel is the display name of a stock status.
func StatusLabel(s model.StockStatus) string {
	switch s {
	case model.StatusStockout:
		return "Stockout Risk"
	case model.StatusOverstock:
		return "Overstock"
	case model.StatusOK:
		return "OK"
	default:
		return string(s)
	}
}

// Portfolio exports portfolio rows ordered by gap, largest shortfall first.
// Errored rows show their error in the Status column.
func Portfolio(rows []model.PortfolioRow) Table {
	sorted := make([]model.PortfolioRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Gap > sorted[j].Gap })

	t := Table{Headers: []string{"Product", "Category", "Predicted Demand", "Current Stock", "Gap", "Status"}}
	for _, r := range sorted {
		status := r.Error
		if status == "" {
			status = StatusLabel(r.Status)
		}
		t.Rows = append(t.Rows, []string{
			r.Product.Name,
			r.Product.Category,
			formatNumber(roundHalfUp(r.PredictedDemand)),
			formatNumber(r.CurrentStock),
			formatNumber(roundHalfUp(r.Gap)),
			status,
		})
	}
	return t
}

// SingleForecast exports one prediction for product on date.
func SingleForecast(p model.Product, date string, prediction float64) Table {
	return Table{
		Headers: []string{"Product", "Category", "Date", "Predicted Demand", "Current Stock", "Gap"},
		Rows: [][]string{{
			p.Name,
			p.Category,
			date,
			formatNumber(roundHalfUp(prediction)),
			strconv.Itoa(p.Quantity),
			formatNumber(roundHalfUp(prediction - float64(p.Quantity))),
		}},
	}
}

// PortfolioFilename is the default file name for a portfolio export.
func PortfolioFilename(now time.Time) string {
	return fmt.Sprintf("portfolio-forecast-%s.csv", now.Format("2006-01-02"))
}

// SingleForecastFilename is the default file name for a single forecast export.
func SingleForecastFilename(productName, date string) string {
	return fmt.Sprintf("forecast-%s-%s.csv", productName, date)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
