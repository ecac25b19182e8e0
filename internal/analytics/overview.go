package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/model"
)

// AssumedGrossMargin is a placeholder margin used for the gross profit KPI.
// The backend records no cost of goods, so this is an approximation and not
// a measured value.
const AssumedGrossMargin = 0.30

// SparklinePoints is the length KPI sparklines are downsampled to.
const SparklinePoints = 12

const flatSparklinePoints = 6

// RangeKey names a trailing reporting window.
type RangeKey string

// Supported windows.
const (
	Range1D RangeKey = "1d"
	Range7D RangeKey = "7d"
	Range1M RangeKey = "1m"
	Range3M RangeKey = "3m"
	Range6M RangeKey = "6m"
	Range1Y RangeKey = "1y"
	Range3Y RangeKey = "3y"
	Range5Y RangeKey = "5y"
)

// RangeKeys lists the supported windows from shortest to longest.
var RangeKeys = []RangeKey{Range1D, Range7D, Range1M, Range3M, Range6M, Range1Y, Range3Y, Range5Y}

// ParseRangeKey validates s.
func ParseRangeKey(s string) (RangeKey, error) {
	key := RangeKey(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range RangeKeys {
		if k == key {
			return k, nil
		}
	}
	return "", common.NewValidationError("range", fmt.Sprintf("unknown range %q", s))
}

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside r, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeFromKey maps key to a window that ends at the last millisecond of
// today and starts at midnight of the day key's length earlier. Unknown keys
// give a window covering only today.
func RangeFromKey(key RangeKey, now time.Time) DateRange {
	end := endOfDay(now)
	start := startOfDay(now)

	switch key {
	case Range1D:
		start = start.AddDate(0, 0, -1)
	case Range7D:
		start = start.AddDate(0, 0, -7)
	case Range1M:
		start = start.AddDate(0, -1, 0)
	case Range3M:
		start = start.AddDate(0, -3, 0)
	case Range6M:
		start = start.AddDate(0, -6, 0)
	case Range1Y:
		start = start.AddDate(-1, 0, 0)
	case Range3Y:
		start = start.AddDate(-3, 0, 0)
	case Range5Y:
		start = start.AddDate(-5, 0, 0)
	}
	return DateRange{Start: start, End: end}
}

// PreviousRange is the window of equal length ending just before r starts,
// snapped to whole days.
func PreviousRange(r DateRange) DateRange {
	duration := r.End.Sub(r.Start)
	prevEnd := endOfDay(r.Start.Add(-time.Millisecond))
	prevStart := startOfDay(prevEnd.Add(-duration))
	return DateRange{Start: prevStart, End: prevEnd}
}

// PercentChange compares current against previous. The percentage is
// absolute and rounded to one decimal; the direction carries the sign.
// From zero, any rise is 100% up, no change is 0% up and a fall is 100% down.
func PercentChange(current, previous float64) (float64, model.Direction) {
	switch {
	case previous == 0 && current > 0:
		return 100, model.DirectionUp
	case previous == 0 && current == 0:
		return 0, model.DirectionUp
	case previous == 0:
		return 100, model.DirectionDown
	}

	pct := (current - previous) / abs(previous) * 100
	direction := model.DirectionUp
	if pct < 0 {
		direction = model.DirectionDown
	}
	return abs(round1(pct)), direction
}

// KPISet is the overview card row.
type KPISet struct {
	Cards   []model.KPICard
	HasData bool
}

// periodStats are the transaction-derived figures of one window.
type periodStats struct {
	txs     []model.Transaction
	revenue float64
	avg     float64
	count   int
}

func statsFor(txs []model.Transaction, r DateRange) periodStats {
	s := periodStats{}
	sales := 0
	for _, t := range txs {
		if !r.Contains(t.Time.Time) {
			continue
		}
		s.txs = append(s.txs, t)
		s.count++
		if t.IsSale() {
			s.revenue += abs(t.TotalPrice)
			sales++
		}
	}
	if sales > 0 {
		s.avg = s.revenue / float64(sales)
	}
	return s
}

func grossMarginPercent(revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return AssumedGrossMargin * 100
}

// ComputeKPIs builds the six overview cards for r compared with the
// preceding window. Transaction-based cards show model.Unavailable when r
// contains no transactions.
func ComputeKPIs(products []model.Product, txs []model.Transaction, r DateRange) KPISet {
	cur := statsFor(txs, r)
	prev := statsFor(txs, PreviousRange(r))
	hasData := len(txs) > 0 && cur.count > 0

	units := float64(TotalUnits(products))
	value := TotalValue(products)

	revenueSeries := func() []float64 { return dailySeries(cur.txs, r, saleRevenue) }

	cards := []model.KPICard{
		txCard("avg-order-volume", "Average Order Volume", hasData,
			cur.avg, prev.avg, FormatCurrency, revenueSeries),
		txCard("transaction-count", "Transaction Count (Orders)", hasData,
			float64(cur.count), float64(prev.count),
			func(v float64) string { return FormatCount(int(v)) },
			func() []float64 { return dailySeries(cur.txs, r, countOne) }),
		snapshotCard("inventory-units", "Total Inventory Units", units, FormatCount(int(units))),
		txCard("gross-profit-margin", "Gross Profit Margin", hasData,
			grossMarginPercent(cur.revenue), grossMarginPercent(prev.revenue),
			func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
			func() []float64 { return scale(revenueSeries(), AssumedGrossMargin) }),
		snapshotCard("inventory-value", "Total Inventory Value", value, FormatCurrency(value)),
		txCard("total-net-revenue", "Total Net Revenue", hasData,
			cur.revenue, prev.revenue, FormatCurrency, revenueSeries),
	}

	return KPISet{Cards: cards, HasData: hasData}
}

func txCard(
	id, title string,
	hasData bool,
	current, previous float64,
	format func(float64) string,
	series func() []float64,
) model.KPICard {
	card := model.KPICard{
		ID:            id,
		Title:         title,
		CurrentValue:  current,
		PreviousValue: previous,
		HasData:       hasData,
	}
	if !hasData {
		card.Value = model.Unavailable
		card.Direction = model.DirectionUp
		card.Sparkline = make([]float64, SparklinePoints)
		return card
	}
	card.Value = format(current)
	card.DeltaPercent, card.Direction = PercentChange(current, previous)
	card.Sparkline = series()
	return card
}

func snapshotCard(id, title string, v float64, formatted string) model.KPICard {
	spark := make([]float64, flatSparklinePoints)
	for i := range spark {
		spark[i] = v
	}
	return model.KPICard{
		ID:           id,
		Title:        title,
		Value:        formatted,
		Direction:    model.DirectionUp,
		Sparkline:    spark,
		CurrentValue: v,
		HasData:      true,
	}
}

func saleRevenue(t model.Transaction) (float64, bool) {
	return abs(t.TotalPrice), t.IsSale()
}

func countOne(model.Transaction) (float64, bool) {
	return 1, true
}

// dailySeries accumulates measure per day of r and downsamples the result.
func dailySeries(txs []model.Transaction, r DateRange, measure func(model.Transaction) (float64, bool)) []float64 {
	keys := dayKeys(r.Start, r.End)
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	values := make([]float64, len(keys))
	for _, t := range txs {
		v, ok := measure(t)
		if !ok {
			continue
		}
		if i, found := index[t.Time.In(r.Start.Location()).Format(dayLayout)]; found {
			values[i] += v
		}
	}
	return downsample(values, SparklinePoints)
}

// downsample averages data into target buckets, rounding to cents.
// Shorter inputs are returned unchanged.
func downsample(data []float64, target int) []float64 {
	if len(data) <= target {
		return data
	}
	step := float64(len(data)) / float64(target)
	out := make([]float64, 0, target)
	for i := 0; i < target; i++ {
		from := int(float64(i) * step)
		to := int(float64(i+1) * step)
		sum := 0.0
		for _, v := range data[from:to] {
			sum += v
		}
		out = append(out, round2(sum/float64(to-from)))
	}
	return out
}

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

// FormatCurrency abbreviates dollar amounts: $1.2m, $3.4k, $56.
func FormatCurrency(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fm", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fk", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}

// MonthlyBar is one month of the sales chart.
type MonthlyBar struct {
	Label             string  `json:"label"`
	Month             string  `json:"month"`
	Year              int     `json:"year"`
	GrossSalesRevenue float64 `json:"grossSalesRevenue"`
	InventoryMoved    int     `json:"inventoryMoved"`
}

// BuildMonthlySeries totals sales revenue and units per calendar month of r,
// including months without sales.
func BuildMonthlySeries(txs []model.Transaction, r DateRange) []MonthlyBar {
	loc := r.Start.Location()
	type bucket struct {
		month   time.Time
		revenue float64
		units   int
	}
	buckets := make(map[string]*bucket)

	y, m, _ := r.Start.Date()
	for d := time.Date(y, m, 1, 0, 0, 0, 0, loc); !d.After(r.End); d = d.AddDate(0, 1, 0) {
		buckets[d.Format("2006-01")] = &bucket{month: d}
	}

	for _, t := range txs {
		if !t.IsSale() || !r.Contains(t.Time.Time) {
			continue
		}
		at := t.Time.In(loc)
		key := at.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{month: time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, loc)}
			buckets[key] = b
		}
		b.revenue += abs(t.TotalPrice)
		b.units += t.Quantity
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bars := make([]MonthlyBar, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		name := b.month.Format("Jan")
		bars = append(bars, MonthlyBar{
			Label:             name,
			Month:             name,
			Year:              b.month.Year(),
			GrossSalesRevenue: round2(b.revenue),
			InventoryMoved:    b.units,
		})
	}
	return bars
}

// ExtractYears returns the distinct years of bars in ascending order.
func ExtractYears(bars []MonthlyBar) []int {
	seen := make(map[int]bool)
	var years []int
	for _, b := range bars {
		if !seen[b.Year] {
			seen[b.Year] = true
			years = append(years, b.Year)
		}
	}
	sort.Ints(years)
	return years
}
