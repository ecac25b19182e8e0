package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/amo-inventory/internal/model"
)

// ExpiryStatus buckets a product by days left before expiry.
type ExpiryStatus string

// Expiry statuses, from most to least urgent.
const (
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryCritical ExpiryStatus = "critical"
	ExpiryWarning  ExpiryStatus = "warning"
	ExpirySafe     ExpiryStatus = "safe"
)

// Bucket boundaries in days, inclusive.
const (
	CriticalDays = 7
	WarningDays  = 30
)

// Label is the short display name of the status.
func (s ExpiryStatus) Label() string {
	switch s {
	case ExpiryExpired:
		return "Expired"
	case ExpiryCritical:
		return "≤ 7 days"
	case ExpiryWarning:
		return "≤ 30 days"
	default:
		return "Safe"
	}
}

// Color is the status colour used by charts.
func (s ExpiryStatus) Color() string {
	switch s {
	case ExpiryExpired:
		return "#EF4444"
	case ExpiryCritical:
		return "#F97316"
	case ExpiryWarning:
		return "#EAB308"
	default:
		return "#22C55E"
	}
}

// DaysToExpiry is the number of calendar days from now's date to expiry's
// date in now's location. Zero means it expires today; negative means past.
func DaysToExpiry(expiry, now time.Time) int {
	return calendarDaysBetween(now, expiry.In(now.Location()))
}

// ExpiryStatusFor buckets days left: expired <= 0, critical <= 7,
// warning <= 30, safe otherwise.
func ExpiryStatusFor(daysLeft int) ExpiryStatus {
	switch {
	case daysLeft <= 0:
		return ExpiryExpired
	case daysLeft <= CriticalDays:
		return ExpiryCritical
	case daysLeft <= WarningDays:
		return ExpiryWarning
	default:
		return ExpirySafe
	}
}

// ExpiryProduct is a product with its computed expiry position.
type ExpiryProduct struct {
	model.Product
	Status   ExpiryStatus
	DaysLeft int
}

// EnrichExpiry annotates products that have an expiry date and sorts them
// soonest first. Products without a parseable expiry are left out.
func EnrichExpiry(products []model.Product, now time.Time) []ExpiryProduct {
	items := make([]ExpiryProduct, 0, len(products))
	for _, p := range products {
		exp, ok := p.ExpiryDate(now.Location())
		if !ok {
			continue
		}
		days := DaysToExpiry(exp, now)
		items = append(items, ExpiryProduct{Product: p, DaysLeft: days, Status: ExpiryStatusFor(days)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysLeft < items[j].DaysLeft
	})
	return items
}

// CountByStatus counts items with the given status.
func CountByStatus(items []ExpiryProduct, status ExpiryStatus) int {
	n := 0
	for _, it := range items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// CountWithinDays counts items expiring within days, already expired included.
func CountWithinDays(items []ExpiryProduct, days int) int {
	n := 0
	for _, it := range items {
		if it.DaysLeft <= days {
			n++
		}
	}
	return n
}

// ExpiryCounts is the bucket tally for the overview donut.
type ExpiryCounts struct {
	Expired   int `json:"expired"`
	Within7d  int `json:"within7d"`
	Within30d int `json:"within30d"`
	Safe      int `json:"safe"`
}

// CountExpiry tallies products per bucket. Products without an expiry are safe.
func CountExpiry(products []model.Product, now time.Time) ExpiryCounts {
	var c ExpiryCounts
	for _, p := range products {
		exp, ok := p.ExpiryDate(now.Location())
		if !ok {
			c.Safe++
			continue
		}
		switch ExpiryStatusFor(DaysToExpiry(exp, now)) {
		case ExpiryExpired:
			c.Expired++
		case ExpiryCritical:
			c.Within7d++
		case ExpiryWarning:
			c.Within30d++
		default:
			c.Safe++
		}
	}
	return c
}

// Slice is one segment of a chart.
type Slice struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Value float64 `json:"value"`
}

// ExpirySlices returns the non-empty buckets in urgency order.
func ExpirySlices(c ExpiryCounts) []Slice {
	all := []struct {
		status ExpiryStatus
		n      int
	}{
		{ExpiryExpired, c.Expired},
		{ExpiryCritical, c.Within7d},
		{ExpiryWarning, c.Within30d},
		{ExpirySafe, c.Safe},
	}
	slices := make([]Slice, 0, len(all))
	for _, b := range all {
		if b.n > 0 {
			slices = append(slices, Slice{Name: b.status.Label(), Value: float64(b.n), Color: b.status.Color()})
		}
	}
	return slices
}

// ExpiryInsight summarises the counts in one sentence.
func ExpiryInsight(c ExpiryCounts) string {
	var alerts []string
	if c.Expired > 0 {
		alerts = append(alerts, fmt.Sprintf("%d %s expired", c.Expired, plural(c.Expired, "item")))
	}
	if c.Within7d > 0 {
		alerts = append(alerts, fmt.Sprintf("%d expiring within 7 days", c.Within7d))
	}
	if c.Within30d > 0 {
		alerts = append(alerts, fmt.Sprintf("%d expiring within 30 days", c.Within30d))
	}
	if len(alerts) == 0 {
		return "All products have safe expiry dates."
	}
	return strings.Join(alerts, ", ") + " — consider promotions or markdowns."
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
