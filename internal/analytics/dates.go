package analytics

import (
	"math"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	labelLayout = "Jan 2"
)

// startOfDay is local midnight of t in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay is the last millisecond of t's day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// calendarDaysBetween counts whole calendar days from a to b, ignoring clock
// time and DST shifts.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// dayKeys lists every calendar day from start through end as YYYY-MM-DD.
func dayKeys(start, end time.Time) []string {
	var keys []string
	for d := startOfDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(dayLayout))
	}
	return keys
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
