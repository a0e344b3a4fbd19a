// Package aggregate buckets parsed records by month and by dimension key and
// computes the count, rate, and resolution-time statistics behind every
// report. All aggregation is request-scoped and single-pass; "now" is an
// explicit input so results are deterministic under test.
package aggregate

import (
	"math"
	"sort"
	"time"
)

// monthKeyLayout produces keys like "Mar 2024".
const monthKeyLayout = "Jan 2006"

// MonthKey returns the month bucket key for an instant.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// monthKeyTime reconstructs a day-1 instant from a bucket key for ordering.
// Keys only ever come from MonthKey, so a parse failure maps to the zero time
// and sorts first.
func monthKeyTime(key string) time.Time {
	t, err := time.ParseInLocation(monthKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sortMonthKeys orders bucket keys chronologically. A lexical sort would put
// "Feb 2023" after "Jan 2024".
func sortMonthKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return monthKeyTime(keys[i]).Before(monthKeyTime(keys[j]))
	})
}

// DaysInFuture returns how many whole days t lies past now, rounded up.
func DaysInFuture(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// FutureRecord is a record excluded from every bucket because its instant is
// past "now" at aggregation time. These are data-entry errors (typically a
// wrong year) surfaced for correction instead of silently skewing trends.
type FutureRecord struct {
	Raw          string `json:"raw"`
	Date         string `json:"date"`
	DaysInFuture int    `json:"days_in_future"`
}

func newFutureRecord(raw string, t, now time.Time) FutureRecord {
	return FutureRecord{
		Raw:          raw,
		Date:         t.Format("2006-01-02"),
		DaysInFuture: DaysInFuture(t, now),
	}
}
