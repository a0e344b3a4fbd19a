package aggregate

import "time"

// MonthCount is one month bucket emitted by a Counter.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
	// Distinct is the number of distinct dimension values seen in the
	// month, when the caller supplies one (e.g. distinct vehicles).
	Distinct int `json:"distinct,omitempty"`
}

type countBucket struct {
	count    int
	distinct map[string]struct{}
}

// Counter is the simple counting aggregator: one count per month bucket,
// future-dated records diverted to a diagnostic list. Used by alert,
// offline-vehicle, installation, and device-movement reports.
type Counter struct {
	now    time.Time
	months map[string]*countBucket
	future []FutureRecord
	total  int
}

// NewCounter returns a Counter that treats instants after now as future data.
func NewCounter(now time.Time) *Counter {
	return &Counter{now: now, months: make(map[string]*countBucket)}
}

// Add buckets one record by the month of t. distinctKey, when non-empty, is
// added to the month's distinct set. Records strictly after now are excluded
// from every bucket and recorded as future diagnostics; Add reports whether
// the record was counted.
func (c *Counter) Add(t time.Time, raw, distinctKey string) bool {
	if t.After(c.now) {
		c.future = append(c.future, newFutureRecord(raw, t, c.now))
		return false
	}

	key := MonthKey(t)
	b := c.months[key]
	if b == nil {
		b = &countBucket{distinct: make(map[string]struct{})}
		c.months[key] = b
	}
	b.count++
	if distinctKey != "" {
		b.distinct[distinctKey] = struct{}{}
	}
	c.total++
	return true
}

// Total returns the number of counted (non-future) records.
func (c *Counter) Total() int { return c.total }

// Future returns the excluded future-dated records in insertion order.
func (c *Counter) Future() []FutureRecord { return c.future }

// Months emits buckets in chronological order.
func (c *Counter) Months() []MonthCount {
	keys := make([]string, 0, len(c.months))
	for k := range c.months {
		keys = append(keys, k)
	}
	sortMonthKeys(keys)

	out := make([]MonthCount, 0, len(keys))
	for _, k := range keys {
		b := c.months[k]
		out = append(out, MonthCount{Month: k, Count: b.count, Distinct: len(b.distinct)})
	}
	return out
}
