package aggregate

import "sort"

// BreakdownItem is one dimension bucket in a sorted breakdown.
type BreakdownItem struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Breakdown counts records per dimension value (client, city, status, alert
// type) while remembering first-seen order for stable tie-breaking.
type Breakdown struct {
	counts map[string]int
	order  []string
	total  int
}

// NewBreakdown returns an empty breakdown.
func NewBreakdown() *Breakdown {
	return &Breakdown{counts: make(map[string]int)}
}

// Add counts one record under key.
func (b *Breakdown) Add(key string) {
	if _, seen := b.counts[key]; !seen {
		b.order = append(b.order, key)
	}
	b.counts[key]++
	b.total++
}

// Total returns the number of records counted.
func (b *Breakdown) Total() int { return b.total }

// Items emits buckets sorted descending by count; ties keep first-seen order.
// Percentages are relative to the breakdown's own total, so they always sum
// to 100 when any records were counted and are all zero otherwise.
func (b *Breakdown) Items() []BreakdownItem {
	items := make([]BreakdownItem, 0, len(b.order))
	for _, key := range b.order {
		items = append(items, BreakdownItem{Key: key, Count: b.counts[key]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if b.total > 0 {
		for i := range items {
			items[i].Percentage = round2(float64(items[i].Count) / float64(b.total) * 100)
		}
	}
	return items
}
