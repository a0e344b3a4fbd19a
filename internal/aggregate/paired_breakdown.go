package aggregate

import "sort"

// PairedBreakdownItem is one dimension bucket with resolution statistics.
type PairedBreakdownItem struct {
	Key        string     `json:"key"`
	Count      int        `json:"count"`
	Resolved   int        `json:"resolved"`
	Percentage float64    `json:"percentage"`
	Stats      *TimeStats `json:"resolution_stats,omitempty"`
}

type pairedDim struct {
	count, resolved int
	samples         []float64
}

// PairedBreakdown accumulates per-dimension tallies alongside a Paired
// aggregator, fed from the AddResult of each record.
type PairedBreakdown struct {
	dims  map[string]*pairedDim
	order []string
	total int
}

// NewPairedBreakdown returns an empty breakdown.
func NewPairedBreakdown() *PairedBreakdown {
	return &PairedBreakdown{dims: make(map[string]*pairedDim)}
}

// Add records one non-future record under key.
func (b *PairedBreakdown) Add(key string, res AddResult) {
	if res.Future {
		return
	}
	d := b.dims[key]
	if d == nil {
		d = &pairedDim{}
		b.dims[key] = d
		b.order = append(b.order, key)
	}
	d.count++
	b.total++
	if res.Resolved {
		d.resolved++
		d.samples = append(d.samples, res.Hours)
	}
}

// Items emits buckets sorted descending by count, ties in first-seen order.
func (b *PairedBreakdown) Items() []PairedBreakdownItem {
	items := make([]PairedBreakdownItem, 0, len(b.order))
	for _, key := range b.order {
		d := b.dims[key]
		items = append(items, PairedBreakdownItem{
			Key:      key,
			Count:    d.count,
			Resolved: d.resolved,
			Stats:    ComputeStats(d.samples),
		})
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
