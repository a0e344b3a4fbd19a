package aggregate

import (
	"sort"
	"time"
)

// Pair identifies one flagged client+vehicle combination.
type Pair struct {
	Client  string `json:"client"`
	Vehicle string `json:"vehicle"`
}

// DayResult is one reporting date with its rectification count.
type DayResult struct {
	Date    string `json:"date"`
	Flagged int    `json:"flagged"`
	// Rectified counts pairs present on this date but absent on the next
	// reporting date: fixed by the next reporting day. The last date in
	// the sequence is always 0: there is no later day to compare
	// against, so its pairs are pending as of last data.
	Rectified int `json:"rectified"`
}

// ClientResult is a per-client rollup across all reporting dates.
type ClientResult struct {
	Client    string `json:"client"`
	Flagged   int    `json:"flagged"`
	Rectified int    `json:"rectified"`
}

// RepeatItem reports how many distinct reporting dates a pair appeared on.
type RepeatItem struct {
	Pair
	Days int `json:"days"`
}

type snapshot struct {
	date  time.Time
	pairs map[Pair]struct{}
}

// Differ compares consecutive daily snapshots of flagged (client, vehicle)
// pairs to infer rectifications. Multiple source rows for the same date and
// pair merge into one snapshot entry before any comparison.
type Differ struct {
	byDate map[string]*snapshot
	// dayCount tracks distinct reporting dates per pair for repeat
	// reporting; independent of the set differences.
	dayCount map[Pair]int
	order    []Pair
}

// NewDiffer returns an empty Differ.
func NewDiffer() *Differ {
	return &Differ{
		byDate:   make(map[string]*snapshot),
		dayCount: make(map[Pair]int),
	}
}

// Observe records that the pair was reported flagged on date. Duplicate rows
// for a (date, pair) combination are collapsed.
func (d *Differ) Observe(date time.Time, client, vehicle string) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	key := day.Format("2006-01-02")

	s := d.byDate[key]
	if s == nil {
		s = &snapshot{date: day, pairs: make(map[Pair]struct{})}
		d.byDate[key] = s
	}

	p := Pair{Client: client, Vehicle: vehicle}
	if _, dup := s.pairs[p]; dup {
		return
	}
	s.pairs[p] = struct{}{}

	if d.dayCount[p] == 0 {
		d.order = append(d.order, p)
	}
	d.dayCount[p]++
}

// sorted returns snapshots in chronological order.
func (d *Differ) sorted() []*snapshot {
	out := make([]*snapshot, 0, len(d.byDate))
	for _, s := range d.byDate {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].date.Before(out[j].date)
	})
	return out
}

// Days emits per-date flagged and rectified counts in chronological order.
func (d *Differ) Days() []DayResult {
	snaps := d.sorted()
	out := make([]DayResult, 0, len(snaps))
	for i, s := range snaps {
		r := DayResult{Date: s.date.Format("2006-01-02"), Flagged: len(s.pairs)}
		if i+1 < len(snaps) {
			next := snaps[i+1].pairs
			for p := range s.pairs {
				if _, still := next[p]; !still {
					r.Rectified++
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// Clients emits per-client flagged and rectified totals summed across all
// reporting dates, sorted descending by flagged count with first-seen
// tie-break.
func (d *Differ) Clients() []ClientResult {
	snaps := d.sorted()
	flagged := make(map[string]int)
	rectified := make(map[string]int)
	var order []string
	seen := make(map[string]bool)

	for i, s := range snaps {
		for _, p := range sortedPairs(s.pairs) {
			if !seen[p.Client] {
				seen[p.Client] = true
				order = append(order, p.Client)
			}
			flagged[p.Client]++
			if i+1 < len(snaps) {
				if _, still := snaps[i+1].pairs[p]; !still {
					rectified[p.Client]++
				}
			}
		}
	}

	out := make([]ClientResult, 0, len(order))
	for _, c := range order {
		out = append(out, ClientResult{Client: c, Flagged: flagged[c], Rectified: rectified[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Flagged > out[j].Flagged
	})
	return out
}

// sortedPairs gives a deterministic walk order over a snapshot's pair set.
func sortedPairs(set map[Pair]struct{}) []Pair {
	out := make([]Pair, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Client != out[j].Client {
			return out[i].Client < out[j].Client
		}
		return out[i].Vehicle < out[j].Vehicle
	})
	return out
}

// Repeats emits the most frequently repeated pairs, descending by distinct
// reporting-day count, first-seen tie-break, capped at limit (0 = all).
func (d *Differ) Repeats(limit int) []RepeatItem {
	out := make([]RepeatItem, 0, len(d.order))
	for _, p := range d.order {
		out = append(out, RepeatItem{Pair: p, Days: d.dayCount[p]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Days > out[j].Days
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
