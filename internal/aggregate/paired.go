package aggregate

import "time"

// MaxResolutionHours caps plausible resolution times at one year. Elapsed
// times at or beyond the cap indicate a data-entry error in one of the two
// dates, so the record is treated as still pending.
const MaxResolutionHours = 8760

// PairedMonth is one month bucket emitted by a Paired aggregator.
type PairedMonth struct {
	Month string `json:"month"`
	// Raised counts every record raised in this month.
	Raised int `json:"raised"`
	// ResolvedSameMonth counts records raised and resolved in this month.
	ResolvedSameMonth int `json:"resolved_same_month"`
	// ResolvedLaterMonths counts records raised here but resolved in a
	// later month.
	ResolvedLaterMonths int `json:"resolved_later_months"`
	// CarryForwardIn counts records resolved in this month that were
	// raised in an earlier one.
	CarryForwardIn int `json:"carry_forward_in"`
	// StillPending counts records raised here with no valid resolution.
	StillPending int `json:"still_pending"`
	// ResolutionRate is the percentage of raised records resolved, or nil
	// for the current calendar month, which is necessarily incomplete.
	ResolutionRate *float64 `json:"resolution_rate"`
	// ResolutionStats summarizes resolution times of records raised in
	// this month, in hours.
	ResolutionStats *TimeStats `json:"resolution_stats,omitempty"`
}

type pairedBucket struct {
	raised, sameMonth, laterMonths, carryIn, pending int
	samples                                          []float64
}

// AddResult reports how one record was classified by Paired.Add.
type AddResult struct {
	// Future is true when the raised instant was past now; the record was
	// excluded from all buckets.
	Future bool
	// Resolved is true when the record had a valid resolution.
	Resolved bool
	// Hours is the resolution time when Resolved is true.
	Hours float64
	// SameMonth is true when the record resolved in its raised month.
	SameMonth bool
}

// Paired is the raised/resolved pairing aggregator used by the issue reports.
// Every record carries a raised instant and optionally a resolved one; the
// pairing rules live in Add.
type Paired struct {
	now    time.Time
	months map[string]*pairedBucket
	future []FutureRecord
	total  int
}

// NewPaired returns a Paired aggregator evaluated against now.
func NewPaired(now time.Time) *Paired {
	return &Paired{now: now, months: make(map[string]*pairedBucket)}
}

// Add classifies one record.
//
// The record always counts toward its raised month's Raised tally, unless the
// raised instant is past now (future diagnostic, nothing counted). A
// resolution is valid only when hasResolved is set, resolved is not earlier
// than raised, and the elapsed time is under MaxResolutionHours; a valid
// same-month resolution increments ResolvedSameMonth, a later-month one
// increments ResolvedLaterMonths on the raised month and CarryForwardIn on
// the resolved month. Anything else leaves the record StillPending; in
// particular a resolved instant before the raised one counts toward neither
// resolved bucket.
func (p *Paired) Add(raised, resolved time.Time, hasResolved bool, raw string) AddResult {
	if raised.After(p.now) {
		p.future = append(p.future, newFutureRecord(raw, raised, p.now))
		return AddResult{Future: true}
	}

	raisedKey := MonthKey(raised)
	rb := p.bucket(raisedKey)
	rb.raised++
	p.total++

	if hasResolved {
		elapsed := resolved.Sub(raised)
		if elapsed >= 0 && elapsed.Hours() < MaxResolutionHours {
			hours := elapsed.Hours()
			rb.samples = append(rb.samples, hours)
			resolvedKey := MonthKey(resolved)
			if resolvedKey == raisedKey {
				rb.sameMonth++
				return AddResult{Resolved: true, Hours: hours, SameMonth: true}
			}
			rb.laterMonths++
			p.bucket(resolvedKey).carryIn++
			return AddResult{Resolved: true, Hours: hours}
		}
	}

	rb.pending++
	return AddResult{}
}

func (p *Paired) bucket(key string) *pairedBucket {
	b := p.months[key]
	if b == nil {
		b = &pairedBucket{}
		p.months[key] = b
	}
	return b
}

// Total returns the number of raised (non-future) records.
func (p *Paired) Total() int { return p.total }

// Future returns the excluded future-dated records in insertion order.
func (p *Paired) Future() []FutureRecord { return p.future }

// Months emits buckets in chronological order. The bucket for the month
// containing now reports a nil resolution rate: the month is still
// accumulating data and a computed percentage would be misleading.
func (p *Paired) Months() []PairedMonth {
	currentKey := MonthKey(p.now)

	keys := make([]string, 0, len(p.months))
	for k := range p.months {
		keys = append(keys, k)
	}
	sortMonthKeys(keys)

	out := make([]PairedMonth, 0, len(keys))
	for _, k := range keys {
		b := p.months[k]
		m := PairedMonth{
			Month:               k,
			Raised:              b.raised,
			ResolvedSameMonth:   b.sameMonth,
			ResolvedLaterMonths: b.laterMonths,
			CarryForwardIn:      b.carryIn,
			StillPending:        b.pending,
			ResolutionStats:     ComputeStats(b.samples),
		}
		if k != currentKey && b.raised > 0 {
			rate := round2(float64(b.sameMonth+b.laterMonths) / float64(b.raised) * 100)
			m.ResolutionRate = &rate
		}
		out = append(out, m)
	}
	return out
}
