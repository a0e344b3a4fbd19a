package pipeline

import "strings"

// DropReason classifies why a row was excluded from aggregation.
// Every dropped row maps to exactly one reason.
type DropReason string

const (
	DropMissingField DropReason = "missing_field"
	DropSentinel     DropReason = "sentinel"
	DropWrongSubtype DropReason = "wrong_subtype"
	DropBadDate      DropReason = "bad_date"
	DropFutureDate   DropReason = "future_date"
)

// Tally accumulates per-reason drop counts in a single pass.
type Tally map[DropReason]int

// Add records one dropped row.
func (t Tally) Add(r DropReason) { t[r]++ }

// Total returns the number of dropped rows across all reasons.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// SentinelRule drops rows whose cell at Column equals one of Tokens,
// compared case-insensitively after trimming. Sentinels are placeholder
// strings exported by sheet formulas, e.g. "No L2 alerts found" or "#N/A".
type SentinelRule struct {
	Column int
	Tokens []string
}

// SubtypeRule partitions rows by an exact, case-sensitive match on a
// categorical cell. The comparison is deliberately strict: the value decides
// which business process a row belongs to, and fuzzy matching here would move
// records between reports.
type SubtypeRule struct {
	Column int
	Value  string
	// Keep retains matching rows when true, the complement when false.
	Keep bool
}

// Filter decides row inclusion under source-specific rules.
type Filter struct {
	// Required lists column indices that must hold a non-blank cell.
	Required  []int
	Sentinels []SentinelRule
	Subtype   *SubtypeRule
}

// Check reports whether the row is included. When it is not, the returned
// reason classifies the drop.
func (f *Filter) Check(row []string) (DropReason, bool) {
	for _, idx := range f.Required {
		if Cell(row, idx) == "" {
			return DropMissingField, false
		}
	}

	for _, s := range f.Sentinels {
		cell := Cell(row, s.Column)
		for _, tok := range s.Tokens {
			if strings.EqualFold(cell, tok) {
				return DropSentinel, false
			}
		}
	}

	if f.Subtype != nil {
		match := Cell(row, f.Subtype.Column) == f.Subtype.Value
		if match != f.Subtype.Keep {
			return DropWrongSubtype, false
		}
	}

	return "", true
}

// Cell returns the trimmed cell at idx, or "" when the row is shorter than
// the header. Source rows are ragged: trailing empty cells are absent, not
// empty strings.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
