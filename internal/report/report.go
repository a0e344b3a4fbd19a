// Package report assembles the analytic views served by the API. Each view
// wires the shared pipeline stages (header resolution, row filtering,
// timestamp parsing, aggregation) with its own column set, sentinel policy,
// and aggregation strategy, instead of duplicating the scan per source.
//
// Builders are pure: they take "now" and the raw rows and return a report,
// so every number they emit is reproducible under test with a fixed clock.
package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/metrics"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

// RangeFetcher reads one sheet range as raw rows. Satisfied by
// *sheets.Client.
type RangeFetcher interface {
	FetchRange(ctx context.Context, spreadsheetID, rangeRef string) ([][]string, error)
}

// CityNormalizer resolves free-text locations to canonical city keys.
// Satisfied by *cities.Store.
type CityNormalizer interface {
	Canonical(raw string) string
}

// SheetRef identifies one source tab.
type SheetRef struct {
	SpreadsheetID string
	Range         string
}

// Sources lists the sheet tab behind each view.
type Sources struct {
	Alerts        SheetRef
	Misalignment  SheetRef
	Issues        SheetRef
	Movement      SheetRef
	Installations SheetRef
	Offline       SheetRef
}

// Service fetches source rows and builds reports. It holds no per-request
// state: every call re-fetches and recomputes.
type Service struct {
	fetcher RangeFetcher
	sources Sources
	cities  CityNormalizer

	// Clock supplies "now" for future-date filtering and current-month
	// rate suppression. Overridable in tests; defaults to time.Now.
	Clock func() time.Time
}

// NewService creates a report service.
func NewService(fetcher RangeFetcher, sources Sources, cities CityNormalizer) *Service {
	return &Service{
		fetcher: fetcher,
		sources: sources,
		cities:  cities,
		Clock:   time.Now,
	}
}

func (s *Service) fetch(ctx context.Context, ref SheetRef) ([][]string, error) {
	return s.fetcher.FetchRange(ctx, ref.SpreadsheetID, ref.Range)
}

// Debug exposes how a report was assembled: the raw header, where each
// required column was found, and where every excluded row went. Column
// layouts in the source drift, and this payload is how drift gets diagnosed
// without access to the sheet itself.
type Debug struct {
	Header    []string       `json:"header"`
	Columns   map[string]int `json:"columns"`
	TotalRows int            `json:"total_rows"`
	Processed int            `json:"processed"`
	Dropped   map[string]int `json:"dropped,omitempty"`
}

func newDebug(header []string, cols map[string]int, totalRows, processed int, tally pipeline.Tally) Debug {
	d := Debug{
		Header:    header,
		Columns:   cols,
		TotalRows: totalRows,
		Processed: processed,
	}
	if len(tally) > 0 {
		d.Dropped = make(map[string]int, len(tally))
		for reason, n := range tally {
			d.Dropped[string(reason)] = n
		}
	}
	return d
}

// record publishes pipeline counters for one built view.
func record(view string, d Debug) {
	metrics.RowsProcessed.WithLabelValues(view).Add(float64(d.Processed))
	for reason, n := range d.Dropped {
		metrics.RowsDropped.WithLabelValues(view, reason).Add(float64(n))
	}
}

// hasData reports whether the fetched range contains at least a header row
// and one data row. Anything less is the distinct "no data" condition, not a
// fetch failure.
func hasData(rows [][]string) bool {
	return len(rows) >= 2
}

// clientSentinels are placeholder values that sheet formulas leave in client
// cells when a lookup fails.
var clientSentinels = []string{"#N/A", "N/A"}
