package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

// unparseableSampleLimit caps how many raw values the debug payload echoes
// back; enough to spot the pattern without shipping the whole column.
const unparseableSampleLimit = 20

// DateDebugReport diagnoses a single date column: how every row's value
// parsed, which format matched, and samples of what did not parse. It exists
// because bad dates silently shrink the monthly charts and someone has to
// see the offending strings to fix the sheet.
type DateDebugReport struct {
	NoData      bool           `json:"no_data,omitempty"`
	Header      []string       `json:"header"`
	Columns     map[string]int `json:"columns"`
	TotalRows   int            `json:"total_rows"`
	Parsed      int            `json:"parsed"`
	Empty       int            `json:"empty"`
	Unparseable int            `json:"unparseable"`
	Future      int            `json:"future"`
	// Formats counts parsed rows per matched format.
	Formats map[string]int `json:"formats"`
	// Samples holds raw unparseable values, capped.
	Samples []string `json:"samples,omitempty"`
	// FutureSamples echoes future-dated values with their day offsets.
	FutureSamples []aggregate.FutureRecord `json:"future_samples,omitempty"`
}

// AlertDates re-parses the date column of the alerts tab.
func (s *Service) AlertDates(ctx context.Context) (*DateDebugReport, error) {
	rows, err := s.fetch(ctx, s.sources.Alerts)
	if err != nil {
		return nil, err
	}
	dateField := alertFields[0]
	return BuildDateDebug(s.Clock(), rows, dateField)
}

// IssueDates re-parses the raised-date column of the issues tab.
func (s *Service) IssueDates(ctx context.Context) (*DateDebugReport, error) {
	rows, err := s.fetch(ctx, s.sources.Issues)
	if err != nil {
		return nil, err
	}
	raisedField := issueFields[0]
	return BuildDateDebug(s.Clock(), rows, raisedField)
}

// BuildDateDebug classifies every value in one date column as of now.
func BuildDateDebug(now time.Time, rows [][]string, dateField pipeline.Field) (*DateDebugReport, error) {
	if !hasData(rows) {
		return &DateDebugReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, []pipeline.Field{dateField})
	if err != nil {
		return nil, err
	}
	idx := cols[dateField.Name]

	rep := &DateDebugReport{
		Header:    header,
		Columns:   cols,
		TotalRows: len(rows) - 1,
		Formats:   make(map[string]int),
	}

	for _, row := range rows[1:] {
		raw := pipeline.Cell(row, idx)
		instant, format, ok, perr := parser.ParseFormat(raw)
		switch {
		case perr != nil:
			rep.Unparseable++
			if len(rep.Samples) < unparseableSampleLimit {
				rep.Samples = append(rep.Samples, raw)
			}
		case !ok:
			rep.Empty++
		case instant.After(now):
			rep.Future++
			rep.Formats[string(format)]++
			if len(rep.FutureSamples) < unparseableSampleLimit {
				rep.FutureSamples = append(rep.FutureSamples, aggregate.FutureRecord{
					Raw:          raw,
					Date:         instant.Format("2006-01-02"),
					DaysInFuture: aggregate.DaysInFuture(instant, now),
				})
			}
		default:
			rep.Parsed++
			rep.Formats[string(format)]++
		}
	}

	return rep, nil
}
