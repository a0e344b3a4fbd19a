package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

var misalignmentFields = []pipeline.Field{
	{Name: "date", Exact: []string{"Date", "Reported Date"}, Contains: []string{"date"}},
	{Name: "client", Exact: []string{"Client Name", "Client"}, Contains: []string{"client"}},
	{Name: "vehicle", Exact: []string{"Vehicle Number"}, Contains: []string{"vehicle", "registration"}},
}

// topRepeatLimit caps the "most frequently repeated" list in the payload.
const topRepeatLimit = 10

// MisalignmentReport tracks camera misalignment by reporting day, with
// rectification inferred from consecutive-day set differences.
type MisalignmentReport struct {
	NoData       bool                     `json:"no_data,omitempty"`
	TotalReports int                      `json:"total_reports"`
	Days         []aggregate.DayResult    `json:"days"`
	Clients      []aggregate.ClientResult `json:"clients"`
	TopRepeats   []aggregate.RepeatItem   `json:"top_repeats"`
	Monthly      []aggregate.MonthCount   `json:"monthly"`
	FutureDates  []aggregate.FutureRecord `json:"future_dates,omitempty"`
	Debug        Debug                    `json:"debug"`
}

// Misalignment fetches the misalignment tab and builds its report.
func (s *Service) Misalignment(ctx context.Context) (*MisalignmentReport, error) {
	rows, err := s.fetch(ctx, s.sources.Misalignment)
	if err != nil {
		return nil, err
	}
	rep, err := BuildMisalignment(s.Clock(), rows)
	if err == nil {
		record("misalignment", rep.Debug)
	}
	return rep, err
}

// BuildMisalignment aggregates raw misalignment rows as of now.
func BuildMisalignment(now time.Time, rows [][]string) (*MisalignmentReport, error) {
	if !hasData(rows) {
		return &MisalignmentReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, misalignmentFields)
	if err != nil {
		return nil, err
	}

	filter := &pipeline.Filter{
		Required: []int{cols["date"], cols["client"], cols["vehicle"]},
		Sentinels: []pipeline.SentinelRule{
			{Column: cols["client"], Tokens: clientSentinels},
		},
	}

	tally := make(pipeline.Tally)
	counter := aggregate.NewCounter(now)
	differ := aggregate.NewDiffer()

	for _, row := range rows[1:] {
		if reason, ok := filter.Check(row); !ok {
			tally.Add(reason)
			continue
		}

		raw := pipeline.Cell(row, cols["date"])
		instant, ok, perr := parser.Parse(raw)
		if perr != nil || !ok {
			tally.Add(pipeline.DropBadDate)
			continue
		}
		vehicle := pipeline.Cell(row, cols["vehicle"])
		if !counter.Add(instant, raw, vehicle) {
			tally.Add(pipeline.DropFutureDate)
			continue
		}

		differ.Observe(instant, pipeline.Cell(row, cols["client"]), vehicle)
	}

	return &MisalignmentReport{
		TotalReports: counter.Total(),
		Days:         differ.Days(),
		Clients:      differ.Clients(),
		TopRepeats:   differ.Repeats(topRepeatLimit),
		Monthly:      counter.Months(),
		FutureDates:  counter.Future(),
		Debug:        newDebug(header, cols, len(rows)-1, counter.Total(), tally),
	}, nil
}
