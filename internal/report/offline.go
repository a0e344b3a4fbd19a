package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

var offlineFields = []pipeline.Field{
	{Name: "date", Exact: []string{"Date", "Reported Date"}, Contains: []string{"date"}},
	{Name: "client", Exact: []string{"Client Name", "Client"}, Contains: []string{"client"}},
	{Name: "vehicle", Exact: []string{"Vehicle Number"}, Contains: []string{"vehicle", "registration"}},
	{Name: "reason", Exact: []string{"Reason"}, Contains: []string{"reason", "remark"}},
}

// unspecifiedReason buckets rows whose reason cell is blank; blank is common
// and still worth counting.
const unspecifiedReason = "unspecified"

// OfflineVehiclesReport tracks vehicles reported offline by month, client,
// and reason. The monthly distinct count is vehicles, not rows: the same
// vehicle offline twice in a month is one distinct vehicle.
type OfflineVehiclesReport struct {
	NoData       bool                      `json:"no_data,omitempty"`
	TotalReports int                       `json:"total_reports"`
	Monthly      []aggregate.MonthCount    `json:"monthly"`
	Clients      []aggregate.BreakdownItem `json:"clients"`
	Reasons      []aggregate.BreakdownItem `json:"reasons"`
	FutureDates  []aggregate.FutureRecord  `json:"future_dates,omitempty"`
	Debug        Debug                     `json:"debug"`
}

// OfflineVehicles fetches the offline-vehicles tab and builds its report.
func (s *Service) OfflineVehicles(ctx context.Context) (*OfflineVehiclesReport, error) {
	rows, err := s.fetch(ctx, s.sources.Offline)
	if err != nil {
		return nil, err
	}
	rep, err := BuildOfflineVehicles(s.Clock(), rows)
	if err == nil {
		record("offline_vehicles", rep.Debug)
	}
	return rep, err
}

// BuildOfflineVehicles aggregates raw offline-vehicle rows as of now.
func BuildOfflineVehicles(now time.Time, rows [][]string) (*OfflineVehiclesReport, error) {
	if !hasData(rows) {
		return &OfflineVehiclesReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, offlineFields)
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
	clients := aggregate.NewBreakdown()
	reasons := aggregate.NewBreakdown()

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
		if !counter.Add(instant, raw, pipeline.Cell(row, cols["vehicle"])) {
			tally.Add(pipeline.DropFutureDate)
			continue
		}

		clients.Add(pipeline.Cell(row, cols["client"]))
		why := pipeline.Cell(row, cols["reason"])
		if why == "" {
			why = unspecifiedReason
		}
		reasons.Add(why)
	}

	return &OfflineVehiclesReport{
		TotalReports: counter.Total(),
		Monthly:      counter.Months(),
		Clients:      clients.Items(),
		Reasons:      reasons.Items(),
		FutureDates:  counter.Future(),
		Debug:        newDebug(header, cols, len(rows)-1, counter.Total(), tally),
	}, nil
}
