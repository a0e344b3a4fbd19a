package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

// alertFields locates the columns the alerts tab must provide.
var alertFields = []pipeline.Field{
	{Name: "date", Exact: []string{"Date", "Timestamp"}, Contains: []string{"date", "time"}},
	{Name: "alert_type", Exact: []string{"Alert Type"}, Contains: []string{"alert"}},
	{Name: "vehicle", Exact: []string{"Vehicle Number"}, Contains: []string{"vehicle", "registration"}},
	{Name: "client", Exact: []string{"Client Name", "Client"}, Contains: []string{"client"}},
}

// noAlertsSentinel is what the export writes into the alert-type cell on days
// with nothing to report.
const noAlertsSentinel = "No L2 alerts found"

// AlertsReport aggregates L2 driver alerts by month, type, and client.
type AlertsReport struct {
	NoData      bool                      `json:"no_data,omitempty"`
	TotalAlerts int                       `json:"total_alerts"`
	Monthly     []aggregate.MonthCount    `json:"monthly"`
	AlertTypes  []aggregate.BreakdownItem `json:"alert_types"`
	Clients     []aggregate.BreakdownItem `json:"clients"`
	FutureDates []aggregate.FutureRecord  `json:"future_dates,omitempty"`
	Debug       Debug                     `json:"debug"`
}

// Alerts fetches the alerts tab and builds its report.
func (s *Service) Alerts(ctx context.Context) (*AlertsReport, error) {
	rows, err := s.fetch(ctx, s.sources.Alerts)
	if err != nil {
		return nil, err
	}
	rep, err := BuildAlerts(s.Clock(), rows)
	if err == nil {
		record("alerts", rep.Debug)
	}
	return rep, err
}

// BuildAlerts aggregates raw alert rows as of now.
func BuildAlerts(now time.Time, rows [][]string) (*AlertsReport, error) {
	if !hasData(rows) {
		return &AlertsReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, alertFields)
	if err != nil {
		return nil, err
	}

	filter := &pipeline.Filter{
		Required: []int{cols["date"], cols["alert_type"], cols["client"]},
		Sentinels: []pipeline.SentinelRule{
			{Column: cols["alert_type"], Tokens: []string{noAlertsSentinel}},
			{Column: cols["client"], Tokens: clientSentinels},
		},
	}

	tally := make(pipeline.Tally)
	counter := aggregate.NewCounter(now)
	types := aggregate.NewBreakdown()
	clients := aggregate.NewBreakdown()

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

		types.Add(pipeline.Cell(row, cols["alert_type"]))
		clients.Add(pipeline.Cell(row, cols["client"]))
	}

	return &AlertsReport{
		TotalAlerts: counter.Total(),
		Monthly:     counter.Months(),
		AlertTypes:  types.Items(),
		Clients:     clients.Items(),
		FutureDates: counter.Future(),
		Debug:       newDebug(header, cols, len(rows)-1, counter.Total(), tally),
	}, nil
}
