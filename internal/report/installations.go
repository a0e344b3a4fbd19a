package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

var installationFields = []pipeline.Field{
	{Name: "date", Exact: []string{"Installation Date"}, Contains: []string{"install", "date"}},
	{Name: "client", Exact: []string{"Client Name", "Client"}, Contains: []string{"client"}},
	{Name: "city", Exact: []string{"City"}, Contains: []string{"city", "location"}},
	{Name: "device", Exact: []string{"Device ID", "IMEI"}, Contains: []string{"device", "imei"}},
}

// InstallationMonth extends the plain month count with a running total, for
// the fleet-growth chart.
type InstallationMonth struct {
	Month      string `json:"month"`
	Count      int    `json:"count"`
	Devices    int    `json:"devices"`
	Cumulative int    `json:"cumulative"`
}

// InstallationsReport tracks device installations by month, client, and city.
type InstallationsReport struct {
	NoData             bool                      `json:"no_data,omitempty"`
	TotalInstallations int                       `json:"total_installations"`
	Monthly            []InstallationMonth       `json:"monthly"`
	Clients            []aggregate.BreakdownItem `json:"clients"`
	Cities             []aggregate.BreakdownItem `json:"cities"`
	FutureDates        []aggregate.FutureRecord  `json:"future_dates,omitempty"`
	Debug              Debug                     `json:"debug"`
}

// Installations fetches the installation tab and builds its report.
func (s *Service) Installations(ctx context.Context) (*InstallationsReport, error) {
	rows, err := s.fetch(ctx, s.sources.Installations)
	if err != nil {
		return nil, err
	}
	rep, err := BuildInstallations(s.Clock(), rows, s.cities)
	if err == nil {
		record("installations", rep.Debug)
	}
	return rep, err
}

// BuildInstallations aggregates raw installation rows as of now.
func BuildInstallations(now time.Time, rows [][]string, cities CityNormalizer) (*InstallationsReport, error) {
	if !hasData(rows) {
		return &InstallationsReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, installationFields)
	if err != nil {
		return nil, err
	}

	filter := &pipeline.Filter{
		Required: []int{cols["date"], cols["client"]},
		Sentinels: []pipeline.SentinelRule{
			{Column: cols["client"], Tokens: clientSentinels},
		},
	}

	tally := make(pipeline.Tally)
	counter := aggregate.NewCounter(now)
	clients := aggregate.NewBreakdown()
	cityBreakdown := aggregate.NewBreakdown()

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
		if !counter.Add(instant, raw, pipeline.Cell(row, cols["device"])) {
			tally.Add(pipeline.DropFutureDate)
			continue
		}

		clients.Add(pipeline.Cell(row, cols["client"]))
		if city := cities.Canonical(pipeline.Cell(row, cols["city"])); city != "" {
			cityBreakdown.Add(city)
		}
	}

	months := counter.Months()
	monthly := make([]InstallationMonth, 0, len(months))
	running := 0
	for _, m := range months {
		running += m.Count
		monthly = append(monthly, InstallationMonth{
			Month:      m.Month,
			Count:      m.Count,
			Devices:    m.Distinct,
			Cumulative: running,
		})
	}

	return &InstallationsReport{
		TotalInstallations: counter.Total(),
		Monthly:            monthly,
		Clients:            clients.Items(),
		Cities:             cityBreakdown.Items(),
		FutureDates:        counter.Future(),
		Debug:              newDebug(header, cols, len(rows)-1, counter.Total(), tally),
	}, nil
}
