package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

var movementFields = []pipeline.Field{
	{Name: "date", Exact: []string{"Date", "Movement Date"}, Contains: []string{"date"}},
	{Name: "movement_type", Exact: []string{"Movement Type", "Type of Work"}, Contains: []string{"movement", "type of work"}},
	{Name: "city", Exact: []string{"City"}, Contains: []string{"city", "location"}},
	{Name: "status", Exact: []string{"Status"}, Contains: []string{"status"}},
	{Name: "device", Exact: []string{"Device ID", "IMEI"}, Contains: []string{"device", "imei"}},
}

// DeviceMovementReport tracks device installs, repairs, and replacements.
type DeviceMovementReport struct {
	NoData         bool                      `json:"no_data,omitempty"`
	TotalMovements int                       `json:"total_movements"`
	Monthly        []aggregate.MonthCount    `json:"monthly"`
	MovementTypes  []aggregate.BreakdownItem `json:"movement_types"`
	Cities         []aggregate.BreakdownItem `json:"cities"`
	Statuses       []aggregate.BreakdownItem `json:"statuses"`
	FutureDates    []aggregate.FutureRecord  `json:"future_dates,omitempty"`
	Debug          Debug                     `json:"debug"`
}

// DeviceMovement fetches the movement tab and builds its report.
func (s *Service) DeviceMovement(ctx context.Context) (*DeviceMovementReport, error) {
	rows, err := s.fetch(ctx, s.sources.Movement)
	if err != nil {
		return nil, err
	}
	rep, err := BuildDeviceMovement(s.Clock(), rows, s.cities)
	if err == nil {
		record("device_movement", rep.Debug)
	}
	return rep, err
}

// BuildDeviceMovement aggregates raw movement rows as of now.
func BuildDeviceMovement(now time.Time, rows [][]string, cities CityNormalizer) (*DeviceMovementReport, error) {
	if !hasData(rows) {
		return &DeviceMovementReport{NoData: true}, nil
	}

	header := rows[0]
	cols, err := pipeline.Resolve(header, movementFields)
	if err != nil {
		return nil, err
	}

	filter := &pipeline.Filter{
		Required: []int{cols["date"], cols["movement_type"]},
	}

	tally := make(pipeline.Tally)
	counter := aggregate.NewCounter(now)
	types := aggregate.NewBreakdown()
	cityBreakdown := aggregate.NewBreakdown()
	statuses := aggregate.NewBreakdown()

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

		types.Add(pipeline.Cell(row, cols["movement_type"]))
		if city := cities.Canonical(pipeline.Cell(row, cols["city"])); city != "" {
			cityBreakdown.Add(city)
		}
		if status := pipeline.Cell(row, cols["status"]); status != "" {
			statuses.Add(status)
		}
	}

	return &DeviceMovementReport{
		TotalMovements: counter.Total(),
		Monthly:        counter.Months(),
		MovementTypes:  types.Items(),
		Cities:         cityBreakdown.Items(),
		Statuses:       statuses.Items(),
		FutureDates:    counter.Future(),
		Debug:          newDebug(header, cols, len(rows)-1, counter.Total(), tally),
	}, nil
}
