package report

import (
	"context"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
	"github.com/fleetpulse/fleetpulse/internal/parser"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

// issueFields covers the shared issue-tracker tab. Video requests and
// general issues are two partitions of the same rows.
var issueFields = []pipeline.Field{
	{Name: "raised", Exact: []string{"Issue Raised Date", "Raised Date"}, Contains: []string{"raised"}},
	{Name: "resolved", Exact: []string{"Issue Resolved Date", "Resolved Date"}, Contains: []string{"resolved"}},
	{Name: "client", Exact: []string{"Client Name", "Client"}, Contains: []string{"client"}},
	{Name: "sub_request", Exact: []string{"Sub Request Type"}, Contains: []string{"sub request", "sub-request"}},
	{Name: "status", Exact: []string{"Status"}, Contains: []string{"status"}},
	{Name: "city", Exact: []string{"City"}, Contains: []string{"city", "location"}},
}

// videoSubRequest selects the video-retrieval business process. The match is
// exact and case-sensitive: it decides which report a ticket belongs to.
const videoSubRequest = "Customer request for video"

// VideoIssuesReport covers customer video-retrieval requests with
// raised/resolved pairing.
type VideoIssuesReport struct {
	NoData        bool                            `json:"no_data,omitempty"`
	TotalRequests int                             `json:"total_requests"`
	Monthly       []aggregate.PairedMonth         `json:"monthly"`
	Clients       []aggregate.PairedBreakdownItem `json:"clients"`
	// OverallStats summarizes resolution times across all months, in hours.
	OverallStats *aggregate.TimeStats     `json:"overall_stats,omitempty"`
	FutureDates  []aggregate.FutureRecord `json:"future_dates,omitempty"`
	Debug        Debug                    `json:"debug"`
}

// GeneralIssuesReport covers every issue that is not a video request, with
// city and status breakdowns on top of the same pairing.
type GeneralIssuesReport struct {
	NoData       bool                            `json:"no_data,omitempty"`
	TotalIssues  int                             `json:"total_issues"`
	Monthly      []aggregate.PairedMonth         `json:"monthly"`
	Clients      []aggregate.PairedBreakdownItem `json:"clients"`
	Cities       []aggregate.BreakdownItem       `json:"cities"`
	Statuses     []aggregate.BreakdownItem       `json:"statuses"`
	OverallStats *aggregate.TimeStats            `json:"overall_stats,omitempty"`
	FutureDates  []aggregate.FutureRecord        `json:"future_dates,omitempty"`
	Debug        Debug                           `json:"debug"`
}

// VideoIssues fetches the issues tab and builds the video-request report.
func (s *Service) VideoIssues(ctx context.Context) (*VideoIssuesReport, error) {
	rows, err := s.fetch(ctx, s.sources.Issues)
	if err != nil {
		return nil, err
	}
	rep, err := BuildVideoIssues(s.Clock(), rows)
	if err == nil {
		record("video_issues", rep.Debug)
	}
	return rep, err
}

// GeneralIssues fetches the issues tab and builds the complement report.
func (s *Service) GeneralIssues(ctx context.Context) (*GeneralIssuesReport, error) {
	rows, err := s.fetch(ctx, s.sources.Issues)
	if err != nil {
		return nil, err
	}
	rep, err := BuildGeneralIssues(s.Clock(), rows, s.cities)
	if err == nil {
		record("general_issues", rep.Debug)
	}
	return rep, err
}

// issueScan is the shared raised/resolved pass over one partition of the
// issues tab.
type issueScan struct {
	paired   *aggregate.Paired
	clients  *aggregate.PairedBreakdown
	tally    pipeline.Tally
	samples  []float64
	lastCols map[string]int
	header   []string
	rowCount int

	// onRecord, when set, sees each counted row for extra breakdowns.
	onRecord func(row []string, cols map[string]int)
}

func scanIssues(now time.Time, rows [][]string, keepVideo bool, extra func(row []string, cols map[string]int)) (*issueScan, error) {
	header := rows[0]
	cols, err := pipeline.Resolve(header, issueFields)
	if err != nil {
		return nil, err
	}

	filter := &pipeline.Filter{
		Required: []int{cols["raised"], cols["client"]},
		Sentinels: []pipeline.SentinelRule{
			{Column: cols["client"], Tokens: clientSentinels},
		},
		Subtype: &pipeline.SubtypeRule{
			Column: cols["sub_request"],
			Value:  videoSubRequest,
			Keep:   keepVideo,
		},
	}

	sc := &issueScan{
		paired:   aggregate.NewPaired(now),
		clients:  aggregate.NewPairedBreakdown(),
		tally:    make(pipeline.Tally),
		lastCols: cols,
		header:   header,
		rowCount: len(rows) - 1,
		onRecord: extra,
	}

	for _, row := range rows[1:] {
		if reason, ok := filter.Check(row); !ok {
			sc.tally.Add(reason)
			continue
		}

		rawRaised := pipeline.Cell(row, cols["raised"])
		raised, ok, perr := parser.Parse(rawRaised)
		if perr != nil || !ok {
			sc.tally.Add(pipeline.DropBadDate)
			continue
		}

		// An unparseable resolved cell downgrades the record to pending
		// rather than dropping it: the raise is still a real event.
		resolved, hasResolved, rerr := parser.Parse(pipeline.Cell(row, cols["resolved"]))
		if rerr != nil {
			hasResolved = false
		}

		res := sc.paired.Add(raised, resolved, hasResolved, rawRaised)
		if res.Future {
			sc.tally.Add(pipeline.DropFutureDate)
			continue
		}
		sc.clients.Add(pipeline.Cell(row, cols["client"]), res)
		if res.Resolved {
			sc.samples = append(sc.samples, res.Hours)
		}
		if sc.onRecord != nil {
			sc.onRecord(row, cols)
		}
	}

	return sc, nil
}

// BuildVideoIssues aggregates the video-request partition as of now.
func BuildVideoIssues(now time.Time, rows [][]string) (*VideoIssuesReport, error) {
	if !hasData(rows) {
		return &VideoIssuesReport{NoData: true}, nil
	}

	sc, err := scanIssues(now, rows, true, nil)
	if err != nil {
		return nil, err
	}

	return &VideoIssuesReport{
		TotalRequests: sc.paired.Total(),
		Monthly:       sc.paired.Months(),
		Clients:       sc.clients.Items(),
		OverallStats:  aggregate.ComputeStats(sc.samples),
		FutureDates:   sc.paired.Future(),
		Debug:         newDebug(sc.header, sc.lastCols, sc.rowCount, sc.paired.Total(), sc.tally),
	}, nil
}

// BuildGeneralIssues aggregates the non-video partition as of now.
func BuildGeneralIssues(now time.Time, rows [][]string, cities CityNormalizer) (*GeneralIssuesReport, error) {
	if !hasData(rows) {
		return &GeneralIssuesReport{NoData: true}, nil
	}

	cityBreakdown := aggregate.NewBreakdown()
	statusBreakdown := aggregate.NewBreakdown()

	sc, err := scanIssues(now, rows, false, func(row []string, cols map[string]int) {
		if city := cities.Canonical(pipeline.Cell(row, cols["city"])); city != "" {
			cityBreakdown.Add(city)
		}
		if status := pipeline.Cell(row, cols["status"]); status != "" {
			statusBreakdown.Add(status)
		}
	})
	if err != nil {
		return nil, err
	}

	return &GeneralIssuesReport{
		TotalIssues:  sc.paired.Total(),
		Monthly:      sc.paired.Months(),
		Clients:      sc.clients.Items(),
		Cities:       cityBreakdown.Items(),
		Statuses:     statusBreakdown.Items(),
		OverallStats: aggregate.ComputeStats(sc.samples),
		FutureDates:  sc.paired.Future(),
		Debug:        newDebug(sc.header, sc.lastCols, sc.rowCount, sc.paired.Total(), sc.tally),
	}, nil
}
