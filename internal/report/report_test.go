package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/cities"
	"github.com/fleetpulse/fleetpulse/internal/pipeline"
)

// testNow pins the clock mid-January so current-month behavior is exercised.
var testNow = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func TestBuildAlerts(t *testing.T) {
	rows := [][]string{
		{"Date", "Alert Type", "Vehicle Number", "Client Name"},
		{"10/12/2024", "Harsh Braking", "KA01AB1234", "Acme"},
		{"12/12/2024", "Overspeed", "KA01AB1234", "Acme"},
		{"05/01/2025", "Harsh Braking", "MH12CD5678", "Globex"},
		{"06/01/2025", "No L2 alerts found", "", "Acme"},
		{"07/01/2025", "Overspeed", "KA01AB1234", "#N/A"},
		{"not-a-date", "Overspeed", "KA01AB1234", "Acme"},
		{"20/06/2025", "Overspeed", "KA01AB1234", "Acme"},
	}

	rep, err := BuildAlerts(testNow, rows)
	if err != nil {
		t.Fatalf("BuildAlerts: %v", err)
	}

	if rep.TotalAlerts != 3 {
		t.Errorf("TotalAlerts = %d, want 3", rep.TotalAlerts)
	}
	if len(rep.Monthly) != 2 {
		t.Fatalf("Monthly = %d buckets, want 2", len(rep.Monthly))
	}
	if rep.Monthly[0].Month != "Dec 2024" || rep.Monthly[0].Count != 2 {
		t.Errorf("Monthly[0] = %s/%d, want Dec 2024/2", rep.Monthly[0].Month, rep.Monthly[0].Count)
	}
	if rep.Monthly[0].Distinct != 1 {
		t.Errorf("Dec 2024 distinct vehicles = %d, want 1", rep.Monthly[0].Distinct)
	}
	if rep.Monthly[1].Month != "Jan 2025" {
		t.Errorf("Monthly[1] = %s, want Jan 2025", rep.Monthly[1].Month)
	}

	if len(rep.AlertTypes) != 2 {
		t.Fatalf("AlertTypes = %d, want 2", len(rep.AlertTypes))
	}
	// Two Harsh Braking vs one Overspeed among counted rows.
	if rep.AlertTypes[0].Key != "Harsh Braking" || rep.AlertTypes[0].Count != 2 {
		t.Errorf("top alert type = %s/%d, want Harsh Braking/2",
			rep.AlertTypes[0].Key, rep.AlertTypes[0].Count)
	}

	if len(rep.FutureDates) != 1 {
		t.Fatalf("FutureDates = %d, want 1", len(rep.FutureDates))
	}
	if rep.FutureDates[0].Raw != "20/06/2025" {
		t.Errorf("future raw = %q", rep.FutureDates[0].Raw)
	}

	wantDrops := map[string]int{
		"sentinel":    2,
		"bad_date":    1,
		"future_date": 1,
	}
	for reason, n := range wantDrops {
		if rep.Debug.Dropped[reason] != n {
			t.Errorf("Dropped[%s] = %d, want %d", reason, rep.Debug.Dropped[reason], n)
		}
	}
	if rep.Debug.Processed != 3 || rep.Debug.TotalRows != 7 {
		t.Errorf("debug processed/total = %d/%d, want 3/7",
			rep.Debug.Processed, rep.Debug.TotalRows)
	}
}

func TestBuildAlertsMissingColumns(t *testing.T) {
	rows := [][]string{
		{"Date", "Vehicle Number", "Client Name"},
		{"10/12/2024", "KA01AB1234", "Acme"},
	}

	_, err := BuildAlerts(testNow, rows)
	var mce *pipeline.MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("err = %v, want MissingColumnsError", err)
	}
	if len(mce.Missing) != 1 || mce.Missing[0] != "alert_type" {
		t.Errorf("Missing = %v, want [alert_type]", mce.Missing)
	}
}

func TestBuildAlertsNoData(t *testing.T) {
	for _, rows := range [][][]string{
		nil,
		{{"Date", "Alert Type", "Vehicle Number", "Client Name"}},
	} {
		rep, err := BuildAlerts(testNow, rows)
		if err != nil {
			t.Fatalf("BuildAlerts: %v", err)
		}
		if !rep.NoData {
			t.Errorf("NoData = false for %d rows", len(rows))
		}
	}
}

var issueHeader = []string{
	"Issue Raised Date", "Issue Resolved Date", "Client Name",
	"Sub Request Type", "Status", "City",
}

func TestBuildVideoIssuesPartition(t *testing.T) {
	rows := [][]string{
		issueHeader,
		{"02/12/2024", "03/12/2024", "Acme", "Customer request for video", "Closed", "Pune"},
		{"05/12/2024", "", "Acme", "Customer request for video", "Open", "Pune"},
		{"06/12/2024", "07/12/2024", "Globex", "Device offline", "Closed", "Pune"},
	}

	rep, err := BuildVideoIssues(testNow, rows)
	if err != nil {
		t.Fatalf("BuildVideoIssues: %v", err)
	}

	if rep.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", rep.TotalRequests)
	}
	if got := rep.Debug.Dropped["wrong_subtype"]; got != 1 {
		t.Errorf("Dropped[wrong_subtype] = %d, want 1", got)
	}
	if len(rep.Monthly) != 1 {
		t.Fatalf("Monthly = %d, want 1", len(rep.Monthly))
	}
	m := rep.Monthly[0]
	if m.Raised != 2 || m.ResolvedSameMonth != 1 || m.StillPending != 1 {
		t.Errorf("Dec 2024 = raised %d sameMonth %d pending %d, want 2/1/1",
			m.Raised, m.ResolvedSameMonth, m.StillPending)
	}
	if m.ResolutionRate == nil || *m.ResolutionRate != 50 {
		t.Errorf("ResolutionRate = %v, want 50", m.ResolutionRate)
	}
	if rep.OverallStats == nil || rep.OverallStats.Count != 1 {
		t.Errorf("OverallStats = %+v, want one sample", rep.OverallStats)
	}
}

func TestBuildGeneralIssues(t *testing.T) {
	rows := [][]string{
		issueHeader,
		// Resolved the following month: later-month on Nov, carry-in on Dec.
		{"25/11/2024", "02/12/2024", "Acme", "Device offline", "Closed", "Banglore"},
		{"03/12/2024", "03/12/2024", "Acme", "Camera fault", "Closed", "Bengaluru"},
		{"04/12/2024", "garbage", "Globex", "Device offline", "Open", "Pune City"},
		// Video rows belong to the other report.
		{"05/12/2024", "", "Acme", "Customer request for video", "Open", "Pune"},
	}

	rep, err := BuildGeneralIssues(testNow, rows, cities.Default())
	if err != nil {
		t.Fatalf("BuildGeneralIssues: %v", err)
	}

	if rep.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, want 3", rep.TotalIssues)
	}
	if len(rep.Monthly) != 2 {
		t.Fatalf("Monthly = %d, want 2", len(rep.Monthly))
	}
	nov, dec := rep.Monthly[0], rep.Monthly[1]
	if nov.Month != "Nov 2024" || nov.ResolvedLaterMonths != 1 {
		t.Errorf("Nov = %+v, want 1 resolved later", nov)
	}
	if dec.Month != "Dec 2024" || dec.CarryForwardIn != 1 {
		t.Errorf("Dec carry-in = %d, want 1", dec.CarryForwardIn)
	}
	// Unparseable resolved cell leaves the row pending, not dropped.
	if dec.StillPending != 1 {
		t.Errorf("Dec pending = %d, want 1", dec.StillPending)
	}

	found := make(map[string]int)
	for _, c := range rep.Cities {
		found[c.Key] = c.Count
	}
	if found["bengaluru"] != 2 {
		t.Errorf("bengaluru count = %d, want 2 (alias folded)", found["bengaluru"])
	}
	if found["pune"] != 1 {
		t.Errorf("pune count = %d, want 1", found["pune"])
	}
}

func TestBuildMisalignment(t *testing.T) {
	rows := [][]string{
		{"Date", "Client Name", "Vehicle Number"},
		{"01/12/2024", "Acme", "V1"},
		{"01/12/2024", "Acme", "V2"},
		{"01/12/2024", "Acme", "V2"}, // duplicate row, same day
		{"02/12/2024", "Acme", "V2"},
	}

	rep, err := BuildMisalignment(testNow, rows)
	if err != nil {
		t.Fatalf("BuildMisalignment: %v", err)
	}

	if rep.TotalReports != 4 {
		t.Errorf("TotalReports = %d, want 4", rep.TotalReports)
	}
	if len(rep.Days) != 2 {
		t.Fatalf("Days = %d, want 2", len(rep.Days))
	}
	d0, d1 := rep.Days[0], rep.Days[1]
	if d0.Flagged != 2 || d0.Rectified != 1 {
		t.Errorf("day 1 = flagged %d rectified %d, want 2/1", d0.Flagged, d0.Rectified)
	}
	if d1.Rectified != 0 {
		t.Errorf("last day rectified = %d, want 0", d1.Rectified)
	}
	if len(rep.TopRepeats) == 0 || rep.TopRepeats[0].Vehicle != "V2" || rep.TopRepeats[0].Days != 2 {
		t.Errorf("TopRepeats = %+v, want V2 on 2 days", rep.TopRepeats)
	}
}

func TestBuildInstallationsCumulative(t *testing.T) {
	rows := [][]string{
		{"Installation Date", "Client Name", "City", "Device ID"},
		{"05/11/2024", "Acme", "Pune", "D1"},
		{"07/11/2024", "Acme", "Pune", "D2"},
		{"03/12/2024", "Globex", "Mumbai", "D3"},
	}

	rep, err := BuildInstallations(testNow, rows, cities.Default())
	if err != nil {
		t.Fatalf("BuildInstallations: %v", err)
	}

	if len(rep.Monthly) != 2 {
		t.Fatalf("Monthly = %d, want 2", len(rep.Monthly))
	}
	if rep.Monthly[0].Cumulative != 2 || rep.Monthly[1].Cumulative != 3 {
		t.Errorf("cumulative = %d,%d, want 2,3",
			rep.Monthly[0].Cumulative, rep.Monthly[1].Cumulative)
	}
	if rep.Monthly[0].Devices != 2 {
		t.Errorf("Nov devices = %d, want 2", rep.Monthly[0].Devices)
	}
}

func TestBuildOfflineVehicles(t *testing.T) {
	rows := [][]string{
		{"Date", "Client Name", "Vehicle Number", "Reason"},
		{"01/12/2024", "Acme", "V1", "Power cut"},
		{"02/12/2024", "Acme", "V1", ""},
	}

	rep, err := BuildOfflineVehicles(testNow, rows)
	if err != nil {
		t.Fatalf("BuildOfflineVehicles: %v", err)
	}

	if rep.TotalReports != 2 {
		t.Errorf("TotalReports = %d, want 2", rep.TotalReports)
	}
	if rep.Monthly[0].Distinct != 1 {
		t.Errorf("distinct vehicles = %d, want 1", rep.Monthly[0].Distinct)
	}
	found := make(map[string]int)
	for _, r := range rep.Reasons {
		found[r.Key] = r.Count
	}
	if found[unspecifiedReason] != 1 {
		t.Errorf("unspecified reason count = %d, want 1", found[unspecifiedReason])
	}
}

func TestBuildDateDebug(t *testing.T) {
	rows := [][]string{
		{"Date", "Alert Type"},
		{"10/12/2024", "x"},
		{"11-12-2024", "x"},
		{"2024-12-12T10:00:00Z", "x"},
		{"", "x"},
		{"#N/A", "x"},
		{"20/06/2025", "x"},
	}

	rep, err := BuildDateDebug(testNow, rows, alertFields[0])
	if err != nil {
		t.Fatalf("BuildDateDebug: %v", err)
	}

	if rep.Parsed != 3 || rep.Empty != 1 || rep.Unparseable != 1 || rep.Future != 1 {
		t.Errorf("parsed/empty/unparseable/future = %d/%d/%d/%d, want 3/1/1/1",
			rep.Parsed, rep.Empty, rep.Unparseable, rep.Future)
	}
	if rep.Formats["dd/mm/yyyy"] != 2 {
		t.Errorf("Formats[dd/mm/yyyy] = %d, want 2", rep.Formats["dd/mm/yyyy"])
	}
	if len(rep.Samples) != 1 || rep.Samples[0] != "#N/A" {
		t.Errorf("Samples = %v, want [#N/A]", rep.Samples)
	}
	if len(rep.FutureSamples) != 1 || rep.FutureSamples[0].Raw != "20/06/2025" {
		t.Errorf("FutureSamples = %+v", rep.FutureSamples)
	}
}

// stubFetcher serves canned rows per range and fails configured ranges.
type stubFetcher struct {
	rows map[string][][]string
	fail map[string]bool
}

func (f *stubFetcher) FetchRange(_ context.Context, _, rangeRef string) ([][]string, error) {
	if f.fail[rangeRef] {
		return nil, fmt.Errorf("fetch %s: upstream said no", rangeRef)
	}
	return f.rows[rangeRef], nil
}

func testSources() Sources {
	return Sources{
		Alerts:        SheetRef{SpreadsheetID: "s", Range: "alerts"},
		Misalignment:  SheetRef{SpreadsheetID: "s", Range: "misalignment"},
		Issues:        SheetRef{SpreadsheetID: "s", Range: "issues"},
		Movement:      SheetRef{SpreadsheetID: "s", Range: "movement"},
		Installations: SheetRef{SpreadsheetID: "s", Range: "installations"},
		Offline:       SheetRef{SpreadsheetID: "s", Range: "offline"},
	}
}

func TestSummaryIsolatesFailures(t *testing.T) {
	fetcher := &stubFetcher{
		rows: map[string][][]string{
			"alerts": {
				{"Date", "Alert Type", "Vehicle Number", "Client Name"},
				{"10/12/2024", "Overspeed", "V1", "Acme"},
			},
			"issues": {
				issueHeader,
				{"02/12/2024", "03/12/2024", "Acme", "Customer request for video", "Closed", "Pune"},
			},
			"movement": {
				{"Date", "Movement Type", "City", "Status", "Device ID"},
				{"02/12/2024", "Repair", "Pune", "Done", "D1"},
			},
			"installations": {
				{"Installation Date", "Client Name", "City", "Device ID"},
				{"02/12/2024", "Acme", "Pune", "D1"},
			},
			"offline": {
				{"Date", "Client Name", "Vehicle Number", "Reason"},
				{"02/12/2024", "Acme", "V1", "Power cut"},
			},
		},
		fail: map[string]bool{"misalignment": true},
	}

	svc := NewService(fetcher, testSources(), cities.Default())
	svc.Clock = func() time.Time { return testNow }

	sum := svc.Summary(context.Background())

	if sum.Misalignment.Error == "" {
		t.Error("misalignment section should carry its fetch error")
	}
	if sum.Misalignment.Total != 0 {
		t.Errorf("failed section total = %d, want 0", sum.Misalignment.Total)
	}
	if sum.Alerts.Error != "" || sum.Alerts.Total != 1 {
		t.Errorf("alerts section = %+v, want total 1 and no error", sum.Alerts)
	}
	if sum.Alerts.LatestMonth != "Dec 2024" {
		t.Errorf("alerts latest month = %q, want Dec 2024", sum.Alerts.LatestMonth)
	}
	if sum.VideoIssues.Total != 1 || sum.GeneralIssues.Total != 0 {
		t.Errorf("video/general totals = %d/%d, want 1/0",
			sum.VideoIssues.Total, sum.GeneralIssues.Total)
	}
	if sum.Installations.Total != 1 || sum.OfflineVehicles.Total != 1 {
		t.Errorf("installations/offline = %d/%d, want 1/1",
			sum.Installations.Total, sum.OfflineVehicles.Total)
	}
	if sum.DeviceMovement.LatestMonth != "Dec 2024" || sum.DeviceMovement.LatestCount != 1 {
		t.Errorf("movement latest = %q/%d, want Dec 2024/1",
			sum.DeviceMovement.LatestMonth, sum.DeviceMovement.LatestCount)
	}
	if sum.OfflineVehicles.LatestMonth != "Dec 2024" || sum.OfflineVehicles.LatestCount != 1 {
		t.Errorf("offline latest = %q/%d, want Dec 2024/1",
			sum.OfflineVehicles.LatestMonth, sum.OfflineVehicles.LatestCount)
	}
}

func TestSummaryAllSourcesHealthy(t *testing.T) {
	fetcher := &stubFetcher{rows: map[string][][]string{
		"alerts": {
			{"Date", "Alert Type", "Vehicle Number", "Client Name"},
			{"10/12/2024", "Overspeed", "V1", "Acme"},
			{"05/01/2025", "Overspeed", "V1", "Acme"},
		},
		"misalignment": {
			{"Date", "Client Name", "Vehicle Number"},
			{"02/12/2024", "Acme", "V1"},
		},
		"issues": {
			issueHeader,
			{"02/12/2024", "03/12/2024", "Acme", "Customer request for video", "Closed", "Pune"},
			{"04/12/2024", "", "Acme", "Device offline", "Open", "Pune"},
		},
		"movement": {
			{"Date", "Movement Type", "City", "Status", "Device ID"},
			{"02/12/2024", "Repair", "Pune", "Done", "D1"},
		},
		"installations": {
			{"Installation Date", "Client Name", "City", "Device ID"},
			{"02/12/2024", "Acme", "Pune", "D1"},
		},
		"offline": {
			{"Date", "Client Name", "Vehicle Number", "Reason"},
			{"02/12/2024", "Acme", "V1", "Power cut"},
		},
	}}

	svc := NewService(fetcher, testSources(), cities.Default())
	svc.Clock = func() time.Time { return testNow }

	sum := svc.Summary(context.Background())

	sections := map[string]SummarySection{
		"alerts":           sum.Alerts,
		"misalignment":     sum.Misalignment,
		"video_issues":     sum.VideoIssues,
		"general_issues":   sum.GeneralIssues,
		"device_movement":  sum.DeviceMovement,
		"installations":    sum.Installations,
		"offline_vehicles": sum.OfflineVehicles,
	}
	for name, s := range sections {
		if s.Error != "" {
			t.Errorf("%s section carries error %q", name, s.Error)
		}
		if s.Total != 1 && name != "alerts" {
			t.Errorf("%s total = %d, want 1", name, s.Total)
		}
	}
	if sum.Alerts.Total != 2 {
		t.Errorf("alerts total = %d, want 2", sum.Alerts.Total)
	}
	// The latest bucket is the chronologically last month, not the first.
	if sum.Alerts.LatestMonth != "Jan 2025" || sum.Alerts.LatestCount != 1 {
		t.Errorf("alerts latest = %q/%d, want Jan 2025/1",
			sum.Alerts.LatestMonth, sum.Alerts.LatestCount)
	}
	if sum.Misalignment.LatestMonth != "Dec 2024" {
		t.Errorf("misalignment latest = %q, want Dec 2024", sum.Misalignment.LatestMonth)
	}
}
