package report

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetpulse/fleetpulse/internal/aggregate"
)

// SummarySection is the condensed form of one view inside the composite
// dashboard. A failed view degrades to a zeroed section with its error
// string; it never poisons sibling sections.
type SummarySection struct {
	Total       int    `json:"total"`
	LatestMonth string `json:"latest_month,omitempty"`
	LatestCount int    `json:"latest_count,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SummaryReport is the composite dashboard view: every source fetched and
// aggregated independently, in parallel.
type SummaryReport struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	Alerts          SummarySection `json:"alerts"`
	Misalignment    SummarySection `json:"misalignment"`
	VideoIssues     SummarySection `json:"video_issues"`
	GeneralIssues   SummarySection `json:"general_issues"`
	DeviceMovement  SummarySection `json:"device_movement"`
	Installations   SummarySection `json:"installations"`
	OfflineVehicles SummarySection `json:"offline_vehicles"`
}

// Summary builds the composite view. Fetches run concurrently; the method
// itself never fails; per-view errors land in their sections.
func (s *Service) Summary(ctx context.Context) *SummaryReport {
	rep := &SummaryReport{GeneratedAt: s.Clock()}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.Alerts(ctx)
		rep.Alerts = section("alerts", err, func() (int, string, int) {
			month, count := latestMonth(r.Monthly)
			return r.TotalAlerts, month, count
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.Misalignment(ctx)
		rep.Misalignment = section("misalignment", err, func() (int, string, int) {
			month, count := latestMonth(r.Monthly)
			return r.TotalReports, month, count
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.VideoIssues(ctx)
		rep.VideoIssues = section("video issues", err, func() (int, string, int) {
			if len(r.Monthly) == 0 {
				return r.TotalRequests, "", 0
			}
			last := r.Monthly[len(r.Monthly)-1]
			return r.TotalRequests, last.Month, last.Raised
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.GeneralIssues(ctx)
		rep.GeneralIssues = section("general issues", err, func() (int, string, int) {
			if len(r.Monthly) == 0 {
				return r.TotalIssues, "", 0
			}
			last := r.Monthly[len(r.Monthly)-1]
			return r.TotalIssues, last.Month, last.Raised
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.DeviceMovement(ctx)
		rep.DeviceMovement = section("device movement", err, func() (int, string, int) {
			month, count := latestMonth(r.Monthly)
			return r.TotalMovements, month, count
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.Installations(ctx)
		rep.Installations = section("installations", err, func() (int, string, int) {
			if len(r.Monthly) == 0 {
				return r.TotalInstallations, "", 0
			}
			last := r.Monthly[len(r.Monthly)-1]
			return r.TotalInstallations, last.Month, last.Count
		})
		return nil
	})
	g.Go(func() error {
		r, err := s.OfflineVehicles(ctx)
		rep.OfflineVehicles = section("offline vehicles", err, func() (int, string, int) {
			month, count := latestMonth(r.Monthly)
			return r.TotalReports, month, count
		})
		return nil
	})

	// Goroutines only ever return nil; Wait is a join.
	_ = g.Wait()
	return rep
}

// section folds one view's outcome into a summary slot.
func section(name string, err error, extract func() (total int, month string, count int)) SummarySection {
	if err != nil {
		log.Printf("summary: %s view failed: %v", name, err)
		return SummarySection{Error: err.Error()}
	}
	total, month, count := extract()
	return SummarySection{Total: total, LatestMonth: month, LatestCount: count}
}

func latestMonth(months []aggregate.MonthCount) (string, int) {
	if len(months) == 0 {
		return "", 0
	}
	last := months[len(months)-1]
	return last.Month, last.Count
}
