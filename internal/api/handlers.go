package api

import (
	"context"
	"log"
	"net/http"
)

// reportFunc builds one view; the closure pins the concrete report type.
type reportFunc func(ctx context.Context) (any, error)

// handleReport runs one view builder and writes the outcome. Builder errors
// carry their own status code via FromReportError; transport errors never
// leak raw.
func handleReport(name string, build reportFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := build(r.Context())
		if err != nil {
			apiErr := FromReportError(err)
			if apiErr.Code == ErrCodeInternalError {
				log.Printf("%s report failed: %v", name, err)
			}
			JSONError(w, apiErr)
			return
		}
		Report(w, rep)
	}
}

func (s *Server) handleAlerts() http.HandlerFunc {
	return handleReport("alerts", func(ctx context.Context) (any, error) {
		return s.reports.Alerts(ctx)
	})
}

func (s *Server) handleMisalignment() http.HandlerFunc {
	return handleReport("misalignment", func(ctx context.Context) (any, error) {
		return s.reports.Misalignment(ctx)
	})
}

func (s *Server) handleVideoIssues() http.HandlerFunc {
	return handleReport("video_issues", func(ctx context.Context) (any, error) {
		return s.reports.VideoIssues(ctx)
	})
}

func (s *Server) handleGeneralIssues() http.HandlerFunc {
	return handleReport("general_issues", func(ctx context.Context) (any, error) {
		return s.reports.GeneralIssues(ctx)
	})
}

func (s *Server) handleDeviceMovement() http.HandlerFunc {
	return handleReport("device_movement", func(ctx context.Context) (any, error) {
		return s.reports.DeviceMovement(ctx)
	})
}

func (s *Server) handleInstallations() http.HandlerFunc {
	return handleReport("installations", func(ctx context.Context) (any, error) {
		return s.reports.Installations(ctx)
	})
}

func (s *Server) handleOfflineVehicles() http.HandlerFunc {
	return handleReport("offline_vehicles", func(ctx context.Context) (any, error) {
		return s.reports.OfflineVehicles(ctx)
	})
}

// handleSummary never fails: per-view errors degrade to zeroed sections
// inside the payload.
func (s *Server) handleSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Report(w, s.reports.Summary(r.Context()))
	}
}

func (s *Server) handleAlertDates() http.HandlerFunc {
	return handleReport("alert_dates", func(ctx context.Context) (any, error) {
		return s.reports.AlertDates(ctx)
	})
}

func (s *Server) handleIssueDates() http.HandlerFunc {
	return handleReport("issue_dates", func(ctx context.Context) (any, error) {
		return s.reports.IssueDates(ctx)
	})
}
