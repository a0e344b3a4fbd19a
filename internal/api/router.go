package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetpulse/fleetpulse/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ipLimiter))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/alerts", s.handleAlerts())
			r.Get("/misalignment", s.handleMisalignment())
			r.Get("/video-issues", s.handleVideoIssues())
			r.Get("/general-issues", s.handleGeneralIssues())
			r.Get("/device-movement", s.handleDeviceMovement())
			r.Get("/installations", s.handleInstallations())
			r.Get("/offline-vehicles", s.handleOfflineVehicles())
		})

		r.Get("/summary", s.handleSummary())

		r.Route("/debug", func(r chi.Router) {
			r.Get("/alert-dates", s.handleAlertDates())
			r.Get("/issue-dates", s.handleIssueDates())
		})
	})

	// Health and metrics (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, ErrNotFound)
	})

	return r
}
