// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fleetpulse/fleetpulse/internal/api/health"
	"github.com/fleetpulse/fleetpulse/internal/report"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RateLimitPerIP int
	Verbose        bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		// Every report endpoint re-fetches several sheet ranges, so the
		// write deadline has to absorb upstream latency.
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 60 // requests per minute
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	reports       *report.Service
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server.
func New(cfg *Config, reports *report.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if reports == nil {
		return nil, fmt.Errorf("report service is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		reports:       reports,
		healthHandler: health.NewHandler(),
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
