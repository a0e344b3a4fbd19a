package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetpulse/fleetpulse/internal/api"
	"github.com/fleetpulse/fleetpulse/internal/api/health"
	"github.com/fleetpulse/fleetpulse/internal/cities"
	"github.com/fleetpulse/fleetpulse/internal/report"
	"github.com/fleetpulse/fleetpulse/internal/sheets"
	"github.com/fleetpulse/fleetpulse/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetpulse-server",
	Short: "FleetPulse Server - Fleet analytics dashboard backend",
	Long: `FleetPulse Server fetches fleet operations data from Google Sheets,
computes monthly and dimensional aggregates, and serves them as report
payloads for the dashboard.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fleetpulse-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	// Get the Sheets API key from environment
	apiKey := os.Getenv("FLEETPULSE_SHEETS_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("FLEETPULSE_SHEETS_API_KEY environment variable is required")
	}

	client, err := sheets.NewClient(sheets.Config{
		APIKey:            apiKey,
		BaseURL:           cfg.Sheets.BaseURL,
		RequestsPerSecond: cfg.Sheets.RequestsPerSecond,
		Burst:             cfg.Sheets.Burst,
	})
	if err != nil {
		return fmt.Errorf("create sheets client: %w", err)
	}

	cityStore, err := cities.NewStore(cfg.Cities.AliasFile)
	if err != nil {
		return fmt.Errorf("load city alias table: %w", err)
	}

	sources := report.Sources{
		Alerts:        report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Alerts},
		Misalignment:  report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Misalignment},
		Issues:        report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Issues},
		Movement:      report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Movement},
		Installations: report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Installations},
		Offline:       report.SheetRef{SpreadsheetID: cfg.Sheets.SpreadsheetID, Range: cfg.Sheets.Ranges.Offline},
	}

	reports := report.NewService(client, sources, cityStore)

	srv, err := api.New(&api.Config{
		Address:        cfg.Server.Address,
		RateLimitPerIP: cfg.Server.RateLimitPerIP,
		Verbose:        cfg.Verbose,
	}, reports)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	srv.RegisterHealthChecker(health.NewSheetsChecker(client, cfg.Sheets.SpreadsheetID))

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	// Hot-reload the city alias table when the file changes
	if cfg.Cities.AliasFile != "" {
		go func() {
			if err := cityStore.Watch(ctx); err != nil {
				log.Printf("city alias watch stopped: %v", err)
			}
		}()
	}

	log.Printf("starting fleetpulse-server %s", config.Version)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
