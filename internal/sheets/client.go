// Package sheets fetches tabular data from the Google Sheets values API.
//
// Every report recomputes from a fresh fetch; nothing is cached here. The
// client is deliberately thin: one GET per sheet range, returning the raw 2-D
// array of cell strings for the pipeline to interpret.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/fleetpulse/fleetpulse/internal/metrics"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// ErrNoAPIKey means the client was constructed without source credentials.
var ErrNoAPIKey = errors.New("sheets: api key is required")

// FetchError reports a non-success response from the spreadsheet API.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("sheets: fetch failed with status %d", e.Status)
}

// Config contains sheets client settings.
type Config struct {
	APIKey  string
	BaseURL string        // override for tests; default is the public API
	Timeout time.Duration // per-request timeout (default 30s)
	// RequestsPerSecond caps outbound calls to stay inside the Google API
	// quota. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Client reads sheet ranges over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient creates a sheets client. A missing API key is a configuration
// error surfaced immediately rather than on first request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: limiter,
	}, nil
}

// valuesResponse is the subset of the values API body we read. The "values"
// key is absent entirely when the requested range is empty.
type valuesResponse struct {
	Values [][]string `json:"values"`
}

// FetchRange fetches one sheet range as a 2-D array of raw cell strings.
// Rows may be ragged: trailing empty cells are absent, not empty strings.
func (c *Client) FetchRange(ctx context.Context, spreadsheetID, rangeRef string) ([][]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(rangeRef),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SheetFetchErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("fetch range %s: %w", rangeRef, err)
	}
	defer resp.Body.Close()

	metrics.SheetFetchDuration.WithLabelValues(rangeRef).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		metrics.SheetFetchErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.SheetFetchErrors.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &FetchError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed valuesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.SheetFetchErrors.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	metrics.SheetRowsFetched.WithLabelValues(rangeRef).Add(float64(len(parsed.Values)))
	return parsed.Values, nil
}

// Ping verifies the spreadsheet is reachable with the configured key. It
// requests metadata only, so readiness probes do not burn values-API quota
// on row payloads.
func (c *Client) Ping(ctx context.Context, spreadsheetID string) error {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s?key=%s&fields=spreadsheetId",
		c.baseURL,
		url.PathEscape(spreadsheetID),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping spreadsheet: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Status: resp.StatusCode}
	}
	return nil
}
