package health

import (
	"context"
	"fmt"
)

// SourcePinger verifies one upstream spreadsheet is reachable.
type SourcePinger interface {
	Ping(ctx context.Context, spreadsheetID string) error
}

// SheetsChecker reports whether the primary report source responds with the
// configured credentials.
type SheetsChecker struct {
	pinger        SourcePinger
	spreadsheetID string
}

// NewSheetsChecker creates a sheets source health checker.
func NewSheetsChecker(p SourcePinger, spreadsheetID string) *SheetsChecker {
	return &SheetsChecker{pinger: p, spreadsheetID: spreadsheetID}
}

// Name returns the checker name.
func (c *SheetsChecker) Name() string {
	return "sheets"
}

// Check verifies the spreadsheet source is accessible.
func (c *SheetsChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("sheets client not initialized")
	}
	return c.pinger.Ping(ctx, c.spreadsheetID)
}
