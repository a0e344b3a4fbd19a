package api

import (
	"errors"
	"net/http"

	"github.com/fleetpulse/fleetpulse/internal/pipeline"
	"github.com/fleetpulse/fleetpulse/internal/sheets"
)

// Error represents an API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Detail carries structured diagnostics, like the header of a sheet
	// whose columns could not be resolved.
	Detail any `json:"detail,omitempty"`
	Status int `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeConfigurationError = "CONFIGURATION_ERROR"
	ErrCodeSourceFetchError   = "SOURCE_FETCH_ERROR"
	ErrCodeMissingColumns     = "MISSING_COLUMNS"
)

// Standard errors
var (
	ErrNotFound = &Error{
		Code:    ErrCodeNotFound,
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}

	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrNoAPIKey = &Error{
		Code:    ErrCodeConfigurationError,
		Message: "Sheets API key is not configured",
		Status:  http.StatusInternalServerError,
	}
)

// FromReportError maps a report-building failure to its API error. Every
// error class a view can produce has a stable code so the rendering side can
// branch on it.
func FromReportError(err error) *Error {
	if errors.Is(err, sheets.ErrNoAPIKey) {
		return ErrNoAPIKey
	}

	var fe *sheets.FetchError
	if errors.As(err, &fe) {
		return &Error{
			Code:    ErrCodeSourceFetchError,
			Message: "Upstream spreadsheet fetch failed",
			Detail:  map[string]any{"upstream_status": fe.Status},
			Status:  http.StatusBadGateway,
		}
	}

	var mce *pipeline.MissingColumnsError
	if errors.As(err, &mce) {
		return &Error{
			Code:    ErrCodeMissingColumns,
			Message: mce.Error(),
			Detail:  mce,
			Status:  http.StatusUnprocessableEntity,
		}
	}

	return ErrInternalServer
}
