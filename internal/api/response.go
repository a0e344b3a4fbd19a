package api

import (
	"encoding/json"
	"net/http"
)

// Response is a standard API response wrapper.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{Data: data}
	json.NewEncoder(w).Encode(resp)
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	resp := Response{Error: err}
	json.NewEncoder(w).Encode(resp)
}

// Report writes a successful report payload. Reports are recomputed from
// source on every request and must not be cached by intermediaries: stale
// numbers on an ops dashboard are worse than slow ones.
func Report(w http.ResponseWriter, data any) {
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, http.StatusOK, data)
}
