// Package health provides health check endpoints for the API.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker defines the interface for health checkers.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Handler manages health check endpoints. Checkers are registered during
// startup, before the server accepts traffic.
type Handler struct {
	checkers []Checker
}

// NewHandler creates a new health handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterChecker adds a dependency checker.
func (h *Handler) RegisterChecker(c Checker) {
	h.checkers = append(h.checkers, c)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Health returns basic health status: is the process running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Live returns liveness probe status for Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "live"})
}

// Ready checks all registered dependencies and returns 200 only when every
// one is healthy. Use for Kubernetes readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]string)
	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Checks: results}

	for _, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			results[checker.Name()] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		} else {
			results[checker.Name()] = "ok"
		}
	}

	writeHealth(w, status, resp)
}
