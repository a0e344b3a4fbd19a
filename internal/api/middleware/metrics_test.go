package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fleetpulse/fleetpulse/internal/metrics"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/widgets/{view}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, view := range []string{"alerts", "installations"} {
		req := httptest.NewRequest(http.MethodGet, "/widgets/"+view, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	// Both requests collapse into the single pattern-labeled series.
	got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/widgets/{view}", "418"))
	if got != 2 {
		t.Errorf("requests_total for /widgets/{view} = %v, want 2", got)
	}
	if f := testutil.ToFloat64(metrics.HTTPRequestsInFlight); f != 0 {
		t.Errorf("in-flight gauge = %v after requests finished, want 0", f)
	}
}

func TestMetricsFallsBackToRawPath(t *testing.T) {
	h := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bare", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/bare", "204"))
	if got != 1 {
		t.Errorf("requests_total for /bare = %v, want 1", got)
	}
}
