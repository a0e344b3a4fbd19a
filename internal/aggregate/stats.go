package aggregate

import (
	"math"
	"sort"
)

// TimeStats summarizes a set of resolution-time samples, in hours.
type TimeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_hours"`
	Min    float64 `json:"min_hours"`
	Max    float64 `json:"max_hours"`
	Median float64 `json:"median_hours"`
}

// ComputeStats returns summary statistics for the samples, or nil when there
// are none. The input slice is not modified.
func ComputeStats(samples []float64) *TimeStats {
	if len(samples) == 0 {
		return nil
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}

	return &TimeStats{
		Count:  len(sorted),
		Mean:   round2(sum / float64(len(sorted))),
		Min:    round2(sorted[0]),
		Max:    round2(sorted[len(sorted)-1]),
		Median: round2(median(sorted)),
	}
}

// median expects a sorted slice: middle element for odd counts, mean of the
// two middle elements for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
