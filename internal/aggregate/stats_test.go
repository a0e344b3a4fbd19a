package aggregate

import "testing"

func TestComputeStatsMedianOdd(t *testing.T) {
	s := ComputeStats([]float64{2, 4, 4})
	if s == nil {
		t.Fatal("nil stats")
	}
	if s.Median != 4 {
		t.Errorf("median = %v, want 4", s.Median)
	}
}

func TestComputeStatsMedianEven(t *testing.T) {
	s := ComputeStats([]float64{1, 2, 3, 4})
	if s == nil {
		t.Fatal("nil stats")
	}
	if s.Median != 2.5 {
		t.Errorf("median = %v, want 2.5", s.Median)
	}
}

func TestComputeStatsSummary(t *testing.T) {
	s := ComputeStats([]float64{10, 2, 6})
	if s.Count != 3 {
		t.Errorf("count = %d, want 3", s.Count)
	}
	if s.Min != 2 || s.Max != 10 {
		t.Errorf("min/max = %v/%v, want 2/10", s.Min, s.Max)
	}
	if s.Mean != 6 {
		t.Errorf("mean = %v, want 6", s.Mean)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	if s := ComputeStats(nil); s != nil {
		t.Errorf("ComputeStats(nil) = %+v, want nil", s)
	}
}

func TestComputeStatsDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	ComputeStats(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input mutated: %v", in)
	}
}
