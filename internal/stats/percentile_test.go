package stats

import (
	"math/rand"
	"reflect"
	"testing"
)

// =============================================================================
// Percentile
// =============================================================================

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int64
		p      float64
		want   int64
	}{
		{"empty", nil, P50, 0},
		{"single p50", []int64{7}, P50, 7},
		{"single p99", []int64{7}, P99, 7},
		{"three p50", []int64{40, 50, 60}, P50, 50},
		{"three p90", []int64{40, 50, 60}, P90, 60},
		{"four p50", []int64{1, 2, 3, 4}, P50, 2},
		{"ten p90", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, P90, 9},
		{"ten p99", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, P99, 10},
		{"zero p clamps low", []int64{3, 4}, 0, 3},
		{"over one clamps high", []int64{3, 4}, 1.5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("Percentile(%v, %v) = %d, want %d", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentile_Hundred(t *testing.T) {
	sorted := make([]int64, 100)
	for i := range sorted {
		sorted[i] = int64(i + 1)
	}
	// ceil(100*p - 1): p50 -> 49, p90 -> 89, p99 -> 98
	if got := Percentile(sorted, P50); got != 50 {
		t.Errorf("p50 = %d, want 50", got)
	}
	if got := Percentile(sorted, P90); got != 90 {
		t.Errorf("p90 = %d, want 90", got)
	}
	if got := Percentile(sorted, P99); got != 99 {
		t.Errorf("p99 = %d, want 99", got)
	}
}

// =============================================================================
// Summarize
// =============================================================================

func TestSummarize(t *testing.T) {
	values := []int64{50, 60, 40}
	s := Summarize(values)

	want := Summary{Count: 3, Min: 40, Max: 60, Sum: 150, Mean: 50, P50: 50, P90: 60, P99: 60}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
	if !reflect.DeepEqual(values, []int64{50, 60, 40}) {
		t.Errorf("Summarize mutated input: %v", values)
	}
}

func TestSummarize_SingleSample(t *testing.T) {
	s := Summarize([]int64{123})
	if s.P50 != 123 || s.P90 != 123 || s.P99 != 123 {
		t.Errorf("single sample percentiles = %d/%d/%d, want 123", s.P50, s.P90, s.P99)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", s)
	}
}

func TestSummarize_OrderIndependent(t *testing.T) {
	values := make([]int64, 1000)
	for i := range values {
		values[i] = int64(i * 3)
	}
	want := Summarize(values)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := append([]int64(nil), values...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Summarize(shuffled); got != want {
			t.Fatalf("shuffle %d: Summarize() = %+v, want %+v", i, got, want)
		}
	}
}

func TestSummarize_Negative(t *testing.T) {
	s := Summarize([]int64{-10, 5, -3})
	if s.Min != -10 || s.Max != 5 || s.P50 != -3 {
		t.Errorf("Summarize() = %+v", s)
	}
}

// =============================================================================
// Estimate (T-Digest)
// =============================================================================

func TestEstimate_CloseToExact(t *testing.T) {
	values := make([]int64, 10000)
	for i := range values {
		values[i] = int64(i + 1)
	}
	exact := Summarize(values)
	est := Estimate(values)

	if est.Count != exact.Count || est.Min != exact.Min || est.Max != exact.Max {
		t.Errorf("Estimate basics = %+v, want %+v", est, exact)
	}

	// Uniform data: T-Digest should be within 1% of the range.
	tolerance := int64(100)
	check := func(name string, got, want int64) {
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("%s = %d, want %d ± %d", name, got, want, tolerance)
		}
	}
	check("p50", est.P50, exact.P50)
	check("p90", est.P90, exact.P90)
	check("p99", est.P99, exact.P99)
}

func TestEstimate_SingleSample(t *testing.T) {
	s := Estimate([]int64{77})
	if s.P50 != 77 || s.P90 != 77 || s.P99 != 77 {
		t.Errorf("Estimate single = %+v", s)
	}
}

func TestEstimate_Empty(t *testing.T) {
	if s := Estimate(nil); s != (Summary{}) {
		t.Errorf("Estimate(nil) = %+v", s)
	}
}

func TestSummarizeWith(t *testing.T) {
	values := []int64{1, 2, 3}
	if got := SummarizeWith(MethodExact, values); got != Summarize(values) {
		t.Errorf("exact = %+v", got)
	}
	if got := SummarizeWith(Method("bogus"), values); got != Summarize(values) {
		t.Errorf("unknown method should fall back to exact, got %+v", got)
	}
	if got := SummarizeWith(MethodTDigest, values); got.Count != 3 {
		t.Errorf("tdigest = %+v", got)
	}
}

func TestSummarizeAll(t *testing.T) {
	got := SummarizeAll(MethodExact, [][]int64{{50, 60, 40}, {9}})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].P50 != 50 || got[1].P99 != 9 {
		t.Errorf("SummarizeAll() = %+v", got)
	}
}
