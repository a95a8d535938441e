// Package stats provides percentile summaries of turnaround-time samples.
//
// This file implements the exact nearest-rank percentile used for the
// report, plus a T-Digest estimate for very large logs.
package stats

import (
	"math"
	"slices"

	"github.com/influxdata/tdigest"
)

// Reported percentiles.
const (
	P50 = 0.50
	P90 = 0.90
	P99 = 0.99
)

// Method selects how percentiles are computed.
type Method string

const (
	// MethodExact sorts the samples and selects by nearest rank.
	MethodExact Method = "exact"

	// MethodTDigest estimates percentiles from a T-Digest.
	MethodTDigest Method = "tdigest"
)

// DigestCompression matches the compression used elsewhere (~100 centroids).
const DigestCompression = 100

// Summary describes one turnaround-time distribution, in microseconds.
type Summary struct {
	Count int
	Min   int64
	Max   int64
	Mean  float64
	Sum   float64

	P50 int64
	P90 int64
	P99 int64
}

// Percentile returns the nearest-rank percentile of an ascending slice:
// sorted[ceil(len*p - 1)], clamped to the slice bounds.
// Returns 0 for an empty slice.
func Percentile(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(n)*p - 1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Summarize computes an exact Summary. values is not modified.
func Summarize(values []int64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := basics(sorted[0], sorted[len(sorted)-1], values)
	s.P50 = Percentile(sorted, P50)
	s.P90 = Percentile(sorted, P90)
	s.P99 = Percentile(sorted, P99)
	return s
}

// Estimate computes a Summary whose percentiles come from a T-Digest.
// Count, Min, Max and Mean are exact.
func Estimate(values []int64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	td := tdigest.NewWithCompression(DigestCompression)
	lo, hi := values[0], values[0]
	for _, v := range values {
		td.Add(float64(v), 1)
		lo = min(lo, v)
		hi = max(hi, v)
	}

	s := basics(lo, hi, values)
	s.P50 = clampRound(td.Quantile(P50), lo, hi)
	s.P90 = clampRound(td.Quantile(P90), lo, hi)
	s.P99 = clampRound(td.Quantile(P99), lo, hi)
	return s
}

// SummarizeWith dispatches on method. Unknown methods fall back to exact.
func SummarizeWith(method Method, values []int64) Summary {
	if method == MethodTDigest {
		return Estimate(values)
	}
	return Summarize(values)
}

// SummarizeAll summarizes every series in order.
func SummarizeAll(method Method, series [][]int64) []Summary {
	out := make([]Summary, len(series))
	for i, s := range series {
		out[i] = SummarizeWith(method, s)
	}
	return out
}

func basics(lo, hi int64, values []int64) Summary {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return Summary{
		Count: len(values),
		Min:   lo,
		Max:   hi,
		Sum:   sum,
		Mean:  sum / float64(len(values)),
	}
}

func clampRound(v float64, lo, hi int64) int64 {
	r := int64(math.Round(v))
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}
