package stats

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatNumber formats a count with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatMicros formats a microsecond value with the largest readable unit.
// Negative values keep their sign.
func FormatMicros(us int64) string {
	d := time.Duration(us) * time.Microsecond
	abs := d
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= time.Second:
		return fmt.Sprintf("%.2f s", d.Seconds())
	case abs >= time.Millisecond:
		return fmt.Sprintf("%.2f ms", float64(us)/1000)
	default:
		return fmt.Sprintf("%d µs", us)
	}
}

// FormatMean formats a mean microsecond value. Below a millisecond it
// keeps one decimal; larger values format like FormatMicros.
func FormatMean(us float64) string {
	if us > -1000 && us < 1000 {
		return fmt.Sprintf("%.1f µs", us)
	}
	return FormatMicros(int64(math.Round(us)))
}

// TotalSamples returns the sample count across summaries.
func TotalSamples(summaries []Summary) int64 {
	var n int64
	for _, s := range summaries {
		n += int64(s.Count)
	}
	return n
}
