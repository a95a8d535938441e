package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red

	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1).
			Align(lipgloss.Right)

	tableRowOddStyle = tableCellStyle.
				Foreground(colorTextMuted)

	borderStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	valueGoodStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	valueWarnStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	valueBadStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// =============================================================================
// Tail Status Indicator
// =============================================================================

// TailStatus grades how far the p99 sits from the median.
type TailStatus int

const (
	TailStatusTight TailStatus = iota
	TailStatusWide
	TailStatusHeavy
)

// Tail ratio thresholds (p99 / p50).
const (
	WideTailRatio  = 3.0
	HeavyTailRatio = 10.0
)

// GetTailStatus grades a p50/p99 pair. A non-positive median is graded
// by the sign of the p99 alone.
func GetTailStatus(p50, p99 int64) TailStatus {
	if p50 <= 0 {
		if p99 > 0 {
			return TailStatusHeavy
		}
		return TailStatusTight
	}
	ratio := float64(p99) / float64(p50)
	switch {
	case ratio >= HeavyTailRatio:
		return TailStatusHeavy
	case ratio >= WideTailRatio:
		return TailStatusWide
	default:
		return TailStatusTight
	}
}

// GetTailStyle returns the style for a tail status.
func GetTailStyle(status TailStatus) lipgloss.Style {
	switch status {
	case TailStatusHeavy:
		return valueBadStyle
	case TailStatusWide:
		return valueWarnStyle
	default:
		return valueGoodStyle
	}
}

// FormatTailRatio renders p99/p50 as e.g. "3.2x", or "N/A" without a
// positive median.
func FormatTailRatio(p50, p99 int64) string {
	if p50 <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1fx", float64(p99)/float64(p50))
}
