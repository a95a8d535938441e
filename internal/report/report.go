// Package report renders turnaround-time percentile summaries.
//
// Three formats are supported:
//   - text:  the plain per-part block format (one block per transition)
//   - table: a lipgloss-styled table with min/mean/max and tail grading
//   - json:  a machine-readable document
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/stats"
)

// Format selects the report layout.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Separator closes each text block.
const Separator = "------------------------"

// Report is the input to every writer.
type Report struct {
	Session     string
	Method      stats.Method
	Transitions []stats.Summary // index i is stage i -> i+1
}

// Write renders r in the given format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatTable:
		return WriteTable(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText prints one block per transition. Part indices are 1-based:
// part i+1 is the turnaround from stage i to stage i+1.
func WriteText(w io.Writer, r Report) error {
	for i, s := range r.Transitions {
		if _, err := fmt.Fprintf(w,
			"%s: part index = %d\n50%%tile %dus\n90%%tile %dus\n99%%tile %dus\n%s\n",
			r.Session, i+1, s.P50, s.P90, s.P99, Separator,
		); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable prints a styled summary table.
func WriteTable(w io.Writer, r Report) error {
	rows := make([][]string, 0, len(r.Transitions))
	tails := make([]TailStatus, 0, len(r.Transitions))
	for i, s := range r.Transitions {
		rows = append(rows, []string{
			fmt.Sprintf("%d → %d", i, i+1),
			stats.FormatNumber(int64(s.Count)),
			stats.FormatMicros(s.Min),
			stats.FormatMean(s.Mean),
			stats.FormatMicros(s.P50),
			stats.FormatMicros(s.P90),
			stats.FormatMicros(s.P99),
			stats.FormatMicros(s.Max),
			FormatTailRatio(s.P50, s.P99),
		})
		tails = append(tails, GetTailStatus(s.P50, s.P99))
	}

	const tailCol = 8
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("STAGES", "SAMPLES", "MIN", "MEAN", "P50", "P90", "P99", "MAX", "P99/P50").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == tailCol && row >= 0 && row < len(tails):
				return GetTailStyle(tails[row]).Padding(0, 1).Align(lipgloss.Right)
			case row%2 == 1:
				return tableRowOddStyle
			default:
				return tableCellStyle
			}
		})

	method := r.Method
	if method == "" {
		method = stats.MethodExact
	}
	title := titleStyle.Render(r.Session) + " " +
		mutedStyle.Render(fmt.Sprintf("turnaround times (%s percentiles, %s samples)",
			method, stats.FormatNumber(stats.TotalSamples(r.Transitions))))

	_, err := fmt.Fprintf(w, "%s\n%s\n", title, t.String())
	return err
}

// Document is the JSON report layout.
type Document struct {
	Session     string       `json:"session"`
	Method      stats.Method `json:"method"`
	Transitions []Transition `json:"transitions"`
}

// Transition is one stage pair in a Document.
type Transition struct {
	Part      int     `json:"part"`
	FromStage int     `json:"from_stage"`
	ToStage   int     `json:"to_stage"`
	Count     int     `json:"count"`
	Min       int64   `json:"min_us"`
	Max       int64   `json:"max_us"`
	Mean      float64 `json:"mean_us"`
	P50       int64   `json:"p50_us"`
	P90       int64   `json:"p90_us"`
	P99       int64   `json:"p99_us"`
}

// NewDocument builds the JSON view of r.
func NewDocument(r Report) Document {
	method := r.Method
	if method == "" {
		method = stats.MethodExact
	}
	doc := Document{
		Session:     r.Session,
		Method:      method,
		Transitions: make([]Transition, 0, len(r.Transitions)),
	}
	for i, s := range r.Transitions {
		doc.Transitions = append(doc.Transitions, Transition{
			Part:      i + 1,
			FromStage: i,
			ToStage:   i + 1,
			Count:     s.Count,
			Min:       s.Min,
			Max:       s.Max,
			Mean:      s.Mean,
			P50:       s.P50,
			P90:       s.P90,
			P99:       s.P99,
		})
	}
	return doc
}

// WriteJSON writes r as an indented JSON document.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(r))
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %s", strconv.Quote(s))
	}
}
