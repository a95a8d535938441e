package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/stats"
)

func sampleReport() Report {
	return Report{
		Session: "planner",
		Method:  stats.MethodExact,
		Transitions: []stats.Summary{
			stats.Summarize([]int64{50, 60, 40}),
			stats.Summarize([]int64{1000, 1200, 15000}),
		},
	}
}

// =============================================================================
// Text
// =============================================================================

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	want := `planner: part index = 1
50%tile 50us
90%tile 60us
99%tile 60us
------------------------
planner: part index = 2
50%tile 1200us
90%tile 15000us
99%tile 15000us
------------------------
`
	if got := buf.String(); got != want {
		t.Errorf("WriteText() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Report{Session: "s"}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("WriteText() with no transitions wrote %q", buf.String())
	}
}

func TestWriteText_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	_ = WriteText(&a, sampleReport())
	_ = WriteText(&b, sampleReport())
	if a.String() != b.String() {
		t.Error("WriteText output differs between runs")
	}
}

// =============================================================================
// Table
// =============================================================================

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"planner",
		"exact percentiles",
		"STAGES", "P50", "P99/P50",
		"0 → 1", "1 → 2",
		"50 µs", "60 µs",
		"1.20 ms", "15.00 ms",
		"50.0 µs", "5.73 ms",
		"12.5x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteTable() missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteTable_DefaultMethod(t *testing.T) {
	r := sampleReport()
	r.Method = ""
	var buf bytes.Buffer
	if err := WriteTable(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "exact percentiles") {
		t.Errorf("expected default method label, got:\n%s", buf.String())
	}
}

// =============================================================================
// JSON
// =============================================================================

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if doc.Session != "planner" || doc.Method != stats.MethodExact {
		t.Errorf("doc header = %q/%q", doc.Session, doc.Method)
	}
	if len(doc.Transitions) != 2 {
		t.Fatalf("len(Transitions) = %d, want 2", len(doc.Transitions))
	}
	first := doc.Transitions[0]
	if first.Part != 1 || first.FromStage != 0 || first.ToStage != 1 {
		t.Errorf("first transition indices = %+v", first)
	}
	if first.P50 != 50 || first.P90 != 60 || first.Count != 3 || first.Mean != 50 {
		t.Errorf("first transition values = %+v", first)
	}
}

func TestNewDocument_EmptyTransitions(t *testing.T) {
	doc := NewDocument(Report{Session: "s"})
	if doc.Transitions == nil {
		t.Error("Transitions should be an empty slice, not nil")
	}
	if doc.Method != stats.MethodExact {
		t.Errorf("Method = %q, want exact", doc.Method)
	}
}

// =============================================================================
// Dispatch
// =============================================================================

func TestWrite_Dispatch(t *testing.T) {
	tests := []struct {
		format  Format
		contain string
		wantErr bool
	}{
		{FormatText, "part index = 1", false},
		{"", "part index = 1", false},
		{FormatTable, "STAGES", false},
		{FormatJSON, `"session": "planner"`, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.format, sampleReport())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Write() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.contain) {
				t.Errorf("Write(%q) missing %q", tt.format, tt.contain)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "table", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("TEXT"); err == nil {
		t.Error("ParseFormat is case-sensitive")
	}
}
