package elapsedlog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

const sampleLog = `planner 0 1 100 0
planner 1 1 150 0
planner 0 2 200 0
planner 1 2 260 0
planner 0 3 300 0
planner 1 3 340 7
`

// =============================================================================
// ParseLine
// =============================================================================

func TestParseLine(t *testing.T) {
	rec, err := ParseLine("ndt_scan 2 17 1690000000123456 -42", 1)
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	want := Record{
		Session:   "ndt_scan",
		Stage:     2,
		Sample:    17,
		Timestamp: 1690000000123456,
		Payload:   "-42",
	}
	if rec != want {
		t.Errorf("ParseLine() = %+v, want %+v", rec, want)
	}
}

func TestParseLine_Whitespace(t *testing.T) {
	rec, err := ParseLine("  s\t0   1 \t 99  x  ", 1)
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if rec.Session != "s" || rec.Stage != 0 || rec.Sample != 1 || rec.Timestamp != 99 || rec.Payload != "x" {
		t.Errorf("ParseLine() = %+v", rec)
	}
}

func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantField string
		wantShape bool
	}{
		{"empty", "", "", true},
		{"four fields", "s 0 1 100", "", true},
		{"six fields", "s 0 1 100 0 extra", "", true},
		{"stage not int", "s x 1 100 0", "stage", false},
		{"sample not int", "s 0 1.5 100 0", "sample", false},
		{"timestamp not int", "s 0 1 1e6 0", "timestamp", false},
		{"timestamp overflow", "s 0 1 99999999999999999999 0", "timestamp", false},
		{"negative stage", "s -1 1 100 0", "stage", false},
		{"negative sample", "s 0 -3 100 0", "sample", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line, 7)
			if err == nil {
				t.Fatalf("ParseLine(%q) expected error", tt.line)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Line != 7 {
				t.Errorf("Line = %d, want 7", pe.Line)
			}
			if pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
			if got := errors.Is(err, ErrFieldCount); got != tt.wantShape {
				t.Errorf("errors.Is(ErrFieldCount) = %v, want %v", got, tt.wantShape)
			}
		})
	}
}

// =============================================================================
// Parse
// =============================================================================

func TestParse(t *testing.T) {
	log, err := Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if log.Session != "planner" {
		t.Errorf("Session = %q, want planner", log.Session)
	}
	if log.MaxStage != 1 {
		t.Errorf("MaxStage = %d, want 1", log.MaxStage)
	}
	if log.Records != 6 {
		t.Errorf("Records = %d, want 6", log.Records)
	}
	want := map[int][]int64{
		0: {100, 200, 300},
		1: {150, 260, 340},
	}
	if !reflect.DeepEqual(log.Stages, want) {
		t.Errorf("Stages = %v, want %v", log.Stages, want)
	}
}

func TestParse_SessionFromLastLine(t *testing.T) {
	input := "first 0 1 10 0\nsecond 1 1 20 0\n"
	log, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if log.Session != "second" {
		t.Errorf("Session = %q, want second", log.Session)
	}
}

func TestParse_Empty(t *testing.T) {
	log, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(log.Stages) != 0 || log.Records != 0 || log.Session != "" {
		t.Errorf("Parse(\"\") = %+v, want empty log", log)
	}
}

func TestParse_MalformedLineAborts(t *testing.T) {
	input := "s 0 1 100 0\ns 1 1 150\ns 0 2 200 0\n"
	log, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("Parse() expected error for short line")
	}
	if log != nil {
		t.Error("Parse() should not return a partial log")
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Errorf("error = %v, want ParseError on line 2", err)
	}
}

func TestParse_NegativeStageRejected(t *testing.T) {
	input := "s 0 1 100 0\ns -1 1 999 0\ns 1 1 150 0\n"
	log, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrNegative) {
		t.Fatalf("Parse() error = %v, want ErrNegative", err)
	}
	if log != nil {
		t.Error("Parse() should not return a partial log")
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 || pe.Field != "stage" {
		t.Errorf("error = %v, want stage ParseError on line 2", err)
	}
}

func TestParse_BlankLineIsMalformed(t *testing.T) {
	input := "s 0 1 100 0\n\ns 1 1 150 0\n"
	if _, err := Parse(strings.NewReader(input)); !errors.Is(err, ErrFieldCount) {
		t.Errorf("Parse() error = %v, want ErrFieldCount", err)
	}
}

func TestParse_Idempotent(t *testing.T) {
	a, err := Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parsing twice differs: %+v vs %+v", a, b)
	}
}

func TestLog_StageIndices(t *testing.T) {
	log := NewLog()
	for _, stage := range []int{3, 0, 1} {
		log.Add(Record{Session: "s", Stage: stage, Timestamp: 1})
	}
	if got := log.StageIndices(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Errorf("StageIndices() = %v", got)
	}
	if log.MaxStage != 3 {
		t.Errorf("MaxStage = %d, want 3", log.MaxStage)
	}
}

// =============================================================================
// ParseFile
// =============================================================================

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elapsed_time_log_1_0")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	log, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(log.Stages[0]) != 3 {
		t.Errorf("stage 0 has %d samples, want 3", len(log.Stages[0]))
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestParseFile_ErrorNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.log")
	if err := os.WriteFile(path, []byte("s 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ParseFile(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("ParseFile() error = %v, want path in message", err)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		for stage := 0; stage < 4; stage++ {
			sb.WriteString("bench ")
			sb.WriteString(strconv.Itoa(stage))
			sb.WriteString(" ")
			sb.WriteString(strconv.Itoa(i))
			sb.WriteString(" ")
			sb.WriteString(strconv.Itoa(1_000_000 + i*100 + stage*10))
			sb.WriteString(" 0\n")
		}
	}
	input := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(strings.NewReader(input)); err != nil {
			b.Fatal(err)
		}
	}
}
