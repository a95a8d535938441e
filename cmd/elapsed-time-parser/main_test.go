package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `planner 0 1 1000 0
planner 1 1 1010 0
planner 2 1 1040 0
planner 0 2 2000 0
planner 1 2 2020 0
planner 2 2 2070 0
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elapsed_time_log_1_0")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_TextReport(t *testing.T) {
	path := writeLog(t, sampleLog)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-no-plot", path}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}

	want := `planner: part index = 1
50%tile 10us
90%tile 20us
99%tile 20us
------------------------
planner: part index = 2
50%tile 30us
90%tile 50us
99%tile 50us
------------------------
`
	if got := stdout.String(); got != want {
		t.Errorf("stdout =\n%s\nwant\n%s", got, want)
	}
}

func TestRun_WritesFiguresAndMetrics(t *testing.T) {
	path := writeLog(t, sampleLog)
	outDir := t.TempDir()
	metricsPath := filepath.Join(outDir, "elapsed.prom")
	var stdout, stderr bytes.Buffer

	code := run([]string{
		"-format", "json",
		"-out-dir", outDir,
		"-plot-format", "svg",
		"-metrics-out", metricsPath,
		path,
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}

	for _, name := range []string{"planner.part0_histgram.svg", "planner.part1_histgram.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing figure %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(data), "elapsed_time_turnaround_microseconds") {
		t.Errorf("metrics file missing turnaround summary:\n%s", data)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout.String()), "{") {
		t.Errorf("expected JSON report, got: %s", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"no log file", func(t *testing.T) []string { return []string{"-no-plot"} }},
		{"missing file", func(t *testing.T) []string {
			return []string{"-no-plot", filepath.Join(t.TempDir(), "nope")}
		}},
		{"malformed line", func(t *testing.T) []string {
			return []string{"-no-plot", writeLog(t, "planner 0 1 1000\n")}
		}},
		{"sample count mismatch", func(t *testing.T) []string {
			return []string{"-no-plot", writeLog(t, "s 0 1 1 0\ns 0 2 2 0\ns 1 1 5 0\n")}
		}},
		{"single stage", func(t *testing.T) []string {
			return []string{"-no-plot", writeLog(t, "s 0 1 1 0\n")}
		}},
		{"bad format", func(t *testing.T) []string {
			return []string{"-no-plot", "-format", "xml", writeLog(t, sampleLog)}
		}},
		{"unknown flag", func(t *testing.T) []string { return []string{"-bogus"} }},
		{"two positionals", func(t *testing.T) []string { return []string{"a", "b"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args(t), &stdout, &stderr); code != 1 {
				t.Errorf("run() = %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Errorf("no report expected on failure, got: %s", stdout.String())
			}
		})
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Errorf("-version = %d", code)
	}
	if !strings.Contains(stdout.String(), "elapsed-time-parser") {
		t.Errorf("version output = %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{"-h"}, &stdout, &stderr); code != 0 {
		t.Errorf("-h = %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("usage not printed: %s", stderr.String())
	}
}

func TestRun_VerboseLogsStagesAndTransitions(t *testing.T) {
	path := writeLog(t, sampleLog)
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-no-plot", "-v", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	for _, want := range []string{
		`"msg":"log_parsed"`, `"stages":[0,1,2]`,
		`"msg":"series_computed"`, `"transitions":2`, `"samples":2`,
	} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("debug log missing %s:\n%s", want, stderr.String())
		}
	}
}
