package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ErrHelp is returned by ParseArgs when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// ParseArgs parses command-line arguments (without the program name) and
// returns a Config. The single positional argument is the log file.
func ParseArgs(args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("elapsed-time-parser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Custom usage message
	fs.Usage = func() {
		fmt.Fprintf(stderr, `elapsed-time-parser - per-stage turnaround percentiles from an elapsed-time log

Usage:
  elapsed-time-parser [flags] <LOG_FILE>

Report Flags:
`)
		printFlagCategory(fs, stderr, []string{"format", "percentiles"})

		fmt.Fprintf(stderr, "\nPlotting:\n")
		printFlagCategory(fs, stderr, []string{"no-plot", "bins", "plot-format", "out-dir"})

		fmt.Fprintf(stderr, "\nMetrics Export:\n")
		printFlagCategory(fs, stderr, []string{"metrics-out"})

		fmt.Fprintf(stderr, "\nObservability:\n")
		printFlagCategory(fs, stderr, []string{"v", "log-format"})

		fmt.Fprintf(stderr, `
Log Format:
  One record per line: <session> <stage> <sample> <timestamp_us> <payload>

Examples:
  # Percentiles plus one PDF per stage transition
  elapsed-time-parser elapsed_time_log_4242_0

  # Styled table, no plots
  elapsed-time-parser -format table -no-plot elapsed_time_log_4242_0

  # Export for the node_exporter textfile collector
  elapsed-time-parser -no-plot -metrics-out /var/lib/node_exporter/elapsed.prom elapsed_time_log_4242_0

`)
	}

	// Report
	fs.StringVar(&cfg.Format, "format", cfg.Format, `Report format: "text", "table", "json"`)
	fs.StringVar(&cfg.Percentiles, "percentiles", cfg.Percentiles, `Percentile method: "exact" or "tdigest"`)

	// Plotting
	fs.BoolVar(&cfg.NoPlot, "no-plot", cfg.NoPlot, "Skip figure rendering")
	fs.IntVar(&cfg.Bins, "bins", cfg.Bins, "Histogram bin count")
	fs.StringVar(&cfg.PlotFormat, "plot-format", cfg.PlotFormat, `Figure format: "pdf", "png", "svg"`)
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "Directory for figures")

	// Metrics
	fs.StringVar(&cfg.MetricsOut, "metrics-out", cfg.MetricsOut, "Write Prometheus text metrics to this file")

	// Observability
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Positional argument: log file
	rest := fs.Args()
	if len(rest) > 1 {
		return nil, fmt.Errorf("expected one log file, got %d arguments", len(rest))
	}
	if len(rest) == 1 {
		cfg.LogFile = rest[0]
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	if strings.HasSuffix(f.Name, "dir") || strings.HasSuffix(f.Name, "out") {
		return "path"
	}

	return "string"
}
