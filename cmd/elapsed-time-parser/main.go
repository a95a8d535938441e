// Package main provides the elapsed-time-parser CLI entry point.
//
// elapsed-time-parser reads an elapsed-time log, computes the turnaround
// time of every stage transition, prints its 50/90/99th percentiles, and
// renders one figure per transition.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/config"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/elapsedlog"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/figure"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/logging"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/metrics"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/report"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/stats"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/turnaround"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/elapsed-time-parser
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Handle version flag early (before flag parsing)
	if len(args) > 0 {
		arg := args[0]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Fprintf(stdout, "elapsed-time-parser %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseArgs(args, stderr)
	if errors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	logger := logging.NewLoggerWithWriter(stderr, cfg.LogFormat, "info", cfg.Verbose)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	if err := analyze(cfg, stdout, logger); err != nil {
		logger.Error("analysis_failed", "log_file", cfg.LogFile, "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// analyze runs the whole pipeline: parse, difference, summarize, report,
// then the optional figure and metrics outputs.
func analyze(cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	log, err := elapsedlog.ParseFile(cfg.LogFile)
	if err != nil {
		return err
	}
	logger.Debug("log_parsed",
		"session", log.Session,
		"records", log.Records,
		"max_stage", log.MaxStage,
		"stages", log.StageIndices(),
	)

	series, err := turnaround.Compute(log)
	if err != nil {
		return err
	}
	logger.Debug("series_computed",
		"transitions", series.Transitions(),
		"samples", len(series[0]),
	)

	method := stats.Method(cfg.Percentiles)
	summaries := stats.SummarizeAll(method, series)

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	r := report.Report{
		Session:     log.Session,
		Method:      method,
		Transitions: summaries,
	}
	if err := report.Write(stdout, format, r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !cfg.NoPlot {
		plotter, err := figure.New(figure.Options{
			Bins:   cfg.Bins,
			Format: cfg.PlotFormat,
			OutDir: cfg.OutDir,
		}, logging.Component(logger, "figure"))
		if err != nil {
			return err
		}
		paths, err := plotter.WriteAll(log.Session, series)
		if err != nil {
			return err
		}
		logger.Debug("figures_written", "count", len(paths), "out_dir", cfg.OutDir)
	}

	if cfg.MetricsOut != "" {
		exp := metrics.NewExporter(metrics.ExporterConfig{
			Version:   version,
			Session:   log.Session,
			Method:    method,
			Summaries: summaries,
		})
		if err := exp.WriteFile(cfg.MetricsOut); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Debug("metrics_written", "path", cfg.MetricsOut)
	}

	return nil
}
