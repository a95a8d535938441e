// Package main provides the elapsed-time-gen CLI entry point.
//
// elapsed-time-gen pushes a synthetic workload through the recorder and
// leaves an elapsed-time log that elapsed-time-parser can analyze.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/config"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/logging"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/pmu"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/preflight"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/recorder"
	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/synth"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		arg := args[0]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Fprintf(stdout, "elapsed-time-gen %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseGenArgs(args, stderr)
	if errors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	logger := logging.NewLoggerWithWriter(stderr, cfg.LogFormat, "info", cfg.Verbose)

	recCfg, err := config.LoadRecorderConfig(cfg.ConfigFile)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	checks := preflight.RunAll(recCfg, 1, cfg.PMU)
	if cfg.Check || !checks.Passed {
		preflight.PrintResults(stderr, checks)
	}
	if !checks.Passed {
		return 1
	}
	if cfg.Check {
		return 0
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workload := synth.Workload{
		Samples: cfg.Samples,
		Stages:  cfg.Stages,
		Delay:   cfg.Delay,
		Jitter:  cfg.Jitter,
		Gap:     synth.DefaultWorkload().Gap,
		Seed:    seed,
	}

	clock := recorder.NewManualClock(time.Now())
	rec, err := recorder.New(recCfg, logging.Component(logger, "recorder"), recorder.WithClock(clock.Now))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	session, err := rec.Session(cfg.Session)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var tracer *pmu.Tracer
	var st synth.Tracer
	if cfg.PMU {
		// The counters follow the thread that opened them.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tracer, err = pmu.Open(recCfg, logging.Component(logger, "pmu"))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		st = tracer
	}

	n, err := synth.Generate(session, clock, workload, st)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if tracer != nil {
			tracer.Close()
		}
		return 1
	}
	if err := rec.Close(); err != nil {
		logger.Error("flush_failed", "error", err)
		return 1
	}
	if tracer != nil {
		if err := tracer.Close(); err != nil {
			logger.Error("pmu_flush_failed", "error", err)
			return 1
		}
		logger.Info("pmu_log_written", "path", tracer.Path(), "dropped", tracer.Dropped())
	}

	logger.Info("log_generated",
		"session", cfg.Session,
		"entries", n,
		"dropped", session.Dropped(),
		"seed", seed,
	)
	fmt.Fprintln(stdout, session.ElapsedPath())
	return 0
}
