package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// GenConfig holds the options of the synthetic log generator.
type GenConfig struct {
	ConfigFile string        // recorder YAML; empty = $PMU_ANALYZER_CONFIG_FILE
	Session    string        // session name written to every line
	Samples    int           // samples per session
	Stages     int           // stage boundaries per sample
	Delay      time.Duration // mean stage transition delay
	Jitter     float64       // jitter fraction of Delay
	Seed       int64         // jitter seed; 0 = time based
	Check      bool          // run preflight checks only
	PMU        bool          // trace stage transitions with hardware counters

	Verbose   bool
	LogFormat string
}

// DefaultGenConfig returns a GenConfig with sensible defaults.
func DefaultGenConfig() *GenConfig {
	return &GenConfig{
		Session:   "synthetic",
		Samples:   1000,
		Stages:    3,
		Delay:     500 * time.Microsecond,
		Jitter:    0.4,
		LogFormat: "json",
	}
}

// ParseGenArgs parses the generator's command-line arguments.
func ParseGenArgs(args []string, stderr io.Writer) (*GenConfig, error) {
	cfg := DefaultGenConfig()

	fs := flag.NewFlagSet("elapsed-time-gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `elapsed-time-gen - write a synthetic elapsed-time log through the recorder

Usage:
  elapsed-time-gen [flags]

Recorder:
`)
		printFlagCategory(fs, stderr, []string{"config", "session", "check", "pmu"})

		fmt.Fprintf(stderr, "\nWorkload:\n")
		printFlagCategory(fs, stderr, []string{"samples", "stages", "delay", "jitter", "seed"})

		fmt.Fprintf(stderr, "\nObservability:\n")
		printFlagCategory(fs, stderr, []string{"v", "log-format"})

		fmt.Fprintf(stderr, `
Recorder config (YAML):
  log_path: /tmp/elapsed
  max_logs_num:
    elapsed_time: 100000

`)
	}

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Recorder config file (default $"+RecorderConfigEnv+")")
	fs.StringVar(&cfg.Session, "session", cfg.Session, "Session name")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Run preflight checks and exit")
	fs.BoolVar(&cfg.PMU, "pmu", cfg.PMU, "Trace stage transitions with perf counters (writes pmu_log_<pid>)")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "Number of samples")
	fs.IntVar(&cfg.Stages, "stages", cfg.Stages, "Stage boundaries per sample")
	fs.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Mean stage transition delay")
	fs.Float64Var(&cfg.Jitter, "jitter", cfg.Jitter, "Jitter as a fraction of delay (0.4 = ±20%)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Jitter seed (0 = time based)")

	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}
