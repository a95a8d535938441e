// Package config provides configuration management for go-elapsed-time-analyzer.
package config

// Config holds all configuration options for the analyzer.
type Config struct {
	// Input
	LogFile string `json:"log_file"`

	// Report
	Format      string `json:"format"`      // text, table, json
	Percentiles string `json:"percentiles"` // exact, tdigest

	// Plotting
	NoPlot     bool   `json:"no_plot"`
	Bins       int    `json:"bins"`
	PlotFormat string `json:"plot_format"` // pdf, png, svg
	OutDir     string `json:"out_dir"`

	// Metrics export (Prometheus textfile); empty = disabled
	MetricsOut string `json:"metrics_out"`

	// Observability
	Verbose   bool   `json:"verbose"`
	LogFormat string `json:"log_format"` // json, text
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Report
		Format:      "text",
		Percentiles: "exact",

		// Plotting
		Bins:       50,
		PlotFormat: "pdf",
		OutDir:     ".",

		// Observability
		LogFormat: "json",
	}
}
