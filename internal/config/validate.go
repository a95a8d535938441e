package config

import (
	"errors"
	"fmt"
	"os"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MaxBins bounds the histogram bin count.
const MaxBins = 10000

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error joining every problem found.
func Validate(cfg *Config) error {
	var errs []error

	// Log file is required
	if cfg.LogFile == "" {
		errs = append(errs, ValidationError{
			Field:   "log_file",
			Message: "log file path is required",
		})
	}

	// Report format must be valid
	validFormats := map[string]bool{"text": true, "table": true, "json": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("must be one of: text, table, json (got %q)", cfg.Format),
		})
	}

	// Percentile method must be valid
	validMethods := map[string]bool{"exact": true, "tdigest": true}
	if !validMethods[cfg.Percentiles] {
		errs = append(errs, ValidationError{
			Field:   "percentiles",
			Message: fmt.Sprintf("must be 'exact' or 'tdigest' (got %q)", cfg.Percentiles),
		})
	}

	// Plot settings only matter when plotting
	if !cfg.NoPlot {
		if cfg.Bins < 1 || cfg.Bins > MaxBins {
			errs = append(errs, ValidationError{
				Field:   "bins",
				Message: fmt.Sprintf("must be between 1 and %d (got %d)", MaxBins, cfg.Bins),
			})
		}

		validPlotFormats := map[string]bool{"pdf": true, "png": true, "svg": true}
		if !validPlotFormats[cfg.PlotFormat] {
			errs = append(errs, ValidationError{
				Field:   "plot_format",
				Message: fmt.Sprintf("must be one of: pdf, png, svg (got %q)", cfg.PlotFormat),
			})
		}

		if err := validateDir(cfg.OutDir); err != nil {
			errs = append(errs, ValidationError{
				Field:   "out_dir",
				Message: err.Error(),
			})
		}
	}

	// Log format must be valid
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateDir checks that dir exists and is a directory.
func validateDir(dir string) error {
	if dir == "" {
		return errors.New("must not be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	return nil
}
