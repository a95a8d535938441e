package config

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v2"
)

// RecorderConfigEnv names the environment variable holding the recorder
// configuration path.
const RecorderConfigEnv = "PMU_ANALYZER_CONFIG_FILE"

// RecorderConfig configures the elapsed-time recorder.
//
//	log_path: /tmp/elapsed
//	max_logs_num:
//	  elapsed_time: 100000
//	  pmu: 400
type RecorderConfig struct {
	LogPath    string     `yaml:"log_path"`
	MaxLogsNum MaxLogsNum `yaml:"max_logs_num"`
}

// DefaultPMULogs is the PMU trace capacity when max_logs_num.pmu is unset.
const DefaultPMULogs = 400

// MaxLogsNum holds per-kind log capacities.
type MaxLogsNum struct {
	ElapsedTime int `yaml:"elapsed_time"`
	PMU         int `yaml:"pmu"` // 0 = DefaultPMULogs
}

// PMUCapacity returns the configured PMU trace capacity.
func (m MaxLogsNum) PMUCapacity() int {
	if m.PMU == 0 {
		return DefaultPMULogs
	}
	return m.PMU
}

// LoadRecorderConfig reads a YAML recorder configuration. An empty path
// falls back to $PMU_ANALYZER_CONFIG_FILE.
func LoadRecorderConfig(path string) (*RecorderConfig, error) {
	if path == "" {
		path = os.Getenv(RecorderConfigEnv)
	}
	if path == "" {
		return nil, fmt.Errorf("no recorder config: pass a path or set %s", RecorderConfigEnv)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recorder config: %w", err)
	}

	cfg, err := ParseRecorderConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseRecorderConfig decodes and validates YAML recorder configuration.
// Unknown keys are rejected.
func ParseRecorderConfig(data []byte) (*RecorderConfig, error) {
	var cfg RecorderConfig
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := ValidateRecorder(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRecorder checks a RecorderConfig.
func ValidateRecorder(cfg *RecorderConfig) error {
	var errs []error

	if cfg.LogPath == "" {
		errs = append(errs, ValidationError{
			Field:   "log_path",
			Message: "must not be empty",
		})
	}
	if cfg.MaxLogsNum.ElapsedTime < 1 {
		errs = append(errs, ValidationError{
			Field:   "max_logs_num.elapsed_time",
			Message: fmt.Sprintf("must be at least 1 (got %d)", cfg.MaxLogsNum.ElapsedTime),
		})
	}

	if cfg.MaxLogsNum.PMU < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_logs_num.pmu",
			Message: fmt.Sprintf("must not be negative (got %d)", cfg.MaxLogsNum.PMU),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
