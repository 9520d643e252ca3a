package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SamplesDirEnv overrides output.samplesDir when set.
const SamplesDirEnv = "BENCHMARK_RESULTS_CSV_DIR"

// Default values applied by ApplyDefaults.
const (
	DefaultHistoryPath         = ".settle"
	DefaultBranch              = "main"
	DefaultBenchmarksPerBranch = 50
	DefaultCompareThreshold    = 2.0
)

// LoadConfig loads a configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// The raw document is checked against the embedded schema before decoding.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (*Config, error) {
	var config Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := CheckSchemaJSON(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		if raw != nil {
			if err := CheckSchemaValue(raw); err != nil {
				return nil, err
			}
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &config, nil
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
//
// Returns the parsed duration or an error.
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Try standard Go duration parsing first
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	// Try parsing as integer seconds
	var seconds int
	var rest string
	if n, _ := fmt.Sscanf(s, "%d%s", &seconds, &rest); n == 1 {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ApplyDefaults fills unset history, compare and output settings, and applies
// the samples directory environment override.
func ApplyDefaults(config *Config) {
	if config.History.Provider == "local" && config.History.Path == "" {
		config.History.Path = DefaultHistoryPath
	}
	if config.History.DefaultBranch == "" {
		config.History.DefaultBranch = DefaultBranch
	}
	if config.History.Branch == "" {
		config.History.Branch = config.History.DefaultBranch
	}
	if config.History.BenchmarksPerBranch == 0 {
		config.History.BenchmarksPerBranch = DefaultBenchmarksPerBranch
	}

	if config.Compare.Branch == "" {
		config.Compare.Branch = config.History.DefaultBranch
	}
	if config.Compare.Threshold == 0 {
		config.Compare.Threshold = DefaultCompareThreshold
	}

	if dir := os.Getenv(SamplesDirEnv); dir != "" {
		config.Output.SamplesDir = dir
	}
}
