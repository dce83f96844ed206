package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	// Logs maps an event log name to the path of its exported record file.
	Logs map[string]string `yaml:"logs"`

	// BatchSize is the number of raw records pulled from the source per read.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Workers is the number of goroutines used to normalize a batch.
	// 0 or 1 means fully sequential.
	Workers int `yaml:"workers,omitempty"`

	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
	Upload  *UploadConfig  `yaml:"upload,omitempty"`
}

// OutputConfig defines where the report is written
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// MetricsConfig enables the /metrics endpoint for the duration of a scan
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// UploadConfig defines optional post-write delivery of the report
type UploadConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config holds S3 upload configuration
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Logs: map[string]string{
			"Application":     "exports/application.jsonl",
			"Security":        "exports/security.jsonl",
			"Setup":           "exports/setup.jsonl",
			"System":          "exports/system.jsonl",
			"ForwardedEvents": "exports/forwarded-events.jsonl",
		},
		BatchSize: 512,
		Workers:   1,
		Output: OutputConfig{
			Path: "log_analysis.xlsx",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and validates a configuration file. Settings not present in the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if len(c.Logs) == 0 {
		return fmt.Errorf("no logs configured")
	}
	for name, path := range c.Logs {
		if path == "" {
			return fmt.Errorf("log %q has no source path", name)
		}
	}

	if c.Output.Path == "" {
		return fmt.Errorf("output path is empty")
	}

	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	if c.Metrics != nil && c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics enabled but no listen address set")
	}

	if c.Upload != nil && c.Upload.S3 != nil {
		if c.Upload.S3.Bucket == "" {
			return fmt.Errorf("s3 upload: no bucket specified")
		}
		if c.Upload.S3.Region == "" {
			return fmt.Errorf("s3 upload: no region specified")
		}
	}

	return nil
}
