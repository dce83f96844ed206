package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "log_analysis.xlsx", cfg.Output.Path)
	assert.Equal(t, 512, cfg.BatchSize)
	assert.Contains(t, cfg.Logs, "Application")
	assert.Contains(t, cfg.Logs, "ForwardedEvents")
	assert.Nil(t, cfg.Metrics)
	assert.Nil(t, cfg.Upload)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logs:
  System: /exports/system.jsonl
workers: 4
output:
  path: /reports/out.xlsx
logging:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":9102"
upload:
  s3:
    bucket: reports
    region: eu-west-1
    prefix: evreport/
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"System": "/exports/system.jsonl"}, cfg.Logs)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "/reports/out.xlsx", cfg.Output.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NotNil(t, cfg.Metrics)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	require.NotNil(t, cfg.Upload)
	require.NotNil(t, cfg.Upload.S3)
	assert.Equal(t, "reports", cfg.Upload.S3.Bucket)

	// Settings not present in the file keep their defaults.
	assert.Equal(t, 512, cfg.BatchSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "logs: [not: a: map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(*Config) {},
		},
		{
			name:    "no logs",
			mutate:  func(c *Config) { c.Logs = nil },
			wantErr: "no logs configured",
		},
		{
			name:    "log without path",
			mutate:  func(c *Config) { c.Logs["System"] = "" },
			wantErr: "no source path",
		},
		{
			name:    "empty output path",
			mutate:  func(c *Config) { c.Output.Path = "" },
			wantErr: "output path is empty",
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Workers = -1 },
			wantErr: "workers",
		},
		{
			name:    "metrics enabled without addr",
			mutate:  func(c *Config) { c.Metrics = &MetricsConfig{Enabled: true} },
			wantErr: "no listen address",
		},
		{
			name:    "s3 upload without bucket",
			mutate:  func(c *Config) { c.Upload = &UploadConfig{S3: &S3Config{Region: "us-east-1"}} },
			wantErr: "no bucket",
		},
		{
			name:    "s3 upload without region",
			mutate:  func(c *Config) { c.Upload = &UploadConfig{S3: &S3Config{Bucket: "b"}} },
			wantErr: "no region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
