package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "cli", cfg.Mode)
	assert.Equal(t, "basic", cfg.Report)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "mcp-report-extractor", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Empty(t, cfg.Format)
	assert.Empty(t, cfg.LedgerPath)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.Directory)
}

func validConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Inputs = []string{"report.pdf"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid cli config", mutate: func(*Config) {}},
		{name: "valid stdio without inputs", mutate: func(c *Config) { c.Mode = ModeStdio; c.Inputs = nil }},
		{name: "list reports needs no input", mutate: func(c *Config) { c.Inputs = nil; c.ListReports = true }},
		{name: "cli without input", mutate: func(c *Config) { c.Inputs = nil }, wantErr: "no input"},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "server" }, wantErr: "mode must be"},
		{name: "invalid report", mutate: func(c *Config) { c.Report = "fusion" }, wantErr: "unknown report mode"},
		{name: "empty report means basic", mutate: func(c *Config) { c.Report = "" }},
		{name: "invalid format", mutate: func(c *Config) { c.Format = "pdf" }, wantErr: "unsupported output format"},
		{name: "valid format", mutate: func(c *Config) { c.Format = "csv" }},
		{name: "empty directory", mutate: func(c *Config) { c.Directory = "" }, wantErr: "cannot be empty"},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "negative file size", mutate: func(c *Config) { c.MaxFileSize = -1 }, wantErr: "file size"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level"},
		{name: "invalid log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidate_CreatesDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.Directory = filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, cfg.Validate())
	assert.DirExists(t, cfg.Directory)
}

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLogLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLogLevel("trace")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = LogFormatJSON

	logger := cfg.NewLogger(&buf)
	logger.Info("extract.ok", "records", 2)
	assert.Zero(t, buf.Len(), "info is below warn")

	logger.Warn("ledger.unavailable", "err", "disk full")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ledger.unavailable", entry["msg"])
	assert.Equal(t, "disk full", entry["err"])

	buf.Reset()
	cfg.LogFormat = LogFormatText
	cfg.LogLevel = "debug"
	cfg.NewLogger(&buf).Debug("pdf.page.read", "page", 1)
	assert.Contains(t, buf.String(), "msg=pdf.page.read")
	assert.Contains(t, buf.String(), "page=1")
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsCLIMode())
	assert.False(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsDebug())

	cfg.Mode = ModeStdio
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsStdioMode())
	assert.True(t, cfg.IsDebug())

	s := cfg.String()
	assert.Contains(t, s, "Mode: stdio")
	assert.Contains(t, s, "Report: basic")
	assert.Contains(t, s, "Workers: 4")
}
