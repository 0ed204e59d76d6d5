package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
	"github.com/a3tai/mcp-report-extractor/internal/output"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Log formats
	LogFormatText = "text"
	LogFormatJSON = "json"

	// Default values
	DefaultLogLevel    = "info"
	DefaultWorkers     = 4
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix namespaces environment overrides, e.g. REPORT_EXTRACT_REPORT.
	EnvPrefix = "REPORT_EXTRACT"
)

// ErrVersionRequested is returned by Load when --version was given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the report extractor
type Config struct {
	// Run configuration
	Mode   string // "cli" or "stdio"
	Report string // extraction mode: basic, rearrangement, mutation
	Inputs []string
	Output string
	Format string

	// Sandbox directory for inputs and outputs
	Directory string

	Workers    int
	LedgerPath string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFormat   string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ListReports bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:        ModeCLI,
		Report:      string(extraction.ModeBasic),
		Directory:   currentDir,
		Workers:     DefaultWorkers,
		Version:     "1.0.0",
		ServerName:  "mcp-report-extractor",
		LogLevel:    DefaultLogLevel,
		LogFormat:   LogFormatText,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process arguments and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load builds a configuration from args (without the program name) and
// REPORT_EXTRACT_* environment variables. Flags win over the environment.
// Usage and flag errors are written to stderr.
func Load(program string, args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs, program, stderr)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if showVersion, _ := fs.GetBool("version"); showVersion {
		return nil, ErrVersionRequested
	}

	populateConfigFromViper(v, cfg)
	cfg.ListReports, _ = fs.GetBool("list-reports")
	cfg.Inputs = fs.Args()

	// Expand paths if needed
	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("report", cfg.Report)
	v.SetDefault("out", cfg.Output)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("ledger", cfg.LedgerPath)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("logformat", cfg.LogFormat)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'cli' for a one-shot extraction, 'stdio' for an MCP server on standard I/O")
	fs.StringP("report", "r", cfg.Report, "Extraction mode: basic, rearrangement, mutation")
	fs.StringP("out", "o", cfg.Output, "Output file (single input) or directory (directory input)")
	fs.StringP("format", "f", cfg.Format, "Output format: xlsx, csv, json (default: from --out extension, else xlsx)")
	fs.String("dir", cfg.Directory, "Working directory; inputs and outputs must stay inside it")
	fs.Int("workers", cfg.Workers, "Documents extracted concurrently in a directory run")
	fs.String("ledger", cfg.LedgerPath, "SQLite file recording extraction runs (empty disables)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("logformat", cfg.LogFormat, "Log format (text, json)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Bool("list-reports", false, "List extraction modes and their columns, then exit")
	fs.BoolP("version", "v", false, "Print version and exit")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	for _, name := range []string{
		"mode", "report", "out", "format", "dir", "workers",
		"ledger", "loglevel", "logformat", "maxfilesize",
	} {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, program string, w io.Writer) {
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage of %s:\n", program)
		fmt.Fprintf(w, "\nReport Extractor - extracts structured records from clinical PDF reports\n\n")
		fmt.Fprintf(w, "  %s [options] <report.pdf | directory>...\n\n", program)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s --report=mutation case.pdf                 # writes case_mutation.xlsx\n", program)
		fmt.Fprintf(w, "  %s -r rearrangement -o out.csv case.pdf       # CSV output\n", program)
		fmt.Fprintf(w, "  %s -r basic --workers=8 ./reports             # every PDF in a directory\n", program)
		fmt.Fprintf(w, "  %s --mode=stdio --dir=/data/reports           # MCP server\n", program)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		for _, name := range []string{"MODE", "REPORT", "OUT", "FORMAT", "DIR", "WORKERS", "LEDGER", "LOGLEVEL", "LOGFORMAT", "MAXFILESIZE"} {
			fmt.Fprintf(w, "  %s_%s\n", EnvPrefix, name)
		}
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Report = v.GetString("report")
	cfg.Output = v.GetString("out")
	cfg.Format = v.GetString("format")
	cfg.Directory = v.GetString("dir")
	cfg.Workers = v.GetInt("workers")
	cfg.LedgerPath = v.GetString("ledger")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.LogFormat = strings.ToLower(v.GetString("logformat"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	if _, err := extraction.ParseMode(c.Report); err != nil {
		return err
	}
	if c.Format != "" {
		if _, err := output.ParseFormat(c.Format); err != nil {
			return err
		}
	}

	if c.Directory == "" {
		return errors.New("working directory cannot be empty")
	}

	// Check if the directory exists, create if it doesn't
	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
	}

	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", c.LogFormat)
	}

	if c.Mode == ModeCLI && !c.ListReports && len(c.Inputs) == 0 {
		return errors.New("no input given (pass a PDF file or a directory)")
	}
	return nil
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
}

// NewLogger builds the process logger. Logs never go to stdout, which
// carries the MCP protocol in stdio mode.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Report: %s, Inputs: %v, Output: %s, Format: %s, Directory: %s, "+
		"Workers: %d, Ledger: %s, LogLevel: %s, LogFormat: %s, MaxFileSize: %d}",
		c.Mode, c.Report, c.Inputs, c.Output, c.Format, c.Directory,
		c.Workers, c.LedgerPath, c.LogLevel, c.LogFormat, c.MaxFileSize)
}

// IsStdioMode returns true if the process serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsCLIMode returns true for a one-shot command line run
func (c *Config) IsCLIMode() bool {
	return c.Mode == ModeCLI
}
