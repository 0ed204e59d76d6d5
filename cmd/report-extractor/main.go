package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-report-extractor/internal/config"
	"github.com/a3tai/mcp-report-extractor/internal/ledger"
	"github.com/a3tai/mcp-report-extractor/internal/mcp"
	"github.com/a3tai/mcp-report-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, filepath.Base(os.Args[0]), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals. Results go to stdout, logs and
// per-document failures to stderr.
func run(ctx context.Context, program string, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(program, args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitUsage
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := cfg.NewLogger(stderr)
	slog.SetDefault(logger)
	logger.Debug("config.loaded", "config", cfg.String())

	var runs ledger.Ledger = ledger.Discard()
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(ctx, cfg.LedgerPath, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open run ledger: %v\n", err)
			return exitFailed
		}
		defer l.Close()
		runs = l
	}

	svc, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.Directory,
		Workers:     cfg.Workers,
		Ledger:      runs,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create extraction service: %v\n", err)
		return exitFailed
	}

	switch {
	case cfg.ListReports:
		printModes(stdout, svc.ListModes())
		return exitOK
	case cfg.IsStdioMode():
		return runStdioMode(ctx, cfg, svc, stderr)
	default:
		return runCLIMode(ctx, cfg, svc, stdout, stderr)
	}
}

// runStdioMode serves MCP until the client disconnects or a signal arrives.
func runStdioMode(ctx context.Context, cfg *config.Config, svc *pdf.Service, stderr io.Writer) int {
	server, err := mcp.NewServer(cfg, svc)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create MCP server: %v\n", err)
		return exitFailed
	}
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

// runCLIMode extracts every input once. A directory input extracts each PDF
// inside it. Any failed document makes the exit code non-zero.
func runCLIMode(ctx context.Context, cfg *config.Config, svc *pdf.Service, stdout, stderr io.Writer) int {
	if len(cfg.Inputs) > 1 && cfg.Output != "" && !isDir(resolve(cfg.Directory, cfg.Output)) {
		fmt.Fprintln(stderr, "--out must be an existing directory when several inputs are given")
		return exitUsage
	}

	code := exitOK
	// claimed maps each written output (directory plus input stem) to the
	// input that produced it, so a later input cannot replace it.
	claimed := make(map[string]string)
	for _, input := range cfg.Inputs {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, "Interrupted")
			return exitFailed
		}

		if isDir(resolve(cfg.Directory, input)) {
			res, err := svc.ExtractDirectory(ctx, pdf.ReportExtractDirectoryRequest{
				Directory: input,
				Report:    cfg.Report,
				OutputDir: cfg.Output,
				Format:    cfg.Format,
			})
			if err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", input, err)
				code = exitFailed
				continue
			}
			for _, r := range res.Results {
				claimed[outputKey(filepath.Dir(r.Output), r.Source)] = r.Source
				fmt.Fprintln(stdout, r.Message)
			}
			for _, f := range res.Failures {
				fmt.Fprintf(stderr, "%s: %s\n", f.Source, f.Error)
			}
			fmt.Fprintln(stdout, res.Message)
			if len(res.Failures) > 0 {
				code = exitFailed
			}
			continue
		}

		outDir := filepath.Dir(resolve(cfg.Directory, input))
		if cfg.Output != "" {
			outDir = resolve(cfg.Directory, cfg.Output)
		}
		if prev, ok := claimed[outputKey(outDir, input)]; ok {
			fmt.Fprintf(stderr, "%s: output would replace the one written for %s\n", input, prev)
			code = exitFailed
			continue
		}

		res, err := svc.ExtractReport(ctx, pdf.ReportExtractRequest{
			Path:   input,
			Report: cfg.Report,
			Output: cfg.Output,
			Format: cfg.Format,
		})
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", input, err)
			code = exitFailed
			continue
		}
		claimed[outputKey(filepath.Dir(res.Output), input)] = input
		fmt.Fprintln(stdout, res.Message)
		for _, w := range res.Warnings {
			fmt.Fprintf(stderr, "%s: warning: %s\n", input, w)
		}
	}
	return code
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// outputKey identifies the default output of source inside dir. Mode and
// format are fixed for one invocation, so the stem decides the file name.
func outputKey(dir, source string) string {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	base := filepath.Base(source)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base)))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func printModes(w io.Writer, modes []pdf.ModeInfo) {
	for _, m := range modes {
		fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Description)
		for _, c := range m.Columns {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Report Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
