package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-report-extractor/internal/config"
	"github.com/a3tai/mcp-report-extractor/internal/descriptions"
	"github.com/a3tai/mcp-report-extractor/internal/ledger"
	"github.com/a3tai/mcp-report-extractor/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list never changes at runtime
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     slog.Default(),
	}

	s.registerTools()

	return s, nil
}

func reportOption() mcp.ToolOption {
	return mcp.WithString("report",
		mcp.Description("Extraction mode: basic, rearrangement or mutation (default basic)"),
		mcp.Enum("basic", "rearrangement", "mutation"),
	)
}

func formatOption() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format: xlsx, csv or json (default: from the output extension, else xlsx)"),
		mcp.Enum("xlsx", "csv", "json"),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	reportExtractTool := mcp.NewTool(
		"report_extract",
		mcp.WithDescription(descriptions.GetToolDescription("report_extract")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF (relative paths resolve against the working directory)"),
		),
		reportOption(),
		mcp.WithString("output",
			mcp.Description("Output file or existing directory (default: <name>_<report>.<ext> next to the input)"),
		),
		formatOption(),
	)
	s.mcpServer.AddTool(reportExtractTool, s.handleReportExtract)

	reportExtractDirectoryTool := mcp.NewTool(
		"report_extract_directory",
		mcp.WithDescription(descriptions.GetToolDescription("report_extract_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory containing report PDFs (uses the working directory if empty)"),
		),
		reportOption(),
		mcp.WithString("output_dir",
			mcp.Description("Existing directory for the output files (default: the input directory)"),
		),
		formatOption(),
	)
	s.mcpServer.AddTool(reportExtractDirectoryTool, s.handleReportExtractDirectory)

	reportPreviewTool := mcp.NewTool(
		"report_preview",
		mcp.WithDescription(descriptions.GetToolDescription("report_preview")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF"),
		),
		reportOption(),
	)
	s.mcpServer.AddTool(reportPreviewTool, s.handleReportPreview)

	pdfValidateFileTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfValidateFileTool, s.handlePDFValidateFile)

	reportModesTool := mcp.NewTool(
		"report_modes",
		mcp.WithDescription(descriptions.GetToolDescription("report_modes")),
	)
	s.mcpServer.AddTool(reportModesTool, s.handleReportModes)

	reportHistoryTool := mcp.NewTool(
		"report_history",
		mcp.WithDescription(descriptions.GetToolDescription("report_history")),
		mcp.WithNumber("limit",
			mcp.Description("Number of runs to list (default 20)"),
		),
	)
	s.mcpServer.AddTool(reportHistoryTool, s.handleReportHistory)

	reportServerInfoTool := mcp.NewTool(
		"report_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("report_server_info")),
	)
	s.mcpServer.AddTool(reportServerInfoTool, s.handleReportServerInfo)
}

// stringArg returns an optional string argument, or "" when absent.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Handler functions
func (s *Server) handleReportExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := pdf.ReportExtractRequest{
		Path:   path,
		Report: stringArg(args, "report"),
		Output: stringArg(args, "output"),
		Format: stringArg(args, "format"),
	}
	result, err := s.pdfService.ExtractReport(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatReportExtractResult(result)), nil
}

func (s *Server) handleReportExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pdf.ReportExtractDirectoryRequest{
		Directory: stringArg(args, "directory"),
		Report:    stringArg(args, "report"),
		OutputDir: stringArg(args, "output_dir"),
		Format:    stringArg(args, "format"),
	}
	result, err := s.pdfService.ExtractDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatReportExtractDirectoryResult(result)), nil
}

func (s *Server) handleReportPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.ReportPreviewRequest{Path: path, Report: stringArg(request.GetArguments(), "report")}
	result, err := s.pdfService.PreviewReport(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatReportPreviewResult(result)), nil
}

func (s *Server) handlePDFValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFValidateFileRequest{Path: path}
	result, err := s.pdfService.ValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
		if result.Pages > 0 {
			responseText += fmt.Sprintf("\nPages: %d\nVersion: %s", result.Pages, result.Version)
		}
		if result.Message != "" {
			responseText += "\nNote: " + result.Message
		}
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleReportModes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatModes(s.pdfService.ListModes())), nil
}

func (s *Server) handleReportHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if l, ok := request.GetArguments()["limit"].(float64); ok {
		if l < 0 {
			return mcp.NewToolResultError("limit cannot be negative"), nil
		}
		limit = int(l)
	}

	result, err := s.pdfService.History(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatReportHistoryResult(result)), nil
}

func (s *Server) handleReportServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// Formatting methods
func (s *Server) formatReportExtractResult(result *pdf.ReportExtractResult) string {
	text := result.Message + "\n"
	text += fmt.Sprintf("Source: %s\n", result.Source)
	text += fmt.Sprintf("Output: %s\n", result.Output)
	text += fmt.Sprintf("Report: %s\n", result.Report)
	text += fmt.Sprintf("Format: %s\n", result.Format)
	text += fmt.Sprintf("Records: %d\n", result.Records)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Tables matched: %d\n", result.TablesMatched)
	if result.RunID != "" {
		text += fmt.Sprintf("Run ID: %s\n", result.RunID)
	}
	text += formatWarnings(result.Warnings)
	return text
}

func (s *Server) formatReportExtractDirectoryResult(result *pdf.ReportExtractDirectoryResult) string {
	text := result.Message + "\n"
	text += fmt.Sprintf("Batch ID: %s\n", result.BatchID)

	if len(result.Results) > 0 {
		text += "\nExtracted:\n"
		for i, r := range result.Results {
			text += fmt.Sprintf("%d. %s -> %s (%d record(s))\n", i+1, r.Source, r.Output, r.Records)
		}
	}
	if len(result.Failures) > 0 {
		text += "\nFailed:\n"
		for i, f := range result.Failures {
			text += fmt.Sprintf("%d. %s: %s\n", i+1, f.Source, f.Error)
		}
	}
	return text
}

func (s *Server) formatReportPreviewResult(result *pdf.ReportPreviewResult) string {
	text := fmt.Sprintf("Preview of %s (%s)\n", result.Source, result.Report)
	text += fmt.Sprintf("Pages: %d, tables seen: %d, tables matched: %d\n",
		result.Pages, result.TablesSeen, result.TablesMatched)
	text += fmt.Sprintf("Columns: %s\n", strings.Join(result.Labels, ", "))
	if result.Placeholder {
		text += "No result table matched; showing the report's context fields only.\n"
	}

	text += fmt.Sprintf("\nRecords (%d):\n", len(result.Records))
	for i, rec := range result.Records {
		text += fmt.Sprintf("%d.", i+1)
		for j, key := range result.Columns {
			text += fmt.Sprintf(" %s=%s", result.Labels[j], rec[key])
			if j < len(result.Columns)-1 {
				text += ";"
			}
		}
		text += "\n"
	}
	text += formatWarnings(result.Warnings)
	return text
}

func (s *Server) formatModes(modes []pdf.ModeInfo) string {
	text := fmt.Sprintf("Available extraction modes (%d):\n", len(modes))
	for _, m := range modes {
		text += fmt.Sprintf("\n• %s\n", m.Name)
		text += fmt.Sprintf("  %s\n", m.Description)
		text += fmt.Sprintf("  Columns: %s\n", strings.Join(m.Columns, ", "))
	}
	return text
}

func (s *Server) formatReportHistoryResult(result *pdf.ReportHistoryResult) string {
	if result.Count == 0 {
		return "No extraction runs recorded yet"
	}

	text := fmt.Sprintf("Recent extraction runs (%d):\n", result.Count)
	for i, run := range result.Runs {
		text += fmt.Sprintf("\n%d. %s [%s] %s\n", i+1, run.StartedAt.Format("2006-01-02 15:04:05"), run.Status, run.Source)
		text += fmt.Sprintf("   Mode: %s", run.Mode)
		if run.Status == ledger.StatusOK {
			text += fmt.Sprintf(", Records: %d, Output: %s", run.Records, run.Output)
		}
		text += "\n"
		if run.BatchID != nil {
			text += fmt.Sprintf("   Batch: %s\n", run.BatchID)
		}
		if run.Error != "" {
			text += fmt.Sprintf("   Error: %s\n", run.Error)
		}
	}
	return text
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Working Directory: %s\n", s.pdfService.GetConfiguredDirectory())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.pdfService.GetMaxFileSize()/(1024*1024))

	text += "\nModes:\n"
	for _, m := range s.pdfService.ListModes() {
		text += fmt.Sprintf("  • %s: %s\n", m.Name, m.Description)
	}

	text += "\nAvailable Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		text += fmt.Sprintf("  • %s: %s\n", name, summary)
	}
	return text
}

func formatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	text := "\nWarnings:\n"
	for _, w := range warnings {
		text += fmt.Sprintf("  - %s\n", w)
	}
	return text
}

// Run serves MCP over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp.serving", "server", s.config.ServerName, "version", s.config.Version,
		"directory", s.pdfService.GetConfiguredDirectory())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	s.logger.Info("mcp.stopped")
	return nil
}
