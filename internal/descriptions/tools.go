package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Extraction Tools
	ReportExtractDescription = `Extract structured records from one clinical report PDF and write them to a spreadsheet, CSV or JSON file.

**When to use:** A single finished report needs to be turned into a table of patient and result fields.

**Modes:**
• basic: patient demographics, sample and submission details (one record per report)
• rearrangement: one record per gene rearrangement with its left and right breakpoints
• mutation: one record per variant with gene, transcript, exon, nucleotide and amino-acid change

**Examples:**
• "Extract the mutation table from reports/MX001.pdf" → reports/MX001_mutation.xlsx
• "Extract basic fields from case.pdf as CSV" → format=csv, writes case_basic.csv
• "Write rearrangements of case.pdf to out/fusions.json" → output=out/fusions.json

**Output:** The file is written atomically; a failed run never replaces an existing output. A report without a matching result table still yields one record with the report's context fields.

**Best practices:** Run report_preview first when unsure which mode a report needs, then extract.`

	ReportExtractDirectoryDescription = `Extract every PDF in a directory with the same mode, one output file per report.

**When to use:** A folder of reports from the same panel must be converted in one go.

**Why it's useful:** Documents are processed concurrently, and one broken file never stops the rest. Failures are listed per file with the reason.

**Examples:**
• "Extract basic fields from every report in /data/june" → /data/june/<name>_basic.xlsx for each PDF
• "Convert reports/ to CSV mutation tables in exports/" → output_dir=exports, format=csv

**Common workflows:**
1. Batch intake: report_extract_directory → review failures → re-run single files with report_extract
2. Audit: report_extract_directory → report_history to see every run of the batch

**Best practices:** Only the top level of the directory is scanned; subdirectories are ignored.`

	ReportPreviewDescription = `Show the records a report would produce without writing any file.

**When to use:** Checking which mode fits a report, or verifying field values before exporting.

**Output:** Column labels, each record as label/value pairs, page and table counts, and warnings for fields that were not found.

**Examples:**
• "Preview case.pdf in rearrangement mode"
• "What would the mutation table of MX001.pdf look like?"`

	PDFValidateFileDescription = `Verify that a file is a readable, unencrypted PDF before extracting it.

**When to use:** Before extraction in automated workflows, or when an extraction fails with an unreadable-document error.

**Output:** Validity, page count, PDF version and whether the file is encrypted. Encrypted PDFs cannot be extracted.

**Examples:**
• "Is upload-0412.pdf a usable report?"
• "Check scans/case7.pdf before extracting it"`

	ReportModesDescription = `List the extraction modes with the columns each one produces.

**When to use:** Choosing a mode, or mapping output columns to a downstream schema.

**Example:** "Which columns does the mutation mode write?"`

	ReportHistoryDescription = `List recent extraction runs recorded in the run ledger.

**When to use:** Auditing what was extracted, when, into which file, and why a run failed.

**Output:** Newest runs first, with status (OK, FAILED, RUNNING), record count, output path and error text. Runs of one directory batch share a batch id.

**Example:** "Show the last 20 extraction runs"

**Note:** Only available when the server was started with a ledger file.`

	ReportServerInfoDescription = `Get server information, the working directory, available modes and tools.

**When to use:** At the start of a session to learn where reports are read from and what this server can do.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"report_extract":           ReportExtractDescription,
	"report_extract_directory": ReportExtractDirectoryDescription,
	"report_preview":           ReportPreviewDescription,
	"pdf_validate_file":        PDFValidateFileDescription,
	"report_modes":             ReportModesDescription,
	"report_history":           ReportHistoryDescription,
	"report_server_info":       ReportServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
