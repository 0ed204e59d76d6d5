package descriptions

import (
	"sort"
	"testing"
)

func TestGetToolDescription(t *testing.T) {
	for _, name := range GetAllToolNames() {
		if desc := GetToolDescription(name); desc == "" || desc == "Tool description not available" {
			t.Errorf("tool %s has no description", name)
		}
	}
	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("unknown tool should fall back, got %q", got)
	}
}

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	if len(names) != len(ToolDescriptions) {
		t.Fatalf("expected %d names, got %d", len(ToolDescriptions), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names should be sorted: %v", names)
	}
}
