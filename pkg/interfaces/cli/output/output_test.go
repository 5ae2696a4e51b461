package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

func testResult() Result {
	return Result{
		Plan: &dto.PlanEvaluation{
			Allocations: []dto.AllocationView{{
				AllocationInput: dto.AllocationInput{ID: 1, Region: "N", Quantity: entities.NewNullDecimal(decimal.NewFromInt(600))},
				HasConflict:     true,
			}},
			Summary: dto.PlanSummaryView{
				TotalWeight: decimal.NewFromInt(600),
				Unit:        entities.Kilogram,
				Violations:  []entities.Violation{{Kind: entities.ViolationConflict, Message: "windows overlap"}},
			},
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(testResult(), Config{Format: "text", Writer: &buf}); err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Plan Summary", "Total Weight: 600 kg", "windows overlap", " C "} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(testResult(), Config{Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if _, ok := decoded["plan"]; !ok {
		t.Error("Expected plan key")
	}
	if _, ok := decoded["weighing"]; ok {
		t.Error("Expected weighing key omitted")
	}
}

func TestGenerate_XLSX(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(testResult(), Config{Format: "xlsx", OutputDir: dir, Writer: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "packplan_summary.xlsx")); err != nil {
		t.Errorf("Expected workbook written: %v", err)
	}

	if err := Generate(testResult(), Config{Format: "xlsx"}); err == nil {
		t.Error("Expected error without output directory")
	}
	if err := Generate(testResult(), Config{Format: "pdf"}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
