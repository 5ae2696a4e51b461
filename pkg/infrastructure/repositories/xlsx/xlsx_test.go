package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

func matchWorkbook(t *testing.T, withConflicts bool) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", CandidatesSheet); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}
	candidates := [][]interface{}{
		{"code_booking", "shipping_schedule_id", "region", "supplier_id", "good_type", "loading_date", "transport_unit", "container_count"},
		{"BK-1", 11, "N", 7, "A", "2025-01-05", "container", 3},
		{"", "", "", "", "", "", "", ""},
		{"BK-2", 12, "N", 7, "A", "2025-01-06", "truck", 0},
	}
	for i, row := range candidates {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(CandidatesSheet, cell, &row); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}
	if withConflicts {
		if _, err := f.NewSheet(ConflictsSheet); err != nil {
			t.Fatalf("Failed to add sheet: %v", err)
		}
		rows := [][]interface{}{
			{"shipping_schedule_id", "code_booking", "region", "supplier_id", "good_type", "loading_date", "transport_unit", "container_count"},
			{9, "BK-OLD", "N", 7, "A", "2025-01-05", "container", 1},
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(ConflictsSheet, cell, &row); err != nil {
				t.Fatalf("Failed to write row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf
}

func TestReadShipmentMatch(t *testing.T) {
	match, err := ReadShipmentMatch(matchWorkbook(t, true), 3)
	if err != nil {
		t.Fatalf("Failed to read match: %v", err)
	}
	if match.GoodID != 3 {
		t.Errorf("Expected good 3, got %d", match.GoodID)
	}
	if len(match.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(match.Candidates))
	}
	c := match.Candidates[0]
	if c.CodeBooking != "BK-1" || c.ShippingScheduleID != 11 || c.ContainerCount != 3 || c.SupplierID != 7 {
		t.Errorf("Expected first candidate parsed by header name, got %+v", c)
	}
	if len(match.Conflicts) != 1 || match.Conflicts[0].CodeBooking != "BK-OLD" {
		t.Errorf("Expected 1 conflict BK-OLD, got %+v", match.Conflicts)
	}

	converted, err := match.ToMatch()
	if err != nil {
		t.Fatalf("Failed to convert match: %v", err)
	}
	if converted.Candidates[0].LoadingDate.Day() != 5 {
		t.Errorf("Expected loading date parsed, got %v", converted.Candidates[0].LoadingDate)
	}
}

func TestReadShipmentMatch_NoConflictsSheet(t *testing.T) {
	match, err := ReadShipmentMatch(matchWorkbook(t, false), 3)
	if err != nil {
		t.Fatalf("Failed to read match: %v", err)
	}
	if len(match.Conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %d", len(match.Conflicts))
	}
}

func TestReadShipmentMatch_MissingColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetName("Sheet1", CandidatesSheet)
	_ = f.SetCellValue(CandidatesSheet, "A1", "code_booking")
	buf, _ := f.WriteToBuffer()

	if _, err := ReadShipmentMatch(buf, 3); err == nil {
		t.Error("Expected error for missing columns")
	}
}

func TestExportSummary(t *testing.T) {
	rowKey := uuid.New()
	plan := &dto.PlanEvaluation{
		Allocations: []dto.AllocationView{{
			AllocationInput: dto.AllocationInput{
				ID:       1,
				Region:   "N",
				Quantity: entities.NewNullDecimal(decimal.NewFromInt(5000)),
			},
			RowKey: rowKey,
		}},
		Summary: dto.PlanSummaryView{TotalWeight: decimal.NewFromInt(5000), Unit: entities.Kilogram},
	}
	weighing := &dto.WeighingEvaluation{
		Records: []dto.WeighingView{{
			WeighingInput:    dto.WeighingInput{CodeBooking: "BK-1", Weight: decimal.NewFromInt(3000)},
			RowKey:           uuid.New(),
			AllocationRowKey: &rowKey,
		}},
		Groups: []dto.WeightGroupView{{Region: "N", TotalWeight: decimal.NewFromInt(5000)}},
	}

	f, err := ExportSummary(plan, weighing)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	out, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer out.Close()

	for _, sheet := range []string{SummarySheet, AllocationsSheet, WeighingSheet, GroupsSheet} {
		if idx, _ := out.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("Expected sheet %s", sheet)
		}
	}
	got, _ := out.GetCellValue(AllocationsSheet, "A2")
	if got != rowKey.String() {
		t.Errorf("Expected row key %s, got %s", rowKey, got)
	}
	linked, _ := out.GetCellValue(WeighingSheet, "R2")
	if linked != rowKey.String() {
		t.Errorf("Expected linked row key %s, got %s", rowKey, linked)
	}
	total, _ := out.GetCellValue(SummarySheet, "B2")
	if total != "5000" {
		t.Errorf("Expected plan total 5000, got %s", total)
	}
}
