package xlsx

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/packplan/pkg/application/dto"
)

const (
	SummarySheet     = "summary"
	AllocationsSheet = "allocations"
	WeighingSheet    = "weighing"
	GroupsSheet      = "groups"
)

var (
	allocationColumns = []string{"row_key", "id", "parent_id", "region", "supplier_id", "good_id", "good_type",
		"start_time", "end_time", "quantity", "base_quantity", "remaining_quantity", "max_quantity",
		"actual_quantity", "unit_price", "conflict", "over_quantity", "filled", "weight_slip"}
	weighingColumns = []string{"row_key", "id", "code_booking", "region", "supplier_id", "good_id", "good_type",
		"loading_date", "weight", "max_good_weight", "good_price", "coverage_quantity", "coverage_type",
		"container_number", "seal_number", "truck_number", "unloading_port", "allocation_row_key", "saved"}
	groupColumns = []string{"region", "supplier_id", "good_id", "good_type", "start_time", "end_time",
		"total_weight", "current_weight", "remaining_weight", "over_weight", "records"}
)

// ExportSummary writes a workbook with a summary sheet and one sheet per evaluated list.
// Either evaluation may be nil.
func ExportSummary(plan *dto.PlanEvaluation, weighing *dto.WeighingEvaluation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, header: header}

	w.row(SummarySheet, 1, []interface{}{"metric", "plan", "weighing"})
	w.style(SummarySheet, 1, 3)
	summary := [][]interface{}{
		{"total_weight"}, {"total_cost"}, {"price_average"}, {"unit"}, {"can_submit"}, {"violations"},
	}
	if plan != nil {
		s := plan.Summary
		summary[0] = append(summary[0], num(s.TotalWeight))
		summary[1] = append(summary[1], num(s.TotalCost))
		summary[2] = append(summary[2], num(s.PriceAverage))
		summary[3] = append(summary[3], string(s.Unit))
		summary[4] = append(summary[4], s.CanSubmit)
		summary[5] = append(summary[5], len(s.Violations))
	} else {
		for i := range summary {
			summary[i] = append(summary[i], "")
		}
	}
	if weighing != nil {
		s := weighing.Summary
		summary[0] = append(summary[0], num(s.TotalWeight))
		summary[1] = append(summary[1], num(s.TotalCost))
		summary[2] = append(summary[2], num(s.PriceAverage))
		summary[3] = append(summary[3], string(s.Unit))
		summary[4] = append(summary[4], s.CanSubmit)
		summary[5] = append(summary[5], len(s.Violations))
	}
	for i, values := range summary {
		w.row(SummarySheet, i+2, values)
	}

	if plan != nil {
		w.table(AllocationsSheet, allocationColumns, len(plan.Allocations), func(i int) []interface{} {
			a := plan.Allocations[i]
			return []interface{}{a.RowKey.String(), a.ID, a.ParentID, a.Region, a.SupplierID, a.GoodID,
				a.GoodType, a.StartTime, a.EndTime, nullNum(a.Quantity), nullNum(a.BaseQuantity),
				num(a.RemainingQuantity), nullNum(a.MaxQuantity), num(a.ActualQuantity), nullNum(a.UnitPrice),
				a.HasConflict, a.HasOverQuantity, a.IsFilled, a.HasWeightSlip}
		})
	}
	if weighing != nil {
		w.table(WeighingSheet, weighingColumns, len(weighing.Records), func(i int) []interface{} {
			r := weighing.Records[i]
			linked := ""
			if r.AllocationRowKey != nil {
				linked = r.AllocationRowKey.String()
			}
			return []interface{}{r.RowKey.String(), r.ID, r.CodeBooking, r.Region, r.SupplierID, r.GoodID,
				r.GoodType, r.LoadingDate, num(r.Weight), nullNum(r.MaxGoodWeight), nullNum(r.GoodPrice),
				nullNum(r.CoverageQuantity), r.CoverageType, r.ContainerNumber, r.SealNumber, r.TruckNumber,
				r.UnloadingPort, linked, r.Saved}
		})
		w.table(GroupsSheet, groupColumns, len(weighing.Groups), func(i int) []interface{} {
			g := weighing.Groups[i]
			return []interface{}{g.Region, g.SupplierID, g.GoodID, g.GoodType, g.StartTime, g.EndTime,
				num(g.TotalWeight), num(g.CurrentWeight), num(g.RemainingWeight), g.HasOverWeight,
				len(g.RecordRowKeys)}
		})
	}
	if w.err != nil {
		return nil, w.err
	}
	return f, nil
}

// sheetWriter keeps the first error so the table code reads straight through
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) table(sheet string, columns []string, n int, row func(int) []interface{}) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		w.err = err
		return
	}
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	w.row(sheet, 1, header)
	w.style(sheet, 1, len(columns))
	for i := 0; i < n; i++ {
		w.row(sheet, i+2, row(i))
	}
	if last, err := excelize.ColumnNumberToName(len(columns)); err == nil && w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", last, 14)
	}
}

func (w *sheetWriter) row(sheet string, n int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) style(sheet string, n, columns int) {
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(columns, n)
	w.err = w.f.SetCellStyle(sheet, first, last, w.header)
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func nullNum(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}
