package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	Writer    io.Writer
}

// Result is what a command hands to the output layer. Either evaluation may be nil.
type Result struct {
	Plan      *dto.PlanEvaluation     `json:"plan,omitempty"`
	Weighing  *dto.WeighingEvaluation `json:"weighing,omitempty"`
	Submitted map[string]int64        `json:"submitted,omitempty"`
}

// Generate creates output in the specified format
func Generate(result Result, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	switch config.Format {
	case "", "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "xlsx":
		return generateXLSXOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateTextOutput(result Result, config Config) error {
	w := config.Writer
	if result.Plan != nil {
		writePlan(w, result.Plan)
	}
	if result.Weighing != nil {
		writeWeighing(w, result.Weighing)
	}
	if len(result.Submitted) > 0 {
		fmt.Fprintf(w, "Submitted: %d rows\n", len(result.Submitted))
	}
	if config.Verbose {
		fmt.Fprintf(w, "Elapsed: %v\n", config.Elapsed)
	}
	return nil
}

func writePlan(w io.Writer, eval *dto.PlanEvaluation) {
	s := eval.Summary
	fmt.Fprintf(w, "Plan Summary\n")
	fmt.Fprintf(w, "============\n\n")
	fmt.Fprintf(w, "Allocations: %d\n", len(eval.Allocations))
	fmt.Fprintf(w, "Total Weight: %s %s\n", s.TotalWeight, s.Unit)
	fmt.Fprintf(w, "Total Cost: %s\n", s.TotalCost.StringFixed(2))
	fmt.Fprintf(w, "Price Average: %s per ton\n", s.PriceAverage.StringFixed(2))
	fmt.Fprintf(w, "Can Submit: %v\n\n", s.CanSubmit)

	if len(eval.Allocations) > 0 {
		fmt.Fprintf(w, "%-6s %-6s %-8s %-8s %-6s %-6s %-23s %-12s %-12s %-6s\n",
			"ID", "Parent", "Region", "Supplier", "Good", "Type", "Window", "Quantity", "Remaining", "Flags")
		fmt.Fprintf(w, "%-6s %-6s %-8s %-8s %-6s %-6s %-23s %-12s %-12s %-6s\n",
			"------", "------", "--------", "--------", "------", "------", "-----------------------",
			"------------", "------------", "------")
		for _, a := range eval.Allocations {
			quantity := "-"
			if a.Quantity.Valid {
				quantity = a.Quantity.Decimal.String()
			}
			fmt.Fprintf(w, "%-6d %-6d %-8s %-8d %-6d %-6s %-23s %-12s %-12s %-6s\n",
				a.ID, a.ParentID, a.Region, a.SupplierID, a.GoodID, a.GoodType,
				a.StartTime+".."+a.EndTime, quantity, a.RemainingQuantity, flags(a.HasConflict, a.HasOverQuantity, a.IsFilled))
		}
		fmt.Fprintln(w)
	}

	for _, g := range eval.OverQuantity {
		fmt.Fprintf(w, "Over quantity: %s\n", g.Message)
	}
	writeViolations(w, s.Violations)
}

func writeWeighing(w io.Writer, eval *dto.WeighingEvaluation) {
	s := eval.Summary
	fmt.Fprintf(w, "Weighing Summary\n")
	fmt.Fprintf(w, "================\n\n")
	fmt.Fprintf(w, "Records: %d\n", len(eval.Records))
	fmt.Fprintf(w, "Total Weight: %s %s\n", s.TotalWeight, s.Unit)
	fmt.Fprintf(w, "Total Cost: %s\n", s.TotalCost.StringFixed(2))
	fmt.Fprintf(w, "Price Average: %s per ton\n", s.PriceAverage.StringFixed(2))
	fmt.Fprintf(w, "Pending: %v\n", s.Pending)
	fmt.Fprintf(w, "Can Submit: %v\n\n", s.CanSubmit)

	if len(eval.Records) > 0 {
		fmt.Fprintf(w, "%-6s %-12s %-8s %-8s %-6s %-11s %-12s %-12s %-6s\n",
			"ID", "Booking", "Region", "Supplier", "Type", "Loading", "Weight", "Ceiling", "Linked")
		fmt.Fprintf(w, "%-6s %-12s %-8s %-8s %-6s %-11s %-12s %-12s %-6s\n",
			"------", "------------", "--------", "--------", "------", "-----------",
			"------------", "------------", "------")
		for _, r := range eval.Records {
			ceiling := "-"
			if r.MaxGoodWeight.Valid {
				ceiling = r.MaxGoodWeight.Decimal.String()
			}
			fmt.Fprintf(w, "%-6d %-12s %-8s %-8d %-6s %-11s %-12s %-12s %-6v\n",
				r.ID, r.CodeBooking, r.Region, r.SupplierID, r.GoodType, r.LoadingDate,
				r.Weight, ceiling, r.AllocationRowKey != nil)
		}
		fmt.Fprintln(w)
	}

	for _, g := range eval.Groups {
		if g.HasOverWeight {
			fmt.Fprintf(w, "Over weight: %s/%d/%d/%s %s..%s weighed %s of %s\n",
				g.Region, g.SupplierID, g.GoodID, g.GoodType, g.StartTime, g.EndTime, g.CurrentWeight, g.TotalWeight)
		}
	}
	writeViolations(w, s.Violations)
}

func writeViolations(w io.Writer, violations []entities.Violation) {
	if len(violations) == 0 {
		return
	}
	fmt.Fprintf(w, "Violations:\n")
	for _, v := range violations {
		fmt.Fprintf(w, "  [%s] %s\n", v.Kind, v.Message)
	}
	fmt.Fprintln(w)
}

// flags renders C (conflict), O (over quantity) and F (filled)
func flags(conflict, overQuantity, filled bool) string {
	out := ""
	for _, f := range []struct {
		set  bool
		mark string
	}{{conflict, "C"}, {overQuantity, "O"}, {filled, "F"}} {
		if f.set {
			out += f.mark
		}
	}
	if out == "" {
		return "-"
	}
	return out
}

func generateJSONOutput(result Result, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.Writer, string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "packplan_results.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "JSON results saved to: %s\n", filename)
	}
	return nil
}

func generateXLSXOutput(result Result, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := xlsx.ExportSummary(result.Plan, result.Weighing)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	filename := filepath.Join(config.OutputDir, "packplan_summary.xlsx")
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "Workbook saved to: %s\n", filename)
	}
	return nil
}
