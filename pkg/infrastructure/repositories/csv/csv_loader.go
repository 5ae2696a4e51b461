package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/domain/entities"
)

var (
	planHeader = []string{"id", "parent_id", "region", "supplier_id", "good_id", "good_type",
		"start_time", "end_time", "quantity", "actual_quantity", "unit_price", "has_weight_slip"}
	weighingHeader = []string{"id", "shipping_schedule_id", "code_booking", "region", "supplier_id",
		"good_id", "good_type", "loading_date", "weight", "coverage_quantity", "coverage_type",
		"transport_unit", "container_number", "seal_number", "truck_number", "unloading_port",
		"unit_price_transport", "saved"}
	catalogHeader = []string{"good_id", "region", "region_label", "supplier_id", "supplier_label",
		"quality", "quality_label"}
)

// Loader reads plan, weighing and catalog data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadPlan loads allocation rows. Children must reference a parent id from the same file.
func (l *Loader) LoadPlan(filename string) ([]dto.AllocationInput, error) {
	records, err := readFile(filename, "plan", planHeader)
	if err != nil {
		return nil, err
	}

	var rows []dto.AllocationInput
	for i, record := range records {
		row, err := parseAllocation(record)
		if err != nil {
			return nil, fmt.Errorf("plan CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadWeighing loads weighing records
func (l *Loader) LoadWeighing(filename string) ([]dto.WeighingInput, error) {
	records, err := readFile(filename, "weighing", weighingHeader)
	if err != nil {
		return nil, err
	}

	var rows []dto.WeighingInput
	for i, record := range records {
		row, err := parseWeighing(record)
		if err != nil {
			return nil, fmt.Errorf("weighing CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadCatalog loads the option lists a commodity key is validated against.
// Each row registers one region, supplier and quality combination.
func (l *Loader) LoadCatalog(filename string) (*entities.Catalog, error) {
	records, err := readFile(filename, "catalog", catalogHeader)
	if err != nil {
		return nil, err
	}

	catalog := entities.NewCatalog()
	seenRegion := make(map[string]bool)
	seenSupplier := make(map[string]bool)
	for i, record := range records {
		good, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: invalid good_id: %s", i+2, record[0])
		}
		supplier, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: invalid supplier_id: %s", i+2, record[3])
		}
		region := entities.Region(record[1])

		if !seenRegion[record[1]] {
			seenRegion[record[1]] = true
			catalog.AddRegion(entities.Option{Value: record[1], Label: record[2]})
		}
		supplierKey := fmt.Sprintf("%d/%s/%d", good, region, supplier)
		if !seenSupplier[supplierKey] {
			seenSupplier[supplierKey] = true
			catalog.AddSupplier(entities.GoodID(good), region, entities.Option{Value: record[3], Label: record[4]})
		}
		catalog.AddQuality(entities.GoodID(good), region, entities.SupplierID(supplier),
			entities.Option{Value: record[5], Label: record[6]})
	}
	return catalog, nil
}

func readFile(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()
	return read(file, kind, expectedHeader)
}

func read(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range actual {
		if strings.TrimSpace(strings.ToLower(col)) != expected[i] {
			return false
		}
	}
	return true
}

func parseAllocation(record []string) (dto.AllocationInput, error) {
	var (
		row dto.AllocationInput
		err error
	)
	if row.ID, err = parseInt(record[0], "id"); err != nil {
		return row, err
	}
	if row.ParentID, err = parseInt(record[1], "parent_id"); err != nil {
		return row, err
	}
	row.Region = record[2]
	if row.SupplierID, err = parseInt(record[3], "supplier_id"); err != nil {
		return row, err
	}
	if row.GoodID, err = parseInt(record[4], "good_id"); err != nil {
		return row, err
	}
	row.GoodType = record[5]
	row.StartTime = record[6]
	row.EndTime = record[7]
	if row.Quantity, err = parseNullDecimal(record[8], "quantity"); err != nil {
		return row, err
	}
	actual, err := parseNullDecimal(record[9], "actual_quantity")
	if err != nil {
		return row, err
	}
	row.ActualQuantity = entities.ValueOrZero(actual)
	if row.UnitPrice, err = parseNullDecimal(record[10], "unit_price"); err != nil {
		return row, err
	}
	if row.HasWeightSlip, err = parseBool(record[11], "has_weight_slip"); err != nil {
		return row, err
	}
	return row, nil
}

func parseWeighing(record []string) (dto.WeighingInput, error) {
	var (
		row dto.WeighingInput
		err error
	)
	if row.ID, err = parseInt(record[0], "id"); err != nil {
		return row, err
	}
	if row.ShippingScheduleID, err = parseInt(record[1], "shipping_schedule_id"); err != nil {
		return row, err
	}
	row.CodeBooking = record[2]
	row.Region = record[3]
	if row.SupplierID, err = parseInt(record[4], "supplier_id"); err != nil {
		return row, err
	}
	if row.GoodID, err = parseInt(record[5], "good_id"); err != nil {
		return row, err
	}
	row.GoodType = record[6]
	row.LoadingDate = record[7]
	weight, err := parseNullDecimal(record[8], "weight")
	if err != nil {
		return row, err
	}
	row.Weight = entities.ValueOrZero(weight)
	if row.CoverageQuantity, err = parseNullDecimal(record[9], "coverage_quantity"); err != nil {
		return row, err
	}
	row.CoverageType = record[10]
	row.TransportUnit = record[11]
	row.ContainerNumber = record[12]
	row.SealNumber = record[13]
	row.TruckNumber = record[14]
	row.UnloadingPort = record[15]
	if row.UnitPriceTransport, err = parseNullDecimal(record[16], "unit_price_transport"); err != nil {
		return row, err
	}
	if row.Saved, err = parseBool(record[17], "saved"); err != nil {
		return row, err
	}
	return row, nil
}

// Empty cells read as zero
func parseInt(s, column string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", column, s)
	}
	return v, nil
}

// Empty cells read as unset
func parseNullDecimal(s, column string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid %s: %s", column, s)
	}
	return entities.NewNullDecimal(d), nil
}

func parseBool(s, column string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	default:
		return false, fmt.Errorf("invalid %s: %s (expected true or false)", column, s)
	}
}
