// Package xlsx imports shipment matches from and exports session summaries to Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/packplan/pkg/application/dto"
)

const (
	CandidatesSheet = "candidates"
	ConflictsSheet  = "conflicts"
)

var shipmentColumns = []string{"shipping_schedule_id", "code_booking", "region", "supplier_id",
	"good_type", "loading_date", "transport_unit", "container_count"}

// LoadShipmentMatch reads a shipment match workbook from disk
func LoadShipmentMatch(path string, goodID int64) (dto.ShipmentMatchInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dto.ShipmentMatchInput{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return readShipmentMatch(f, goodID)
}

// ReadShipmentMatch reads a shipment match workbook from r
func ReadShipmentMatch(r io.Reader, goodID int64) (dto.ShipmentMatchInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dto.ShipmentMatchInput{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readShipmentMatch(f, goodID)
}

// The candidates sheet is required; a missing conflicts sheet means nothing is replaced.
func readShipmentMatch(f *excelize.File, goodID int64) (dto.ShipmentMatchInput, error) {
	match := dto.ShipmentMatchInput{GoodID: goodID}
	var err error
	if match.Candidates, err = readCandidates(f, CandidatesSheet); err != nil {
		return match, err
	}
	if idx, _ := f.GetSheetIndex(ConflictsSheet); idx >= 0 {
		if match.Conflicts, err = readCandidates(f, ConflictsSheet); err != nil {
			return match, err
		}
	}
	return match, nil
}

func readCandidates(f *excelize.File, sheet string) ([]dto.ShipmentCandidateInput, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header", sheet)
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range shipmentColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("sheet %s: missing column %s", sheet, col)
		}
	}

	var out []dto.ShipmentCandidateInput
	for n, row := range rows[1:] {
		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell("code_booking") == "" && cell("shipping_schedule_id") == "" {
			continue
		}

		c := dto.ShipmentCandidateInput{
			CodeBooking:   cell("code_booking"),
			Region:        cell("region"),
			GoodType:      cell("good_type"),
			LoadingDate:   cell("loading_date"),
			TransportUnit: cell("transport_unit"),
		}
		if c.ShippingScheduleID, err = parseInt(cell("shipping_schedule_id")); err != nil {
			return nil, fmt.Errorf("sheet %s row %d: shipping_schedule_id: %w", sheet, n+2, err)
		}
		if c.SupplierID, err = parseInt(cell("supplier_id")); err != nil {
			return nil, fmt.Errorf("sheet %s row %d: supplier_id: %w", sheet, n+2, err)
		}
		count, err := parseInt(cell("container_count"))
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: container_count: %w", sheet, n+2, err)
		}
		c.ContainerCount = int(count)
		out = append(out, c)
	}
	return out, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
