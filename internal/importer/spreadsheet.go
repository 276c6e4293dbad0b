package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/complaint-register/api/internal/complaint"
)

const workbookSheet = "Complaints"

var sampleRow = map[string]any{
	"farmerName":          "John Doe",
	"complaintBrief":      "Water shortage",
	"materialSupplyDate":  "01-01-2024",
	"complainDate":        "05-01-2024",
	"solveDate":           "10-01-2024",
	"solveDays":           5,
	"closeDate":           "15-01-2024",
	"closeDays":           10,
	"complainType":        "Water Issue",
	"dealerName":          "Dealer A",
	"areaManager":         "Manager X",
	"status":              "Closed",
	"solutionDescription": "Provided water supply.",
	"replacementReceived": complaint.ReplacementPending,
}

var columnWidths = map[string]float64{
	"serial":              10,
	"farmerName":          28,
	"complaintBrief":      40,
	"complainType":        18,
	"dealerName":          20,
	"areaManager":         20,
	"status":              16,
	"solutionDescription": 40,
}

// SampleWorkbook is the import template: the header row plus one example
// row, with Sr. No left empty so a serial is allocated on import.
func SampleWorkbook() (*excelize.File, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for i, column := range complaint.SheetColumns {
		value, ok := sampleRow[column.Field]
		if !ok {
			continue
		}
		if err := setCell(f, i+1, 2, value); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func ExportWorkbook(records []complaint.Record) (*excelize.File, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for r, rec := range records {
		for i, value := range recordValues(rec) {
			if value == nil {
				continue
			}
			if err := setCell(f, i+1, r+2, value); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func WriteCSV(w io.Writer, records []complaint.Record) error {
	writer := csv.NewWriter(w)
	headers := make([]string, len(complaint.SheetColumns))
	for i, column := range complaint.SheetColumns {
		headers[i] = column.Header
	}
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, rec := range records {
		values := recordValues(rec)
		row := make([]string, len(values))
		for i, value := range values {
			if value != nil {
				row[i] = fmt.Sprint(value)
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, column := range complaint.SheetColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(workbookSheet, cell, column.Header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header %s: %w", column.Header, err)
		}
		if err := f.SetCellStyle(workbookSheet, cell, cell, headerStyle); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("style header %s: %w", column.Header, err)
		}
		width, ok := columnWidths[column.Field]
		if !ok {
			width = 16
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(workbookSheet, name, name, width)
	}
	return f, nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(workbookSheet, cell, value); err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	return nil
}

// recordValues follows SheetColumns order; nil marks an empty cell.
func recordValues(rec complaint.Record) []any {
	byField := map[string]any{
		"serial":              rec.Serial,
		"farmerName":          derefString(rec.FarmerName),
		"complaintBrief":      derefString(rec.ComplaintBrief),
		"materialSupplyDate":  derefString(rec.MaterialSupplyDate),
		"complainDate":        derefString(rec.ComplainDate),
		"solveDate":           derefString(rec.SolveDate),
		"solveDays":           derefInt(rec.SolveDays),
		"closeDate":           derefString(rec.CloseDate),
		"closeDays":           derefInt(rec.CloseDays),
		"complainType":        derefString(rec.ComplainType),
		"dealerName":          derefString(rec.DealerName),
		"areaManager":         derefString(rec.AreaManager),
		"status":              derefString(rec.Status),
		"solutionDescription": derefString(rec.SolutionDescription),
		"replacementReceived": derefString(rec.ReplacementReceived),
	}
	values := make([]any, len(complaint.SheetColumns))
	for i, column := range complaint.SheetColumns {
		values[i] = byField[column.Field]
	}
	return values
}

func derefString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func derefInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
