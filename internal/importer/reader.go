package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidFile marks problems with the uploaded file as a whole, as
// opposed to problems with individual rows.
var ErrInvalidFile = errors.New("invalid import file")

type Row struct {
	Number int
	Cells  []string
}

type Sheet struct {
	Headers []string
	Rows    []Row
}

func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// ReadWorkbook reads the first worksheet with raw cell values, so date cells
// arrive as spreadsheet serial numbers.
func ReadWorkbook(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: unreadable workbook: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return Sheet{}, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFile)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: read sheet %s: %v", ErrInvalidFile, name, err)
	}
	return newSheet(rows)
}

func ReadCSV(r io.Reader) (Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: unreadable csv: %v", ErrInvalidFile, err)
	}
	return newSheet(rows)
}

func ReadFile(r io.Reader, filename string) (Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return Sheet{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidFile, filepath.Ext(filename))
	}
}

func newSheet(rows [][]string) (Sheet, error) {
	if len(rows) == 0 {
		return Sheet{}, fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	sheet := Sheet{Headers: normalizeHeaderRow(rows[0])}
	for i, cells := range rows[1:] {
		sheet.Rows = append(sheet.Rows, Row{Number: i + 2, Cells: cells})
	}
	return sheet, nil
}

func normalizeHeaderRow(row []string) []string {
	headers := make([]string, len(row))
	for i, col := range row {
		headers[i] = strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")
	}
	return headers
}

func (r Row) blank() bool {
	for _, cell := range r.Cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
