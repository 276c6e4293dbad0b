package store

import (
	"fmt"
	"strings"

	"github.com/complaint-register/api/internal/complaint"
)

var recordColumnNames = []string{
	"serial",
	"farmer_name",
	"complaint_brief",
	"material_supply_date",
	"complain_date",
	"solve_date",
	"solve_days",
	"close_date",
	"close_days",
	"complain_type",
	"dealer_name",
	"area_manager",
	"status",
	"solution_description",
	"replacement_received",
	"complain_form",
	"photo",
	"video",
}

// Updates without new uploads keep the stored attachment names.
var attachmentColumns = map[string]bool{
	"complain_form": true,
	"photo":         true,
	"video":         true,
}

var recordColumns = strings.Join(recordColumnNames, ", ")

var sortColumns = map[string]string{
	"serial":              "serial",
	"farmerName":          "farmer_name",
	"complaintBrief":      "complaint_brief",
	"materialSupplyDate":  "material_supply_date",
	"complainDate":        "complain_date",
	"solveDate":           "solve_date",
	"solveDays":           "solve_days",
	"closeDate":           "close_date",
	"closeDays":           "close_days",
	"complainType":        "complain_type",
	"dealerName":          "dealer_name",
	"areaManager":         "area_manager",
	"status":              "status",
	"replacementReceived": "replacement_received",
}

var dateSortFields = map[string]bool{
	"materialSupplyDate": true,
	"complainDate":       true,
	"solveDate":          true,
	"closeDate":          true,
}

// Serials past C9999 gain a digit, so shorter serials sort first.
const serialOrder = "length(serial), serial"

// orderClause builds ORDER BY from the allow-list only. Stored DD-MM-YYYY
// dates are reordered to YYYYMMDD so they sort chronologically.
func orderClause(q complaint.ListQuery) string {
	field := q.SortBy
	column, ok := sortColumns[field]
	if !ok {
		field, column = complaint.DefaultSortField, sortColumns[complaint.DefaultSortField]
	}
	expr := column
	if dateSortFields[field] {
		expr = fmt.Sprintf("substr(%[1]s, 7, 4) || substr(%[1]s, 4, 2) || substr(%[1]s, 1, 2)", column)
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}
	if column == "serial" {
		return fmt.Sprintf(" ORDER BY length(serial) %[1]s, serial %[1]s", direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s", expr, direction, serialOrder)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (complaint.Record, error) {
	var rec complaint.Record
	err := row.Scan(
		&rec.Serial,
		&rec.FarmerName,
		&rec.ComplaintBrief,
		&rec.MaterialSupplyDate,
		&rec.ComplainDate,
		&rec.SolveDate,
		&rec.SolveDays,
		&rec.CloseDate,
		&rec.CloseDays,
		&rec.ComplainType,
		&rec.DealerName,
		&rec.AreaManager,
		&rec.Status,
		&rec.SolutionDescription,
		&rec.ReplacementReceived,
		&rec.ComplainForm,
		&rec.Photo,
		&rec.Video,
	)
	return rec, err
}

func recordArgs(rec complaint.Record) []any {
	return []any{
		rec.Serial,
		rec.FarmerName,
		rec.ComplaintBrief,
		rec.MaterialSupplyDate,
		rec.ComplainDate,
		rec.SolveDate,
		rec.SolveDays,
		rec.CloseDate,
		rec.CloseDays,
		rec.ComplainType,
		rec.DealerName,
		rec.AreaManager,
		rec.Status,
		rec.SolutionDescription,
		rec.ReplacementReceived,
		rec.ComplainForm,
		rec.Photo,
		rec.Video,
	}
}

// placeholders renders n bind parameters starting at start, using $N when
// numbered is set and ? otherwise.
func placeholders(n, start int, numbered bool) string {
	parts := make([]string, n)
	for i := range parts {
		if numbered {
			parts[i] = fmt.Sprintf("$%d", start+i)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// updateSetClause covers every column but serial, which callers bind last.
func updateSetClause(numbered bool) string {
	parts := make([]string, 0, len(recordColumnNames)-1)
	for i, column := range recordColumnNames[1:] {
		param := "?"
		if numbered {
			param = fmt.Sprintf("$%d", i+1)
		}
		if attachmentColumns[column] {
			parts = append(parts, fmt.Sprintf("%s = COALESCE(%s, %s)", column, param, column))
			continue
		}
		parts = append(parts, column+" = "+param)
	}
	return strings.Join(parts, ", ")
}

func updateArgs(rec complaint.Record) []any {
	args := recordArgs(rec)
	return append(args[1:], args[0])
}

func limitOffset(q complaint.ListQuery) (int, int, bool) {
	if q.PageSize <= 0 {
		return 0, 0, false
	}
	return q.PageSize, q.Offset(), true
}
