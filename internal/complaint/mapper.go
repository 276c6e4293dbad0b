package complaint

import (
	"fmt"
	"strings"
)

type DerivedDaysMode string

const (
	// DerivedRecompute computes solve and close days from dates on every path.
	DerivedRecompute DerivedDaysMode = "recompute"
	// DerivedReference recomputes solve days for forms only and trusts
	// spreadsheet day columns as provided.
	DerivedReference DerivedDaysMode = "reference"
)

func ParseDerivedDaysMode(value string) (DerivedDaysMode, error) {
	switch mode := DerivedDaysMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return DerivedRecompute, nil
	case DerivedRecompute, DerivedReference:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown derived days mode %q", value)
	}
}

const (
	maxComplainForms = 1
	maxPhotos        = 5
	maxVideos        = 5
)

// MaxUploads is the per-field upload cap of the complaint form.
var MaxUploads = map[string]int{
	"complainForm": maxComplainForms,
	"photo":        maxPhotos,
	"video":        maxVideos,
}

type SheetColumn struct {
	Header  string
	Field   string
	Aliases []string
}

// SheetColumns is the spreadsheet layout, in template order.
var SheetColumns = []SheetColumn{
	{Header: "Sr. No", Field: "serial", Aliases: []string{"Serial"}},
	{Header: "FARMER NAME / DEALER NAME", Field: "farmerName"},
	{Header: "SHORT BRIEF OF COMPLAINTS", Field: "complaintBrief"},
	{Header: "MATERIAL SUPPLY DATE", Field: "materialSupplyDate"},
	{Header: "COMPLAIN DATE", Field: "complainDate"},
	{Header: "SOLVE DATE", Field: "solveDate"},
	{Header: "SOLVE DAYS", Field: "solveDays"},
	{Header: "CLOSE DATE", Field: "closeDate"},
	{Header: "CLOSE DAYS", Field: "closeDays"},
	{Header: "COMPLAIN TYPE", Field: "complainType"},
	{Header: "DEALER NAME", Field: "dealerName"},
	{Header: "AREA MANAGER", Field: "areaManager"},
	{Header: "SOLUTION STATUS", Field: "status", Aliases: []string{"STATUS"}},
	{Header: "DESCRIPTION FOR SOLUTION", Field: "solutionDescription"},
	{Header: "REPLACEMENT RECEIVED", Field: "replacementReceived"},
}

var sheetFieldsByKey = func() map[string]string {
	fields := map[string]string{}
	for _, column := range SheetColumns {
		fields[NormalizeHeaderKey(column.Header)] = column.Field
		for _, alias := range column.Aliases {
			fields[NormalizeHeaderKey(alias)] = column.Field
		}
	}
	return fields
}()

// SheetField resolves a spreadsheet header to its record field.
func SheetField(header string) (string, bool) {
	field, ok := sheetFieldsByKey[NormalizeHeaderKey(header)]
	return field, ok
}

func SheetHeader(field string) string {
	for _, column := range SheetColumns {
		if column.Field == field {
			return column.Header
		}
	}
	return field
}

func NormalizeHeaderKey(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "", ".", "", "/", "")
	return strings.ToLower(replacer.Replace(strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff")))
}

// Issue is a non-fatal problem found while mapping a spreadsheet row.
type Issue struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	RawValue string `json:"rawValue,omitempty"`
}

type Mapper struct {
	DaysMode      DerivedDaysMode
	InvertedRange InvertedRangePolicy
}

var dateFields = []string{"materialSupplyDate", "complainDate", "solveDate", "closeDate"}

// FromForm maps submitted form values. A non-empty "serial" marks an update
// of that record; otherwise Serial stays empty and is allocated on save.
func (m Mapper) FromForm(values map[string]string, files Attachments) Record {
	rec := m.baseRecord(values, NormalizeDate)
	rec.Serial = strings.TrimSpace(values["serial"])
	rec.ComplainForm = joinNames(files.ComplainForm, maxComplainForms)
	rec.Photo = joinNames(files.Photo, maxPhotos)
	rec.Video = joinNames(files.Video, maxVideos)

	rec.SolveDays = m.derive(rec.ComplainDate, rec.SolveDate)
	if m.DaysMode == DerivedReference {
		rec.CloseDays, _ = parseDays(values["closeDays"])
	} else {
		rec.CloseDays = m.derive(rec.ComplainDate, rec.CloseDate)
	}
	return rec
}

// FromSheetRow maps one spreadsheet row keyed by record field (see SheetField).
func (m Mapper) FromSheetRow(values map[string]string) (Record, []Issue) {
	var issues []Issue
	rec := m.baseRecord(values, NormalizeSheetDate)

	if raw := strings.TrimSpace(values["serial"]); raw != "" {
		serial, ok := NormalizeSheetSerial(raw)
		if ok {
			rec.Serial = serial
		} else {
			issues = append(issues, Issue{Field: "serial", Message: "not a complaint serial; a new serial is allocated", RawValue: raw})
		}
	}

	for _, field := range dateFields {
		raw := strings.TrimSpace(values[field])
		if raw != "" && NormalizeSheetDate(raw) == nil {
			issues = append(issues, Issue{Field: field, Message: "unrecognised date left empty", RawValue: raw})
		}
	}

	if m.DaysMode == DerivedReference {
		for _, field := range []string{"solveDays", "closeDays"} {
			days, ok := parseDays(values[field])
			if !ok {
				issues = append(issues, Issue{Field: field, Message: "day count is not a whole number", RawValue: strings.TrimSpace(values[field])})
			}
			if field == "solveDays" {
				rec.SolveDays = days
			} else {
				rec.CloseDays = days
			}
		}
	} else {
		rec.SolveDays = m.derive(rec.ComplainDate, rec.SolveDate)
		rec.CloseDays = m.derive(rec.ComplainDate, rec.CloseDate)
	}
	return rec, issues
}

func (m Mapper) baseRecord(values map[string]string, date func(string) *string) Record {
	return Record{
		FarmerName:          text(values["farmerName"]),
		ComplaintBrief:      text(values["complaintBrief"]),
		MaterialSupplyDate:  date(values["materialSupplyDate"]),
		ComplainDate:        date(values["complainDate"]),
		SolveDate:           date(values["solveDate"]),
		CloseDate:           date(values["closeDate"]),
		ComplainType:        text(values["complainType"]),
		DealerName:          text(values["dealerName"]),
		AreaManager:         text(values["areaManager"]),
		Status:              text(values["status"]),
		SolutionDescription: text(values["solutionDescription"]),
		ReplacementReceived: text(values["replacementReceived"]),
	}
}

func (m Mapper) derive(from, to *string) *int {
	return m.InvertedRange.Apply(DaysBetween(from, to))
}

func text(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseDays reports ok=false only for a non-empty value that is not a whole number.
func parseDays(value string) (*int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, true
	}
	n, ok := parseWholeNumber(trimmed)
	if !ok {
		return nil, false
	}
	return &n, true
}

func joinNames(names []string, limit int) *string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			kept = append(kept, name)
		}
		if len(kept) == limit {
			break
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return ptr(strings.Join(kept, ","))
}
